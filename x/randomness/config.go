package randomness

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/gconf"
)

// Configuration of the randomness extension, stored with gconf.
type Configuration struct {
	Metadata *weft.Metadata `json:"metadata"`
	// OracleIdentity is the only address allowed to deliver randomness.
	OracleIdentity weft.Address `json:"oracle_identity"`
	// OracleQueue is the queue requests must be sent to.
	OracleQueue weft.Address `json:"oracle_queue"`
}

var _ gconf.Configuration = (*Configuration)(nil)

func (c *Configuration) Marshal() ([]byte, error) {
	return weft.MarshalModel(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, c)
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "OracleIdentity", c.OracleIdentity.Validate())
	errs = errors.AppendField(errs, "OracleQueue", c.OracleQueue.Validate())
	return errs
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "randomness", &conf); err != nil {
		return nil, errors.Wrap(err, "randomness is not configured")
	}
	return &conf, nil
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ weft.Initializer = (*Initializer)(nil)

// FromGenesis stores the "randomness" configuration if present.
func (Initializer) FromGenesis(opts weft.Options, params weft.GenesisParams, db weft.KVStore) error {
	var conf Configuration
	switch err := gconf.InitConfig(db, opts, "randomness", &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}
