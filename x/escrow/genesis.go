package escrow

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/gconf"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ weft.Initializer = (*Initializer)(nil)

// FromGenesis stores the "escrow" configuration. Without one the default
// configuration is used.
func (Initializer) FromGenesis(opts weft.Options, params weft.GenesisParams, db weft.KVStore) error {
	var conf Configuration
	switch err := gconf.InitConfig(db, opts, "escrow", &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}
