package escrow

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/gconf"
)

const (
	// DefaultRefundDelay is the number of seconds after which a refund
	// is executed.
	DefaultRefundDelay = 10 * 24 * 60 * 60
	// DefaultTaskQueue is the name of the queue refunds are scheduled in.
	DefaultTaskQueue = "escrow"
)

// Configuration of the escrow extension, stored with gconf.
type Configuration struct {
	Metadata *weft.Metadata `json:"metadata"`
	// RefundDelay is the time between the creation of an escrow and its
	// scheduled refund.
	RefundDelay weft.UnixDuration `json:"refund_delay"`
	// TaskQueue is the name of the queue refunds are scheduled in.
	TaskQueue string `json:"task_queue"`
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
	if c.RefundDelay <= 0 {
		errs = errors.AppendField(errs, "RefundDelay", errors.Wrap(errors.ErrInput, "must be positive"))
	}
	if c.TaskQueue == "" {
		errs = errors.AppendField(errs, "TaskQueue", errors.ErrEmpty)
	}
	return errs
}

// DefaultConfiguration is used when no configuration was stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:    &weft.Metadata{Schema: 1},
		RefundDelay: DefaultRefundDelay,
		TaskQueue:   DefaultTaskQueue,
	}
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	conf := DefaultConfiguration()
	switch err := gconf.Load(db, "escrow", &conf); {
	case err == nil, errors.ErrNotFound.Is(err):
		return &conf, nil
	default:
		return nil, errors.Wrap(err, "load configuration")
	}
}
