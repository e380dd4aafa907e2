package oracle

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

// SeedLength is the length of the caller seed.
const SeedLength = 32

// Request asks the oracle for randomness. When fulfilled, the oracle sends
// the message with CallbackPath to CallbackProgram with Accounts attached.
type Request struct {
	Metadata        *weft.Metadata     `json:"metadata"`
	Payer           weft.Address       `json:"payer"`
	Queue           weft.Address       `json:"queue"`
	CallbackProgram string             `json:"callback_program"`
	CallbackPath    string             `json:"callback_path"`
	CallerSeed      []byte             `json:"caller_seed"`
	Accounts        []weft.AccountMeta `json:"accounts"`
	CreatedAt       weft.UnixTime      `json:"created_at"`
}

var _ orm.Model = (*Request)(nil)

func (r *Request) Marshal() ([]byte, error) {
	return weft.MarshalModel(r)
}

func (r *Request) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, r)
}

func (r *Request) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	errs = errors.AppendField(errs, "Payer", r.Payer.Validate())
	errs = errors.AppendField(errs, "Queue", r.Queue.Validate())
	if r.CallbackProgram == "" {
		errs = errors.AppendField(errs, "CallbackProgram", errors.ErrEmpty)
	}
	if r.CallbackPath == "" {
		errs = errors.AppendField(errs, "CallbackPath", errors.ErrEmpty)
	}
	if len(r.CallerSeed) != SeedLength {
		errs = errors.AppendField(errs, "CallerSeed", errors.Wrapf(errors.ErrInput, "must be %d bytes", SeedLength))
	}
	for i, a := range r.Accounts {
		if err := a.Address.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Accounts", err, "account %d", i))
		}
	}
	errs = errors.AppendField(errs, "CreatedAt", r.CreatedAt.Validate())
	return errs
}

// NewRequestBucket returns a bucket storing requests under a sequence ID,
// indexed by the queue.
func NewRequestBucket() orm.ModelBucket {
	return orm.NewModelBucket("vrfreq", &Request{},
		orm.WithIDSequence(orm.NewSequence("vrfreq", "id")),
		orm.WithIndex("queue", queueIndex, false))
}

func queueIndex(m orm.Model) ([]byte, error) {
	r, ok := m.(*Request)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return r.Queue, nil
}

// RegisterQuery will register the requests as "/vrfrequests" and
// "/vrfrequests/queue".
func RegisterQuery(qr weft.QueryRouter) {
	NewRequestBucket().Register("vrfrequests", qr)
}
