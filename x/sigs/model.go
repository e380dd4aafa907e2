package sigs

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/crypto"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

// UserData holds the public key and the current sequence of a signer. It
// is stored under the signer address.
type UserData struct {
	Metadata *weft.Metadata    `json:"metadata"`
	Pubkey   *crypto.PublicKey `json:"pubkey"`
	Sequence int64             `json:"sequence"`
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Marshal() ([]byte, error) {
	return weft.MarshalModel(u)
}

func (u *UserData) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, u)
}

func (u *UserData) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", u.Metadata.Validate())
	if u.Sequence < 0 {
		errs = errors.AppendField(errs, "Sequence", ErrInvalidSequence)
	}
	if u.Pubkey == nil {
		errs = errors.Append(errs, errors.Field("Pubkey", errors.ErrEmpty, "required"))
	}
	return errs
}

// maxSequenceValue is the greatest sequence a javascript client can
// represent, Number.MAX_SAFE_INTEGER.
const maxSequenceValue = (1 << 53) - 1

// CheckAndIncrementSequence increments the sequence if it is equal to the
// expected value. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// NewUserBucket returns a bucket storing UserData under the signer address.
func NewUserBucket() orm.ModelBucket {
	return orm.NewModelBucket("sigs", &UserData{})
}

// RegisterQuery will register this bucket as "/auth"
func RegisterQuery(qr weft.QueryRouter) {
	NewUserBucket().Register("auth", qr)
}
