package randomness

import (
	"encoding/binary"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

const (
	// ProgramName owns all addresses derived by this extension and
	// prefixes every message path.
	ProgramName = "randomness"

	userSeed = "user"
)

// UserRecord holds the last random value delivered for the user.
type UserRecord struct {
	Metadata *weft.Metadata `json:"metadata"`
	User     weft.Address   `json:"user"`
	Data     uint64         `json:"data"`
	Bump     uint32         `json:"bump"`
	// Delegated is set while the record is handed over to a validator.
	Delegated bool         `json:"delegated"`
	Validator weft.Address `json:"validator"`
	// Commits counts the updates committed by the validator.
	Commits uint64 `json:"commits"`
}

var _ orm.Model = (*UserRecord)(nil)

func (u *UserRecord) Marshal() ([]byte, error) {
	return weft.MarshalModel(u)
}

func (u *UserRecord) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, u)
}

func (u *UserRecord) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", u.Metadata.Validate())
	errs = errors.AppendField(errs, "User", u.User.Validate())
	if u.Bump > 255 {
		errs = errors.AppendField(errs, "Bump", errors.ErrInput)
	}
	if u.Delegated {
		errs = errors.AppendField(errs, "Validator", u.Validator.Validate())
	} else if len(u.Validator) != 0 {
		errs = errors.AppendField(errs, "Validator", errors.Wrap(errors.ErrState, "not delegated"))
	}
	return errs
}

func userSeeds(user weft.Address) [][]byte {
	return [][]byte{[]byte(userSeed), user}
}

// FindUserRecordAddress returns the address and the bump of the record of
// given user.
func FindUserRecordAddress(user weft.Address) (weft.Address, uint8, error) {
	return weft.FindDerivedAddress(ProgramName, userSeeds(user)...)
}

// RandomU64 returns the 64 bit value of the randomness: the first eight
// bytes read as little endian.
func RandomU64(randomness []byte) uint64 {
	return binary.LittleEndian.Uint64(randomness[:8])
}

// NewUserBucket returns a bucket storing records under their derived
// address.
func NewUserBucket() orm.ModelBucket {
	return orm.NewModelBucket("userrec", &UserRecord{})
}

// RegisterQuery will register this bucket as "/users"
func RegisterQuery(qr weft.QueryRouter) {
	NewUserBucket().Register("users", qr)
}
