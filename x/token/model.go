package token

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

// MaxDecimals is the greatest number of decimals a mint can declare.
const MaxDecimals = 18

// Mint describes a single token type.
type Mint struct {
	Metadata  *weft.Metadata `json:"metadata"`
	Name      string         `json:"name"`
	Decimals  uint32         `json:"decimals"`
	Authority weft.Address   `json:"authority"`
	Supply    uint64         `json:"supply"`
}

var _ orm.Model = (*Mint)(nil)

func (m *Mint) Marshal() ([]byte, error) {
	return weft.MarshalModel(m)
}

func (m *Mint) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, m)
}

func (m *Mint) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isMintName(m.Name) {
		errs = errors.AppendField(errs, "Name", errors.Wrapf(errors.ErrInput, "invalid name %q", m.Name))
	}
	if m.Decimals > MaxDecimals {
		errs = errors.AppendField(errs, "Decimals", errors.ErrDecimals)
	}
	errs = errors.AppendField(errs, "Authority", m.Authority.Validate())
	return errs
}

// Account holds tokens of a single mint for a single owner.
type Account struct {
	Metadata *weft.Metadata `json:"metadata"`
	Owner    weft.Address   `json:"owner"`
	Mint     weft.Address   `json:"mint"`
	Amount   uint64         `json:"amount"`
}

var _ orm.Model = (*Account)(nil)

func (a *Account) Marshal() ([]byte, error) {
	return weft.MarshalModel(a)
}

func (a *Account) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, a)
}

func (a *Account) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", a.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", a.Owner.Validate())
	errs = errors.AppendField(errs, "Mint", a.Mint.Validate())
	return errs
}

// MintAddress returns the address of the mint with given name.
func MintAddress(name string) weft.Address {
	return weft.NewCondition("token", "mint", []byte(name)).Address()
}

// AssociatedAddress returns the address of the account that holds tokens of
// given mint for given owner.
func AssociatedAddress(owner, mint weft.Address) weft.Address {
	data := make([]byte, 0, len(owner)+len(mint))
	data = append(data, owner...)
	data = append(data, mint...)
	return weft.NewCondition("token", "account", data).Address()
}

// NewMintBucket returns a bucket storing mints under their address.
func NewMintBucket() orm.ModelBucket {
	return orm.NewModelBucket("mint", &Mint{})
}

// NewAccountBucket returns a bucket storing token accounts under their
// address. Accounts are indexed by owner.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("tokenacc", &Account{},
		orm.WithIndex("owner", accountOwner, false))
}

func accountOwner(m orm.Model) ([]byte, error) {
	acc, ok := m.(*Account)
	if !ok {
		return nil, errors.WithType(errors.ErrModel, m)
	}
	return acc.Owner, nil
}

// RegisterQuery registers mints under /mints and accounts under /accounts
// and /accounts/owner.
func RegisterQuery(qr weft.QueryRouter) {
	NewMintBucket().Register("mints", qr)
	NewAccountBucket().Register("accounts", qr)
}
