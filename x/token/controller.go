package token

import (
	"regexp"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

var isMintName = regexp.MustCompile(`^[A-Za-z0-9_\-]{3,32}$`).MatchString

// Controller provides token operations for handlers of this and other
// extensions. The controller never checks signatures: callers authenticate
// the authority before calling it.
type Controller struct {
	mints    orm.ModelBucket
	accounts orm.ModelBucket
}

// NewController returns a controller using the default buckets.
func NewController() *Controller {
	return &Controller{
		mints:    NewMintBucket(),
		accounts: NewAccountBucket(),
	}
}

// CreateMint stores a new mint with zero supply. ErrDuplicate is returned
// when a mint with the same name exists.
func (c *Controller) CreateMint(db weft.KVStore, name string, decimals uint32, authority weft.Address) (weft.Address, error) {
	addr := MintAddress(name)
	switch err := c.mints.Has(db, addr); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "mint %q", name)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	mint := Mint{
		Metadata:  &weft.Metadata{Schema: 1},
		Name:      name,
		Decimals:  decimals,
		Authority: authority,
	}
	if _, err := c.mints.Put(db, addr, &mint); err != nil {
		return nil, errors.Wrap(err, "cannot store mint")
	}
	return addr, nil
}

// Mint returns the mint stored under given address.
func (c *Controller) Mint(db weft.ReadOnlyKVStore, addr weft.Address) (*Mint, error) {
	var mint Mint
	if err := c.mints.One(db, addr, &mint); err != nil {
		return nil, errors.Wrap(err, "mint")
	}
	return &mint, nil
}

// Account returns the token account stored under given address.
func (c *Controller) Account(db weft.ReadOnlyKVStore, addr weft.Address) (*Account, error) {
	var acc Account
	if err := c.accounts.One(db, addr, &acc); err != nil {
		return nil, errors.Wrap(err, "token account")
	}
	return &acc, nil
}

// Balance returns the amount held by the associated account of the owner.
// ErrNotFound is returned if the account does not exist.
func (c *Controller) Balance(db weft.ReadOnlyKVStore, owner, mint weft.Address) (uint64, error) {
	acc, err := c.Account(db, AssociatedAddress(owner, mint))
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// OpenAccount creates an empty associated account of the owner for given
// mint. ErrDuplicate is returned if the account exists.
func (c *Controller) OpenAccount(db weft.KVStore, owner, mint weft.Address) (weft.Address, error) {
	addr := AssociatedAddress(owner, mint)
	switch err := c.accounts.Has(db, addr); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "token account %s", addr)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if _, err := c.Mint(db, mint); err != nil {
		return nil, err
	}
	acc := Account{
		Metadata: &weft.Metadata{Schema: 1},
		Owner:    owner,
		Mint:     mint,
	}
	if _, err := c.accounts.Put(db, addr, &acc); err != nil {
		return nil, errors.Wrap(err, "cannot store token account")
	}
	return addr, nil
}

// EnsureAccount returns the associated account of the owner, opening it if
// it does not exist yet.
func (c *Controller) EnsureAccount(db weft.KVStore, owner, mint weft.Address) (weft.Address, error) {
	addr := AssociatedAddress(owner, mint)
	switch err := c.accounts.Has(db, addr); {
	case err == nil:
		return addr, nil
	case errors.ErrNotFound.Is(err):
		return c.OpenAccount(db, owner, mint)
	default:
		return nil, err
	}
}

// CloseAccount deletes an empty account. Authority must be the account
// owner.
func (c *Controller) CloseAccount(db weft.KVStore, addr, authority weft.Address) error {
	acc, err := c.Account(db, addr)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(authority) {
		return errors.Field("Authority", errors.ErrConstraint, "account is owned by %s", acc.Owner)
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrState, "account holds %d tokens", acc.Amount)
	}
	return c.accounts.Delete(db, addr)
}

// MintTo issues new tokens to the associated account of the owner, opening
// the account if needed. The caller must authenticate the mint authority.
func (c *Controller) MintTo(db weft.KVStore, mintAddr, owner weft.Address, amount uint64) error {
	mint, err := c.Mint(db, mintAddr)
	if err != nil {
		return err
	}
	supply, ok := add(mint.Supply, amount)
	if !ok {
		return errors.Wrap(errors.ErrOverflow, "supply")
	}
	addr, err := c.EnsureAccount(db, owner, mintAddr)
	if err != nil {
		return err
	}
	acc, err := c.Account(db, addr)
	if err != nil {
		return err
	}
	// Supply bounds every balance, so this cannot overflow.
	acc.Amount += amount
	mint.Supply = supply
	if _, err := c.mints.Put(db, mintAddr, mint); err != nil {
		return errors.Wrap(err, "cannot store mint")
	}
	if _, err := c.accounts.Put(db, addr, acc); err != nil {
		return errors.Wrap(err, "cannot store token account")
	}
	return nil
}

// TransferChecked moves the exact amount between two accounts of the same
// mint. Authority must be the owner of the source account. Decimals must
// match the mint.
func (c *Controller) TransferChecked(db weft.KVStore, from, to, authority, mintAddr weft.Address, amount uint64, decimals uint32) error {
	mint, err := c.Mint(db, mintAddr)
	if err != nil {
		return err
	}
	if mint.Decimals != decimals {
		return errors.Wrapf(errors.ErrDecimals, "mint uses %d decimals, got %d", mint.Decimals, decimals)
	}
	src, err := c.Account(db, from)
	if err != nil {
		return errors.Field("From", err, "source")
	}
	dst, err := c.Account(db, to)
	if err != nil {
		return errors.Field("To", err, "destination")
	}
	if !src.Mint.Equals(mintAddr) {
		return errors.Field("From", errors.ErrConstraint, "account mint is %s", src.Mint)
	}
	if !dst.Mint.Equals(mintAddr) {
		return errors.Field("To", errors.ErrConstraint, "account mint is %s", dst.Mint)
	}
	if !src.Owner.Equals(authority) {
		return errors.Field("Authority", errors.ErrConstraint, "account is owned by %s", src.Owner)
	}
	if src.Amount < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, want %d", src.Amount, amount)
	}
	if from.Equals(to) {
		return nil
	}
	total, ok := add(dst.Amount, amount)
	if !ok {
		return errors.Wrap(errors.ErrOverflow, "destination balance")
	}
	src.Amount -= amount
	dst.Amount = total
	if _, err := c.accounts.Put(db, from, src); err != nil {
		return errors.Wrap(err, "cannot store source")
	}
	if _, err := c.accounts.Put(db, to, dst); err != nil {
		return errors.Wrap(err, "cannot store destination")
	}
	return nil
}

func add(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s >= a
}
