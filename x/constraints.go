package x

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Constraints validates accounts supplied with a message before any state
// transition happens. Checks are evaluated in the order they are declared
// and the first failure is kept. Every failure is an ErrConstraint field
// error naming the offending account.
//
//	c := x.NewConstraints(ctx, auth).
//		Signer("Maker", msg.Maker).
//		Derived("Escrow", msg.Escrow, "escrow", msg.Bump, seeds...)
//	if err := c.Err(); err != nil {
//		return err
//	}
//	authority := c.Authority("Escrow")
type Constraints struct {
	ctx         weft.Context
	auth        Authenticator
	err         error
	authorities map[string]*weft.DerivedAuthority
}

// NewConstraints returns an empty validator. Signer checks use given
// authenticator.
func NewConstraints(ctx weft.Context, auth Authenticator) *Constraints {
	return &Constraints{
		ctx:         ctx,
		auth:        auth,
		authorities: make(map[string]*weft.DerivedAuthority),
	}
}

func (c *Constraints) fail(field, format string, args ...interface{}) *Constraints {
	c.err = errors.Field(field, errors.ErrConstraint, format, args...)
	return c
}

// Signer requires the account to have signed the transaction.
func (c *Constraints) Signer(field string, addr weft.Address) *Constraints {
	if c.err != nil {
		return c
	}
	if err := addr.Validate(); err != nil {
		return c.fail(field, "invalid address: %s", err)
	}
	if !c.auth.HasAddress(c.ctx, addr) {
		return c.fail(field, "signature required for %s", addr)
	}
	return c
}

// AnySigner requires at least one of given accounts to have signed the
// transaction.
func (c *Constraints) AnySigner(field string, addrs ...weft.Address) *Constraints {
	if c.err != nil {
		return c
	}
	for _, a := range addrs {
		if len(a) != 0 && c.auth.HasAddress(c.ctx, a) {
			return c
		}
	}
	return c.fail(field, "signature required")
}

// Derived requires the supplied account to be the address derived by the
// program from given seeds and bump. On success the capability to act as
// this address is available through Authority.
func (c *Constraints) Derived(field string, supplied weft.Address, program string, bump uint8, seeds ...[]byte) *Constraints {
	if c.err != nil {
		return c
	}
	a, err := weft.VerifyDerived(supplied, program, bump, seeds...)
	if err != nil {
		c.err = errors.Field(field, err, "derived address")
		return c
	}
	c.authorities[field] = a
	return c
}

// Equal requires the supplied account to be the expected one.
func (c *Constraints) Equal(field string, supplied, want weft.Address) *Constraints {
	if c.err != nil {
		return c
	}
	if !supplied.Equals(want) {
		return c.fail(field, "want %s, got %s", want, supplied)
	}
	return c
}

// Owner requires the account to be owned by given owner. Use it for
// accounts that are loaded from the state, where owner is the stored value.
func (c *Constraints) Owner(field string, owner, want weft.Address) *Constraints {
	if c.err != nil {
		return c
	}
	if !owner.Equals(want) {
		return c.fail(field, "owned by %s, not %s", owner, want)
	}
	return c
}

// NotEmpty requires an account to be provided.
func (c *Constraints) NotEmpty(field string, addr weft.Address) *Constraints {
	if c.err != nil {
		return c
	}
	if err := addr.Validate(); err != nil {
		return c.fail(field, "%s", err)
	}
	return c
}

// Err returns the first failure or nil.
func (c *Constraints) Err() error {
	return c.err
}

// Authority returns the capability minted by the Derived check of given
// field. It returns nil if that check did not pass.
func (c *Constraints) Authority(field string) *weft.DerivedAuthority {
	if c.err != nil {
		return nil
	}
	return c.authorities[field]
}
