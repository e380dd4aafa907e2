package x

import (
	"context"
	"testing"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
)

func TestConstraints(t *testing.T) {
	signer := weftest.NewCondition()
	other := weftest.NewCondition()
	auth := &weftest.Auth{Signer: signer}
	ctx := context.Background()

	seeds := [][]byte{[]byte("test"), signer.Address()}
	derived, bump, err := weft.FindDerivedAddress("prog", seeds...)
	assert.Nil(t, err)

	cases := map[string]struct {
		Build     func(*Constraints) *Constraints
		WantField string
		WantErr   *errors.Error
	}{
		"all checks pass": {
			Build: func(c *Constraints) *Constraints {
				return c.Signer("Maker", signer.Address()).
					Derived("Escrow", derived, "prog", bump, seeds...).
					Equal("Mint", other.Address(), other.Address()).
					Owner("Vault", derived, derived).
					NotEmpty("Queue", other.Address())
			},
		},
		"missing signature": {
			Build: func(c *Constraints) *Constraints {
				return c.Signer("Maker", other.Address())
			},
			WantField: "Maker",
			WantErr:   errors.ErrConstraint,
		},
		"wrong derivation": {
			Build: func(c *Constraints) *Constraints {
				return c.Derived("Escrow", other.Address(), "prog", bump, seeds...)
			},
			WantField: "Escrow",
			WantErr:   errors.ErrConstraint,
		},
		"wrong program": {
			Build: func(c *Constraints) *Constraints {
				return c.Derived("Escrow", derived, "other", bump, seeds...)
			},
			WantField: "Escrow",
			WantErr:   errors.ErrConstraint,
		},
		"first failure is kept": {
			Build: func(c *Constraints) *Constraints {
				return c.Equal("Mint", signer.Address(), other.Address()).
					Signer("Maker", other.Address())
			},
			WantField: "Mint",
			WantErr:   errors.ErrConstraint,
		},
		"wrong owner": {
			Build: func(c *Constraints) *Constraints {
				return c.Owner("Vault", other.Address(), derived)
			},
			WantField: "Vault",
			WantErr:   errors.ErrConstraint,
		},
		"empty account": {
			Build: func(c *Constraints) *Constraints {
				return c.NotEmpty("Queue", nil)
			},
			WantField: "Queue",
			WantErr:   errors.ErrConstraint,
		},
		"any signer": {
			Build: func(c *Constraints) *Constraints {
				return c.AnySigner("Authority", other.Address(), nil, signer.Address())
			},
		},
		"no signer": {
			Build: func(c *Constraints) *Constraints {
				return c.AnySigner("Authority", other.Address())
			},
			WantField: "Authority",
			WantErr:   errors.ErrConstraint,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.Build(NewConstraints(ctx, auth)).Err()
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				assert.FieldError(t, err, tc.WantField, tc.WantErr)
			}
		})
	}
}

func TestConstraintsAuthority(t *testing.T) {
	seeds := [][]byte{[]byte("queue_authority")}
	addr, bump, err := weft.FindDerivedAddress("prog", seeds...)
	assert.Nil(t, err)

	c := NewConstraints(context.Background(), &weftest.Auth{}).
		Derived("QueueAuthority", addr, "prog", bump, seeds...)
	assert.Nil(t, c.Err())

	a := c.Authority("QueueAuthority")
	if a == nil {
		t.Fatal("authority must be minted")
	}
	assert.Equal(t, addr, a.Address())
	if c.Authority("Other") != nil {
		t.Fatal("authority of an unknown field")
	}

	failed := c.Signer("Maker", addr)
	if failed.Authority("QueueAuthority") != nil {
		t.Fatal("authority must not be returned after a failure")
	}
}
