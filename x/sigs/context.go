package sigs

import (
	"context"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/x"
)

type contextKey int

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx weft.Context, signers []weft.Condition) weft.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate implements x.Authenticator for transaction signers.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticate) GetConditions(ctx weft.Context) []weft.Condition {
	val, _ := ctx.Value(contextKeySigners).([]weft.Condition)
	return val
}

// HasAddress returns true iff this address signed the transaction.
func (a Authenticate) HasAddress(ctx weft.Context, addr weft.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
