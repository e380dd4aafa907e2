package weftest

import (
	"context"
	"fmt"

	"github.com/iov-one/weft"
)

// Auth is a mock implementing x.Authenticator interface.
//
// It authenticates Signer, every condition of Signers and every address of
// Addresses. Addresses serve the derived authorities, for example the queue
// authority of an executed task, that are authenticated without a condition.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer weft.Condition

	// Signers represents an authentication of multiple signers.
	Signers []weft.Condition

	// Addresses are authenticated, but not returned as conditions.
	Addresses []weft.Address
}

func (a *Auth) GetConditions(weft.Context) []weft.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx weft.Context, addr weft.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	for _, known := range a.Addresses {
		if addr.Equals(known) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convinience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx weft.Context, permissions ...weft.Condition) weft.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

func (a *CtxAuth) GetConditions(ctx weft.Context) []weft.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]weft.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []weft.Condition got %T", ctx.Value(a.Key)))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx weft.Context, addr weft.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
