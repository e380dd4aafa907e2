package x

import (
	"github.com/iov-one/weft"
)

// Authenticator extracts authentication info from the context. Handlers
// receive it in their constructor so that any authentication scheme (tx
// signatures, scheduled task authority) can be plugged in.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	// you may want GetAddresses helper
	GetConditions(weft.Context) []weft.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(weft.Context, weft.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators. A
// condition granted by more than one authenticator is returned once.
func (m MultiAuth) GetConditions(ctx weft.Context) []weft.Condition {
	var res []weft.Condition
	for _, impl := range m.impls {
		for _, c := range impl.GetConditions(ctx) {
			if !hasCondition(res, c) {
				res = append(res, c)
			}
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx weft.Context, addr weft.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses wraps the GetConditions method of any Authenticator
func GetAddresses(ctx weft.Context, auth Authenticator) []weft.Address {
	conds := auth.GetConditions(ctx)
	addrs := make([]weft.Address, len(conds))
	for i, c := range conds {
		addrs[i] = c.Address()
	}
	return addrs
}

// MainSigner returns the first condition if any, otherwise nil
func MainSigner(ctx weft.Context, auth Authenticator) weft.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx weft.Context, auth Authenticator, required []weft.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// FindCondition returns the condition fulfilled in the context that
// produces given address, or nil.
func FindCondition(ctx weft.Context, auth Authenticator, addr weft.Address) weft.Condition {
	for _, c := range auth.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return c
		}
	}
	return nil
}

func hasCondition(conds []weft.Condition, c weft.Condition) bool {
	for _, p := range conds {
		if p.Equals(c) {
			return true
		}
	}
	return false
}
