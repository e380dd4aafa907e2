package sigs

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

const signatureVerifyCost = 500

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ weft.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator, which appends
// the chainID before checking the signature, and requires at least one
// signature to be present.
func NewDecorator() Decorator {
	return Decorator{}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

func (d Decorator) authenticate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (weft.Context, int, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return ctx, 0, nil
	}
	signers, err := VerifyTxSignatures(db, stx, weft.GetChainID(ctx))
	if err != nil {
		return nil, 0, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), len(signers), nil
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Checker) (*weft.CheckResult, error) {
	ctx, n, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res, err := next.Check(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Signature validation is the most expensive operation.
	res.GasAllocated += int64(n * signatureVerifyCost)
	return res, nil
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Deliverer) (*weft.DeliverResult, error) {
	ctx, _, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}
