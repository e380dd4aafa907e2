package utils

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Recovery is a decorator that turns a handler panic into an ErrPanic
// error. The panic is logged with the path of the message that caused it,
// so that a transaction stuck in a scheduled task can be traced back to
// its handler.
type Recovery struct{}

var _ weft.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (Recovery) Check(ctx weft.Context, store weft.KVStore, tx weft.Tx, next weft.Checker) (_ *weft.CheckResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (Recovery) Deliver(ctx weft.Context, store weft.KVStore, tx weft.Tx, next weft.Deliverer) (_ *weft.DeliverResult, err error) {
	defer recoverTx(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recoverTx must be deferred directly for recover to see the panic.
func recoverTx(ctx weft.Context, tx weft.Tx, err *error) {
	r := recover()
	if r == nil {
		return
	}
	path := weft.GetPath(tx)
	*err = errors.Wrapf(errors.ErrPanic, "%s: %v", path, r)
	weft.GetLogger(ctx).Error("handler panic", "path", path, "panic", r)
}
