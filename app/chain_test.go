package app

import (
	"context"
	"testing"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/x/utils"
	"github.com/stretchr/testify/assert"
)

// recordingDecorator appends its name to a shared trace when called.
type recordingDecorator struct {
	name  string
	trace *[]string
}

func (d recordingDecorator) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Checker) (*weft.CheckResult, error) {
	*d.trace = append(*d.trace, d.name)
	return next.Check(ctx, db, tx)
}

func (d recordingDecorator) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Deliverer) (*weft.DeliverResult, error) {
	*d.trace = append(*d.trace, d.name)
	return next.Deliver(ctx, db, tx)
}

// panicDecorator panics on every call.
type panicDecorator struct{}

func (panicDecorator) Check(weft.Context, weft.KVStore, weft.Tx, weft.Checker) (*weft.CheckResult, error) {
	panic("check")
}

func (panicDecorator) Deliver(weft.Context, weft.KVStore, weft.Tx, weft.Deliverer) (*weft.DeliverResult, error) {
	panic("deliver")
}

func TestChain(t *testing.T) {
	var trace []string
	var nilDecorator *recordingDecorator
	h := &weftest.Handler{}

	stack := ChainDecorators(
		recordingDecorator{name: "first", trace: &trace},
		nil,
		utils.NewLogging(),
		nilDecorator,
		recordingDecorator{name: "second", trace: &trace},
	).Chain(
		recordingDecorator{name: "third", trace: &trace},
	).WithHandler(h)

	ctx := weft.WithHeight(context.Background(), 4)
	tx := &weftest.Tx{Msg: &weftest.Msg{RoutePath: "test/chain"}}

	_, err := stack.Check(ctx, nil, tx)
	assert.NoError(t, err)
	_, err = stack.Deliver(ctx, nil, tx)
	assert.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third", "first", "second", "third"}, trace)
	assert.Equal(t, 2, h.CallCount())
}

func TestChainRecovery(t *testing.T) {
	h := &weftest.Handler{}
	stack := ChainDecorators(
		utils.NewRecovery(),
		panicDecorator{},
	).WithHandler(h)

	tx := &weftest.Tx{Msg: &weftest.Msg{RoutePath: "test/chain"}}
	_, err := stack.Check(context.Background(), nil, tx)
	assert.True(t, errors.ErrPanic.Is(err))
	_, err = stack.Deliver(context.Background(), nil, tx)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Equal(t, 0, h.CallCount())
}
