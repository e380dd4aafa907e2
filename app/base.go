package app

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx, CheckTx, and BeginBlock
// handlers to the storage and query functionality of StoreApp
type BaseApp struct {
	*StoreApp
	decoder weft.TxDecoder
	handler weft.Handler
	ticker  weft.Ticker
	metrics *Metrics
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application
func NewBaseApp(
	store *StoreApp,
	decoder weft.TxDecoder,
	handler weft.Handler,
	ticker weft.Ticker,
	debug bool,
) BaseApp {
	return BaseApp{
		StoreApp: store.WithDebug(debug),
		decoder:  decoder,
		handler:  handler,
		ticker:   ticker,
		debug:    debug,
	}
}

// WithMetrics returns a copy of the application that records processed
// transactions and executed tasks.
func (b BaseApp) WithMetrics(m *Metrics) BaseApp {
	b.metrics = m
	return b
}

// DeliverTx - ABCI - dispatches to the handler
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		b.metrics.observeTx("deliver_tx", "(missing)", err)
		return DeliverTxError(err, b.debug)
	}

	path := weft.GetPath(tx)
	ctx := weft.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", path)

	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	b.metrics.observeTx("deliver_tx", path, err)
	return DeliverOrError(res, err, b.debug)
}

// CheckTx - ABCI - dispatches to the handler
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		b.metrics.observeTx("check_tx", "(missing)", err)
		return CheckTxError(err, b.debug)
	}

	path := weft.GetPath(tx)
	ctx := weft.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", path)

	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	b.metrics.observeTx("check_tx", path, err)
	return CheckOrError(res, err, b.debug)
}

// BeginBlock - ABCI
// Sets up the block context and executes all scheduled tasks that are due.
func (b BaseApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	b.StoreApp.BeginBlock(req)

	var response abci.ResponseBeginBlock
	if b.ticker != nil {
		ctx := weft.WithLogInfo(b.BlockContext(), "call", "begin_block")
		tr := b.ticker.Tick(ctx, b.DeliverStore())
		response.Tags = append(response.Tags, tr.Tags...)
		b.metrics.observeTick(req.Header.GetHeight(), len(tr.Executed))
	}
	return response
}

// loadTx calls the decoder, and capture any panics
func (b BaseApp) loadTx(txBytes []byte) (tx weft.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}
