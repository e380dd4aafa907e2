package escrow

import (
	"fmt"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
	"github.com/iov-one/weft/x"
	"github.com/iov-one/weft/x/token"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	makeEscrowCost   int64 = 300
	takeEscrowCost   int64 = 100
	refundEscrowCost int64 = 0
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Refunds are queued with given scheduler.
func RegisterRoutes(r weft.Registry, auth x.Authenticator, tokens *token.Controller, scheduler weft.Scheduler) {
	bucket := NewBucket()
	r.Handle(&MakeMsg{}, &MakeHandler{auth: auth, bucket: bucket, tokens: tokens, scheduler: scheduler})
	r.Handle(&TakeMsg{}, &TakeHandler{auth: auth, bucket: bucket, tokens: tokens})
	r.Handle(&RefundMsg{}, &RefundHandler{auth: auth, bucket: bucket, tokens: tokens})
}

// MakeHandler creates an escrow, fills its vault and queues the refund.
type MakeHandler struct {
	auth      x.Authenticator
	bucket    orm.ModelBucket
	tokens    *token.Controller
	scheduler weft.Scheduler
}

var _ weft.Handler = (*MakeHandler)(nil)

// Check verifies the accounts and returns the cost of executing it.
func (h *MakeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: makeEscrowCost}, nil
}

// Deliver stores the escrow and moves the deposit into the vault.
func (h *MakeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	msg := v.msg
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	now, err := weft.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	escrow := &Escrow{
		Metadata:  &weft.Metadata{Schema: 1},
		Seed:      msg.Seed,
		Maker:     msg.Maker,
		MintA:     msg.MintA,
		MintB:     msg.MintB,
		Receive:   msg.Receive,
		Expiry:    msg.Expiry,
		CreatedAt: weft.AsUnixTime(now),
		Bump:      msg.EscrowBump,
		Address:   msg.Escrow,
		TaskID:    msg.TaskID,
	}
	if _, err := h.bucket.Put(db, escrow.Address, escrow); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}

	// The vault is owned by the escrow and exists as long as the escrow
	// does.
	vault, err := h.tokens.OpenAccount(db, escrow.Address, escrow.MintA)
	if err != nil {
		return nil, errors.Field("Vault", err, "open")
	}
	from := token.AssociatedAddress(msg.Maker, msg.MintA)
	if err := h.tokens.TransferChecked(db, from, vault, msg.Maker, msg.MintA, msg.Deposit, v.mintA.Decimals); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	runAt := escrow.CreatedAt.Add(conf.RefundDelay.Duration())
	if err := h.scheduleRefund(ctx, db, conf, escrow, vault, v.queueAuthority, runAt); err != nil {
		return nil, err
	}

	weft.GetLogger(ctx).Info("escrow created",
		"escrow", escrow.Address, "maker", escrow.Maker, "deposit", msg.Deposit, "refund_at", runAt)
	return &weft.DeliverResult{
		Data: escrow.Address,
		Tags: []common.KVPair{tag(escrow.Address)},
	}, nil
}

// scheduleRefund queues the refund of given escrow. The task is authorized
// by the queue authority, which is also the only signer of the compiled
// refund instruction.
func (h *MakeHandler) scheduleRefund(
	ctx weft.Context,
	db weft.KVStore,
	conf *Configuration,
	escrow *Escrow,
	vault weft.Address,
	authority *weft.DerivedAuthority,
	runAt weft.UnixTime,
) error {
	refund := &RefundMsg{
		Metadata: &weft.Metadata{Schema: 1},
		Maker:    escrow.Maker,
		Escrow:   escrow.Address,
		TaskID:   escrow.TaskID,
	}
	ins, err := weft.NewInstruction(ProgramName, refund,
		weft.AccountMeta{Address: escrow.Maker, Writable: true},
		weft.AccountMeta{Address: escrow.MintA},
		weft.AccountMeta{Address: token.AssociatedAddress(escrow.Maker, escrow.MintA), Writable: true},
		weft.AccountMeta{Address: escrow.Address, Writable: true},
		weft.AccountMeta{Address: vault, Writable: true},
		weft.AccountMeta{Address: authority.Address(), Signer: true},
	)
	if err != nil {
		return errors.Wrap(err, "refund instruction")
	}
	task := weft.QueuedTask{
		Queue:       conf.TaskQueue,
		ID:          escrow.TaskID,
		Trigger:     weft.TriggerAt(runAt),
		Transaction: weft.CompiledTransaction{Instructions: []weft.Instruction{ins}},
		Description: refundDescription(conf.RefundDelay),
		Authority:   authority,
	}
	if _, err := h.scheduler.Schedule(ctx, db, task); err != nil {
		return errors.Wrap(err, "schedule refund")
	}
	weft.GetLogger(ctx).Debug("refund scheduled",
		"escrow", escrow.Address, "queue", conf.TaskQueue, "task", escrow.TaskID, "run_at", runAt)
	return nil
}

func refundDescription(delay weft.UnixDuration) string {
	const day = 24 * 60 * 60
	if secs := int64(delay); secs%day == 0 {
		return fmt.Sprintf("Refund escrow after %d days", secs/day)
	}
	return fmt.Sprintf("Refund escrow after %d seconds", int64(delay))
}

type makeValidation struct {
	msg            *MakeMsg
	mintA          *token.Mint
	queueAuthority *weft.DerivedAuthority
}

// validate does all common pre-processing between Check and Deliver.
func (h *MakeHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*makeValidation, error) {
	var msg MakeMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	c := x.NewConstraints(ctx, h.auth).
		Signer("Maker", msg.Maker).
		Derived("Escrow", msg.Escrow, ProgramName, uint8(msg.EscrowBump), escrowSeeds(msg.Maker, msg.Seed)...).
		Equal("Vault", msg.Vault, token.AssociatedAddress(msg.Escrow, msg.MintA)).
		Derived("QueueAuthority", msg.QueueAuthority, ProgramName, uint8(msg.QueueAuthorityBump), []byte(queueAuthoritySeed))
	if err := c.Err(); err != nil {
		return nil, err
	}

	if weft.IsExpired(ctx, msg.Expiry) {
		return nil, errors.Field("Expiry", errors.ErrInput, "expiry in the past")
	}

	switch err := h.bucket.Has(db, msg.Escrow); {
	case err == nil:
		return nil, errors.Field("Escrow", errors.ErrDuplicate, "escrow %s already initialized", msg.Escrow)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	mintA, err := h.tokens.Mint(db, msg.MintA)
	if err != nil {
		return nil, errors.Field("MintA", err, "")
	}
	if _, err := h.tokens.Mint(db, msg.MintB); err != nil {
		return nil, errors.Field("MintB", err, "")
	}
	return &makeValidation{
		msg:            &msg,
		mintA:          mintA,
		queueAuthority: c.Authority("QueueAuthority"),
	}, nil
}

// TakeHandler closes an escrow by exchanging the tokens.
type TakeHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	tokens *token.Controller
}

var _ weft.Handler = (*TakeHandler)(nil)

// Check verifies the escrow can be taken and returns the cost of
// executing it.
func (h *TakeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: takeEscrowCost}, nil
}

// Deliver pays the maker, releases the vault to the taker and closes the
// escrow.
func (h *TakeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, escrow, authority, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	mintB, err := h.tokens.Mint(db, escrow.MintB)
	if err != nil {
		return nil, err
	}
	makerB, err := h.tokens.EnsureAccount(db, escrow.Maker, escrow.MintB)
	if err != nil {
		return nil, err
	}
	takerB := token.AssociatedAddress(msg.Taker, escrow.MintB)
	if err := h.tokens.TransferChecked(db, takerB, makerB, msg.Taker, escrow.MintB, escrow.Receive, mintB.Decimals); err != nil {
		return nil, errors.Wrap(err, "pay maker")
	}

	takerA, err := h.tokens.EnsureAccount(db, msg.Taker, escrow.MintA)
	if err != nil {
		return nil, err
	}
	amount, err := closeEscrow(db, h.bucket, h.tokens, escrow, authority, takerA)
	if err != nil {
		return nil, err
	}

	weft.GetLogger(ctx).Info("escrow taken",
		"escrow", escrow.Address, "taker", msg.Taker, "received", amount, "paid", escrow.Receive)
	return &weft.DeliverResult{Tags: []common.KVPair{tag(escrow.Address)}}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h *TakeHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*TakeMsg, *Escrow, *weft.DerivedAuthority, error) {
	var msg TakeMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.bucket.One(db, msg.Escrow, &escrow); err != nil {
		return nil, nil, nil, errors.Field("Escrow", err, "cannot load escrow")
	}

	c := x.NewConstraints(ctx, h.auth).
		Signer("Taker", msg.Taker).
		Derived("Escrow", msg.Escrow, ProgramName, uint8(escrow.Bump), escrow.seeds()...)
	if err := c.Err(); err != nil {
		return nil, nil, nil, err
	}
	if weft.IsExpired(ctx, escrow.Expiry) {
		return nil, nil, nil, errors.Wrapf(errors.ErrExpired, "escrow expired at %s", escrow.Expiry)
	}
	return &msg, &escrow, c.Authority("Escrow"), nil
}

// RefundHandler returns the deposit to the maker and closes the escrow.
type RefundHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	tokens *token.Controller
}

var _ weft.Handler = (*RefundHandler)(nil)

// Check verifies the escrow can be refunded and returns the cost of
// executing it.
func (h *RefundHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: refundEscrowCost}, nil
}

// Deliver moves the vault balance back to the maker and closes the escrow.
func (h *RefundHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	escrow, authority, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	makerA, err := h.tokens.EnsureAccount(db, escrow.Maker, escrow.MintA)
	if err != nil {
		return nil, err
	}
	amount, err := closeEscrow(db, h.bucket, h.tokens, escrow, authority, makerA)
	if err != nil {
		return nil, err
	}
	weft.GetLogger(ctx).Info("escrow refunded",
		"escrow", escrow.Address, "maker", escrow.Maker, "amount", amount)
	return &weft.DeliverResult{Tags: []common.KVPair{tag(escrow.Address)}}, nil
}

// validate does all common pre-processing between Check and Deliver.
// Either the maker or the queue authority must sign.
func (h *RefundHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*Escrow, *weft.DerivedAuthority, error) {
	var msg RefundMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.bucket.One(db, msg.Escrow, &escrow); err != nil {
		return nil, nil, errors.Field("Escrow", err, "cannot load escrow")
	}
	queueAuthority, _, err := FindQueueAuthority()
	if err != nil {
		return nil, nil, errors.Wrap(err, "queue authority")
	}

	c := x.NewConstraints(ctx, h.auth).
		Owner("Maker", escrow.Maker, msg.Maker).
		AnySigner("Maker", escrow.Maker, queueAuthority).
		Derived("Escrow", msg.Escrow, ProgramName, uint8(escrow.Bump), escrow.seeds()...)
	if err := c.Err(); err != nil {
		return nil, nil, err
	}
	// A refund task outlives the escrow it was queued for. Once the address
	// is reused, only the task recorded by the new escrow may refund it.
	if !h.auth.HasAddress(ctx, escrow.Maker) && msg.TaskID != escrow.TaskID {
		return nil, nil, errors.Field("TaskID", errors.ErrConstraint,
			"task %d does not belong to escrow, want %d", msg.TaskID, escrow.TaskID)
	}
	return &escrow, c.Authority("Escrow"), nil
}

// closeEscrow empties the vault into given account, closes the vault and
// deletes the escrow. It returns the released amount.
func closeEscrow(
	db weft.KVStore,
	bucket orm.ModelBucket,
	tokens *token.Controller,
	escrow *Escrow,
	authority *weft.DerivedAuthority,
	to weft.Address,
) (uint64, error) {
	mintA, err := tokens.Mint(db, escrow.MintA)
	if err != nil {
		return 0, err
	}
	vault := token.AssociatedAddress(escrow.Address, escrow.MintA)
	acc, err := tokens.Account(db, vault)
	if err != nil {
		return 0, errors.Field("Vault", err, "")
	}
	amount := acc.Amount
	if err := tokens.TransferChecked(db, vault, to, authority.Address(), escrow.MintA, amount, mintA.Decimals); err != nil {
		return 0, errors.Wrap(err, "release vault")
	}
	if err := tokens.CloseAccount(db, vault, authority.Address()); err != nil {
		return 0, errors.Wrap(err, "close vault")
	}
	if err := bucket.Delete(db, escrow.Address); err != nil {
		return 0, errors.Wrap(err, "cannot delete escrow")
	}
	return amount, nil
}

func tag(escrow weft.Address) common.KVPair {
	return common.KVPair{Key: []byte("escrow"), Value: []byte(escrow.String())}
}
