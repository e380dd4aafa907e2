package token

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/x"
)

const (
	createMintCost = 100
	mintToCost     = 50
	transferCost   = 50
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r weft.Registry, auth x.Authenticator, ctrl *Controller) {
	r.Handle(&CreateMintMsg{}, &createMintHandler{auth: auth, ctrl: ctrl})
	r.Handle(&MintToMsg{}, &mintToHandler{auth: auth, ctrl: ctrl})
	r.Handle(&TransferMsg{}, &transferHandler{auth: auth, ctrl: ctrl})
}

type createMintHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *createMintHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: createMintCost}, nil
}

func (h *createMintHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	addr, err := h.ctrl.CreateMint(db, msg.Name, msg.Decimals, msg.Authority)
	if err != nil {
		return nil, err
	}
	return &weft.DeliverResult{Data: addr}, nil
}

func (h *createMintHandler) validate(ctx weft.Context, tx weft.Tx) (*CreateMintMsg, error) {
	var msg CreateMintMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Authority", msg.Authority).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

type mintToHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *mintToHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: mintToCost}, nil
}

func (h *mintToHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.MintTo(db, msg.Mint, msg.Owner, msg.Amount); err != nil {
		return nil, err
	}
	return &weft.DeliverResult{}, nil
}

func (h *mintToHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*MintToMsg, error) {
	var msg MintToMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	mint, err := h.ctrl.Mint(db, msg.Mint)
	if err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Authority", mint.Authority).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

type transferHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *transferHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: transferCost}, nil
}

func (h *transferHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	to, err := h.ctrl.EnsureAccount(db, msg.Destination, msg.Mint)
	if err != nil {
		return nil, err
	}
	from := AssociatedAddress(msg.Source, msg.Mint)
	if err := h.ctrl.TransferChecked(db, from, to, msg.Source, msg.Mint, msg.Amount, msg.Decimals); err != nil {
		return nil, err
	}
	return &weft.DeliverResult{}, nil
}

func (h *transferHandler) validate(ctx weft.Context, tx weft.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Source", msg.Source).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}
