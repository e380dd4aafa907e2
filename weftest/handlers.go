package weftest

import "github.com/iov-one/weft"

// Handler is a mock implementing weft.Handler that counts its calls.
type Handler struct {
	checkCall   int
	CheckResult weft.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult weft.DeliverResult
	DeliverErr    error
}

var _ weft.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	// Copy to avoid modifications.
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
