package cron

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x"
)

const (
	createQueueCost  = 100
	addAuthorityCost = 20
	queueTaskCost    = 50
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r weft.Registry, auth x.Authenticator, s *Scheduler) {
	r.Handle(&CreateQueueMsg{}, &createQueueHandler{auth: auth, s: s})
	r.Handle(&AddAuthorityMsg{}, &addAuthorityHandler{auth: auth, s: s})
	r.Handle(&QueueTaskMsg{}, &queueTaskHandler{auth: auth, s: s})
}

type createQueueHandler struct {
	auth x.Authenticator
	s    *Scheduler
}

func (h *createQueueHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: createQueueCost}, nil
}

func (h *createQueueHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	q := TaskQueue{
		Metadata:    &weft.Metadata{Schema: 1},
		Name:        msg.Name,
		Admin:       msg.Admin,
		Authorities: msg.Authorities,
		Capacity:    msg.Capacity,
	}
	if err := h.s.CreateQueue(db, &q); err != nil {
		return nil, err
	}
	return &weft.DeliverResult{Data: []byte(q.Name)}, nil
}

func (h *createQueueHandler) validate(ctx weft.Context, tx weft.Tx) (*CreateQueueMsg, error) {
	var msg CreateQueueMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Admin", msg.Admin).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

type addAuthorityHandler struct {
	auth x.Authenticator
	s    *Scheduler
}

func (h *addAuthorityHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: addAuthorityCost}, nil
}

func (h *addAuthorityHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.s.AddAuthority(db, msg.Queue, msg.Authority); err != nil {
		return nil, err
	}
	return &weft.DeliverResult{}, nil
}

func (h *addAuthorityHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*AddAuthorityMsg, error) {
	var msg AddAuthorityMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	q, err := h.s.Queue(db, msg.Queue)
	if err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Admin", q.Admin).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

type queueTaskHandler struct {
	auth x.Authenticator
	s    *Scheduler
}

func (h *queueTaskHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: queueTaskCost}, nil
}

func (h *queueTaskHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	task, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	key, err := h.s.QueueTask(ctx, db, task)
	if err != nil {
		return nil, err
	}
	return &weft.DeliverResult{Data: key}, nil
}

// validate returns the task described by the message. The task is
// authenticated with the signature of the authority only.
func (h *queueTaskHandler) validate(ctx weft.Context, tx weft.Tx) (*Task, error) {
	var msg QueueTaskMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if err := x.NewConstraints(ctx, h.auth).Signer("Authority", msg.Authority).Err(); err != nil {
		return nil, err
	}
	cond := x.FindCondition(ctx, h.auth, msg.Authority)
	if cond == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "authority condition")
	}
	return &Task{
		Metadata:    &weft.Metadata{Schema: 1},
		Queue:       msg.Queue,
		ID:          msg.ID,
		Trigger:     msg.Trigger,
		Transaction: msg.Transaction,
		Description: msg.Description,
		QueuedBy:    msg.Authority,
		Auth:        []weft.Condition{cond},
	}, nil
}
