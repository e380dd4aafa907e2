package cron

import (
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
)

type testRouter map[string]weft.Handler

func (r testRouter) Handle(m weft.Msg, h weft.Handler) { r[m.Path()] = h }

func TestQueueHandlers(t *testing.T) {
	now := time.Now()
	db := store.MemStore()
	auth := &weftest.CtxAuth{Key: "auth"}
	s := NewScheduler()
	r := make(testRouter)
	RegisterRoutes(r, auth, s)

	admin := weftest.NewCondition()
	author := weftest.NewCondition()
	stranger := weftest.NewCondition()
	meta := &weft.Metadata{Schema: 1}

	deliver := func(signer weft.Condition, msg weft.Msg) (*weft.DeliverResult, error) {
		t.Helper()
		ctx := auth.SetConditions(weftest.BlockContext(3, now), signer)
		tx := &weftest.Tx{Msg: msg}
		if _, err := r[msg.Path()].Check(ctx, db, tx); err != nil {
			return nil, err
		}
		return r[msg.Path()].Deliver(ctx, db, tx)
	}

	create := &CreateQueueMsg{Metadata: meta, Name: "jobs", Admin: admin.Address(), Capacity: 1}
	_, err := deliver(stranger, create)
	assert.FieldError(t, err, "Admin", errors.ErrConstraint)
	res, err := deliver(admin, create)
	assert.Nil(t, err)
	assert.Equal(t, []byte("jobs"), res.Data)
	_, err = deliver(admin, create)
	assert.IsErr(t, errors.ErrDuplicate, err)

	ping := pingTask(t, 4, now.Add(time.Hour), "hello", author.Address())
	queue := &QueueTaskMsg{
		Metadata:    meta,
		Queue:       "jobs",
		ID:          ping.ID,
		Trigger:     ping.Trigger,
		Transaction: ping.Transaction,
		Description: ping.Description,
		Authority:   author.Address(),
	}
	_, err = deliver(author, queue)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	grant := &AddAuthorityMsg{Metadata: meta, Queue: "jobs", Authority: author.Address()}
	_, err = deliver(author, grant)
	assert.FieldError(t, err, "Admin", errors.ErrConstraint)
	_, err = deliver(admin, grant)
	assert.Nil(t, err)
	_, err = deliver(admin, grant)
	assert.IsErr(t, errors.ErrDuplicate, err)

	// Only the authority itself can queue in its name.
	_, err = deliver(stranger, queue)
	assert.FieldError(t, err, "Authority", errors.ErrConstraint)

	res, err = deliver(author, queue)
	assert.Nil(t, err)
	assert.Equal(t, TaskKey("jobs", 4), res.Data)

	task, err := s.Task(db, "jobs", 4)
	assert.Nil(t, err)
	assert.Equal(t, author.Address(), task.QueuedBy)
	assert.Equal(t, []weft.Condition{author}, task.Auth)

	other := *queue
	other.ID = 5
	_, err = deliver(author, &other)
	assert.IsErr(t, errors.ErrState, err)
}
