package oracle

import (
	"bytes"
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
)

func TestQueue(t *testing.T) {
	db := store.MemStore()
	ctx := weftest.BlockContext(1, time.Unix(1560000000, 0))
	q := NewQueue()
	queueA := weftest.NewCondition().Address()
	queueB := weftest.NewCondition().Address()
	payer := weftest.NewCondition().Address()

	newReq := func(queue weft.Address, seed byte) *Request {
		return &Request{
			Metadata:        &weft.Metadata{Schema: 1},
			Payer:           payer,
			Queue:           queue,
			CallbackProgram: "test",
			CallbackPath:    "test/consume",
			CallerSeed:      bytes.Repeat([]byte{seed}, SeedLength),
			Accounts:        []weft.AccountMeta{{Address: payer, Writable: true}},
		}
	}

	id1, err := q.RequestRandomness(ctx, db, newReq(queueA, 1))
	assert.Nil(t, err)
	_, err = q.RequestRandomness(ctx, db, newReq(queueB, 2))
	assert.Nil(t, err)
	id3, err := q.RequestRandomness(ctx, db, newReq(queueA, 3))
	assert.Nil(t, err)

	reqs, ids, err := q.Pending(db, queueA)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id1, id3}, ids)
	assert.Equal(t, 2, len(reqs))
	assert.Equal(t, byte(1), reqs[0].CallerSeed[0])
	assert.Equal(t, weft.UnixTime(1560000000), reqs[0].CreatedAt)

	assert.Nil(t, q.Remove(db, id1))
	assert.IsErr(t, errors.ErrNotFound, q.Remove(db, id1))

	_, ids, err = q.Pending(db, queueA)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{id3}, ids)

	invalid := newReq(queueA, 4)
	invalid.CallerSeed = []byte{4}
	_, err = q.RequestRandomness(ctx, db, invalid)
	assert.FieldError(t, err, "CallerSeed", errors.ErrInput)
}
