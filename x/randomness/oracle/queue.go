package oracle

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

// Queue stores requests until they are fulfilled.
type Queue struct {
	requests orm.ModelBucket
}

// NewQueue returns a queue using the default bucket.
func NewQueue() *Queue {
	return &Queue{requests: NewRequestBucket()}
}

// RequestRandomness stores the request and returns its ID.
func (q *Queue) RequestRandomness(ctx weft.Context, db weft.KVStore, req *Request) ([]byte, error) {
	now, err := weft.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	req.CreatedAt = weft.AsUnixTime(now)
	id, err := q.requests.Put(db, nil, req)
	if err != nil {
		return nil, errors.Wrap(err, "cannot store request")
	}
	weft.GetLogger(ctx).Debug("randomness requested",
		"request", id, "queue", req.Queue, "callback", req.CallbackPath)
	return id, nil
}

// Pending returns all requests of the queue in order of creation, together
// with their IDs.
func (q *Queue) Pending(db weft.ReadOnlyKVStore, queue weft.Address) ([]*Request, [][]byte, error) {
	var reqs []*Request
	ids, err := q.requests.ByIndex(db, "queue", queue, &reqs)
	if err != nil {
		return nil, nil, err
	}
	return reqs, ids, nil
}

// Remove deletes a fulfilled request. ErrNotFound is returned if the
// request does not exist.
func (q *Queue) Remove(db weft.KVStore, id []byte) error {
	return q.requests.Delete(db, id)
}
