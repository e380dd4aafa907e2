package cron

import (
	"fmt"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
	"github.com/tendermint/tendermint/libs/common"
)

// NewTicker returns a cron runner instance that is using given handler to
// process all queued tasks whose execution time is due.
func NewTicker(h weft.Handler) *Ticker {
	return &Ticker{
		hn:      h,
		queues:  NewTaskQueueBucket(),
		tasks:   NewTaskBucket(),
		results: NewTaskResultBucket(),
	}
}

// Ticker allows to execute tasks queued for future execution. It does this
// by implementing weft.Ticker interface.
type Ticker struct {
	hn      weft.Handler
	queues  orm.ModelBucket
	tasks   orm.ModelBucket
	results orm.ModelBucket
}

var _ weft.Ticker = (*Ticker)(nil)

// Tick implements weft.Ticker interface.
//
// Tick can process any number of tasks suitable for execution. Each task is
// processed atomically.
func (t *Ticker) Tick(ctx weft.Context, db weft.CacheableKVStore) weft.TickResult {
	res, err := t.tick(ctx, db)
	if err != nil {
		// Failure of the task itself is never returned here. This is a
		// database problem unique to this instance, which is now out
		// of sync with the rest of the network.
		failTask(err)
	}
	return res
}

// failTask is a variable so that it can be overwritten for tests.
var failTask = func(err error) {
	panic(fmt.Sprintf(`
Asynchronous task failed.
This error is most likely due to a database issue or some other instance
specific problem. This instance is out of sync with the rest of the network
and cannot continue.
%+v
	`, err))
}

// tick is Tick that returns an error instead of failing.
func (t *Ticker) tick(ctx weft.Context, db weft.CacheableKVStore) (weft.TickResult, error) {
	var res weft.TickResult
	now, err := weft.BlockTime(ctx)
	if err != nil {
		return res, errors.Wrap(err, "cannot get current time")
	}
	height, _ := weft.GetHeight(ctx)

	for {
		runAt, key, err := peek(db, weft.AsUnixTime(now))
		switch {
		case errors.ErrEmpty.Is(err):
			return res, nil
		case err != nil:
			return res, errors.Wrap(err, "cannot pop queue")
		}

		var task Task
		if err := t.tasks.One(db, key, &task); err != nil {
			return res, errors.Wrapf(err, "queued task %q", key)
		}

		// Each task is processed using its own cache instance to
		// ensure changes are atomic and task processing independent.
		cache := db.CacheWrap()
		result := TaskResult{
			Metadata:   &weft.Metadata{Schema: 1},
			Queue:      task.Queue,
			ID:         task.ID,
			Successful: true,
			ExecTime:   weft.AsUnixTime(now),
			ExecHeight: height,
		}
		taskCtx := weft.WithLogInfo(withAuth(ctx, task.Auth), "queue", task.Queue, "task", task.ID)
		tags, err := t.execute(taskCtx, cache, &task)
		if err != nil {
			// Discard any changes that the execution could have
			// created.
			cache.Discard()
			result.Successful = false
			result.Info = err.Error()
			weft.GetLogger(taskCtx).Info("task failed", "err", err)
		}

		if _, err := t.results.Put(cache, key, &result); err != nil {
			cache.Discard()
			return res, errors.Wrap(err, "cannot store result")
		}
		if err := t.remove(cache, &task, runAt, key); err != nil {
			cache.Discard()
			return res, err
		}
		if err := cache.Write(); err != nil {
			return res, errors.Wrap(err, "cannot write cache")
		}

		// Only when the database state is updated we can consider this
		// task executed.
		res.Tags = append(res.Tags, tags...)
		res.Tags = append(res.Tags, common.KVPair{Key: []byte("cron"), Value: key})
		res.Executed = append(res.Executed, key)
	}
}

// execute delivers every instruction of the task. Signer accounts of the
// instructions must be authorized by the task conditions.
func (t *Ticker) execute(ctx weft.Context, db weft.KVStore, task *Task) ([]common.KVPair, error) {
	auth := Authenticator{}
	for _, s := range task.Transaction.Signers() {
		if !auth.HasAddress(ctx, s) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "signer %s not authorized by the task", s)
		}
	}

	var tags []common.KVPair
	for i, ins := range task.Transaction.Instructions {
		msg, err := ins.LoadMsg()
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		r, err := t.hn.Deliver(ctx, db, &taskTx{msg: msg})
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		tags = append(tags, r.Tags...)
	}
	return tags, nil
}

// remove deletes the task from its queue.
func (t *Ticker) remove(db weft.KVStore, task *Task, runAt, key []byte) error {
	if err := t.tasks.Delete(db, key); err != nil {
		return errors.Wrap(err, "cannot delete task")
	}
	if err := db.Delete(runAt); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	var q TaskQueue
	if err := t.queues.One(db, []byte(task.Queue), &q); err != nil {
		return errors.Wrap(err, "task queue")
	}
	if q.Pending > 0 {
		q.Pending--
	}
	if _, err := t.queues.Put(db, []byte(q.Name), &q); err != nil {
		return errors.Wrap(err, "cannot store queue")
	}
	return nil
}

// peek reads from the queue a single task that reached its execution time
// and returns its run at key and task key. It returns ErrEmpty if there is
// no task suitable for processing.
// Tasks are consumed in order of execution time, starting with the oldest.
func peek(db weft.KVStore, now weft.UnixTime) (runAt, key []byte, err error) {
	since := runAtKey(0, nil)
	until := runAtKey(now+1, nil)
	it, err := db.Iterator(since, until)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Release()

	switch k, v, err := it.Next(); {
	case err == nil:
		return k, v, nil
	case errors.ErrIteratorDone.Is(err):
		return nil, nil, errors.ErrEmpty
	default:
		return nil, nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
}

// taskTx is a weft.Tx implementation created for running
// asynchronous tasks. It is a thin wrapper over the message.
type taskTx struct {
	msg weft.Msg
}

var _ weft.Tx = (*taskTx)(nil)

// GetMsg implements weft.Tx interface.
func (tx *taskTx) GetMsg() (weft.Msg, error) {
	return tx.msg, nil
}

// Unmarshal implements weft.Tx interface.
func (tx *taskTx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "operation not supported, task transaction is not serializable")
}

// Marshal implements weft.Tx interface.
func (tx *taskTx) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHuman, "operation not supported, task transaction is not serializable")
}
