package weftest

import (
	"encoding/binary"
	"sort"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Cron is a in memory implementation of the ticker and scheduler. Tasks are
// never executed, only reported as due.
type Cron struct {
	Err   error
	tasks []*crontask
}

type crontask struct {
	tid  []byte
	task weft.QueuedTask
}

var _ weft.Scheduler = (*Cron)(nil)
var _ weft.Ticker = (*Cron)(nil)

// Schedule implements weft.Scheduler interface.
func (c *Cron) Schedule(ctx weft.Context, db weft.KVStore, task weft.QueuedTask) ([]byte, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	tid := append([]byte(task.Queue+":"), make([]byte, 4)...)
	binary.BigEndian.PutUint32(tid[len(tid)-4:], task.ID)
	for _, t := range c.tasks {
		if string(t.tid) == string(tid) {
			return nil, errors.Wrap(errors.ErrDuplicate, "task id")
		}
	}

	c.tasks = append(c.tasks, &crontask{tid: tid, task: task})

	// Keep in order from the oldest to the newest. Those to be executed
	// first are first.
	sort.SliceStable(c.tasks, func(i, j int) bool {
		return c.tasks[i].task.Trigger.RunAt() < c.tasks[j].task.Trigger.RunAt()
	})
	return tid, nil
}

// Tasks returns all tasks that were not yet ticked.
func (c *Cron) Tasks() []weft.QueuedTask {
	res := make([]weft.QueuedTask, len(c.tasks))
	for i, t := range c.tasks {
		res[i] = t.task
	}
	return res
}

// Tick implements weft.Ticker interface.
func (c *Cron) Tick(ctx weft.Context, store weft.CacheableKVStore) weft.TickResult {
	now, err := weft.BlockTime(ctx)
	if err != nil {
		panic(err)
	}

	var res weft.TickResult
	for _, t := range c.tasks {
		if t.task.Trigger.RunAt() > weft.AsUnixTime(now) {
			// Tasks are ordered by execution time.
			break
		}
		res.Executed = append(res.Executed, t.tid)
	}
	c.tasks = c.tasks[len(res.Executed):]
	return res
}
