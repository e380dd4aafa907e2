package cron

import (
	"encoding/binary"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

var runAtPrefix = []byte("_crontask:runat:")

// runAtKey orders tasks by their execution time and then by their key.
func runAtKey(t weft.UnixTime, taskKey []byte) []byte {
	key := make([]byte, 0, len(runAtPrefix)+8+len(taskKey))
	key = append(key, runAtPrefix...)
	key = append(key, make([]byte, 8)...)
	binary.BigEndian.PutUint64(key[len(runAtPrefix):], uint64(t))
	return append(key, taskKey...)
}

// Scheduler stores tasks in their queues. It implements weft.Scheduler.
type Scheduler struct {
	queues orm.ModelBucket
	tasks  orm.ModelBucket
}

var _ weft.Scheduler = (*Scheduler)(nil)

// NewScheduler returns a scheduler using the default buckets.
func NewScheduler() *Scheduler {
	return &Scheduler{
		queues: NewTaskQueueBucket(),
		tasks:  NewTaskBucket(),
	}
}

// Schedule implements weft.Scheduler interface. The task is authorized by
// the derived authority it carries, which must be one of the queue
// authorities. When executed, the task is authenticated with the condition
// of that authority.
func (s *Scheduler) Schedule(ctx weft.Context, db weft.KVStore, qt weft.QueuedTask) ([]byte, error) {
	if qt.Authority == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing queue authority")
	}
	task := Task{
		Metadata:    &weft.Metadata{Schema: 1},
		Queue:       qt.Queue,
		ID:          qt.ID,
		Trigger:     qt.Trigger,
		Transaction: qt.Transaction,
		Description: qt.Description,
		QueuedBy:    qt.Authority.Address(),
		Auth:        []weft.Condition{qt.Authority.Condition()},
	}
	return s.QueueTask(ctx, db, &task)
}

// QueueTask stores given task. The QueuedBy address must be one of the
// queue authorities.
//
// ErrDuplicate is returned if a task with the same ID is pending in the
// queue, ErrState if the queue is full.
func (s *Scheduler) QueueTask(ctx weft.Context, db weft.KVStore, task *Task) ([]byte, error) {
	if err := task.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid task")
	}
	queue, err := s.Queue(db, task.Queue)
	if err != nil {
		return nil, err
	}
	if !queue.HasAuthority(task.QueuedBy) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not an authority of queue %q", task.QueuedBy, queue.Name)
	}

	key := TaskKey(task.Queue, task.ID)
	switch err := s.tasks.Has(db, key); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "task %d in queue %q", task.ID, task.Queue)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if queue.Pending >= queue.Capacity {
		return nil, errors.Wrapf(errors.ErrState, "queue %q is full", queue.Name)
	}

	if _, err := s.tasks.Put(db, key, task); err != nil {
		return nil, errors.Wrap(err, "cannot store task")
	}
	if err := db.Set(runAtKey(task.Trigger.RunAt(), key), key); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	queue.Pending++
	if _, err := s.queues.Put(db, []byte(queue.Name), queue); err != nil {
		return nil, errors.Wrap(err, "cannot store queue")
	}

	weft.GetLogger(ctx).Debug("task queued",
		"queue", task.Queue, "id", task.ID, "run_at", task.Trigger.RunAt(), "description", task.Description)
	return key, nil
}

// Queue returns the queue with given name.
func (s *Scheduler) Queue(db weft.ReadOnlyKVStore, name string) (*TaskQueue, error) {
	var q TaskQueue
	if err := s.queues.One(db, []byte(name), &q); err != nil {
		return nil, errors.Wrapf(err, "queue %q", name)
	}
	return &q, nil
}

// CreateQueue stores a new empty queue. ErrDuplicate is returned if the
// name is taken.
func (s *Scheduler) CreateQueue(db weft.KVStore, q *TaskQueue) error {
	switch err := s.queues.Has(db, []byte(q.Name)); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "queue %q", q.Name)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	q.Pending = 0
	if _, err := s.queues.Put(db, []byte(q.Name), q); err != nil {
		return errors.Wrap(err, "cannot store queue")
	}
	return nil
}

// AddAuthority grants given address the right to queue tasks.
func (s *Scheduler) AddAuthority(db weft.KVStore, name string, authority weft.Address) error {
	q, err := s.Queue(db, name)
	if err != nil {
		return err
	}
	if q.HasAuthority(authority) {
		return errors.Wrapf(errors.ErrDuplicate, "authority %s", authority)
	}
	q.Authorities = append(q.Authorities, authority)
	if _, err := s.queues.Put(db, []byte(name), q); err != nil {
		return errors.Wrap(err, "cannot store queue")
	}
	return nil
}

// Task returns a pending task.
func (s *Scheduler) Task(db weft.ReadOnlyKVStore, queue string, id uint32) (*Task, error) {
	var t Task
	if err := s.tasks.One(db, TaskKey(queue, id), &t); err != nil {
		return nil, errors.Wrapf(err, "task %d", id)
	}
	return &t, nil
}
