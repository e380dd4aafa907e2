package cron

import (
	"encoding/binary"
	"regexp"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

var isQueueName = regexp.MustCompile(`^[a-z0-9_]{3,32}$`).MatchString

// MaxDescriptionLength limits the task description.
const MaxDescriptionLength = 128

// TaskQueue holds tasks queued by its authorities.
type TaskQueue struct {
	Metadata    *weft.Metadata `json:"metadata"`
	Name        string         `json:"name"`
	Admin       weft.Address   `json:"admin"`
	Authorities []weft.Address `json:"authorities"`
	// Capacity is the maximum number of pending tasks.
	Capacity uint32 `json:"capacity"`
	// Pending is the number of tasks waiting for execution.
	Pending uint32 `json:"pending"`
}

var _ orm.Model = (*TaskQueue)(nil)

func (q *TaskQueue) Marshal() ([]byte, error) {
	return weft.MarshalModel(q)
}

func (q *TaskQueue) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, q)
}

func (q *TaskQueue) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", q.Metadata.Validate())
	if !isQueueName(q.Name) {
		errs = errors.AppendField(errs, "Name", errors.Wrapf(errors.ErrInput, "invalid name %q", q.Name))
	}
	errs = errors.AppendField(errs, "Admin", q.Admin.Validate())
	for i, a := range q.Authorities {
		if err := a.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Authorities", err, "authority %d", i))
		}
	}
	if q.Capacity == 0 {
		errs = errors.AppendField(errs, "Capacity", errors.ErrInput)
	}
	if q.Pending > q.Capacity {
		errs = errors.AppendField(errs, "Pending", errors.ErrState)
	}
	return errs
}

// HasAuthority returns true if given address can queue tasks.
func (q *TaskQueue) HasAuthority(addr weft.Address) bool {
	for _, a := range q.Authorities {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}

// Task is a compiled transaction waiting for its execution.
type Task struct {
	Metadata    *weft.Metadata           `json:"metadata"`
	Queue       string                   `json:"queue"`
	ID          uint32                   `json:"id"`
	Trigger     weft.Trigger             `json:"trigger"`
	Transaction weft.CompiledTransaction `json:"transaction"`
	Description string                   `json:"description"`
	QueuedBy    weft.Address             `json:"queued_by"`
	// Auth contains conditions that are fulfilled when the task is
	// executed.
	Auth []weft.Condition `json:"auth"`
}

var _ orm.Model = (*Task)(nil)

func (t *Task) Marshal() ([]byte, error) {
	return weft.MarshalModel(t)
}

func (t *Task) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, t)
}

func (t *Task) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", t.Metadata.Validate())
	if !isQueueName(t.Queue) {
		errs = errors.AppendField(errs, "Queue", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Trigger", t.Trigger.Validate())
	errs = errors.AppendField(errs, "Transaction", t.Transaction.Validate())
	if len(t.Description) > MaxDescriptionLength {
		errs = errors.AppendField(errs, "Description", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "QueuedBy", t.QueuedBy.Validate())
	for i, c := range t.Auth {
		if err := c.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Auth", err, "condition %d", i))
		}
	}
	return errs
}

// TaskResult is the outcome of a task execution.
type TaskResult struct {
	Metadata   *weft.Metadata `json:"metadata"`
	Queue      string         `json:"queue"`
	ID         uint32         `json:"id"`
	Successful bool           `json:"successful"`
	// Info contains the failure reason.
	Info       string        `json:"info"`
	ExecTime   weft.UnixTime `json:"exec_time"`
	ExecHeight int64         `json:"exec_height"`
}

var _ orm.Model = (*TaskResult)(nil)

func (r *TaskResult) Marshal() ([]byte, error) {
	return weft.MarshalModel(r)
}

func (r *TaskResult) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, r)
}

func (r *TaskResult) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	errs = errors.AppendField(errs, "ExecTime", r.ExecTime.Validate())
	return errs
}

// TaskKey returns the key of the task with given ID in given queue.
func TaskKey(queue string, id uint32) []byte {
	key := make([]byte, len(queue)+5)
	copy(key, queue)
	key[len(queue)] = ':'
	binary.BigEndian.PutUint32(key[len(queue)+1:], id)
	return key
}

// NewTaskQueueBucket returns a bucket storing queues under their name.
func NewTaskQueueBucket() orm.ModelBucket {
	return orm.NewModelBucket("taskqueue", &TaskQueue{})
}

// NewTaskBucket returns a bucket storing pending tasks under TaskKey.
func NewTaskBucket() orm.ModelBucket {
	return orm.NewModelBucket("crontask", &Task{})
}

// NewTaskResultBucket returns a bucket storing results under TaskKey. A
// result is overwritten when a task ID is reused.
func NewTaskResultBucket() orm.ModelBucket {
	return orm.NewModelBucket("cronres", &TaskResult{})
}

// RegisterQuery registers queues under /taskqueues, pending tasks under
// /tasks and results under /taskresults.
func RegisterQuery(qr weft.QueryRouter) {
	NewTaskQueueBucket().Register("taskqueues", qr)
	NewTaskBucket().Register("tasks", qr)
	NewTaskResultBucket().Register("taskresults", qr)
}
