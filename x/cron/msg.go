package cron

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

func init() {
	weft.RegisterMsg(&CreateQueueMsg{}, pathCreateQueueMsg)
	weft.RegisterMsg(&AddAuthorityMsg{}, pathAddAuthorityMsg)
	weft.RegisterMsg(&QueueTaskMsg{}, pathQueueTaskMsg)
}

const (
	pathCreateQueueMsg  = "cron/create_queue"
	pathAddAuthorityMsg = "cron/add_authority"
	pathQueueTaskMsg    = "cron/queue_task"
)

// CreateQueueMsg creates a new task queue. The admin must sign.
type CreateQueueMsg struct {
	Metadata    *weft.Metadata `json:"metadata"`
	Name        string         `json:"name"`
	Admin       weft.Address   `json:"admin"`
	Capacity    uint32         `json:"capacity"`
	Authorities []weft.Address `json:"authorities"`
}

var _ weft.Msg = (*CreateQueueMsg)(nil)

func (CreateQueueMsg) Path() string { return pathCreateQueueMsg }

func (m *CreateQueueMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *CreateQueueMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *CreateQueueMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isQueueName(m.Name) {
		errs = errors.AppendField(errs, "Name", errors.Wrapf(errors.ErrInput, "invalid name %q", m.Name))
	}
	errs = errors.AppendField(errs, "Admin", m.Admin.Validate())
	if m.Capacity == 0 {
		errs = errors.AppendField(errs, "Capacity", errors.ErrInput)
	}
	for i, a := range m.Authorities {
		if err := a.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Authorities", err, "authority %d", i))
		}
	}
	return errs
}

// AddAuthorityMsg grants an address the right to queue tasks. The queue
// admin must sign.
type AddAuthorityMsg struct {
	Metadata  *weft.Metadata `json:"metadata"`
	Queue     string         `json:"queue"`
	Authority weft.Address   `json:"authority"`
}

var _ weft.Msg = (*AddAuthorityMsg)(nil)

func (AddAuthorityMsg) Path() string { return pathAddAuthorityMsg }

func (m *AddAuthorityMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *AddAuthorityMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *AddAuthorityMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isQueueName(m.Queue) {
		errs = errors.AppendField(errs, "Queue", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Authority", m.Authority.Validate())
	return errs
}

// QueueTaskMsg queues a compiled transaction. The authority must sign and
// its signature is what the task is executed with.
type QueueTaskMsg struct {
	Metadata    *weft.Metadata           `json:"metadata"`
	Queue       string                   `json:"queue"`
	ID          uint32                   `json:"id"`
	Trigger     weft.Trigger             `json:"trigger"`
	Transaction weft.CompiledTransaction `json:"transaction"`
	Description string                   `json:"description"`
	Authority   weft.Address             `json:"authority"`
}

var _ weft.Msg = (*QueueTaskMsg)(nil)

func (QueueTaskMsg) Path() string { return pathQueueTaskMsg }

func (m *QueueTaskMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *QueueTaskMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *QueueTaskMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isQueueName(m.Queue) {
		errs = errors.AppendField(errs, "Queue", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Trigger", m.Trigger.Validate())
	errs = errors.AppendField(errs, "Transaction", m.Transaction.Validate())
	if len(m.Description) > MaxDescriptionLength {
		errs = errors.AppendField(errs, "Description", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Authority", m.Authority.Validate())
	return errs
}
