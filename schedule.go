package weft

import (
	"github.com/iov-one/weft/errors"
)

// Scheduler is an interface implemented by a task queue that stores
// operations for a future execution.
type Scheduler interface {
	// Schedule queues given task. Returned value is the unique identifier
	// of the stored task.
	Schedule(ctx Context, db KVStore, task QueuedTask) ([]byte, error)
}

// QueuedTask describes a single operation requested to be executed in the
// future.
type QueuedTask struct {
	// Queue is the name of the task queue.
	Queue string
	// ID must be unique within the queue.
	ID uint32
	// Trigger declares when the task can be executed.
	Trigger Trigger
	// Transaction is the operation to execute.
	Transaction CompiledTransaction
	// Description is a human readable summary of the task.
	Description string
	// Authority is the queue authority that signs the scheduling on behalf
	// of the calling program. It must be one of the queue authorities.
	Authority *DerivedAuthority
}

// Trigger is either Now (execute with the next block) or a Timestamp.
type Trigger struct {
	Now       bool     `json:"now,omitempty"`
	Timestamp UnixTime `json:"timestamp,omitempty"`
}

// TriggerNow returns a trigger that fires with the next block.
func TriggerNow() Trigger {
	return Trigger{Now: true}
}

// TriggerAt returns a trigger that fires with the first block whose time is
// not before t.
func TriggerAt(t UnixTime) Trigger {
	return Trigger{Timestamp: t}
}

// RunAt returns the time after which the trigger fires. Zero is returned for
// the Now trigger.
func (t Trigger) RunAt() UnixTime {
	if t.Now {
		return 0
	}
	return t.Timestamp
}

// Validate returns an error if both or none of the variants are set.
func (t Trigger) Validate() error {
	switch {
	case t.Now && !t.Timestamp.IsZero():
		return errors.Wrap(errors.ErrInput, "trigger cannot be both now and timestamp")
	case !t.Now && t.Timestamp.IsZero():
		return errors.Wrap(errors.ErrEmpty, "trigger")
	}
	return t.Timestamp.Validate()
}

// AccountMeta declares an account used by an instruction.
type AccountMeta struct {
	Address  Address `json:"address"`
	Signer   bool    `json:"signer,omitempty"`
	Writable bool    `json:"writable,omitempty"`
}

// Instruction is a serialized call of a program. Msg holds the codec
// encoding of the message that is routed to the program.
type Instruction struct {
	Program  string        `json:"program"`
	Accounts []AccountMeta `json:"accounts"`
	Msg      []byte        `json:"msg"`
}

// NewInstruction serializes given message into an instruction.
func NewInstruction(program string, msg Msg, accounts ...AccountMeta) (Instruction, error) {
	raw, err := Codec.MarshalBinaryBare(msg)
	if err != nil {
		return Instruction{}, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return Instruction{Program: program, Accounts: accounts, Msg: raw}, nil
}

// LoadMsg deserializes the message carried by this instruction. The message
// path must belong to the instruction program.
func (i Instruction) LoadMsg() (Msg, error) {
	var msg Msg
	if err := Codec.UnmarshalBinaryBare(i.Msg, &msg); err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "instruction message")
	}
	if p := msg.Path(); len(p) <= len(i.Program) || p[:len(i.Program)+1] != i.Program+"/" {
		return nil, errors.Wrapf(errors.ErrMsg, "message %q does not belong to program %q", p, i.Program)
	}
	return msg, nil
}

// Validate checks the instruction shape.
func (i Instruction) Validate() error {
	if i.Program == "" {
		return errors.Wrap(errors.ErrEmpty, "program")
	}
	if len(i.Msg) == 0 {
		return errors.Wrap(errors.ErrEmpty, "msg")
	}
	for n, a := range i.Accounts {
		if err := a.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", n)
		}
	}
	return nil
}

// CompiledTransaction is a list of instructions executed atomically.
type CompiledTransaction struct {
	Instructions []Instruction `json:"instructions"`
}

// Validate checks every instruction.
func (t CompiledTransaction) Validate() error {
	if len(t.Instructions) == 0 {
		return errors.Wrap(errors.ErrEmpty, "instructions")
	}
	for n, ins := range t.Instructions {
		if err := ins.Validate(); err != nil {
			return errors.Wrapf(err, "instruction %d", n)
		}
	}
	return nil
}

// Signers returns addresses of all accounts that must be authorized when
// the transaction is executed.
func (t CompiledTransaction) Signers() []Address {
	var res []Address
	for _, ins := range t.Instructions {
		for _, a := range ins.Accounts {
			if a.Signer {
				res = append(res, a.Address)
			}
		}
	}
	return res
}
