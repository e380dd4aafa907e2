package randomness

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x/randomness/oracle"
)

func init() {
	weft.RegisterMsg(&InitializeMsg{}, pathInitializeMsg)
	weft.RegisterMsg(&UpdateMsg{}, pathUpdateMsg)
	weft.RegisterMsg(&UpdateCommitMsg{}, pathUpdateCommitMsg)
	weft.RegisterMsg(&DelegateMsg{}, pathDelegateMsg)
	weft.RegisterMsg(&UndelegateMsg{}, pathUndelegateMsg)
	weft.RegisterMsg(&CloseMsg{}, pathCloseMsg)
	weft.RegisterMsg(&RequestMsg{}, pathRequestMsg)
	weft.RegisterMsg(&ConsumeMsg{}, pathConsumeMsg)
}

const (
	pathInitializeMsg   = ProgramName + "/initialize"
	pathUpdateMsg       = ProgramName + "/update"
	pathUpdateCommitMsg = ProgramName + "/update_commit"
	pathDelegateMsg     = ProgramName + "/delegate"
	pathUndelegateMsg   = ProgramName + "/undelegate"
	pathCloseMsg        = ProgramName + "/close"
	pathRequestMsg      = ProgramName + "/request"
	pathConsumeMsg      = ProgramName + "/consume"
)

func validateUser(errs error, md *weft.Metadata, user, record weft.Address) error {
	errs = errors.AppendField(errs, "Metadata", md.Validate())
	errs = errors.AppendField(errs, "User", user.Validate())
	errs = errors.AppendField(errs, "UserRecord", record.Validate())
	return errs
}

// InitializeMsg creates the record of the user.
type InitializeMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
	Bump       uint32         `json:"bump"`
}

var _ weft.Msg = (*InitializeMsg)(nil)

func (InitializeMsg) Path() string { return pathInitializeMsg }

func (m *InitializeMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *InitializeMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *InitializeMsg) Validate() error {
	errs := validateUser(nil, m.Metadata, m.User, m.UserRecord)
	if m.Bump > 255 {
		errs = errors.AppendField(errs, "Bump", errors.ErrInput)
	}
	return errs
}

// UpdateMsg sets the data of the record.
type UpdateMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
	Data       uint64         `json:"data"`
}

var _ weft.Msg = (*UpdateMsg)(nil)

func (UpdateMsg) Path() string { return pathUpdateMsg }

func (m *UpdateMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *UpdateMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *UpdateMsg) Validate() error {
	return validateUser(nil, m.Metadata, m.User, m.UserRecord)
}

// UpdateCommitMsg sets the data of a delegated record and commits it.
type UpdateCommitMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
	Data       uint64         `json:"data"`
}

var _ weft.Msg = (*UpdateCommitMsg)(nil)

func (UpdateCommitMsg) Path() string { return pathUpdateCommitMsg }

func (m *UpdateCommitMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *UpdateCommitMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *UpdateCommitMsg) Validate() error {
	return validateUser(nil, m.Metadata, m.User, m.UserRecord)
}

// DelegateMsg hands the record over to a validator.
type DelegateMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
	Validator  weft.Address   `json:"validator"`
}

var _ weft.Msg = (*DelegateMsg)(nil)

func (DelegateMsg) Path() string { return pathDelegateMsg }

func (m *DelegateMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *DelegateMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *DelegateMsg) Validate() error {
	errs := validateUser(nil, m.Metadata, m.User, m.UserRecord)
	return errors.AppendField(errs, "Validator", m.Validator.Validate())
}

// UndelegateMsg takes the record back from the validator.
type UndelegateMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
}

var _ weft.Msg = (*UndelegateMsg)(nil)

func (UndelegateMsg) Path() string { return pathUndelegateMsg }

func (m *UndelegateMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *UndelegateMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *UndelegateMsg) Validate() error {
	return validateUser(nil, m.Metadata, m.User, m.UserRecord)
}

// CloseMsg deletes the record.
type CloseMsg struct {
	Metadata   *weft.Metadata `json:"metadata"`
	User       weft.Address   `json:"user"`
	UserRecord weft.Address   `json:"user_record"`
}

var _ weft.Msg = (*CloseMsg)(nil)

func (CloseMsg) Path() string { return pathCloseMsg }

func (m *CloseMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *CloseMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *CloseMsg) Validate() error {
	return validateUser(nil, m.Metadata, m.User, m.UserRecord)
}

// RequestMsg asks the oracle for randomness delivered to the user record.
type RequestMsg struct {
	Metadata    *weft.Metadata `json:"metadata"`
	User        weft.Address   `json:"user"`
	UserRecord  weft.Address   `json:"user_record"`
	OracleQueue weft.Address   `json:"oracle_queue"`
	// ClientSeed is a single byte that is expanded into the caller seed.
	ClientSeed uint32 `json:"client_seed"`
}

var _ weft.Msg = (*RequestMsg)(nil)

func (RequestMsg) Path() string { return pathRequestMsg }

func (m *RequestMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *RequestMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *RequestMsg) Validate() error {
	errs := validateUser(nil, m.Metadata, m.User, m.UserRecord)
	errs = errors.AppendField(errs, "OracleQueue", m.OracleQueue.Validate())
	if m.ClientSeed > 255 {
		errs = errors.AppendField(errs, "ClientSeed", errors.Wrap(errors.ErrInput, "must fit a byte"))
	}
	return errs
}

// ConsumeMsg is the callback sent by the oracle. RequestID optionally
// names the fulfilled request so that it is removed from the oracle queue.
type ConsumeMsg struct {
	Metadata       *weft.Metadata `json:"metadata"`
	UserRecord     weft.Address   `json:"user_record"`
	OracleIdentity weft.Address   `json:"oracle_identity"`
	Randomness     []byte         `json:"randomness"`
	RequestID      []byte         `json:"request_id,omitempty"`
}

var _ weft.Msg = (*ConsumeMsg)(nil)

func (ConsumeMsg) Path() string { return pathConsumeMsg }

func (m *ConsumeMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *ConsumeMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *ConsumeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "UserRecord", m.UserRecord.Validate())
	errs = errors.AppendField(errs, "OracleIdentity", m.OracleIdentity.Validate())
	if len(m.Randomness) != oracle.SeedLength {
		errs = errors.AppendField(errs, "Randomness", errors.Wrapf(errors.ErrInput, "must be %d bytes", oracle.SeedLength))
	}
	return errs
}
