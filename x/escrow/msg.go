package escrow

import (
	"math"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

func init() {
	weft.RegisterMsg(&MakeMsg{}, pathMakeMsg)
	weft.RegisterMsg(&TakeMsg{}, pathTakeMsg)
	weft.RegisterMsg(&RefundMsg{}, pathRefundMsg)
}

const (
	pathMakeMsg   = ProgramName + "/make"
	pathTakeMsg   = ProgramName + "/take"
	pathRefundMsg = ProgramName + "/refund"
)

// MakeMsg opens an escrow. Escrow, Vault and QueueAuthority are the
// accounts the client derived; they are checked against the derivation
// before anything else happens.
type MakeMsg struct {
	Metadata *weft.Metadata `json:"metadata"`
	Maker    weft.Address   `json:"maker"`
	Seed     uint64         `json:"seed"`
	// Deposit is the amount of MintA moved into the vault.
	Deposit uint64 `json:"deposit"`
	// Receive is the amount of MintB the maker asks for.
	Receive uint64        `json:"receive"`
	TaskID  uint32        `json:"task_id"`
	Expiry  weft.UnixTime `json:"expiry"`
	MintA   weft.Address  `json:"mint_a"`
	MintB   weft.Address  `json:"mint_b"`

	Escrow             weft.Address `json:"escrow"`
	EscrowBump         uint32       `json:"escrow_bump"`
	Vault              weft.Address `json:"vault"`
	QueueAuthority     weft.Address `json:"queue_authority"`
	QueueAuthorityBump uint32       `json:"queue_authority_bump"`
}

var _ weft.Msg = (*MakeMsg)(nil)

func (MakeMsg) Path() string { return pathMakeMsg }

func (m *MakeMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *MakeMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *MakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Maker", m.Maker.Validate())
	if m.Deposit == 0 {
		errs = errors.AppendField(errs, "Deposit", errors.ErrAmount)
	}
	if m.Receive == 0 {
		errs = errors.AppendField(errs, "Receive", errors.ErrAmount)
	}
	if m.TaskID > math.MaxUint16 {
		errs = errors.AppendField(errs, "TaskID", errors.Wrapf(errors.ErrInput, "max %d", math.MaxUint16))
	}
	if m.Expiry.IsZero() {
		errs = errors.AppendField(errs, "Expiry", errors.ErrEmpty)
	} else {
		errs = errors.AppendField(errs, "Expiry", m.Expiry.Validate())
	}
	errs = errors.AppendField(errs, "MintA", m.MintA.Validate())
	errs = errors.AppendField(errs, "MintB", m.MintB.Validate())
	if m.MintA.Equals(m.MintB) {
		errs = errors.AppendField(errs, "MintB", errors.Wrap(errors.ErrInput, "same as MintA"))
	}
	errs = errors.AppendField(errs, "Escrow", m.Escrow.Validate())
	if m.EscrowBump > 255 {
		errs = errors.AppendField(errs, "EscrowBump", errors.ErrInput)
	}
	errs = errors.AppendField(errs, "Vault", m.Vault.Validate())
	errs = errors.AppendField(errs, "QueueAuthority", m.QueueAuthority.Validate())
	if m.QueueAuthorityBump > 255 {
		errs = errors.AppendField(errs, "QueueAuthorityBump", errors.ErrInput)
	}
	return errs
}

// TakeMsg accepts the trade offered by an escrow.
type TakeMsg struct {
	Metadata *weft.Metadata `json:"metadata"`
	Taker    weft.Address   `json:"taker"`
	Escrow   weft.Address   `json:"escrow"`
}

var _ weft.Msg = (*TakeMsg)(nil)

func (TakeMsg) Path() string { return pathTakeMsg }

func (m *TakeMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *TakeMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *TakeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Taker", m.Taker.Validate())
	errs = errors.AppendField(errs, "Escrow", m.Escrow.Validate())
	return errs
}

// RefundMsg returns the deposit to the maker and closes the escrow. It is
// sent by the maker or executed by the refund task.
type RefundMsg struct {
	Metadata *weft.Metadata `json:"metadata"`
	Maker    weft.Address   `json:"maker"`
	Escrow   weft.Address   `json:"escrow"`
	// TaskID is set by the refund task and must match the escrow. The
	// maker may leave it empty.
	TaskID uint32 `json:"task_id,omitempty"`
}

var _ weft.Msg = (*RefundMsg)(nil)

func (RefundMsg) Path() string { return pathRefundMsg }

func (m *RefundMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *RefundMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *RefundMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Maker", m.Maker.Validate())
	errs = errors.AppendField(errs, "Escrow", m.Escrow.Validate())
	return errs
}
