package token

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

func init() {
	weft.RegisterMsg(&CreateMintMsg{}, pathCreateMintMsg)
	weft.RegisterMsg(&MintToMsg{}, pathMintToMsg)
	weft.RegisterMsg(&TransferMsg{}, pathTransferMsg)
}

const (
	pathCreateMintMsg = "token/create_mint"
	pathMintToMsg     = "token/mint_to"
	pathTransferMsg   = "token/transfer"
)

// CreateMintMsg creates a new mint. The authority must sign.
type CreateMintMsg struct {
	Metadata  *weft.Metadata `json:"metadata"`
	Name      string         `json:"name"`
	Decimals  uint32         `json:"decimals"`
	Authority weft.Address   `json:"authority"`
}

var _ weft.Msg = (*CreateMintMsg)(nil)

func (CreateMintMsg) Path() string { return pathCreateMintMsg }

func (m *CreateMintMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *CreateMintMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *CreateMintMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !isMintName(m.Name) {
		errs = errors.AppendField(errs, "Name", errors.ErrInput)
	}
	if m.Decimals > MaxDecimals {
		errs = errors.AppendField(errs, "Decimals", errors.ErrDecimals)
	}
	errs = errors.AppendField(errs, "Authority", m.Authority.Validate())
	return errs
}

// MintToMsg issues new tokens. The mint authority must sign.
type MintToMsg struct {
	Metadata *weft.Metadata `json:"metadata"`
	Mint     weft.Address   `json:"mint"`
	Owner    weft.Address   `json:"owner"`
	Amount   uint64         `json:"amount"`
}

var _ weft.Msg = (*MintToMsg)(nil)

func (MintToMsg) Path() string { return pathMintToMsg }

func (m *MintToMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *MintToMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *MintToMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Mint", m.Mint.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if m.Amount == 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
	}
	return errs
}

// TransferMsg moves tokens between associated accounts of two owners. The
// source owner must sign. The destination account is opened if needed.
type TransferMsg struct {
	Metadata    *weft.Metadata `json:"metadata"`
	Source      weft.Address   `json:"source"`
	Destination weft.Address   `json:"destination"`
	Mint        weft.Address   `json:"mint"`
	Amount      uint64         `json:"amount"`
	Decimals    uint32         `json:"decimals"`
}

var _ weft.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string { return pathTransferMsg }

func (m *TransferMsg) Marshal() ([]byte, error)   { return weft.MarshalModel(m) }
func (m *TransferMsg) Unmarshal(raw []byte) error { return weft.UnmarshalModel(raw, m) }

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	errs = errors.AppendField(errs, "Mint", m.Mint.Validate())
	if m.Amount == 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrAmount)
	}
	return errs
}
