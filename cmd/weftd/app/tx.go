package app

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x/sigs"
)

// Tx carries a single message together with the signatures authorizing it.
type Tx struct {
	Msg        weft.Msg             `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

var _ weft.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weft.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// NewTx returns an unsigned transaction carrying given message.
func NewTx(msg weft.Msg) *Tx {
	return &Tx{Msg: msg}
}

// GetMsg returns a single message instance that is represented by this
// transaction.
func (tx *Tx) GetMsg() (weft.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "transaction message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signatures on the Tx
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign: the transaction serialized
// without its signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Marshal serializes the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	bz, err := weft.Codec.MarshalBinaryBare(tx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return bz, nil
}

// Unmarshal deserializes the transaction.
func (tx *Tx) Unmarshal(bz []byte) error {
	if len(bz) == 0 {
		return errors.Wrap(errors.ErrEmpty, "transaction")
	}
	if err := weft.Codec.UnmarshalBinaryBare(bz, tx); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return nil
}
