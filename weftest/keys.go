package weftest

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/crypto"
)

// NewKey returns a new random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a new random key.
func NewCondition() weft.Condition {
	return NewKey().PublicKey().Condition()
}
