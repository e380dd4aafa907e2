package weft

import (
	amino "github.com/tendermint/go-amino"
)

// Codec is used to serialize all models, messages and transactions. Each
// extension registers its messages as concrete implementations of the Msg
// interface during package initialization.
var Codec = amino.NewCodec()

func init() {
	Codec.RegisterInterface((*Msg)(nil), nil)
}

// MarshalModel serializes given structure using the shared codec.
func MarshalModel(m interface{}) ([]byte, error) {
	return Codec.MarshalBinaryBare(m)
}

// UnmarshalModel deserializes raw data into given structure pointer using the
// shared codec.
func UnmarshalModel(raw []byte, dest interface{}) error {
	return Codec.UnmarshalBinaryBare(raw, dest)
}

// RegisterMsg registers given message so that it can be carried by a
// transaction or a scheduled task. Name should be the message path.
func RegisterMsg(m Msg, name string) {
	Codec.RegisterConcrete(m, name, nil)
}
