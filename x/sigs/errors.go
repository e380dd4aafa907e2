package sigs

import "github.com/iov-one/weft/errors"

// ErrInvalidSequence is returned when a signature carries a sequence value
// different than the one stored for the signer.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
