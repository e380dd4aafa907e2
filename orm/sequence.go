package orm

import (
	"encoding/binary"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Sequence maintains a counter, and generates a series of keys. Each key
// is greater than the previous one, when comparing bytes.
type Sequence struct {
	id []byte
}

// NewSequence creates a sequence with a given name within the given bucket.
func NewSequence(bucket, name string) Sequence {
	return Sequence{id: []byte("_s." + bucket + ":" + name)}
}

// NextVal increments the sequence and returns its state as 8 bytes.
func (s Sequence) NextVal(db weft.KVStore) ([]byte, error) {
	val, err := s.curr(db)
	if err != nil {
		return nil, err
	}
	val++
	raw := encodeSequence(val)
	if err := db.Set(s.id, raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return raw, nil
}

func (s Sequence) curr(db weft.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, errors.Wrapf(errors.ErrState, "invalid sequence value %X", raw)
	}
	return binary.BigEndian.Uint64(raw), nil
}

func encodeSequence(val uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, val)
	return raw
}
