package orm

import (
	"bytes"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Indexer calculates the secondary index key for a given object. Returning
// a nil value means the model is not indexed.
type Indexer func(Model) ([]byte, error)

// index keeps an entry for every (index value, primary key) pair. Index
// values must all be of the same length, which is the case for addresses.
type index struct {
	name    string
	prefix  []byte
	indexer Indexer
	unique  bool
}

func newIndex(bucket, name string, indexer Indexer, unique bool) index {
	return index{
		name:    name,
		prefix:  []byte("_i." + bucket + "_" + name + ":"),
		indexer: indexer,
		unique:  unique,
	}
}

func (i index) entryPrefix(value []byte) []byte {
	return append(append([]byte{}, i.prefix...), value...)
}

func (i index) entryKey(value, pk []byte) []byte {
	return append(i.entryPrefix(value), pk...)
}

// update moves the index entry of the primary key from the old model value
// to the new one. Either model can be nil.
func (i index) update(db weft.KVStore, pk []byte, prev, next Model) error {
	var oldVal, newVal []byte
	var err error
	if prev != nil {
		if oldVal, err = i.indexer(prev); err != nil {
			return err
		}
	}
	if next != nil {
		if newVal, err = i.indexer(next); err != nil {
			return err
		}
	}
	if prev != nil && next != nil && bytes.Equal(oldVal, newVal) {
		return nil
	}

	if oldVal != nil {
		if err := db.Delete(i.entryKey(oldVal, pk)); err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	if newVal == nil {
		return nil
	}
	if err := db.Set(i.entryKey(newVal, pk), []byte{1}); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// check returns ErrDuplicate if the model value of a unique index is
// already referenced by another primary key.
func (i index) check(db weft.ReadOnlyKVStore, pk []byte, m Model) error {
	if !i.unique {
		return nil
	}
	val, err := i.indexer(m)
	if err != nil || val == nil {
		return err
	}
	refs, err := i.refs(db, val)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if !bytes.Equal(ref, pk) {
			return errors.Wrapf(errors.ErrDuplicate, "unique index value %X", val)
		}
	}
	return nil
}

// refs returns all primary keys referenced by given index value.
func (i index) refs(db weft.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	start := i.entryPrefix(value)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Release()

	var res [][]byte
	for {
		key, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		res = append(res, append([]byte{}, key[len(start):]...))
	}
}

// prefixEnd returns the first key that does not start with given prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	// Prefix was all 0xff.
	return nil
}
