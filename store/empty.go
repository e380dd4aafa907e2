package store

// EmptyKVStore never holds any data. All writes are discarded. It is used as
// the base layer of the in memory store.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }

func (EmptyKVStore) Has(key []byte) (bool, error) { return false, nil }

func (EmptyKVStore) Set(key, value []byte) error { return nil }

func (EmptyKVStore) Delete(key []byte) error { return nil }

func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
