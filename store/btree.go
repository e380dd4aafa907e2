package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/weft/errors"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree.
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore returns a simple implementation useful for tests.
// There is no persistence here....
func MemStore() CacheableKVStore {
	return NewBTreeCacheWrap(EmptyKVStore{}, EmptyKVStore{}, nil)
}

// BTreeCacheWrap places a btree cache over a KVStore. Reads fall through to
// the backing store when the key is not cached. All writes are recorded and
// replayed, in order, on the parent when Write is called.
type BTreeCacheWrap struct {
	bt     *btree.BTree
	free   *btree.FreeList
	back   ReadOnlyKVStore
	parent SetDeleter
	ops    []op
}

var _ KVCacheWrap = (*BTreeCacheWrap)(nil)

// NewBTreeCacheWrap initializes a BTree to cache around this kv store.
// Reads are served from back, while Write flushes all changes into parent.
// Usually back and parent are the same store.
//
// free may be nil, but set to an existing list to reuse it
// for memory savings.
func NewBTreeCacheWrap(back ReadOnlyKVStore, parent SetDeleter, free *btree.FreeList) *BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return &BTreeCacheWrap{
		bt:     btree.NewWithFreeList(2, free),
		free:   free,
		back:   back,
		parent: parent,
	}
}

// CacheWrap layers another BTree on top of this one.
func (b *BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b, b.free)
}

// Write replays all changes on the parent store and then cleans up.
func (b *BTreeCacheWrap) Write() error {
	for _, o := range b.ops {
		var err error
		if o.deleted {
			err = b.parent.Delete(o.key)
		} else {
			err = b.parent.Set(o.key, o.value)
		}
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, err.Error())
		}
	}
	b.Discard()
	return nil
}

// Discard invalidates this CacheWrap and releases all data.
func (b *BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for b.bt.DeleteMin() != nil {
	}
	b.ops = nil
}

// Set writes to the BTree and records the operation.
func (b *BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		panic("nil key")
	}
	key, value = copyBytes(key), copyBytes(value)
	b.bt.ReplaceOrInsert(item{key: key, value: value})
	b.ops = append(b.ops, op{key: key, value: value})
	return nil
}

// Delete marks the key as deleted and records the operation.
func (b *BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		panic("nil key")
	}
	key = copyBytes(key)
	b.bt.ReplaceOrInsert(item{key: key, deleted: true})
	b.ops = append(b.ops, op{key: key, deleted: true})
	return nil
}

// Get reads from btree if there, else backing store.
func (b *BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if res := b.bt.Get(item{key: key}); res != nil {
		it := res.(item)
		if it.deleted {
			return nil, nil
		}
		return it.value, nil
	}
	return b.back.Get(key)
}

// Has reads from btree if there, else backing store.
func (b *BTreeCacheWrap) Has(key []byte) (bool, error) {
	if res := b.bt.Get(item{key: key}); res != nil {
		return !res.(item).deleted, nil
	}
	return b.back.Has(key)
}

// Iterator over a domain of keys in ascending order.
// Combines results from btree and backing store.
func (b *BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	merged, err := b.merged(start, end)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(merged), nil
}

// ReverseIterator over a domain of keys in descending order.
// Combines results from btree and backing store.
func (b *BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	merged, err := b.merged(start, end)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
		merged[i], merged[j] = merged[j], merged[i]
	}
	return NewSliceIterator(merged), nil
}

// merged returns all the items within the range, ordered ascending, with the
// cached changes applied on top of the backing store content.
func (b *BTreeCacheWrap) merged(start, end []byte) ([]Model, error) {
	parentIt, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	parent, err := ReadAll(parentIt)
	if err != nil {
		return nil, err
	}

	var cached []item
	collect := func(i btree.Item) bool {
		it := i.(item)
		if end != nil && bytes.Compare(it.key, end) >= 0 {
			return false
		}
		cached = append(cached, it)
		return true
	}
	if start == nil {
		b.bt.Ascend(collect)
	} else {
		b.bt.AscendGreaterOrEqual(item{key: start}, collect)
	}

	res := make([]Model, 0, len(parent)+len(cached))
	var p, c int
	for p < len(parent) || c < len(cached) {
		switch {
		case c >= len(cached):
			res = append(res, parent[p])
			p++
		case p >= len(parent):
			if !cached[c].deleted {
				res = append(res, Model{Key: cached[c].key, Value: cached[c].value})
			}
			c++
		default:
			switch cmp := bytes.Compare(parent[p].Key, cached[c].key); {
			case cmp < 0:
				res = append(res, parent[p])
				p++
			case cmp > 0:
				if !cached[c].deleted {
					res = append(res, Model{Key: cached[c].key, Value: cached[c].value})
				}
				c++
			default:
				// Cached value overwrites the parent one.
				if !cached[c].deleted {
					res = append(res, Model{Key: cached[c].key, Value: cached[c].value})
				}
				p++
				c++
			}
		}
	}
	return res, nil
}

// ShowOps returns all the operations recorded so far, in order.
func (b *BTreeCacheWrap) ShowOps() []Op {
	res := make([]Op, len(b.ops))
	for i, o := range b.ops {
		res[i] = Op{Key: o.key, Value: o.value, Delete: o.deleted}
	}
	return res
}

// Op is a public representation of a recorded write.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

type op struct {
	key     []byte
	value   []byte
	deleted bool
}

// item implements btree.Item. Deleted items are kept to shadow the value in
// the backing store.
type item struct {
	key     []byte
	value   []byte
	deleted bool
}

// Less returns true iff second argument is greater than first.
func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cpy := make([]byte, len(b))
	copy(cpy, b)
	return cpy
}
