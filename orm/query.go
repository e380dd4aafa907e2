package orm

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store"
)

// primaryQuery returns entities by their primary key, or by primary key
// prefix.
type primaryQuery struct {
	bucket *modelBucket
}

var _ weft.QueryHandler = (*primaryQuery)(nil)

func (q *primaryQuery) Query(db weft.ReadOnlyKVStore, mod string, data []byte) ([]weft.Model, error) {
	switch mod {
	case weft.KeyQueryMod:
		key := q.bucket.dbKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		if value == nil {
			return nil, nil
		}
		return []weft.Model{weft.Pair(key, value)}, nil
	case weft.PrefixQueryMod:
		prefix := q.bucket.dbKey(data)
		it, err := db.Iterator(prefix, prefixEnd(prefix))
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return store.ReadAll(it)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// indexQuery returns all entities referenced by an index value.
type indexQuery struct {
	bucket *modelBucket
	idx    index
}

var _ weft.QueryHandler = (*indexQuery)(nil)

func (q *indexQuery) Query(db weft.ReadOnlyKVStore, mod string, data []byte) ([]weft.Model, error) {
	if mod != weft.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unsupported mod: %s", mod)
	}
	refs, err := q.idx.refs(db, data)
	if err != nil {
		return nil, err
	}
	res := make([]weft.Model, 0, len(refs))
	for _, ref := range refs {
		key := q.bucket.dbKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		if value != nil && hasPrefix(key, q.bucket.prefix) {
			res = append(res, weft.Pair(key, value))
		}
	}
	return res, nil
}
