package orm

import (
	"bytes"
	"reflect"
	"regexp"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	weft.Persistent
	Validate() error
}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db weft.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db weft.ReadOnlyKVStore, key []byte) error

	// ByIndex returns all entities that index with given name produced
	// the given key. Destination must be a pointer to a slice of model
	// pointers. The primary keys of the found entities are returned in
	// the same order.
	ByIndex(db weft.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// Put saves given model in the database. Before inserting into
	// database, model is validated using its Validate method.
	// If the key is nil or zero length then a sequence generator is used
	// to create a unique key value.
	// Using a key that already exists in the database cause the value to
	// be overwritten.
	Put(db weft.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weft.KVStore, key []byte) error

	// Register registers this bucket for queries under /<name> and every
	// index under /<name>/<index name>.
	Register(name string, r weft.QueryRouter)
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model Because of Go type system, using []Model type would not work for
// us. Instead we use a placeholder type and the validation is done during the
// runtime.
type ModelSlicePtr interface{}

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// NewModelBucket returns a ModelBucket instance. Name is used as the key
// prefix of every stored entity and must be unique within the application.
// Given model is only used as a prototype to create new instances when
// reading from the database.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	tp := reflect.TypeOf(m)
	if tp.Kind() != reflect.Ptr {
		panic("model must be a pointer")
	}

	b := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp,
		indexes: make(map[string]index),
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic("index " + name + " already registered")
		}
		mb.indexes[name] = newIndex(mb.name, name, indexer, unique)
	}
}

// WithIDSequence configures the bucket to use the given sequence instance
// for generating ID.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = s
	}
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]index
	idSeq   Sequence
}

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte{}, mb.prefix...), key...)
}

// newModel returns a new, empty instance of the stored model type.
func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model.Elem()).Interface().(Model)
}

func (mb *modelBucket) load(db weft.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return nil, nil
	}
	m := mb.newModel()
	if err := m.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot unmarshal %s", mb.name)
	}
	return m, nil
}

func (mb *modelBucket) One(db weft.ReadOnlyKVStore, key []byte, dest Model) error {
	m, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	if !reflect.TypeOf(m).AssignableTo(reflect.TypeOf(dest)) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", m, dest)
	}
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(m).Elem())
	return nil
}

func (mb *modelBucket) Has(db weft.ReadOnlyKVStore, key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrNotFound, "nil key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) ByIndex(db weft.ReadOnlyKVStore, indexName string, key []byte, destination ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInput, "unknown index %q", indexName)
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to a slice of models")
	}
	if dest.IsNil() {
		return nil, errors.Wrap(errors.ErrInput, "got nil pointer")
	}
	if dest.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrap(errors.ErrType, "destination must be a pointer to a slice of models")
	}
	if !mb.model.AssignableTo(dest.Elem().Type().Elem()) {
		return nil, errors.Wrapf(errors.ErrType, "%s cannot be stored in %T", mb.model, destination)
	}

	refs, err := idx.refs(db, key)
	if err != nil {
		return nil, err
	}
	slice := dest.Elem()
	for _, ref := range refs {
		m, err := mb.load(db, ref)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "index %s references missing %X", indexName, ref)
		}
		slice = reflect.Append(slice, reflect.ValueOf(m))
	}
	dest.Elem().Set(slice)
	return refs, nil
}

func (mb *modelBucket) Put(db weft.KVStore, key []byte, m Model) ([]byte, error) {
	if reflect.TypeOf(m) != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "cannot store %T type in this bucket", m)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		if mb.idSeq.id == nil {
			return nil, errors.Wrap(errors.ErrHuman, "no sequence configured")
		}
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = next
	}

	old, err := mb.load(db, key)
	if err != nil {
		return nil, err
	}
	// Nothing is written unless every unique index accepts the model.
	for name, idx := range mb.indexes {
		if err := idx.check(db, key, m); err != nil {
			return nil, errors.Wrapf(err, "index %s", name)
		}
	}
	for name, idx := range mb.indexes {
		if err := idx.update(db, key, old, m); err != nil {
			return nil, errors.Wrapf(err, "index %s", name)
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

func (mb *modelBucket) Delete(db weft.KVStore, key []byte) error {
	old, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if old == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	for name, idx := range mb.indexes {
		if err := idx.update(db, key, old, nil); err != nil {
			return errors.Wrapf(err, "index %s", name)
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Register(name string, r weft.QueryRouter) {
	root := "/" + name
	r.Register(root, &primaryQuery{bucket: mb})
	for n, idx := range mb.indexes {
		r.Register(root+"/"+n, &indexQuery{bucket: mb, idx: idx})
	}
}

// hasPrefix is a helper used by queries.
func hasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}
