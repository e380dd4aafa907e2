package store

import "github.com/iov-one/weft"

// Move references for all storage types into this package
// for shorter names everywhere.

type ReadOnlyKVStore = weft.ReadOnlyKVStore
type KVStore = weft.KVStore
type SetDeleter = weft.SetDeleter
type Iterator = weft.Iterator
type CacheableKVStore = weft.CacheableKVStore
type KVCacheWrap = weft.KVCacheWrap
type CommitKVStore = weft.CommitKVStore
type CommitID = weft.CommitID

// Model is a key value pair as returned by iterators.
type Model = weft.Model
