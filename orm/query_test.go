package orm

import (
	"testing"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
)

func TestBucketQueries(t *testing.T) {
	db := store.MemStore()
	b := newNoteBucket()
	alice := weftest.NewCondition().Address()
	bert := weftest.NewCondition().Address()

	notes := map[string]*note{
		"a1": {Owner: alice, Title: "first"},
		"a2": {Owner: alice, Title: "second"},
		"b1": {Owner: bert, Title: "third"},
	}
	raw := make(map[string][]byte)
	for key, n := range notes {
		_, err := b.Put(db, []byte(key), n)
		assert.Nil(t, err)
		bz, err := n.Marshal()
		assert.Nil(t, err)
		raw[key] = bz
	}
	pair := func(key string) weft.Model {
		return weft.Pair([]byte("notes:"+key), raw[key])
	}

	qr := weft.NewQueryRouter()
	b.Register("notes", qr)

	cases := map[string]struct {
		Path    string
		Mod     string
		Data    []byte
		WantErr *errors.Error
		Want    []weft.Model
	}{
		"by primary key": {
			Path: "/notes",
			Mod:  weft.KeyQueryMod,
			Data: []byte("a2"),
			Want: []weft.Model{pair("a2")},
		},
		"missing primary key": {
			Path: "/notes",
			Mod:  weft.KeyQueryMod,
			Data: []byte("c1"),
			Want: nil,
		},
		"by primary key prefix": {
			Path: "/notes",
			Mod:  weft.PrefixQueryMod,
			Data: []byte("a"),
			Want: []weft.Model{pair("a1"), pair("a2")},
		},
		"empty prefix lists the bucket": {
			Path: "/notes",
			Mod:  weft.PrefixQueryMod,
			Data: nil,
			Want: []weft.Model{pair("a1"), pair("a2"), pair("b1")},
		},
		"unknown mod": {
			Path:    "/notes",
			Mod:     "range",
			Data:    []byte("a"),
			WantErr: errors.ErrInput,
		},
		"by index value": {
			Path: "/notes/owner",
			Mod:  weft.KeyQueryMod,
			Data: alice,
			Want: []weft.Model{pair("a1"), pair("a2")},
		},
		"by unique index value": {
			Path: "/notes/title",
			Mod:  weft.KeyQueryMod,
			Data: noteKey("third"),
			Want: []weft.Model{pair("b1")},
		},
		"index value without entities": {
			Path: "/notes/owner",
			Mod:  weft.KeyQueryMod,
			Data: weftest.NewCondition().Address(),
			Want: []weft.Model{},
		},
		"prefix query of an index": {
			Path:    "/notes/owner",
			Mod:     weft.PrefixQueryMod,
			Data:    alice[:2],
			WantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			h := qr.Handler(tc.Path)
			if h == nil {
				t.Fatalf("no handler registered for %s", tc.Path)
			}
			got, err := h.Query(db, tc.Mod, tc.Data)
			assert.IsErr(t, tc.WantErr, err)
			if tc.WantErr == nil {
				assert.Equal(t, tc.Want, got)
			}
		})
	}
}
