package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store"
	"github.com/iov-one/weft/weftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

// writeHandler writes a single key and returns configured error.
type writeHandler struct {
	key, value []byte
	err        error
	panics     bool
}

func (h writeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	if h.panics {
		panic("boom")
	}
	if h.err != nil {
		return nil, h.err
	}
	return &weft.CheckResult{}, nil
}

func (h writeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	if err := db.Set(h.key, h.value); err != nil {
		return nil, err
	}
	if h.panics {
		panic("boom")
	}
	if h.err != nil {
		return nil, h.err
	}
	return &weft.DeliverResult{}, nil
}

func TestSavepoint(t *testing.T) {
	key, value := []byte{1, 2, 3}, []byte{4, 5, 6}
	failure := errors.Wrap(errors.ErrHuman, "something went wrong")

	cases := map[string]struct {
		Save    Savepoint
		Handler writeHandler
		Check   bool
		Written bool
	}{
		"disabled, error, written": {
			Save:    NewSavepoint(),
			Handler: writeHandler{key: key, value: value, err: failure},
			Check:   true,
			Written: true,
		},
		"check, error, rolled back": {
			Save:    NewSavepoint().OnCheck(),
			Handler: writeHandler{key: key, value: value, err: failure},
			Check:   true,
			Written: false,
		},
		"deliver, error, rolled back": {
			Save:    NewSavepoint().OnDeliver(),
			Handler: writeHandler{key: key, value: value, err: failure},
			Written: false,
		},
		"deliver only does not isolate check": {
			Save:    NewSavepoint().OnDeliver(),
			Handler: writeHandler{key: key, value: value, err: failure},
			Check:   true,
			Written: true,
		},
		"both, success, written": {
			Save:    NewSavepoint().OnCheck().OnDeliver(),
			Handler: writeHandler{key: key, value: value},
			Written: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctx := context.Background()
			tx := &weftest.Tx{}
			if tc.Check {
				_, _ = tc.Save.Check(ctx, db, tx, tc.Handler)
			} else {
				_, _ = tc.Save.Deliver(ctx, db, tx, tc.Handler)
			}
			has, err := db.Has(key)
			require.NoError(t, err)
			assert.Equal(t, tc.Written, has)
		})
	}
}

func TestRecovery(t *testing.T) {
	db := store.MemStore()
	h := writeHandler{key: []byte("k"), value: []byte("v"), panics: true}
	tx := &weftest.Tx{Msg: &weftest.Msg{RoutePath: "escrow/refund"}}

	var out bytes.Buffer
	ctx := weft.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&out)))

	_, err := NewRecovery().Check(ctx, db, tx, h)
	require.True(t, errors.ErrPanic.Is(err), "got %+v", err)
	assert.Contains(t, err.Error(), "escrow/refund: boom")
	_, err = NewRecovery().Deliver(ctx, db, tx, h)
	require.True(t, errors.ErrPanic.Is(err), "got %+v", err)

	assert.Contains(t, out.String(), "handler panic")
	assert.Contains(t, out.String(), "path=escrow/refund")

	_, err = NewRecovery().Deliver(ctx, db, tx, writeHandler{key: []byte("k"), value: []byte("v")})
	require.NoError(t, err)
}

func TestActionTagger(t *testing.T) {
	db := store.MemStore()
	tx := &weftest.Tx{Msg: &weftest.Msg{RoutePath: "escrow/make"}}

	res, err := NewActionTagger().Deliver(context.Background(), db, tx, &weftest.Handler{})
	require.NoError(t, err)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, ActionKey, string(res.Tags[0].Key))
	assert.Equal(t, "escrow/make", string(res.Tags[0].Value))

	_, err = NewActionTagger().Deliver(context.Background(), db, tx, &weftest.Handler{DeliverErr: errors.ErrHuman})
	assert.True(t, errors.ErrHuman.Is(err))
}

func TestLogging(t *testing.T) {
	db := store.MemStore()
	tx := &weftest.Tx{Msg: &weftest.Msg{RoutePath: "escrow/make"}}
	h := &weftest.Handler{DeliverResult: weft.DeliverResult{Log: "ok"}}

	res, err := NewLogging().Deliver(context.Background(), db, tx, h)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Log)
	assert.Equal(t, 1, h.DeliverCallCount())

	_, err = NewLogging().Check(context.Background(), db, tx, &weftest.Handler{CheckErr: errors.ErrHuman})
	assert.True(t, errors.ErrHuman.Is(err))
}
