package app

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/store/iavl"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/x/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// writeHandler stores the message path under a fixed key.
type writeHandler struct {
	key []byte
	err error
}

func (h writeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if err := db.Set(h.key, []byte(weft.GetPath(tx))); err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	return &weft.CheckResult{GasAllocated: 10}, nil
}

func (h writeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	if err := db.Set(h.key, []byte(weft.GetPath(tx))); err != nil {
		return nil, err
	}
	if h.err != nil {
		return nil, h.err
	}
	return &weft.DeliverResult{
		Tags: []common.KVPair{{Key: []byte("written"), Value: h.key}},
	}, nil
}

// kvQuery returns the raw value stored under the requested key.
type kvQuery struct{}

func (kvQuery) Query(db weft.ReadOnlyKVStore, mod string, data []byte) ([]weft.Model, error) {
	val, err := db.Get(data)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	return []weft.Model{weft.Pair(data, val)}, nil
}

// genesisWriter copies the "demo" genesis section into the store.
type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts weft.Options, params weft.GenesisParams, db weft.KVStore) error {
	var demo struct {
		Value string `json:"value"`
	}
	if err := opts.ReadOptions("demo", &demo); err != nil {
		return err
	}
	return db.Set([]byte("demo"), []byte(demo.Value))
}

// heightTicker records the height of every tick.
type heightTicker struct {
	heights []int64
}

func (t *heightTicker) Tick(ctx weft.Context, db weft.CacheableKVStore) weft.TickResult {
	h, _ := weft.GetHeight(ctx)
	t.heights = append(t.heights, h)
	if err := db.Set([]byte("tick"), []byte{byte(h)}); err != nil {
		panic(err)
	}
	return weft.TickResult{
		Tags:     []common.KVPair{{Key: []byte("tick"), Value: []byte{byte(h)}}},
		Executed: [][]byte{[]byte("task")},
	}
}

func decodeTestTx(raw []byte) (weft.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrInput, "empty transaction")
	}
	return &weftest.Tx{Msg: &weftest.Msg{RoutePath: string(raw)}}, nil
}

func TestBaseApp(t *testing.T) {
	r := NewRouter()
	r.Handle(&weftest.Msg{RoutePath: "test/write"}, writeHandler{key: []byte("written")})
	r.Handle(&weftest.Msg{RoutePath: "test/fail"}, writeHandler{key: []byte("failed"), err: errors.ErrState})

	qr := weft.NewQueryRouter()
	qr.Register("/kv", kvQuery{})

	ticker := &heightTicker{}
	metrics := NewMetrics()

	kv := iavl.NewCommitStore("", "")
	defer kv.Close()
	sa := NewStoreApp("weft-test", kv, qr, context.Background()).
		WithInit(ChainInitializers(genesisWriter{}))
	stack := ChainDecorators(
		utils.NewRecovery(),
		utils.NewSavepoint().OnCheck().OnDeliver(),
	).WithHandler(r)
	myApp := NewBaseApp(sa, decodeTestTx, stack, ticker, false).WithMetrics(metrics)

	const chainID = "test-chain-22"
	myApp.InitChain(abci.RequestInitChain{
		ChainId:       chainID,
		Time:          time.Now(),
		AppStateBytes: []byte(`{"demo": {"value": "hello"}}`),
	})
	assert.Equal(t, chainID, myApp.GetChainID())

	now := time.Now().UTC()
	bres := myApp.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1, Time: now}})
	require.Len(t, bres.Tags, 1)
	assert.Equal(t, []int64{1}, ticker.heights)

	cres := myApp.CheckTx([]byte("test/write"))
	require.Equal(t, uint32(0), cres.Code, cres.Log)
	assert.Equal(t, int64(10), cres.GasWanted)

	dres := myApp.DeliverTx([]byte("test/write"))
	require.Equal(t, uint32(0), dres.Code, dres.Log)
	require.Len(t, dres.Tags, 1)

	dres = myApp.DeliverTx([]byte("test/fail"))
	assert.Equal(t, errors.ErrState.ABCICode(), dres.Code)

	dres = myApp.DeliverTx([]byte("test/unknown"))
	assert.Equal(t, errors.ErrNotFound.ABCICode(), dres.Code)

	dres = myApp.DeliverTx(nil)
	assert.Equal(t, errors.ErrInput.ABCICode(), dres.Code)

	// A failed transaction leaves no trace in the state.
	val, err := myApp.DeliverStore().Get([]byte("failed"))
	require.NoError(t, err)
	assert.Nil(t, val)

	myApp.EndBlock(abci.RequestEndBlock{})
	commit := myApp.Commit()
	assert.NotEmpty(t, commit.Data)

	info := myApp.Info(abci.RequestInfo{})
	assert.Equal(t, int64(1), info.LastBlockHeight)
	assert.Equal(t, "weft-test", info.Data)

	qres := myApp.Query(abci.RequestQuery{Path: "/kv", Data: []byte("written")})
	require.Equal(t, uint32(0), qres.Code, qres.Log)
	var got rawValue
	require.NoError(t, UnmarshalOneResult(qres.Value, &got))
	assert.Equal(t, "test/write", string(got))

	qres = myApp.Query(abci.RequestQuery{Path: "/kv", Data: []byte("demo")})
	require.NoError(t, UnmarshalOneResult(qres.Value, &got))
	assert.Equal(t, "hello", string(got))

	qres = myApp.Query(abci.RequestQuery{Path: "/kv", Data: []byte("tick")})
	require.NoError(t, UnmarshalOneResult(qres.Value, &got))
	assert.Equal(t, []byte{1}, []byte(got))

	qres = myApp.Query(abci.RequestQuery{Path: "/missing"})
	assert.Equal(t, errors.ErrNotFound.ABCICode(), qres.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.tasks))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.txs.WithLabelValues("deliver_tx", "test/write", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.txs.WithLabelValues("deliver_tx", "test/fail", "error")))

	// The chain id cannot be initialized twice.
	assert.Panics(t, func() {
		myApp.InitChain(abci.RequestInitChain{ChainId: chainID, AppStateBytes: []byte(`{}`)})
	})
}

// rawValue keeps the serialized form as is.
type rawValue []byte

func (v *rawValue) Unmarshal(raw []byte) error {
	*v = append((*v)[:0], raw...)
	return nil
}

func (v rawValue) Marshal() ([]byte, error) {
	return v, nil
}

func TestSplitPath(t *testing.T) {
	cases := map[string]struct {
		path, wantPath, wantMod string
	}{
		"plain":  {path: "/escrows", wantPath: "/escrows"},
		"prefix": {path: "/escrows?prefix", wantPath: "/escrows", wantMod: "prefix"},
		"index":  {path: "/escrows/maker?prefix", wantPath: "/escrows/maker", wantMod: "prefix"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path, mod := splitPath(tc.path)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantMod, mod)
		})
	}
}

func TestJoinResults(t *testing.T) {
	models := []weft.Model{
		weft.Pair([]byte("a"), []byte("1")),
		weft.Pair([]byte("b"), []byte("2")),
	}
	keys, err := ResultsFromKeys(models).Marshal()
	require.NoError(t, err)
	values, err := ResultsFromValues(models).Marshal()
	require.NoError(t, err)

	var k, v ResultSet
	require.NoError(t, k.Unmarshal(keys))
	require.NoError(t, v.Unmarshal(values))
	joined, err := JoinResults(&k, &v)
	require.NoError(t, err)
	assert.Equal(t, models, joined)

	_, err = JoinResults(&k, &ResultSet{})
	assert.True(t, errors.ErrState.Is(err))
}
