package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/iov-one/weft"
	weftd "github.com/iov-one/weft/cmd/weftd/app"
	"github.com/iov-one/weft/crypto"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x/sigs"
	"github.com/iov-one/weft/x/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/p2p"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

const testChainID = "test-chain-client"

// localConn runs the application in process and commits a block for every
// broadcast transaction.
type localConn struct {
	app    abci.Application
	height int64
	now    time.Time
	down   bool
}

func newLocalConn(t *testing.T, owner weft.Address) *localConn {
	t.Helper()
	genesis, err := weftd.GenInitOptions([]string{owner.String()})
	require.NoError(t, err)
	app, err := weftd.GenerateApp(&weftd.Options{})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app.InitChain(abci.RequestInitChain{
		ChainId:       testChainID,
		Time:          now,
		AppStateBytes: genesis,
	})
	c := &localConn{app: app, now: now}
	c.commit()
	return c
}

func (c *localConn) commit(txs ...tmtypes.Tx) []abci.ResponseDeliverTx {
	c.height++
	c.now = c.now.Add(5 * time.Second)
	c.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{ChainID: testChainID, Height: c.height, Time: c.now},
	})
	var res []abci.ResponseDeliverTx
	for _, tx := range txs {
		res = append(res, c.app.DeliverTx(tx))
	}
	c.app.EndBlock(abci.RequestEndBlock{Height: c.height})
	c.app.Commit()
	return res
}

func (c *localConn) Status() (*ctypes.ResultStatus, error) {
	if c.down {
		return nil, fmt.Errorf("connection refused")
	}
	return &ctypes.ResultStatus{
		NodeInfo: p2p.DefaultNodeInfo{Network: testChainID},
		SyncInfo: ctypes.SyncInfo{LatestBlockHeight: c.height},
	}, nil
}

func (c *localConn) ABCIQuery(path string, data cmn.HexBytes) (*ctypes.ResultABCIQuery, error) {
	if c.down {
		return nil, fmt.Errorf("connection refused")
	}
	res := c.app.Query(abci.RequestQuery{Path: path, Data: data})
	return &ctypes.ResultABCIQuery{Response: res}, nil
}

func (c *localConn) BroadcastTxCommit(tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error) {
	if c.down {
		return nil, fmt.Errorf("connection refused")
	}
	check := c.app.CheckTx(tx)
	if check.IsErr() {
		return &ctypes.ResultBroadcastTxCommit{CheckTx: check}, nil
	}
	deliver := c.commit(tx)
	return &ctypes.ResultBroadcastTxCommit{
		CheckTx:   check,
		DeliverTx: deliver[0],
		Hash:      tx.Hash(),
		Height:    c.height,
	}, nil
}

func signedTransfer(t *testing.T, key *crypto.PrivateKey, to weft.Address, amount uint64, seq int64) *weftd.Tx {
	t.Helper()
	tx := weftd.NewTx(&token.TransferMsg{
		Metadata:    &weft.Metadata{Schema: 1},
		Source:      key.PublicKey().Address(),
		Destination: to,
		Mint:        token.MintAddress("AAA"),
		Amount:      amount,
		Decimals:    6,
	})
	sig, err := sigs.SignTx(key, tx, testChainID, seq)
	require.NoError(t, err)
	tx.Signatures = []*sigs.StdSignature{sig}
	return tx
}

func TestClientStatus(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	conn := newLocalConn(t, key.PublicKey().Address())
	c := NewClient(conn)
	ctx := context.Background()

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, testChainID, status.ChainID)
	assert.Equal(t, int64(1), status.Height)

	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, testChainID, chainID)

	conn.down = true
	_, err = c.Status(ctx)
	assert.True(t, errors.ErrNetwork.Is(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Status(cancelled)
	assert.Equal(t, context.Canceled, err)
}

func TestClientSubmitTx(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	owner := key.PublicKey().Address()
	rcpt := weft.NewCondition("sig", "ed25519", []byte("recipient")).Address()
	mint := token.MintAddress("AAA")

	conn := newLocalConn(t, owner)
	c := NewClient(conn)
	ctx := context.Background()

	seq, err := c.NextSequence(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	res, err := c.SubmitTx(ctx, signedTransfer(t, key, rcpt, 250, seq))
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Height)
	assert.NotEmpty(t, res.Hash)

	seq, err = c.NextSequence(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	got, err := c.Balance(ctx, rcpt, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), got)
	got, err = c.Balance(ctx, owner, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000000-250), got)

	// Replaying the sequence is rejected by the node.
	_, err = c.SubmitTx(ctx, signedTransfer(t, key, rcpt, 1, 0))
	require.Error(t, err)
	assert.True(t, sigs.ErrInvalidSequence.Is(err), "%+v", err)

	// Sending more than the balance fails in the handler.
	_, err = c.SubmitTx(ctx, signedTransfer(t, key, rcpt, 1<<62, 1))
	require.Error(t, err)
	assert.True(t, errors.ErrInsufficientAmount.Is(err), "%+v", err)

	conn.down = true
	_, err = c.SubmitTx(ctx, signedTransfer(t, key, rcpt, 1, 1))
	assert.True(t, errors.ErrNetwork.Is(err))
}

func TestClientQuery(t *testing.T) {
	key := crypto.GenPrivKeyEd25519()
	owner := key.PublicKey().Address()
	c := NewClient(newLocalConn(t, owner))
	ctx := context.Background()

	resp, err := c.Query(ctx, "/accounts/owner", owner)
	require.NoError(t, err)
	assert.Len(t, resp.Models, 2)
	assert.Equal(t, int64(1), resp.Height)

	_, err = c.Query(ctx, "/no/such/path", nil)
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	stranger := weft.NewCondition("sig", "ed25519", []byte("stranger")).Address()
	_, err = c.Escrow(ctx, stranger)
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	escrows, err := c.EscrowsByMaker(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, escrows)

	_, err = c.UserRecord(ctx, owner)
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}
