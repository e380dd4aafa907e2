/*
Package client provides access to a running weft node over the tendermint
rpc interface.
*/
package client

import (
	"bytes"
	"context"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/app"
	"github.com/iov-one/weft/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	rpcclient "github.com/tendermint/tendermint/rpc/client"
	ctypes "github.com/tendermint/tendermint/rpc/core/types"
	tmtypes "github.com/tendermint/tendermint/types"
)

// Conn is the subset of the tendermint rpc client used by Client.
type Conn interface {
	Status() (*ctypes.ResultStatus, error)
	ABCIQuery(path string, data cmn.HexBytes) (*ctypes.ResultABCIQuery, error)
	BroadcastTxCommit(tx tmtypes.Tx) (*ctypes.ResultBroadcastTxCommit, error)
}

var _ Conn = (*rpcclient.HTTP)(nil)

// Client is a tendermint client wrapped to provide
// simple access to the data structures used by weft.
type Client struct {
	conn Conn
}

// NewClient wraps a Client around an existing tendermint client connection.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// NewHTTPClient connects to the rpc interface of the node at given address,
// for example "http://localhost:26657".
func NewHTTPClient(remote string) *Client {
	return NewClient(rpcclient.NewHTTP(remote, "/websocket"))
}

// Status is the subjective status of the connected node.
type Status struct {
	ChainID    string
	Height     int64
	CatchingUp bool
}

// Status returns current height and other (subjective) status info from
// this node.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	status, err := c.conn.Status()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "status: %s", err)
	}
	return &Status{
		ChainID:    status.NodeInfo.Network,
		Height:     status.SyncInfo.LatestBlockHeight,
		CatchingUp: status.SyncInfo.CatchingUp,
	}, nil
}

// CommitResult is the result of a transaction included in a block.
type CommitResult struct {
	Hash   []byte
	Height int64
	Data   []byte
	Log    string
	Tags   []cmn.KVPair
}

// SubmitTx submits the transaction and waits until it is included in a
// block. A transaction rejected by CheckTx or DeliverTx is returned as an
// error that carries the ABCI code.
func (c *Client) SubmitTx(ctx context.Context, tx weft.Tx) (*CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bz, err := tx.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal transaction")
	}
	res, err := c.conn.BroadcastTxCommit(bz)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "submit tx: %s", err)
	}
	if res.CheckTx.IsErr() {
		return nil, errors.ABCIError(res.CheckTx.Code, res.CheckTx.Log)
	}
	if res.DeliverTx.IsErr() {
		return nil, errors.ABCIError(res.DeliverTx.Code, res.DeliverTx.Log)
	}
	return &CommitResult{
		Hash:   res.Hash,
		Height: res.Height,
		Data:   res.DeliverTx.Data,
		Log:    res.DeliverTx.Log,
		Tags:   res.DeliverTx.Tags,
	}, nil
}

// QueryResponse contains a query result: a (possibly empty) list of
// key-value pairs, and the height at which it was queried.
type QueryResponse struct {
	Models []weft.Model
	Height int64
}

// Query calls abci query on tendermint rpc, verifies if it is an error or
// empty, and if there is data pulls out the ResultSets from keys and values.
func (c *Client) Query(ctx context.Context, path string, data []byte) (*QueryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := c.conn.ABCIQuery(path, data)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "query %s: %s", path, err)
	}
	resp := q.Response
	if resp.IsErr() {
		return nil, errors.ABCIError(resp.Code, resp.Log)
	}
	out := QueryResponse{Height: resp.Height}
	if len(resp.Key) == 0 {
		return &out, nil
	}

	var keys, vals app.ResultSet
	if err := keys.Unmarshal(resp.Key); err != nil {
		return nil, errors.Wrap(err, "keys")
	}
	if err := vals.Unmarshal(resp.Value); err != nil {
		return nil, errors.Wrap(err, "values")
	}
	out.Models, err = app.JoinResults(&keys, &vals)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// One loads the entity stored under key in the bucket served at path. It
// returns ErrNotFound if there is no such entity.
func (c *Client) One(ctx context.Context, path string, key []byte, dest weft.Persistent) error {
	resp, err := c.Query(ctx, path, key)
	if err != nil {
		return err
	}
	for _, m := range resp.Models {
		if bytes.HasSuffix(m.Key, key) {
			return dest.Unmarshal(m.Value)
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "%s %X", path, key)
}
