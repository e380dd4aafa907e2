package weftest

import (
	"context"
	"time"

	"github.com/iov-one/weft"
	abci "github.com/tendermint/tendermint/abci/types"
)

// ChainID is used by BlockContext.
const ChainID = "weft-testchain"

// BlockContext returns a context with the chain ID, height and block time
// set, as the application does for every block.
func BlockContext(height int64, now time.Time) weft.Context {
	ctx := context.Background()
	ctx = weft.WithChainID(ctx, ChainID)
	ctx = weft.WithHeader(ctx, abci.Header{ChainID: ChainID, Height: height, Time: now})
	ctx = weft.WithHeight(ctx, height)
	return weft.WithBlockTime(ctx, now)
}
