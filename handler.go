package weft

import (
	"encoding/json"

	"github.com/tendermint/tendermint/libs/common"
)

// Handler is a core engine that can process a few specific messages.
// This could represent "create an escrow", or "queue a task".
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication to many Handlers.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Ticker is called at the beginning of every block. It is used to execute
// tasks that were scheduled for a later time.
//
// Because beginning of the block does not allow for an error response this
// method does not return one as well. It is the implementation
// responsibility to handle all error situations.
type Ticker interface {
	Tick(ctx Context, store CacheableKVStore) TickResult
}

// Registry is an interface to register your handler,
// the setup side of a Router.
type Registry interface {
	Handle(m Msg, h Handler)
}

// Options are the app options.
// Each extension can look up it's key and parse the json as desired.
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing.
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	return json.Unmarshal(msg, obj)
}

// Initializer implementations are used to initialize
// extensions from genesis file contents.
type Initializer interface {
	FromGenesis(Options, GenesisParams, KVStore) error
}

// GenesisParams groups the information available when the chain is started
// that is not part of the application state.
type GenesisParams struct {
	ChainID string
	Time    UnixTime
}

// CheckResult captures any non-error results of Check.
type CheckResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// GasAllocated is the maximum units of work we allow this tx to
	// perform.
	GasAllocated int64
}

// DeliverResult captures any non-error results of Deliver.
type DeliverResult struct {
	// Data is a machine-parseable return value, like id of created entity.
	Data []byte
	// Log is human-readable informational string.
	Log string
	// Tags are used to index the transaction by tendermint.
	Tags []common.KVPair
	// GasUsed is the amount of work this transaction performed.
	GasUsed int64
}

// TickResult represents the result of a single tick run.
type TickResult struct {
	// Tags contains a list of tags that were produced during a single tick
	// execution. They should be included in the block that this tick
	// result was produced.
	Tags []common.KVPair
	// Executed contains identifiers of all tasks that were processed.
	Executed [][]byte
}
