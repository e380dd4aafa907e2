/*
Package app links together all the various components
to construct the weft node application.
*/
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/app"
	"github.com/iov-one/weft/store/iavl"
	"github.com/iov-one/weft/x"
	"github.com/iov-one/weft/x/cron"
	"github.com/iov-one/weft/x/escrow"
	"github.com/iov-one/weft/x/randomness"
	"github.com/iov-one/weft/x/randomness/oracle"
	"github.com/iov-one/weft/x/sigs"
	"github.com/iov-one/weft/x/token"
	"github.com/iov-one/weft/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is returned by the abci Info call.
const Name = "weft"

// Authenticator returns the signature authentication extended with the
// authority of the scheduled task being executed.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, cron.Authenticator{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment the signer sequence
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to all programs.
func Router(authFn x.Authenticator, scheduler *cron.Scheduler) *app.Router {
	r := app.NewRouter()
	tokens := token.NewController()
	token.RegisterRoutes(r, authFn, tokens)
	cron.RegisterRoutes(r, authFn, scheduler)
	escrow.RegisterRoutes(r, authFn, tokens, scheduler)
	randomness.RegisterRoutes(r, authFn, oracle.NewQueue())
	return r
}

// QueryRouter returns a default query router, allowing access to
// "/auth", "/mints", "/accounts", "/taskqueues", "/tasks", "/taskresults",
// "/escrows", "/users" and "/vrfrequests".
func QueryRouter() weft.QueryRouter {
	r := weft.NewQueryRouter()
	r.RegisterAll(
		sigs.RegisterQuery,
		token.RegisterQuery,
		cron.RegisterQuery,
		escrow.RegisterQuery,
		randomness.RegisterQuery,
		oracle.RegisterQuery,
	)
	return r
}

// Initializers returns all genesis initializers in the order they must
// run.
func Initializers() weft.Initializer {
	return app.ChainInitializers(
		&token.Initializer{},
		&cron.Initializer{},
		&escrow.Initializer{},
		&randomness.Initializer{},
	)
}

// Stack wires up the router with the decorator chain. Scheduled tasks are
// executed by the ticker without the decorator chain, because they carry
// no signatures.
func Stack() (weft.Handler, weft.Ticker) {
	authFn := Authenticator()
	r := Router(authFn, cron.NewScheduler())
	return Chain().WithHandler(r), cron.NewTicker(r)
}

// Options configure the application instance.
type Options struct {
	// Home is the directory the database is stored in. An empty value
	// creates an in memory database.
	Home    string
	Logger  log.Logger
	Debug   bool
	Metrics *app.Metrics
}

// GenerateApp creates the application with all programs wired.
func GenerateApp(opts *Options) (app.BaseApp, error) {
	var dbPath string
	if opts.Home != "" {
		dbPath = filepath.Join(opts.Home, "weft.db")
	}
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	handler, ticker := Stack()
	store := app.NewStoreApp(Name, kv, QueryRouter(), context.Background()).
		WithInit(Initializers()).
		WithLogger(logger)
	return app.NewBaseApp(store, TxDecoder, handler, ticker, opts.Debug).
		WithMetrics(opts.Metrics), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (weft.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewCommitStore("", ""), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}
