package utils

import (
	"time"

	"github.com/iov-one/weft"
)

// Logging is a decorator to log messages as they pass through
type Logging struct{}

var _ weft.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> info, success -> debug
func (Logging) Check(ctx weft.Context, store weft.KVStore, tx weft.Tx, next weft.Checker) (*weft.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, weft.GetPath(tx), resLog, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (Logging) Deliver(ctx weft.Context, store weft.KVStore, tx weft.Tx, next weft.Deliverer) (*weft.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	var resLog string
	if err == nil {
		resLog = res.Log
	}
	logDuration(ctx, start, weft.GetPath(tx), resLog, err, false)
	return res, err
}

// logDuration writes information about the time and result to the logger
func logDuration(ctx weft.Context, start time.Time, path, msg string, err error, lowPrio bool) {
	delta := time.Since(start)
	logger := weft.GetLogger(ctx).With("path", path, "duration", delta/time.Microsecond)

	// An entry is written even for an empty message, because it carries
	// the path and duration.
	switch {
	case err != nil:
		logger.Error(msg, "err", err)
	case lowPrio:
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}
