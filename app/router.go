package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and then
// direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]weft.Handler
}

var _ weft.Registry = (*Router)(nil)
var _ weft.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]weft.Handler, 16),
	}
}

// Handle registers a handler for the path of given message. It panics if the
// path was already registered or contains invalid characters.
func (r *Router) Handle(msg weft.Msg, h weft.Handler) {
	path := msg.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered handler for the message path or a handler
// that always fails.
func (r *Router) handler(m weft.Msg) weft.Handler {
	path := m.Path()
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the arguments.
type notFoundHandler string

func (path notFoundHandler) Check(weft.Context, weft.KVStore, weft.Tx) (*weft.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(weft.Context, weft.KVStore, weft.Tx) (*weft.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
