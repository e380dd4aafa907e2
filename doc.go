/*
Package weft defines the common interfaces used to weave together the
extensions of the weft application: handlers and decorators, the key value
store abstraction, conditions and addresses, derived addresses and the
transaction envelope.

We pass context through context.Context between app, middleware, and
handlers. weft defines some common keys to store info, such as block height
and chain id. Each extension may add its own keys to enrich the context with
specific data.

There exist two functions for every XYZ of type T that we want to support in
Context:

	WithXYZ(Context, T) Context
	GetXYZ(Context) (val T, ok bool)

WithXYZ may panic if the value was previously set to avoid lower-level
modules overwriting the value (eg. height, header).
*/
package weft
