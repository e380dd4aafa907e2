/*
Package errors implements the error taxonomy shared by all weft extensions.

Every error returned by a handler should wrap one of the root errors declared
in this package (or one registered by an extension using Register). The root
error carries the ABCI code that is returned to the client, while the wrapping
layers add context:

	return errors.Wrapf(errors.ErrNotFound, "escrow %s", addr)

Use Is to test for a kind of error, regardless of how many times it was
wrapped:

	if errors.ErrNotFound.Is(err) { ... }

The first Wrap call records a stack trace. Format the error with %+v to print
it.
*/
package errors
