/*
Package randomness implements a user record that can be delegated to a
validator and filled with values delivered by a VRF oracle.

A randomness request is stored in the oracle queue together with the
callback the oracle has to send. The callback is accepted only when signed
by the configured oracle identity. Requests and callbacks are not matched:
with more than one pending request of the same user, the last delivered
value wins.
*/
package randomness
