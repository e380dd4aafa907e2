/*
Package oracle keeps randomness requests waiting for the VRF oracle.

The oracle itself runs outside of the chain. It reads pending requests of its
queue, computes the randomness and delivers it by sending the callback
message named in the request, signed with the oracle identity.
*/
package oracle
