/*
Package sigs provides basic authentication middleware to verify the
signatures on the transaction, and maintain sequences for replay
protection.

Every signer is represented by the condition sigs/ed25519/<public key>.
*/
package sigs
