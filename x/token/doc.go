/*
Package token implements fungible token mints and token accounts.

A mint declares the number of decimals and the authority that can issue new
tokens. Tokens are held in accounts, each bound to a single owner and mint.
The associated account of an owner for a mint lives at a deterministic
address, so that any party can locate it. The owner can be a derived
address, in which case the account is controlled by the program that owns
the derivation.

Transfers are always checked: the caller declares the mint and its decimals,
and the transfer fails if either does not match.
*/
package token
