/*
Package escrow implements a token swap between a maker and a taker.

The maker deposits tokens of one mint into a vault that is owned by the
escrow record and asks for an amount of another mint in exchange. Both the
record and the vault are found at derived addresses, so no private key can
move the deposit: only this extension acting with the derived authority of
the record.

An escrow is closed by exactly one of take or refund. When the escrow is
made, a refund is queued in the task queue and is executed after the
configured delay unless the escrow was closed before.
*/
package escrow
