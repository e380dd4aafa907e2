package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/client"
	"github.com/iov-one/weft/cmd/weftd/app"
	"github.com/iov-one/weft/crypto"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x/sigs"
	"github.com/iov-one/weft/x/token"
)

// signAndSubmit wraps the message into a transaction signed with the
// current sequence of the key and waits until the node commits it.
func signAndSubmit(ctx context.Context, c *client.Client, key *crypto.PrivateKey, msg weft.Msg) (*client.CommitResult, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := c.NextSequence(ctx, key.PublicKey().Address())
	if err != nil {
		return nil, errors.Wrap(err, "sequence")
	}
	tx := app.NewTx(msg)
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return nil, errors.Wrap(err, "sign")
	}
	tx.Signatures = []*sigs.StdSignature{sig}
	return c.SubmitTx(ctx, tx)
}

func printResult(w io.Writer, res *client.CommitResult) {
	fmt.Fprintf(w, "committed at height %d: %X\n", res.Height, res.Hash)
	for _, t := range res.Tags {
		fmt.Fprintf(w, "  %s=%s\n", t.Key, t.Value)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize: %s", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

// mintAddress accepts either a mint name or its address.
func mintAddress(s string) weft.Address {
	if addr, err := weft.ParseAddress(s); err == nil {
		return addr
	}
	return token.MintAddress(s)
}
