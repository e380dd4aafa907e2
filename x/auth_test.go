package x

import (
	"context"
	"testing"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/weftest"
)

func TestAuth(t *testing.T) {
	a := weftest.NewCondition()
	b := weftest.NewCondition()
	c := weftest.NewCondition()

	ctx := context.Background()
	ctxAuth := &weftest.CtxAuth{Key: "auth"}
	ctx = ctxAuth.SetConditions(ctx, a, b)
	static := &weftest.Auth{Signer: b}
	auth := ChainAuth(ctxAuth, static)

	if got := auth.GetConditions(ctx); len(got) != 2 {
		t.Fatalf("want duplicates removed, got %d conditions", len(got))
	}
	if !auth.HasAddress(ctx, a.Address()) {
		t.Fatal("a must be authenticated")
	}
	if auth.HasAddress(ctx, c.Address()) {
		t.Fatal("c must not be authenticated")
	}
	if !HasAllAddresses(ctx, auth, []weft.Address{a.Address(), b.Address()}) {
		t.Fatal("a and b must be authenticated")
	}
	if HasAllAddresses(ctx, auth, []weft.Address{a.Address(), c.Address()}) {
		t.Fatal("c must not be authenticated")
	}
	if got := MainSigner(ctx, auth); !got.Equals(a) {
		t.Fatalf("want a as the main signer, got %s", got)
	}
	if got := MainSigner(context.Background(), ctxAuth); got != nil {
		t.Fatalf("want no signer, got %s", got)
	}
	if got := FindCondition(ctx, auth, b.Address()); !got.Equals(b) {
		t.Fatalf("want b, got %s", got)
	}
	if got := GetAddresses(ctx, auth); len(got) != 2 || !got[1].Equals(b.Address()) {
		t.Fatalf("unexpected addresses: %v", got)
	}
}
