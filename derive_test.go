package weft

import (
	"encoding/binary"
	"testing"

	"github.com/iov-one/weft/errors"
)

func TestFindDerivedAddressIsDeterministic(t *testing.T) {
	maker := NewCondition("sigs", "ed25519", []byte("maker")).Address()
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, 1)

	a1, bump1, err := FindDerivedAddress("escrow", []byte("escrow"), maker, seed)
	if err != nil {
		t.Fatalf("cannot derive: %s", err)
	}
	a2, bump2, err := FindDerivedAddress("escrow", []byte("escrow"), maker, seed)
	if err != nil {
		t.Fatalf("cannot derive: %s", err)
	}
	if !a1.Equals(a2) || bump1 != bump2 {
		t.Fatal("derivation is not deterministic")
	}

	again, err := CreateDerivedAddress("escrow", bump1, []byte("escrow"), maker, seed)
	if err != nil {
		t.Fatalf("cannot recreate: %s", err)
	}
	if !again.Equals(a1) {
		t.Fatal("recreated address differs")
	}

	binary.LittleEndian.PutUint64(seed, 2)
	other, _, err := FindDerivedAddress("escrow", []byte("escrow"), maker, seed)
	if err != nil {
		t.Fatalf("cannot derive: %s", err)
	}
	if other.Equals(a1) {
		t.Fatal("different seeds must produce different addresses")
	}
}

func TestVerifyDerived(t *testing.T) {
	addr, bump, err := FindDerivedAddress("cron", []byte("queue_authority"))
	if err != nil {
		t.Fatalf("cannot derive: %s", err)
	}

	auth, err := VerifyDerived(addr, "cron", bump, []byte("queue_authority"))
	if err != nil {
		t.Fatalf("cannot verify: %s", err)
	}
	if !auth.Address().Equals(addr) {
		t.Fatal("capability address mismatch")
	}
	if !auth.Condition().Address().Equals(addr) {
		t.Fatal("capability condition must hash to the derived address")
	}

	wrong := NewCondition("sigs", "ed25519", []byte("somebody")).Address()
	if _, err := VerifyDerived(wrong, "cron", bump, []byte("queue_authority")); !errors.ErrConstraint.Is(err) {
		t.Fatalf("want constraint error, got %v", err)
	}
	if _, err := VerifyDerived(addr, "escrow", bump, []byte("queue_authority")); !errors.ErrConstraint.Is(err) {
		t.Fatalf("other program must not verify, got %v", err)
	}
}

func TestDerivedSeedLimits(t *testing.T) {
	long := make([]byte, MaxSeedLength+1)
	if _, _, err := FindDerivedAddress("escrow", long); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %v", err)
	}
}
