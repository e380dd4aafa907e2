package weft

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/weft/errors"
)

func TestConditionParse(t *testing.T) {
	cond := NewCondition("sigs", "ed25519", []byte{0xde, 0xad})
	ext, typ, data, err := cond.Parse()
	if err != nil {
		t.Fatalf("cannot parse: %s", err)
	}
	if ext != "sigs" || typ != "ed25519" || string(data) != "\xde\xad" {
		t.Fatalf("unexpected parse result: %q %q %X", ext, typ, data)
	}
	if got := cond.String(); got != "sigs/ed25519/DEAD" {
		t.Fatalf("unexpected string: %s", got)
	}

	if err := Condition("no-slashes").Validate(); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %v", err)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	addr := NewCondition("test", "addr", []byte("alice")).Address()
	if err := addr.Validate(); err != nil {
		t.Fatalf("invalid address: %s", err)
	}

	cases := map[string]string{
		"bech32": addr.String(),
		"hex":    "hex:" + hexOf(addr),
		"plain":  hexOf(addr),
		"cond":   "cond:test/addr/616C696365",
	}
	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAddress(enc)
			if err != nil {
				t.Fatalf("cannot parse %q: %s", enc, err)
			}
			if !got.Equals(addr) {
				t.Fatalf("want %s, got %s", addr, got)
			}
		})
	}
}

func TestAddressJSON(t *testing.T) {
	addr := NewCondition("test", "addr", []byte("bob")).Address()
	raw, err := json.Marshal(addr)
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}
	var got Address
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("cannot unmarshal: %s", err)
	}
	if !got.Equals(addr) {
		t.Fatalf("want %s, got %s", addr, got)
	}
}

func hexOf(a Address) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(a)*2)
	for _, b := range a {
		out = append(out, digits[b>>4], digits[b&0xf])
	}
	return string(out)
}
