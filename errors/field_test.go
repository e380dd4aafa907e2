package errors

import "testing"

func TestFieldErrors(t *testing.T) {
	err := Append(
		Field("Maker", ErrConstraint, "signature required"),
		Field("Vault", ErrConstraint, "wrong derivation"),
		Wrap(ErrInput, "unrelated"),
	)

	if got := FieldErrors(err, "Maker"); len(got) != 1 || !ErrConstraint.Is(got[0]) {
		t.Fatalf("unexpected Maker errors: %v", got)
	}
	if got := FieldErrors(err, "Vault"); len(got) != 1 {
		t.Fatalf("unexpected Vault errors: %v", got)
	}
	if got := FieldErrors(err, "Taker"); len(got) != 0 {
		t.Fatalf("unexpected Taker errors: %v", got)
	}
	if Field("Maker", nil, "nothing") != nil {
		t.Fatal("nil error must not be wrapped")
	}
	if want, got := `field "Maker": signature required: account constraint violation`,
		Field("Maker", ErrConstraint, "signature required").Error(); want != got {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFieldNames(t *testing.T) {
	cases := map[string]struct {
		Err  error
		Want []string
	}{
		"no error": {
			Err:  nil,
			Want: nil,
		},
		"not a field error": {
			Err:  Wrap(ErrInput, "unrelated"),
			Want: nil,
		},
		"wrapped field error": {
			Err:  Wrap(Field("Escrow", ErrNotFound, "cannot load escrow"), "refund"),
			Want: []string{"Escrow"},
		},
		"sorted and unique": {
			Err: Append(
				Field("Vault", ErrConstraint, "wrong derivation"),
				Field("Deposit", ErrAmount, ""),
				Field("Vault", ErrConstraint, "wrong owner"),
			),
			Want: []string{"Deposit", "Vault"},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldNames(tc.Err)
			if len(got) != len(tc.Want) {
				t.Fatalf("want %q, got %q", tc.Want, got)
			}
			for i := range got {
				if got[i] != tc.Want[i] {
					t.Fatalf("want %q, got %q", tc.Want, got)
				}
			}
		})
	}
}
