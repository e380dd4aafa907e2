package weft

import (
	"crypto/sha256"
	"encoding/hex"

	"filippo.io/edwards25519"
	"github.com/iov-one/weft/errors"
)

const (
	// MaxSeeds is the maximum number of seeds a derived address can be
	// built from.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32

	derivedMarker = "ProgramDerivedAddress"
	derivedExt    = "derived"
)

// CreateDerivedAddress computes the address owned by the given program for
// the given seeds and bump. The 32 byte digest must not be a valid ed25519
// point: that way nobody can hold a private key for it and only the program
// can act on behalf of the address.
//
// ErrInput is returned if the digest lands on the curve. Use
// FindDerivedAddress to search for a usable bump.
func CreateDerivedAddress(program string, bump uint8, seeds ...[]byte) (Address, error) {
	digest, err := derivedDigest(program, bump, seeds)
	if err != nil {
		return nil, err
	}
	if isOnCurve(digest) {
		return nil, errors.Wrap(errors.ErrInput, "derived digest is on curve")
	}
	return derivedCondition(program, digest).Address(), nil
}

// FindDerivedAddress returns the canonical derived address for given program
// and seeds, together with the bump that produced it. Bumps are tried from
// 255 down.
func FindDerivedAddress(program string, seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		digest, err := derivedDigest(program, uint8(bump), seeds)
		if err != nil {
			return nil, 0, err
		}
		if !isOnCurve(digest) {
			return derivedCondition(program, digest).Address(), uint8(bump), nil
		}
	}
	return nil, 0, errors.Wrap(errors.ErrState, "no viable bump found")
}

// DerivedAuthority is a capability proving that the program that holds it
// recomputed the derivation of an address. It is the only way for a program
// to act as a derived address: it never carries a key.
//
// DerivedAuthority can only be created by VerifyDerived or DeriveAuthority.
type DerivedAuthority struct {
	program string
	digest  []byte
	address Address
}

// VerifyDerived recomputes the derivation formula and compares the result
// with the supplied address. ErrConstraint is returned on mismatch.
func VerifyDerived(supplied Address, program string, bump uint8, seeds ...[]byte) (*DerivedAuthority, error) {
	auth, err := DeriveAuthority(program, bump, seeds...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConstraint, err.Error())
	}
	if !auth.address.Equals(supplied) {
		return nil, errors.Wrapf(errors.ErrConstraint,
			"seeds derive %s, got %s", auth.address, supplied)
	}
	return auth, nil
}

// DeriveAuthority recomputes the derivation for given seeds and returns the
// capability for the resulting address.
func DeriveAuthority(program string, bump uint8, seeds ...[]byte) (*DerivedAuthority, error) {
	digest, err := derivedDigest(program, bump, seeds)
	if err != nil {
		return nil, err
	}
	if isOnCurve(digest) {
		return nil, errors.Wrap(errors.ErrInput, "derived digest is on curve")
	}
	return &DerivedAuthority{
		program: program,
		digest:  digest,
		address: derivedCondition(program, digest).Address(),
	}, nil
}

// Address returns the derived address this authority represents.
func (a *DerivedAuthority) Address() Address {
	return a.address
}

// Program returns the name of the program that owns the address.
func (a *DerivedAuthority) Program() string {
	return a.program
}

// Condition returns the condition that is fulfilled when acting with this
// authority. Attach it to a context (or a scheduled task) to authorize
// operations on behalf of the derived address.
func (a *DerivedAuthority) Condition() Condition {
	return derivedCondition(a.program, a.digest)
}

func (a *DerivedAuthority) String() string {
	return a.program + ":" + hex.EncodeToString(a.digest)
}

func derivedCondition(program string, digest []byte) Condition {
	return NewCondition(derivedExt, program, digest)
}

func derivedDigest(program string, bump uint8, seeds [][]byte) ([]byte, error) {
	if len(seeds) > MaxSeeds {
		return nil, errors.Wrapf(errors.ErrInput, "too many seeds: %d", len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return nil, errors.Wrapf(errors.ErrInput, "seed %d too long", i)
		}
		_, _ = h.Write(s)
	}
	_, _ = h.Write([]byte{bump})
	_, _ = h.Write([]byte(program))
	_, _ = h.Write([]byte(derivedMarker))
	return h.Sum(nil), nil
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
