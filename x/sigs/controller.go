package sigs

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/crypto"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// VerifyTxSignatures checks all the signatures on the tx and updates the
// sequence of every signer.
//
// returns list of signer conditions (possibly empty),
// or error if any signature is invalid
func VerifyTxSignatures(db weft.KVStore, tx SignedTx, chainID string) ([]weft.Condition, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	sigs := tx.GetSignatures()
	bucket := NewUserBucket()

	signers := make([]weft.Condition, 0, len(sigs))
	for i, sig := range sigs {
		signer, err := VerifySignature(db, bucket, sig, bz, chainID)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature checks one signature against signbytes, check chain and
// updates state in the store.
func VerifySignature(db weft.KVStore, bucket orm.ModelBucket, sig *StdSignature, signBytes []byte, chainID string) (weft.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	addr := sig.Pubkey.Address()
	var user UserData
	switch err := bucket.One(db, addr, &user); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		user = UserData{Metadata: &weft.Metadata{Schema: 1}, Pubkey: sig.Pubkey}
	default:
		return nil, errors.Wrap(err, "cannot load user")
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	if !user.Pubkey.Verify(toSign, sig.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if _, err := bucket.Put(db, addr, &user); err != nil {
		return nil, errors.Wrap(err, "cannot save user")
	}
	return user.Pubkey.Condition(), nil
}

/*
BuildSignBytes combines all info on the actual tx before signing

	version | len(chainID) | chainID      | sequence          | signBytes
	4bytes  | uint8        | ascii string | int64 (bigendian) | serialized transaction

This is then prehashed with sha512 before fed into the public key
signing/verification step.
*/
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !weft.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(seq))

	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, chainID...)
	output = append(output, nonce...)
	output = append(output, signBytes...)

	hashed := sha512.Sum512(output)
	return hashed[:], nil
}

// SignTx creates a signature for given transaction.
func SignTx(signer *crypto.PrivateKey, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	toSign, err := BuildSignBytes(bz, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(toSign)
	if err != nil {
		return nil, err
	}
	return &StdSignature{
		Sequence:  seq,
		Pubkey:    signer.PublicKey(),
		Signature: sig,
	}, nil
}

// NextSequence returns the sequence value that the next signature of given
// signer must use.
func NextSequence(db weft.ReadOnlyKVStore, addr weft.Address) (int64, error) {
	var user UserData
	switch err := NewUserBucket().One(db, addr, &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}
