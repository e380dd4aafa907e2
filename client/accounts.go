package client

import (
	"context"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/x/escrow"
	"github.com/iov-one/weft/x/randomness"
	"github.com/iov-one/weft/x/sigs"
	"github.com/iov-one/weft/x/token"
)

// NextSequence returns the sequence the next signature of given address
// must carry. An address that never signed starts with zero.
func (c *Client) NextSequence(ctx context.Context, addr weft.Address) (int64, error) {
	var user sigs.UserData
	switch err := c.One(ctx, "/auth", addr, &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// ChainID returns the chain id of the connected node.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return "", err
	}
	return status.ChainID, nil
}

// Escrow returns the escrow stored at given address.
func (c *Client) Escrow(ctx context.Context, addr weft.Address) (*escrow.Escrow, error) {
	var e escrow.Escrow
	if err := c.One(ctx, "/escrows", addr, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EscrowsByMaker returns all open escrows of the maker.
func (c *Client) EscrowsByMaker(ctx context.Context, maker weft.Address) ([]*escrow.Escrow, error) {
	resp, err := c.Query(ctx, "/escrows/maker", maker)
	if err != nil {
		return nil, err
	}
	escrows := make([]*escrow.Escrow, 0, len(resp.Models))
	for _, m := range resp.Models {
		var e escrow.Escrow
		if err := e.Unmarshal(m.Value); err != nil {
			return nil, errors.Wrap(err, "escrow")
		}
		escrows = append(escrows, &e)
	}
	return escrows, nil
}

// Balance returns the amount of tokens of the mint held by the owner. An
// owner without an account holds nothing.
func (c *Client) Balance(ctx context.Context, owner, mint weft.Address) (uint64, error) {
	var acc token.Account
	switch err := c.One(ctx, "/accounts", token.AssociatedAddress(owner, mint), &acc); {
	case err == nil:
		return acc.Amount, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

// UserRecord returns the randomness record of the user.
func (c *Client) UserRecord(ctx context.Context, user weft.Address) (*randomness.UserRecord, error) {
	addr, _, err := randomness.FindUserRecordAddress(user)
	if err != nil {
		return nil, err
	}
	var rec randomness.UserRecord
	if err := c.One(ctx, "/users", addr, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
