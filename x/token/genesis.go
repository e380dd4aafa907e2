package token

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Genesis is the "tokens" section of the genesis file.
type Genesis struct {
	Mints []struct {
		Name      string       `json:"name"`
		Decimals  uint32       `json:"decimals"`
		Authority weft.Address `json:"authority"`
	} `json:"mints"`
	Balances []struct {
		Owner  weft.Address `json:"owner"`
		Mint   string       `json:"mint"`
		Amount uint64       `json:"amount"`
	} `json:"balances"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ weft.Initializer = (*Initializer)(nil)

// FromGenesis creates all mints and issues initial balances.
func (Initializer) FromGenesis(opts weft.Options, params weft.GenesisParams, db weft.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions("tokens", &gen); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	ctrl := NewController()
	for i, m := range gen.Mints {
		if _, err := ctrl.CreateMint(db, m.Name, m.Decimals, m.Authority); err != nil {
			return errors.Wrapf(err, "mint #%d", i)
		}
	}
	for i, b := range gen.Balances {
		if err := ctrl.MintTo(db, MintAddress(b.Mint), b.Owner, b.Amount); err != nil {
			return errors.Wrapf(err, "balance #%d", i)
		}
	}
	return nil
}
