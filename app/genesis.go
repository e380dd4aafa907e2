package app

import (
	"github.com/iov-one/weft"
)

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...weft.Initializer) weft.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []weft.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts weft.Options, params weft.GenesisParams, kv weft.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, params, kv); err != nil {
			return err
		}
	}
	return nil
}
