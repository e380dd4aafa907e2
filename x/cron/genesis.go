package cron

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// Genesis is the "cron" section of the genesis file.
type Genesis struct {
	Queues []struct {
		Name        string         `json:"name"`
		Admin       weft.Address   `json:"admin"`
		Capacity    uint32         `json:"capacity"`
		Authorities []weft.Address `json:"authorities"`
	} `json:"queues"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ weft.Initializer = (*Initializer)(nil)

// FromGenesis creates all task queues.
func (Initializer) FromGenesis(opts weft.Options, params weft.GenesisParams, db weft.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions("cron", &gen); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	s := NewScheduler()
	for _, g := range gen.Queues {
		q := TaskQueue{
			Metadata:    &weft.Metadata{Schema: 1},
			Name:        g.Name,
			Admin:       g.Admin,
			Capacity:    g.Capacity,
			Authorities: g.Authorities,
		}
		if err := q.Validate(); err != nil {
			return errors.Wrapf(err, "queue %q", g.Name)
		}
		if err := s.CreateQueue(db, &q); err != nil {
			return err
		}
	}
	return nil
}
