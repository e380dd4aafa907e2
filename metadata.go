package weft

import "github.com/iov-one/weft/errors"

// Metadata is attached to every persisted model. Schema allows a model to
// be migrated when its layout changes.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the metadata is not usable.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrModel, "missing metadata")
	}
	if m.Schema == 0 {
		return errors.Wrap(errors.ErrModel, "schema version is required")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when
// implementing orm.Model interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
