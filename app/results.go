package app

import (
	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
)

// ResultSet holds a list of keys or values returned by a query. Key and
// Value of every query response are serialized ResultSets of the same size.
type ResultSet struct {
	Results [][]byte `json:"results"`
}

// Marshal serializes the result set.
func (r *ResultSet) Marshal() ([]byte, error) {
	return weft.MarshalModel(r)
}

// Unmarshal deserializes the result set.
func (r *ResultSet) Unmarshal(raw []byte) error {
	return weft.UnmarshalModel(raw, r)
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []weft.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []weft.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues
// and makes then a consistent whole again
func JoinResults(keys, values *ResultSet) ([]weft.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrap(errors.ErrState, "mismatched result set size")
	}
	mods := make([]weft.Model, len(kref))
	for i := range mods {
		mods[i] = weft.Pair(kref[i], vref[i])
	}
	return mods, nil
}

// UnmarshalOneResult will parse a resultset, and
// if it is not empty, unmarshal the first result into o
func UnmarshalOneResult(bz []byte, o weft.Persistent) error {
	var res ResultSet
	if err := res.Unmarshal(bz); err != nil {
		return err
	}
	if len(res.Results) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty result set")
	}
	return o.Unmarshal(res.Results[0])
}
