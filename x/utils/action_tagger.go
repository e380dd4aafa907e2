package utils

import (
	"github.com/iov-one/weft"
	"github.com/tendermint/tendermint/libs/common"
)

// ActionKey is used by ActionTagger as the Key in the Tag it appends
const ActionKey = "action"

// ActionTagger will inspect the message being executed and add a tag
// `action = msg.Path()` to every successful delivery. Clients can use it to
// search or subscribe to, for example, all escrow refunds.
type ActionTagger struct{}

var _ weft.Decorator = ActionTagger{}

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Checker) (*weft.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends a tag on the result if there is a success.
func (ActionTagger) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx, next weft.Deliverer) (*weft.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, common.KVPair{
		Key:   []byte(ActionKey),
		Value: []byte(msg.Path()),
	})
	return res, nil
}
