package escrow

import (
	"math"
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
)

func TestMakeMsgValidate(t *testing.T) {
	maker := weftest.NewCondition().Address()
	mintA := weftest.NewCondition().Address()
	mintB := weftest.NewCondition().Address()
	escrow, bump, err := FindEscrowAddress(maker, 1)
	assert.Nil(t, err)
	qa, qbump, err := FindQueueAuthority()
	assert.Nil(t, err)

	valid := func() *MakeMsg {
		return &MakeMsg{
			Metadata:           &weft.Metadata{Schema: 1},
			Maker:              maker,
			Seed:               1,
			Deposit:            100,
			Receive:            50,
			TaskID:             7,
			Expiry:             weft.AsUnixTime(time.Unix(1560000000, 0)),
			MintA:              mintA,
			MintB:              mintB,
			Escrow:             escrow,
			EscrowBump:         uint32(bump),
			Vault:              weftest.NewCondition().Address(),
			QueueAuthority:     qa,
			QueueAuthorityBump: uint32(qbump),
		}
	}

	cases := map[string]struct {
		Modify   func(*MakeMsg)
		WantErrs map[string]*errors.Error
	}{
		"valid message": {
			Modify: func(*MakeMsg) {},
			WantErrs: map[string]*errors.Error{
				"TaskID":  nil,
				"Deposit": nil,
			},
		},
		"largest task id": {
			Modify:   func(m *MakeMsg) { m.TaskID = math.MaxUint16 },
			WantErrs: map[string]*errors.Error{"TaskID": nil},
		},
		"task id wider than 16 bits": {
			Modify:   func(m *MakeMsg) { m.TaskID = math.MaxUint16 + 1 },
			WantErrs: map[string]*errors.Error{"TaskID": errors.ErrInput},
		},
		"zero amounts": {
			Modify: func(m *MakeMsg) {
				m.Deposit = 0
				m.Receive = 0
			},
			WantErrs: map[string]*errors.Error{
				"Deposit": errors.ErrAmount,
				"Receive": errors.ErrAmount,
			},
		},
		"same mint on both sides": {
			Modify:   func(m *MakeMsg) { m.MintB = m.MintA },
			WantErrs: map[string]*errors.Error{"MintB": errors.ErrInput},
		},
		"bump out of range": {
			Modify: func(m *MakeMsg) {
				m.EscrowBump = 256
				m.QueueAuthorityBump = 300
			},
			WantErrs: map[string]*errors.Error{
				"EscrowBump":         errors.ErrInput,
				"QueueAuthorityBump": errors.ErrInput,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := valid()
			tc.Modify(msg)
			assert.FieldErrors(t, msg.Validate(), tc.WantErrs)
		})
	}
}

func TestRefundTaskMustMatchEscrow(t *testing.T) {
	now := time.Unix(1560000000, 0)
	env := newScheduleEnv(t)
	f := env.f

	mk := env.makeMsg(1, 7, now)
	env.deliver(weftest.BlockContext(1, now), f.maker, mk)

	qa, _, err := FindQueueAuthority()
	assert.Nil(t, err)
	// The queue authority is derived and has no condition of its own.
	auth := &weftest.Auth{Addresses: []weft.Address{qa}}
	handler := &RefundHandler{auth: auth, bucket: NewBucket(), tokens: f.tokens}
	ctx := weftest.BlockContext(2, now)

	cases := map[string]struct {
		TaskID  uint32
		WantErr *errors.Error
	}{
		"task of another escrow": {TaskID: 6, WantErr: errors.ErrConstraint},
		"manual refund form":     {TaskID: 0, WantErr: errors.ErrConstraint},
		"task of this escrow":    {TaskID: 7},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			refund := &RefundMsg{
				Metadata: &weft.Metadata{Schema: 1},
				Maker:    f.maker.Address(),
				Escrow:   mk.Escrow,
				TaskID:   tc.TaskID,
			}
			_, err := handler.Check(ctx, f.db, &weftest.Tx{Msg: refund})
			if tc.WantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.IsErr(t, tc.WantErr, err)
			assert.FieldError(t, err, "TaskID", tc.WantErr)
		})
	}
}
