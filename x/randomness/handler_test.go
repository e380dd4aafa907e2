package randomness

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/gconf"
	"github.com/iov-one/weft/store"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/weftest/assert"
	"github.com/iov-one/weft/x/randomness/oracle"
)

type router map[string]weft.Handler

func (r router) Handle(m weft.Msg, h weft.Handler) { r[m.Path()] = h }

type env struct {
	t      *testing.T
	db     weft.CacheableKVStore
	ctx    weft.Context
	auth   *weftest.CtxAuth
	r      router
	queue  *oracle.Queue
	conf   Configuration
	user   weft.Condition
	record weft.Address
	bump   uint8
}

func newEnv(t *testing.T) *env {
	e := &env{
		t:     t,
		db:    store.MemStore(),
		ctx:   weftest.BlockContext(5, time.Unix(1560000000, 0)),
		auth:  &weftest.CtxAuth{Key: "auth"},
		r:     make(router),
		queue: oracle.NewQueue(),
		user:  weftest.NewCondition(),
	}
	e.conf = Configuration{
		Metadata:       &weft.Metadata{Schema: 1},
		OracleIdentity: weftest.NewCondition().Address(),
		OracleQueue:    weftest.NewCondition().Address(),
	}
	assert.Nil(t, gconf.Save(e.db, "randomness", &e.conf))
	RegisterRoutes(e.r, e.auth, e.queue)

	var err error
	e.record, e.bump, err = FindUserRecordAddress(e.user.Address())
	assert.Nil(t, err)
	return e
}

func (e *env) deliver(signer weft.Condition, msg weft.Msg) (*weft.DeliverResult, error) {
	e.t.Helper()
	ctx := e.auth.SetConditions(e.ctx, signer)
	if _, err := e.r[msg.Path()].Check(ctx, e.db, &weftest.Tx{Msg: msg}); err != nil {
		return nil, err
	}
	return e.r[msg.Path()].Deliver(ctx, e.db, &weftest.Tx{Msg: msg})
}

func (e *env) initialize() {
	e.t.Helper()
	_, err := e.deliver(e.user, &InitializeMsg{
		Metadata:   &weft.Metadata{Schema: 1},
		User:       e.user.Address(),
		UserRecord: e.record,
		Bump:       uint32(e.bump),
	})
	assert.Nil(e.t, err)
}

func (e *env) load() *UserRecord {
	e.t.Helper()
	var rec UserRecord
	assert.Nil(e.t, NewUserBucket().One(e.db, e.record, &rec))
	return &rec
}

func TestUserRecordLifecycle(t *testing.T) {
	e := newEnv(t)
	meta := &weft.Metadata{Schema: 1}
	stranger := weftest.NewCondition()
	validator := weftest.NewCondition().Address()

	initMsg := &InitializeMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, Bump: uint32(e.bump)}
	_, err := e.deliver(stranger, initMsg)
	assert.FieldError(t, err, "User", errors.ErrConstraint)

	other, _, err := FindUserRecordAddress(stranger.Address())
	assert.Nil(t, err)
	_, err = e.deliver(e.user, &InitializeMsg{Metadata: meta, User: e.user.Address(), UserRecord: other, Bump: uint32(e.bump)})
	assert.IsErr(t, errors.ErrConstraint, err)

	e.initialize()
	_, err = e.deliver(e.user, initMsg)
	assert.IsErr(t, errors.ErrDuplicate, err)

	_, err = e.deliver(e.user, &UpdateMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, Data: 42})
	assert.Nil(t, err)
	assert.Equal(t, uint64(42), e.load().Data)

	_, err = e.deliver(stranger, &UpdateMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, Data: 1})
	assert.IsErr(t, errors.ErrConstraint, err)

	commit := &UpdateCommitMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, Data: 7}
	_, err = e.deliver(e.user, commit)
	assert.IsErr(t, errors.ErrState, err)

	undelegate := &UndelegateMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record}
	_, err = e.deliver(e.user, undelegate)
	assert.IsErr(t, errors.ErrState, err)

	delegate := &DelegateMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, Validator: validator}
	_, err = e.deliver(e.user, delegate)
	assert.Nil(t, err)
	rec := e.load()
	assert.Equal(t, true, rec.Delegated)
	assert.Equal(t, validator, rec.Validator)

	_, err = e.deliver(e.user, delegate)
	assert.IsErr(t, errors.ErrState, err)

	_, err = e.deliver(e.user, commit)
	assert.Nil(t, err)
	rec = e.load()
	assert.Equal(t, uint64(7), rec.Data)
	assert.Equal(t, uint64(1), rec.Commits)

	closeMsg := &CloseMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record}
	_, err = e.deliver(e.user, closeMsg)
	assert.IsErr(t, errors.ErrState, err)

	_, err = e.deliver(e.user, undelegate)
	assert.Nil(t, err)
	rec = e.load()
	assert.Equal(t, false, rec.Delegated)
	assert.Equal(t, uint64(2), rec.Commits)

	_, err = e.deliver(e.user, closeMsg)
	assert.Nil(t, err)
	assert.IsErr(t, errors.ErrNotFound, NewUserBucket().Has(e.db, e.record))

	_, err = e.deliver(e.user, closeMsg)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestRequestRandomness(t *testing.T) {
	e := newEnv(t)
	meta := &weft.Metadata{Schema: 1}

	req := &RequestMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, OracleQueue: e.conf.OracleQueue, ClientSeed: 9}
	_, err := e.deliver(e.user, req)
	assert.IsErr(t, errors.ErrNotFound, err)

	e.initialize()

	wrongQueue := *req
	wrongQueue.OracleQueue = weftest.NewCondition().Address()
	_, err = e.deliver(e.user, &wrongQueue)
	assert.FieldError(t, err, "OracleQueue", errors.ErrConstraint)

	res, err := e.deliver(e.user, req)
	assert.Nil(t, err)

	reqs, ids, err := e.queue.Pending(e.db, e.conf.OracleQueue)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(reqs))
	assert.Equal(t, res.Data, ids[0])
	got := reqs[0]
	assert.Equal(t, e.user.Address(), got.Payer)
	assert.Equal(t, ProgramName, got.CallbackProgram)
	assert.Equal(t, pathConsumeMsg, got.CallbackPath)
	assert.Equal(t, bytes.Repeat([]byte{9}, 32), got.CallerSeed)
	assert.Equal(t, []weft.AccountMeta{{Address: e.record, Writable: true}}, got.Accounts)
}

func TestConsumeRandomness(t *testing.T) {
	e := newEnv(t)
	meta := &weft.Metadata{Schema: 1}
	oracleSigner := weftest.NewCondition()
	e.conf.OracleIdentity = oracleSigner.Address()
	assert.Nil(t, gconf.Save(e.db, "randomness", &e.conf))
	e.initialize()

	randomness := make([]byte, 32)
	binary.LittleEndian.PutUint64(randomness, 123456789)
	randomness[31] = 0xff

	consume := &ConsumeMsg{Metadata: meta, UserRecord: e.record, OracleIdentity: oracleSigner.Address(), Randomness: randomness}

	// Any other signer is rejected, even one claiming the identity.
	_, err := e.deliver(e.user, consume)
	assert.FieldError(t, err, "OracleIdentity", errors.ErrConstraint)
	forged := *consume
	forged.OracleIdentity = e.user.Address()
	_, err = e.deliver(e.user, &forged)
	assert.FieldError(t, err, "OracleIdentity", errors.ErrConstraint)

	_, err = e.deliver(oracleSigner, consume)
	assert.Nil(t, err)
	assert.Equal(t, uint64(123456789), e.load().Data)

	// A fulfilled request is removed from the queue.
	res, err := e.deliver(e.user, &RequestMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, OracleQueue: e.conf.OracleQueue, ClientSeed: 1})
	assert.Nil(t, err)
	withID := *consume
	withID.RequestID = res.Data
	_, err = e.deliver(oracleSigner, &withID)
	assert.Nil(t, err)
	reqs, _, err := e.queue.Pending(e.db, e.conf.OracleQueue)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(reqs))

	missing := *consume
	missing.UserRecord = weftest.NewCondition().Address()
	_, err = e.deliver(oracleSigner, &missing)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestRandomU64(t *testing.T) {
	b := make([]byte, 32)
	for i := range b {
		b[i] = byte(i + 1)
	}
	assert.Equal(t, uint64(0x0807060504030201), RandomU64(b))
}

func TestConsumeIsNotMatchedToRequest(t *testing.T) {
	e := newEnv(t)
	meta := &weft.Metadata{Schema: 1}
	oracleSigner := weftest.NewCondition()
	e.conf.OracleIdentity = oracleSigner.Address()
	assert.Nil(t, gconf.Save(e.db, "randomness", &e.conf))
	e.initialize()

	for _, seed := range []uint32{1, 2} {
		req := &RequestMsg{Metadata: meta, User: e.user.Address(), UserRecord: e.record, OracleQueue: e.conf.OracleQueue, ClientSeed: seed}
		_, err := e.deliver(e.user, req)
		assert.Nil(t, err)
	}
	reqs, _, err := e.queue.Pending(e.db, e.conf.OracleQueue)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(reqs))

	// Responses are accepted in any order and the last one wins, whatever
	// request it answers.
	for _, v := range []uint64{22, 11} {
		randomness := make([]byte, 32)
		binary.LittleEndian.PutUint64(randomness, v)
		consume := &ConsumeMsg{Metadata: meta, UserRecord: e.record, OracleIdentity: oracleSigner.Address(), Randomness: randomness}
		_, err := e.deliver(oracleSigner, consume)
		assert.Nil(t, err)
	}
	assert.Equal(t, uint64(11), e.load().Data)

	reqs, _, err = e.queue.Pending(e.db, e.conf.OracleQueue)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(reqs))
}
