package randomness

import (
	"bytes"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/orm"
	"github.com/iov-one/weft/x"
	"github.com/iov-one/weft/x/randomness/oracle"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	initializeCost int64 = 100
	updateCost     int64 = 10
	delegateCost   int64 = 20
	closeCost      int64 = 0
	requestCost    int64 = 50
	consumeCost    int64 = 0
)

// Oracle is the queue randomness requests are sent to.
type Oracle interface {
	RequestRandomness(ctx weft.Context, db weft.KVStore, req *oracle.Request) ([]byte, error)
	Remove(db weft.KVStore, id []byte) error
}

var _ Oracle = (*oracle.Queue)(nil)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r weft.Registry, auth x.Authenticator, o Oracle) {
	b := records{auth: auth, bucket: NewUserBucket()}
	r.Handle(&InitializeMsg{}, &initializeHandler{b})
	r.Handle(&UpdateMsg{}, &updateHandler{b})
	r.Handle(&UpdateCommitMsg{}, &updateCommitHandler{b})
	r.Handle(&DelegateMsg{}, &delegateHandler{b})
	r.Handle(&UndelegateMsg{}, &undelegateHandler{b})
	r.Handle(&CloseMsg{}, &closeHandler{b})
	r.Handle(&RequestMsg{}, &requestHandler{records: b, oracle: o})
	r.Handle(&ConsumeMsg{}, &consumeHandler{records: b, oracle: o})
}

// records groups the access to user records shared by all handlers.
type records struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

// load returns the record at given address. The user must sign and the
// address must be derived from the user.
func (r records) load(ctx weft.Context, db weft.ReadOnlyKVStore, user, addr weft.Address) (*UserRecord, error) {
	var rec UserRecord
	if err := r.bucket.One(db, addr, &rec); err != nil {
		return nil, errors.Field("UserRecord", err, "cannot load user record")
	}
	err := x.NewConstraints(ctx, r.auth).
		Signer("User", user).
		Owner("UserRecord", rec.User, user).
		Derived("UserRecord", addr, ProgramName, uint8(rec.Bump), userSeeds(user)...).
		Err()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r records) save(db weft.KVStore, addr weft.Address, rec *UserRecord) error {
	if _, err := r.bucket.Put(db, addr, rec); err != nil {
		return errors.Wrap(err, "cannot store user record")
	}
	return nil
}

func tag(addr weft.Address) []common.KVPair {
	return []common.KVPair{{Key: []byte("user"), Value: []byte(addr.String())}}
}

type initializeHandler struct {
	records
}

func (h *initializeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: initializeCost}, nil
}

func (h *initializeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec := UserRecord{
		Metadata: &weft.Metadata{Schema: 1},
		User:     msg.User,
		Bump:     msg.Bump,
	}
	if err := h.save(db, msg.UserRecord, &rec); err != nil {
		return nil, err
	}
	weft.GetLogger(ctx).Info("user record created", "user", msg.User, "record", msg.UserRecord)
	return &weft.DeliverResult{Data: msg.UserRecord, Tags: tag(msg.UserRecord)}, nil
}

func (h *initializeHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*InitializeMsg, error) {
	var msg InitializeMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	err := x.NewConstraints(ctx, h.auth).
		Signer("User", msg.User).
		Derived("UserRecord", msg.UserRecord, ProgramName, uint8(msg.Bump), userSeeds(msg.User)...).
		Err()
	if err != nil {
		return nil, err
	}
	switch err := h.bucket.Has(db, msg.UserRecord); {
	case err == nil:
		return nil, errors.Field("UserRecord", errors.ErrDuplicate, "user record already initialized")
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return &msg, nil
}

type updateHandler struct {
	records
}

func (h *updateHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: updateCost}, nil
}

func (h *updateHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, rec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec.Data = msg.Data
	if err := h.save(db, msg.UserRecord, rec); err != nil {
		return nil, err
	}
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

func (h *updateHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*UpdateMsg, *UserRecord, error) {
	var msg UpdateMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	rec, err := h.load(ctx, db, msg.User, msg.UserRecord)
	if err != nil {
		return nil, nil, err
	}
	return &msg, rec, nil
}

type updateCommitHandler struct {
	records
}

func (h *updateCommitHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: updateCost}, nil
}

func (h *updateCommitHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, rec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec.Data = msg.Data
	rec.Commits++
	if err := h.save(db, msg.UserRecord, rec); err != nil {
		return nil, err
	}
	weft.GetLogger(ctx).Debug("user record committed", "record", msg.UserRecord, "commits", rec.Commits)
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

// validate requires the record to be delegated: only the validator state
// can be committed.
func (h *updateCommitHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*UpdateCommitMsg, *UserRecord, error) {
	var msg UpdateCommitMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	rec, err := h.load(ctx, db, msg.User, msg.UserRecord)
	if err != nil {
		return nil, nil, err
	}
	if !rec.Delegated {
		return nil, nil, errors.Wrap(errors.ErrState, "user record is not delegated")
	}
	return &msg, rec, nil
}

type delegateHandler struct {
	records
}

func (h *delegateHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: delegateCost}, nil
}

func (h *delegateHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, rec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec.Delegated = true
	rec.Validator = msg.Validator
	if err := h.save(db, msg.UserRecord, rec); err != nil {
		return nil, err
	}
	weft.GetLogger(ctx).Info("user record delegated", "record", msg.UserRecord, "validator", msg.Validator)
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

func (h *delegateHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*DelegateMsg, *UserRecord, error) {
	var msg DelegateMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	rec, err := h.load(ctx, db, msg.User, msg.UserRecord)
	if err != nil {
		return nil, nil, err
	}
	if rec.Delegated {
		return nil, nil, errors.Wrapf(errors.ErrState, "user record is delegated to %s", rec.Validator)
	}
	return &msg, rec, nil
}

type undelegateHandler struct {
	records
}

func (h *undelegateHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: delegateCost}, nil
}

// Deliver returns the record to the user. The state is committed one last
// time.
func (h *undelegateHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, rec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec.Delegated = false
	rec.Validator = nil
	rec.Commits++
	if err := h.save(db, msg.UserRecord, rec); err != nil {
		return nil, err
	}
	weft.GetLogger(ctx).Info("user record undelegated", "record", msg.UserRecord)
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

func (h *undelegateHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*UndelegateMsg, *UserRecord, error) {
	var msg UndelegateMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	rec, err := h.load(ctx, db, msg.User, msg.UserRecord)
	if err != nil {
		return nil, nil, err
	}
	if !rec.Delegated {
		return nil, nil, errors.Wrap(errors.ErrState, "user record is not delegated")
	}
	return &msg, rec, nil
}

type closeHandler struct {
	records
}

func (h *closeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: closeCost}, nil
}

func (h *closeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bucket.Delete(db, msg.UserRecord); err != nil {
		return nil, errors.Wrap(err, "cannot delete user record")
	}
	weft.GetLogger(ctx).Info("user record closed", "record", msg.UserRecord)
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

func (h *closeHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*CloseMsg, error) {
	var msg CloseMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	rec, err := h.load(ctx, db, msg.User, msg.UserRecord)
	if err != nil {
		return nil, err
	}
	if rec.Delegated {
		return nil, errors.Wrap(errors.ErrState, "delegated user record cannot be closed")
	}
	return &msg, nil
}

type requestHandler struct {
	records
	oracle Oracle
}

func (h *requestHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: requestCost}, nil
}

// Deliver sends the request to the oracle queue. The callback will be
// delivered with the user record as its only account.
func (h *requestHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	req := oracle.Request{
		Metadata:        &weft.Metadata{Schema: 1},
		Payer:           msg.User,
		Queue:           msg.OracleQueue,
		CallbackProgram: ProgramName,
		CallbackPath:    pathConsumeMsg,
		CallerSeed:      bytes.Repeat([]byte{byte(msg.ClientSeed)}, oracle.SeedLength),
		Accounts: []weft.AccountMeta{
			{Address: msg.UserRecord, Writable: true},
		},
	}
	id, err := h.oracle.RequestRandomness(ctx, db, &req)
	if err != nil {
		return nil, errors.Wrap(err, "request randomness")
	}
	return &weft.DeliverResult{Data: id, Tags: tag(msg.UserRecord)}, nil
}

func (h *requestHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*RequestMsg, error) {
	var msg RequestMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if _, err := h.load(ctx, db, msg.User, msg.UserRecord); err != nil {
		return nil, err
	}
	err = x.NewConstraints(ctx, h.auth).
		Equal("OracleQueue", msg.OracleQueue, conf.OracleQueue).
		Err()
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

type consumeHandler struct {
	records
	oracle Oracle
}

func (h *consumeHandler) Check(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weft.CheckResult{GasAllocated: consumeCost}, nil
}

func (h *consumeHandler) Deliver(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*weft.DeliverResult, error) {
	msg, rec, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec.Data = RandomU64(msg.Randomness)
	if err := h.save(db, msg.UserRecord, rec); err != nil {
		return nil, err
	}
	if len(msg.RequestID) != 0 {
		if err := h.oracle.Remove(db, msg.RequestID); err != nil {
			return nil, errors.Field("RequestID", err, "cannot remove request")
		}
	}
	weft.GetLogger(ctx).Info("random value consumed", "record", msg.UserRecord, "value", rec.Data)
	return &weft.DeliverResult{Tags: tag(msg.UserRecord)}, nil
}

// validate requires the oracle identity signature before anything else is
// looked at.
func (h *consumeHandler) validate(ctx weft.Context, db weft.KVStore, tx weft.Tx) (*ConsumeMsg, *UserRecord, error) {
	var msg ConsumeMsg
	if err := weft.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, err
	}
	err = x.NewConstraints(ctx, h.auth).
		Equal("OracleIdentity", msg.OracleIdentity, conf.OracleIdentity).
		Signer("OracleIdentity", conf.OracleIdentity).
		Err()
	if err != nil {
		return nil, nil, err
	}
	var rec UserRecord
	if err := h.bucket.One(db, msg.UserRecord, &rec); err != nil {
		return nil, nil, errors.Field("UserRecord", err, "cannot load user record")
	}
	return &msg, &rec, nil
}
