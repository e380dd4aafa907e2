package escrow

import (
	"testing"
	"time"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/errors"
	"github.com/iov-one/weft/weftest"
	"github.com/iov-one/weft/x"
	"github.com/iov-one/weft/x/cron"
	"github.com/iov-one/weft/x/token"
)

func TestScheduledRefund(t *testing.T) {
	now := time.Unix(1560000000, 0)

	cases := map[string]struct {
		// before is delivered before the refund task is due.
		before     func(f *fixture, escrow weft.Address) weft.Msg
		wantOK     bool
		wantRefund bool
	}{
		"refund is executed when due": {
			wantOK:     true,
			wantRefund: true,
		},
		"refund of a taken escrow fails": {
			before: func(f *fixture, escrow weft.Address) weft.Msg {
				return &TakeMsg{Metadata: &weft.Metadata{Schema: 1}, Taker: f.taker.Address(), Escrow: escrow}
			},
			wantOK: false,
		},
		"refund of a refunded escrow fails": {
			before: func(f *fixture, escrow weft.Address) weft.Msg {
				return &RefundMsg{Metadata: &weft.Metadata{Schema: 1}, Maker: f.maker.Address(), Escrow: escrow}
			},
			wantOK: false,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			env := newScheduleEnv(t)
			f, ticker := env.f, env.ticker

			mk := env.makeMsg(1, 7, now)
			escrow := mk.Escrow
			env.deliver(weftest.BlockContext(1, now), f.maker, mk)

			if tc.before != nil {
				msg := tc.before(f, escrow)
				signer := f.maker
				if _, ok := msg.(*TakeMsg); ok {
					signer = f.taker
				}
				env.deliver(weftest.BlockContext(2, now.Add(time.Minute)), signer, msg)
			}

			// Nothing is due before the refund delay passes.
			res := ticker.Tick(weftest.BlockContext(3, now.Add(9*24*time.Hour)), f.db)
			if len(res.Executed) != 0 {
				t.Fatalf("want no task executed, got %d", len(res.Executed))
			}

			res = ticker.Tick(weftest.BlockContext(4, now.Add(10*24*time.Hour)), f.db)
			if len(res.Executed) != 1 {
				t.Fatalf("want refund task executed, got %d", len(res.Executed))
			}

			result := env.taskResult(7)
			if result.Successful != tc.wantOK {
				t.Fatalf("want task success %v, got %v: %s", tc.wantOK, result.Successful, result.Info)
			}

			if err := NewBucket().Has(f.db, escrow); !errors.ErrNotFound.Is(err) {
				t.Fatalf("want escrow closed, got %+v", err)
			}
			if tc.wantRefund {
				if got := env.balance(); got != 1000 {
					t.Fatalf("want deposit returned, got balance %d", got)
				}
			}
		})
	}
}

func TestStaleRefundTaskKeepsNewEscrow(t *testing.T) {
	now := time.Unix(1560000000, 0)
	day := 24 * time.Hour
	env := newScheduleEnv(t)
	f := env.f

	first := env.makeMsg(1, 7, now)
	env.deliver(weftest.BlockContext(1, now), f.maker, first)
	take := &TakeMsg{Metadata: &weft.Metadata{Schema: 1}, Taker: f.taker.Address(), Escrow: first.Escrow}
	env.deliver(weftest.BlockContext(2, now.Add(time.Minute)), f.taker, take)

	// The same seed derives the same escrow address.
	second := env.makeMsg(1, 8, now.Add(9*day))
	env.deliver(weftest.BlockContext(3, now.Add(9*day)), f.maker, second)

	res := env.ticker.Tick(weftest.BlockContext(4, now.Add(10*day)), f.db)
	if len(res.Executed) != 1 {
		t.Fatalf("want the first refund task executed, got %d", len(res.Executed))
	}
	if result := env.taskResult(7); result.Successful {
		t.Fatal("want the first refund task to fail")
	}
	if err := NewBucket().Has(f.db, second.Escrow); err != nil {
		t.Fatalf("want escrow kept, got %+v", err)
	}
	if got := env.balance(); got != 800 {
		t.Fatalf("want two deposits held, got balance %d", got)
	}

	res = env.ticker.Tick(weftest.BlockContext(5, now.Add(19*day+time.Second)), f.db)
	if len(res.Executed) != 1 {
		t.Fatalf("want the second refund task executed, got %d", len(res.Executed))
	}
	if result := env.taskResult(8); !result.Successful {
		t.Fatalf("want the second refund task to succeed: %s", result.Info)
	}
	if err := NewBucket().Has(f.db, second.Escrow); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want escrow closed, got %+v", err)
	}
	if got := env.balance(); got != 900 {
		t.Fatalf("want the second deposit returned, got balance %d", got)
	}
}

// scheduleEnv runs the escrow handlers together with a real task queue.
type scheduleEnv struct {
	t      testing.TB
	f      *fixture
	sigs   *weftest.CtxAuth
	router router
	ticker *cron.Ticker
}

func newScheduleEnv(t testing.TB) *scheduleEnv {
	t.Helper()
	queueAuthority, _, err := FindQueueAuthority()
	if err != nil {
		t.Fatalf("cannot find queue authority: %s", err)
	}
	f := newFixture(t)
	scheduler := cron.NewScheduler()
	queue := cron.TaskQueue{
		Metadata:    &weft.Metadata{Schema: 1},
		Name:        DefaultTaskQueue,
		Admin:       weftest.NewCondition().Address(),
		Authorities: []weft.Address{queueAuthority},
		Capacity:    10,
	}
	if err := scheduler.CreateQueue(f.db, &queue); err != nil {
		t.Fatalf("cannot create queue: %+v", err)
	}

	sigs := &weftest.CtxAuth{Key: "sigs"}
	auth := x.ChainAuth(sigs, cron.Authenticator{})
	r := make(router)
	RegisterRoutes(r, auth, f.tokens, scheduler)
	return &scheduleEnv{t: t, f: f, sigs: sigs, router: r, ticker: cron.NewTicker(r)}
}

func (e *scheduleEnv) deliver(ctx weft.Context, signer weft.Condition, msg weft.Msg) {
	e.t.Helper()
	if _, err := e.router.Deliver(e.sigs.SetConditions(ctx, signer), e.f.db, &weftest.Tx{Msg: msg}); err != nil {
		e.t.Fatalf("cannot deliver %s: %+v", msg.Path(), err)
	}
}

// makeMsg returns a message that deposits 100 of MintA for 50 of MintB.
func (e *scheduleEnv) makeMsg(seed uint64, taskID uint32, now time.Time) *MakeMsg {
	e.t.Helper()
	escrow, bump, err := FindEscrowAddress(e.f.maker.Address(), seed)
	if err != nil {
		e.t.Fatalf("cannot derive escrow: %s", err)
	}
	qa, qbump, err := FindQueueAuthority()
	if err != nil {
		e.t.Fatalf("cannot find queue authority: %s", err)
	}
	return &MakeMsg{
		Metadata:           &weft.Metadata{Schema: 1},
		Maker:              e.f.maker.Address(),
		Seed:               seed,
		Deposit:            100,
		Receive:            50,
		TaskID:             taskID,
		Expiry:             weft.AsUnixTime(now.Add(time.Hour)),
		MintA:              e.f.mintA,
		MintB:              e.f.mintB,
		Escrow:             escrow,
		EscrowBump:         uint32(bump),
		Vault:              token.AssociatedAddress(escrow, e.f.mintA),
		QueueAuthority:     qa,
		QueueAuthorityBump: uint32(qbump),
	}
}

// balance returns the MintA balance of the maker.
func (e *scheduleEnv) balance() uint64 {
	e.t.Helper()
	b, err := e.f.tokens.Balance(e.f.db, e.f.maker.Address(), e.f.mintA)
	if err != nil {
		e.t.Fatalf("cannot get balance: %+v", err)
	}
	return b
}

func (e *scheduleEnv) taskResult(id uint32) *cron.TaskResult {
	e.t.Helper()
	var result cron.TaskResult
	if err := cron.NewTaskResultBucket().One(e.f.db, cron.TaskKey(DefaultTaskQueue, id), &result); err != nil {
		e.t.Fatalf("cannot load task result %d: %+v", id, err)
	}
	return &result
}
