package engine

import (
	"log"
	"os"
	"testing"
	"time"

	"landrush.gg/internal/capability/ledger"
	"landrush.gg/internal/capability/snapshot"
	"landrush.gg/internal/lease/model"
	"landrush.gg/internal/lease/tuning"
	"landrush.gg/internal/protocol"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	m      *Market
	funds  *ledger.Memory
	snaps  *snapshot.Memory
	clock  *testClock
	config tuning.Tuning
}

func newHarness(t *testing.T, mutate func(*tuning.Tuning)) *harness {
	t.Helper()
	cfg := tuning.Defaults()
	cfg.WarnOffsetS = 600
	if mutate != nil {
		mutate(&cfg)
	}
	funds := ledger.NewMemory()
	snaps := snapshot.NewMemory()
	clock := &testClock{t: time.Unix(1_700_000_000, 0).UTC()}
	m, err := New(cfg, Deps{
		Ledger:    funds,
		Snapshots: snaps,
		Logger:    log.New(os.Stdout, "[market-test] ", 0),
		Now:       clock.now,
	})
	if err != nil {
		t.Fatalf("new market: %v", err)
	}
	return &harness{m: m, funds: funds, snaps: snaps, clock: clock, config: cfg}
}

func (h *harness) addRentRegion(t *testing.T, name string, price int64, duration time.Duration, restore bool) {
	t.Helper()
	err := h.m.CreateRegion(&model.Region{
		Name:         name,
		Kind:         model.KindRent,
		Price:        price,
		Duration:     duration,
		RestoreOnEnd: restore,
	})
	if err != nil {
		t.Fatalf("create region %s: %v", name, err)
	}
}

func (h *harness) addBuyRegion(t *testing.T, name string, price int64, restore bool) {
	t.Helper()
	err := h.m.CreateRegion(&model.Region{
		Name:         name,
		Kind:         model.KindBuy,
		Price:        price,
		RestoreOnEnd: restore,
	})
	if err != nil {
		t.Fatalf("create region %s: %v", name, err)
	}
}

func (h *harness) mustState(t *testing.T, name string, want model.State) {
	t.Helper()
	r, found := h.m.Store().Get(name)
	if !found {
		t.Fatalf("region %s missing", name)
	}
	if got := r.State(); got != want {
		t.Fatalf("region %s: expected state %s, got %s", name, want, got)
	}
}

func (h *harness) balance(t *testing.T, account string) int64 {
	t.Helper()
	b, err := h.funds.Balance(account)
	if err != nil {
		t.Fatalf("balance %s: %v", account, err)
	}
	return b
}

func TestRentExpireRentAgain(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot_12", 100, 24*time.Hour, true)
	_ = h.funds.Deposit("alice", 100)
	_ = h.funds.Deposit("bob", 100)

	res := h.m.Rent("plot_12", "alice", 24*time.Hour, false)
	if !res.OK {
		t.Fatalf("rent: %s %s", res.Code, res.Message)
	}
	if res.Price != 100 {
		t.Fatalf("expected price 100, got %d", res.Price)
	}
	h.mustState(t, "plot_12", model.StateRented)
	if got := h.balance(t, "alice"); got != 0 {
		t.Fatalf("alice balance: %d", got)
	}
	if h.snaps.Saves() != 1 {
		t.Fatalf("expected one snapshot save, got %d", h.snaps.Saves())
	}

	// At t+86400 the expire event fires: lease ends, contents restore.
	h.clock.advance(24 * time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "plot_12", model.StateUnleased)

	// The plot is immediately rentable again.
	res = h.m.Rent("plot_12", "bob", 24*time.Hour, false)
	if !res.OK {
		t.Fatalf("re-rent: %s %s", res.Code, res.Message)
	}
	if res.Status.Tenant != "bob" {
		t.Fatalf("expected tenant bob, got %s", res.Status.Tenant)
	}
}

func TestRentUnrentRoundTrip(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.MoneyBack = 1 })
	h.addRentRegion(t, "plot", 100, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)

	if res := h.m.Rent("plot", "alice", 0, false); !res.OK {
		t.Fatalf("rent: %s", res.Code)
	}
	res := h.m.Unrent("plot", "alice")
	if !res.OK {
		t.Fatalf("unrent: %s", res.Code)
	}
	if res.Refund != 100 {
		t.Fatalf("expected full refund with money_back=1 and no elapsed time, got %d", res.Refund)
	}
	h.mustState(t, "plot", model.StateUnleased)
	if got := h.balance(t, "alice"); got != 100 {
		t.Fatalf("alice balance after round trip: %d", got)
	}
}

func TestRentUnrentPartialMoneyBack(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.MoneyBack = 0.5 })
	h.addRentRegion(t, "plot", 100, 100*time.Second, false)
	_ = h.funds.Deposit("alice", 100)

	_ = h.m.Rent("plot", "alice", 0, false)
	h.clock.advance(50 * time.Second)
	res := h.m.Unrent("plot", "alice")
	// Half the period remains, half of that comes back.
	if res.Refund != 25 {
		t.Fatalf("expected refund 25, got %d", res.Refund)
	}
}

func TestMaxRenewalsExactCount(t *testing.T) {
	h := newHarness(t, nil)
	err := h.m.CreateRegion(&model.Region{
		Name:        "plot",
		Kind:        model.KindRent,
		Price:       10,
		Duration:    time.Hour,
		MaxRenewals: 3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = h.funds.Deposit("alice", 1000)

	if res := h.m.Rent("plot", "alice", 0, false); !res.OK {
		t.Fatalf("rent: %s", res.Code)
	}
	for i := 0; i < 3; i++ {
		if res := h.m.ExtendRent("plot", "alice"); !res.OK {
			t.Fatalf("extend %d: %s", i+1, res.Code)
		}
	}
	res := h.m.ExtendRent("plot", "alice")
	if res.OK || res.Code != protocol.ErrRenewalLimit {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrRenewalLimit, res.OK, res.Code)
	}
	// The lease is left to expire normally.
	h.mustState(t, "plot", model.StateRented)
}

func TestExtendNotTenant(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	res := h.m.ExtendRent("plot", "mallory")
	if res.OK || res.Code != protocol.ErrNotTenant {
		t.Fatalf("expected %s, got %s", protocol.ErrNotTenant, res.Code)
	}
	res = h.m.ExtendRent("unrented_elsewhere", "alice")
	if res.OK || res.Code != protocol.ErrRegionNotFound {
		t.Fatalf("expected %s, got %s", protocol.ErrRegionNotFound, res.Code)
	}
}

func TestMissedExpiresFireExactlyOnce(t *testing.T) {
	h := newHarness(t, nil)
	_ = h.funds.Deposit("alice", 1000)
	for _, spec := range []struct {
		name string
		dur  time.Duration
	}{
		{"plot_a", time.Hour},
		{"plot_b", 2 * time.Hour},
		{"plot_c", 3 * time.Hour},
	} {
		h.addRentRegion(t, spec.name, 10, spec.dur, false)
		if res := h.m.Rent(spec.name, "alice", 0, false); !res.OK {
			t.Fatalf("rent %s: %s", spec.name, res.Code)
		}
	}

	// Server offline for a week; one tick catches everything up.
	h.clock.advance(7 * 24 * time.Hour)
	h.m.Tick(h.clock.now())
	for _, name := range []string{"plot_a", "plot_b", "plot_c"} {
		h.mustState(t, name, model.StateUnleased)
	}

	// Second tick must be a no-op: no double firing.
	before := h.funds.Transfers()
	h.m.Tick(h.clock.now())
	if h.funds.Transfers() != before {
		t.Fatalf("second tick moved funds")
	}
	for _, name := range []string{"plot_a", "plot_b", "plot_c"} {
		h.mustState(t, name, model.StateUnleased)
	}
}

func TestSecondRentGetsAlreadyLeased(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 50, time.Hour, false)
	_ = h.funds.Deposit("alice", 50)
	_ = h.funds.Deposit("bob", 50)

	first := h.m.Rent("plot", "alice", 0, false)
	second := h.m.Rent("plot", "bob", 0, false)
	if !first.OK {
		t.Fatalf("first rent: %s", first.Code)
	}
	if second.OK || second.Code != protocol.ErrAlreadyLeased {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrAlreadyLeased, second.OK, second.Code)
	}
	if got := h.balance(t, "bob"); got != 50 {
		t.Fatalf("bob must not be charged, balance %d", got)
	}
}

func TestBuyNotForSale(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "shop_3", 100, time.Hour, false)
	_ = h.funds.Deposit("carol", 1000)

	res := h.m.Buy("shop_3", "carol")
	if res.OK || res.Code != protocol.ErrNotForSale {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrNotForSale, res.OK, res.Code)
	}
	h.mustState(t, "shop_3", model.StateUnleased)
	if got := h.balance(t, "carol"); got != 1000 {
		t.Fatalf("carol must not be charged, balance %d", got)
	}
}

func TestMutualExclusion(t *testing.T) {
	h := newHarness(t, nil)
	h.addBuyRegion(t, "shop", 100, false)
	_ = h.funds.Deposit("carol", 1000)
	_ = h.funds.Deposit("dave", 1000)

	if res := h.m.Buy("shop", "carol"); !res.OK {
		t.Fatalf("buy: %s", res.Code)
	}
	res := h.m.Buy("shop", "dave")
	if res.OK || res.Code != protocol.ErrAlreadyLeased {
		t.Fatalf("expected %s, got %s", protocol.ErrAlreadyLeased, res.Code)
	}
	// A sold region can never also carry a rent lease.
	res = h.m.Rent("shop", "dave", time.Hour, false)
	if res.OK {
		t.Fatalf("rent on sold region must fail, got ok")
	}
	r, _ := h.m.Store().Get("shop")
	if r.Rent != nil && r.Buy != nil {
		t.Fatalf("both leases active on one region")
	}
}

func TestAutoRenewWithFunds(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 100, time.Hour, false)
	_ = h.funds.Deposit("alice", 250)

	if res := h.m.Rent("plot", "alice", 0, true); !res.OK {
		t.Fatalf("rent: %s", res.Code)
	}
	h.clock.advance(time.Hour)
	h.m.Tick(h.clock.now())

	r, _ := h.m.Store().Get("plot")
	if r.Rent == nil {
		t.Fatalf("expected lease to auto-renew")
	}
	if r.Rent.Renewals != 1 {
		t.Fatalf("expected 1 renewal, got %d", r.Rent.Renewals)
	}
	if !r.Rent.EndsAt.Equal(h.clock.now().Add(time.Hour)) {
		t.Fatalf("expected new end at now+1h, got %v", r.Rent.EndsAt)
	}

	// Funds run out on the next cycle: lease expires instead.
	h.clock.advance(time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "plot", model.StateUnleased)
}

func TestAutoRenewStopsAtRenewalLimit(t *testing.T) {
	h := newHarness(t, nil)
	err := h.m.CreateRegion(&model.Region{
		Name:        "plot",
		Kind:        model.KindRent,
		Price:       10,
		Duration:    time.Hour,
		MaxRenewals: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = h.funds.Deposit("alice", 1000)
	_ = h.m.Rent("plot", "alice", 0, true)

	h.clock.advance(time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "plot", model.StateRented)

	h.clock.advance(time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "plot", model.StateUnleased)
}

func TestWarnFiresOncePerLease(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.WarnOffsetS = 600 })
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	events := make(chan protocol.EventMsg, 64)
	h.m.subs["obs"] = events

	h.clock.advance(50 * time.Minute)
	h.m.Tick(h.clock.now())

	select {
	case ev := <-events:
		if ev.Event != "warn" || ev.Region != "plot" {
			t.Fatalf("expected warn for plot, got %+v", ev)
		}
	default:
		t.Fatalf("expected a warn event")
	}

	// Re-ticking must not warn again.
	h.m.Tick(h.clock.now())
	select {
	case ev := <-events:
		t.Fatalf("unexpected second event: %+v", ev)
	default:
	}
	r, _ := h.m.Store().Get("plot")
	if !r.Rent.WarnSent {
		t.Fatalf("warn_sent not recorded")
	}
}

func TestWarnAfterRenewIsStale(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.WarnOffsetS = 600 })
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	// Renew before the warn fires; the old warn event is now stale.
	h.clock.advance(30 * time.Minute)
	if res := h.m.ExtendRent("plot", "alice"); !res.OK {
		t.Fatalf("extend: %s", res.Code)
	}

	events := make(chan protocol.EventMsg, 64)
	h.m.subs["obs"] = events
	h.clock.advance(25 * time.Minute) // past the original warn time, before the new one
	h.m.Tick(h.clock.now())
	select {
	case ev := <-events:
		t.Fatalf("stale warn fired: %+v", ev)
	default:
	}
}

func TestUnrentCancelsPendingEvents(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	if h.m.queue.Len() == 0 {
		t.Fatalf("expected warn/end events after rent")
	}
	if res := h.m.Unrent("plot", "alice"); !res.OK {
		t.Fatalf("unrent: %s", res.Code)
	}
	if got := h.m.queue.Len(); got != 0 {
		t.Fatalf("expected no pending events after unrent, got %d", got)
	}

	// Ticking past the old end time must not touch the region.
	h.clock.advance(2 * time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "plot", model.StateUnleased)
}

func TestSnapshotFailureRollsBackRent(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 100, time.Hour, true)
	_ = h.funds.Deposit("alice", 100)
	h.snaps.FailSave = true

	res := h.m.Rent("plot", "alice", 0, false)
	if res.OK || res.Code != protocol.ErrSnapshot {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrSnapshot, res.OK, res.Code)
	}
	h.mustState(t, "plot", model.StateUnleased)
	if got := h.balance(t, "alice"); got != 100 {
		t.Fatalf("debit must be compensated, balance %d", got)
	}
}

func TestLedgerFailureAbortsRent(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 100, time.Hour, true)
	_ = h.funds.Deposit("alice", 100)
	h.funds.FailNext = true

	res := h.m.Rent("plot", "alice", 0, false)
	if res.OK || res.Code != protocol.ErrLedger {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrLedger, res.OK, res.Code)
	}
	h.mustState(t, "plot", model.StateUnleased)
	if h.snaps.Saves() != 0 {
		t.Fatalf("no snapshot should be taken after a failed debit")
	}
}

func TestRefundFailureKeepsLease(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.MoneyBack = 1 })
	h.addRentRegion(t, "plot", 100, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	h.funds.FailNext = true
	res := h.m.Unrent("plot", "alice")
	if res.OK || res.Code != protocol.ErrLedger {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrLedger, res.OK, res.Code)
	}
	// Strong exception safety: the lease is untouched.
	h.mustState(t, "plot", model.StateRented)
}

func TestRestoreFailureRecordsPendingAndRetryClears(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 100, time.Hour, true)
	_ = h.funds.Deposit("alice", 100)
	_ = h.m.Rent("plot", "alice", 0, false)

	h.snaps.FailRestore = true
	res := h.m.Unrent("plot", "alice")
	if !res.OK {
		t.Fatalf("unrent must clear the lease despite restore failure: %s", res.Code)
	}
	if res.Code != protocol.ErrSnapshot {
		t.Fatalf("restore failure must be surfaced, got code %q", res.Code)
	}
	h.mustState(t, "plot", model.StateRestoring)

	// Still failing: retry reports it.
	retry := h.m.RetryRestore("plot")
	if retry.OK || retry.Code != protocol.ErrSnapshot {
		t.Fatalf("expected retry failure, got ok=%v code=%s", retry.OK, retry.Code)
	}

	h.snaps.FailRestore = false
	retry = h.m.RetryRestore("plot")
	if !retry.OK {
		t.Fatalf("retry: %s", retry.Code)
	}
	h.mustState(t, "plot", model.StateUnleased)
}

func TestResellFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.addBuyRegion(t, "shop", 1000, false)
	_ = h.funds.Deposit("carol", 1000)
	_ = h.funds.Deposit("dave", 1500)

	if res := h.m.Buy("shop", "carol"); !res.OK {
		t.Fatalf("buy: %s", res.Code)
	}

	// Not listed yet.
	res := h.m.Resell("shop", "dave")
	if res.OK || res.Code != protocol.ErrNotForSale {
		t.Fatalf("expected %s, got %s", protocol.ErrNotForSale, res.Code)
	}

	if res := h.m.SetResell("shop", "carol", 1500); !res.OK {
		t.Fatalf("set resell: %s", res.Code)
	}
	res = h.m.Resell("shop", "dave")
	if !res.OK {
		t.Fatalf("resell: %s", res.Code)
	}
	if res.Price != 1500 {
		t.Fatalf("expected resale at 1500, got %d", res.Price)
	}

	r, _ := h.m.Store().Get("shop")
	if r.Buy == nil || r.Buy.Owner != "dave" || r.Buy.ForSale {
		t.Fatalf("ownership not transferred cleanly: %+v", r.Buy)
	}
	if got := h.balance(t, "carol"); got != 1500 {
		t.Fatalf("carol must receive the resale price, balance %d", got)
	}
}

func TestSellRelinquishesWithMoneyBack(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) { c.MoneyBack = 0.5 })
	h.addBuyRegion(t, "shop", 1000, false)
	_ = h.funds.Deposit("carol", 1000)
	_ = h.funds.Deposit(tuning.Defaults().ServerAccount, 1000)

	_ = h.m.Buy("shop", "carol")
	res := h.m.Sell("shop", "carol")
	if !res.OK {
		t.Fatalf("sell: %s", res.Code)
	}
	if res.Refund != 500 {
		t.Fatalf("expected refund 500, got %d", res.Refund)
	}
	h.mustState(t, "shop", model.StateUnleased)
	if got := h.balance(t, "carol"); got != 500 {
		t.Fatalf("carol balance: %d", got)
	}
}

func TestGroupMultiplierAndPreview(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.m.SetGroup(model.Group{Name: "market", PriceMultiplier: 2}); err != nil {
		t.Fatalf("set group: %v", err)
	}
	err := h.m.CreateRegion(&model.Region{
		Name:     "stall",
		Kind:     model.KindRent,
		Price:    100,
		Duration: time.Hour,
		Groups:   []string{"market"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res := h.m.PreviewPrice("stall")
	if !res.OK || res.Price != 200 {
		t.Fatalf("expected preview 200, got ok=%v price=%d", res.OK, res.Price)
	}

	// Preview moved no funds and changed no state.
	_ = h.funds.Deposit("alice", 200)
	rent := h.m.Rent("stall", "alice", 0, false)
	if !rent.OK || rent.Price != 200 {
		t.Fatalf("expected rent at 200, got ok=%v price=%d", rent.OK, rent.Price)
	}
}

func TestRenewalCurvePricing(t *testing.T) {
	h := newHarness(t, func(c *tuning.Tuning) {
		c.RenewalCurve = "linear"
		c.RenewalStep = 0.5
	})
	h.addRentRegion(t, "plot", 100, time.Hour, false)
	_ = h.funds.Deposit("alice", 1000)

	first := h.m.Rent("plot", "alice", 0, false)
	if first.Price != 100 {
		t.Fatalf("initial price: %d", first.Price)
	}
	ext := h.m.ExtendRent("plot", "alice")
	if ext.Price != 150 {
		t.Fatalf("first renewal price: %d", ext.Price)
	}
	ext = h.m.ExtendRent("plot", "alice")
	if ext.Price != 200 {
		t.Fatalf("second renewal price: %d", ext.Price)
	}
}

func TestDurationInvalid(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 100)

	res := h.m.Rent("plot", "alice", 30*time.Minute, false)
	if res.OK || res.Code != protocol.ErrDurationInvalid {
		t.Fatalf("expected %s, got ok=%v code=%s", protocol.ErrDurationInvalid, res.OK, res.Code)
	}
}

func TestLoadReschedulesFromLeaseEndTimes(t *testing.T) {
	h := newHarness(t, nil)
	now := h.clock.now()

	pastDue := &model.Region{
		Name:         "stale_plot",
		World:        "w",
		Kind:         model.KindRent,
		Price:        10,
		Duration:     time.Hour,
		Landlord:     h.config.ServerAccount,
		LeaseVersion: 4,
		Rent: &model.RentLease{
			Tenant:    "alice",
			StartedAt: now.Add(-3 * time.Hour),
			EndsAt:    now.Add(-2 * time.Hour),
			Duration:  time.Hour,
			WarnSent:  true,
		},
	}
	live := &model.Region{
		Name:         "live_plot",
		World:        "w",
		Kind:         model.KindRent,
		Price:        10,
		Duration:     2 * time.Hour,
		Landlord:     h.config.ServerAccount,
		LeaseVersion: 1,
		Rent: &model.RentLease{
			Tenant:    "bob",
			StartedAt: now,
			EndsAt:    now.Add(2 * time.Hour),
			Duration:  2 * time.Hour,
		},
	}
	h.m.Load([]*model.Region{pastDue, live}, nil)

	// The queue is rebuilt from lease end times; the past-due lease expires on
	// the first tick, the live one survives.
	h.m.Tick(h.clock.now())
	h.mustState(t, "stale_plot", model.StateUnleased)
	h.mustState(t, "live_plot", model.StateRented)

	h.clock.advance(2 * time.Hour)
	h.m.Tick(h.clock.now())
	h.mustState(t, "live_plot", model.StateUnleased)
}

func TestLedgerCalledAtMostOncePerTransition(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 100, time.Hour, false)
	_ = h.funds.Deposit("alice", 500)

	_ = h.m.Rent("plot", "alice", 0, false)
	if h.funds.Transfers() != 1 {
		t.Fatalf("rent: expected 1 transfer, got %d", h.funds.Transfers())
	}
	_ = h.m.ExtendRent("plot", "alice")
	if h.funds.Transfers() != 2 {
		t.Fatalf("extend: expected 2 transfers total, got %d", h.funds.Transfers())
	}
	// Failed attempts move nothing.
	_ = h.m.ExtendRent("plot", "mallory")
	if h.funds.Transfers() != 2 {
		t.Fatalf("failed extend moved funds")
	}
}

func TestDeleteRegionRules(t *testing.T) {
	h := newHarness(t, nil)
	h.addRentRegion(t, "plot", 10, time.Hour, false)
	_ = h.funds.Deposit("alice", 10)
	_ = h.m.Rent("plot", "alice", 0, false)

	if err := h.m.DeleteRegion("plot"); err == nil {
		t.Fatalf("deleting a leased region must fail")
	}
	_ = h.m.Unrent("plot", "alice")
	if err := h.m.DeleteRegion("plot"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res := h.m.RegionStatus("plot"); res.OK {
		t.Fatalf("expected region to be gone")
	}
}
