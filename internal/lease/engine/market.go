package engine

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"landrush.gg/internal/capability/ledger"
	"landrush.gg/internal/capability/protection"
	"landrush.gg/internal/capability/snapshot"
	"landrush.gg/internal/lease/model"
	"landrush.gg/internal/lease/pricing"
	"landrush.gg/internal/lease/schedule"
	"landrush.gg/internal/lease/tuning"
	"landrush.gg/internal/persistence/leasedb"
	"landrush.gg/internal/protocol"
)

// SystemInitiator marks transitions driven by the scheduler rather than a
// player command.
const SystemInitiator = "@system"

// Market is the lease engine context: the region store, the event queue, and
// the capability bridges, explicitly constructed and passed to every
// operation. All lease mutation happens on the goroutine running Run (or, in
// tests, on the caller's goroutine).
type Market struct {
	cfg   tuning.Tuning
	curve pricing.Curve
	log   *log.Logger

	store  *RegionStore
	queue  *schedule.Queue
	ledger ledger.Ledger
	snaps  snapshot.Store
	prot   protection.Service
	db     *leasedb.DB

	now func() time.Time

	inbox    chan cmdEnvelope
	subs     map[string]chan protocol.EventMsg
	sub      chan subReq
	unsub    chan string
	stop     chan struct{}
	stopOnce sync.Once
}

// Deps are the collaborators injected into the engine. Ledger and Snapshots
// are required; Protection and DB may be nil.
type Deps struct {
	Ledger     ledger.Ledger
	Snapshots  snapshot.Store
	Protection protection.Service
	DB         *leasedb.DB
	Logger     *log.Logger
	Now        func() time.Time
}

func New(cfg tuning.Tuning, deps Deps) (*Market, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("nil ledger")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("nil snapshot store")
	}
	curve, err := pricing.CurveFromConfig(cfg.RenewalCurve, cfg.RenewalStep)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[market] ", log.LstdFlags|log.Lmicroseconds)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Market{
		cfg:    cfg,
		curve:  curve,
		log:    logger,
		store:  NewRegionStore(),
		queue:  schedule.NewQueue(),
		ledger: deps.Ledger,
		snaps:  deps.Snapshots,
		prot:   deps.Protection,
		db:     deps.DB,
		now:    now,
		inbox:  make(chan cmdEnvelope, 256),
		subs:   make(map[string]chan protocol.EventMsg),
		sub:    make(chan subReq, 16),
		unsub:  make(chan string, 16),
		stop:   make(chan struct{}),
	}, nil
}

func (m *Market) Store() *RegionStore { return m.store }

func (m *Market) World() string { return m.cfg.World }

// groupMultiplier stacks the multipliers of every group the region belongs to.
func (m *Market) groupMultiplier(r *model.Region) float64 {
	mult := 1.0
	for _, name := range r.Groups {
		g, ok := m.store.Group(name)
		if !ok || g.PriceMultiplier <= 0 {
			continue
		}
		mult *= g.PriceMultiplier
	}
	return mult
}

// restoreEnabled resolves the restore policy: the last group override wins,
// otherwise the region's own flag applies.
func (m *Market) restoreEnabled(r *model.Region) bool {
	enabled := r.RestoreOnEnd
	for _, name := range r.Groups {
		g, ok := m.store.Group(name)
		if ok && g.RestoreOnEnd != nil {
			enabled = *g.RestoreOnEnd
		}
	}
	return enabled
}

func (m *Market) rentPrice(r *model.Region, renewals int) int64 {
	return pricing.RentPrice(r.Price, m.groupMultiplier(r), m.curve, renewals)
}

func (m *Market) buyPrice(r *model.Region) int64 {
	return pricing.BuyPrice(r.Price, m.groupMultiplier(r))
}

func (m *Market) warnOffset(r *model.Region) time.Duration {
	if r.WarnOffset > 0 {
		return r.WarnOffset
	}
	return m.cfg.WarnOffset()
}

// scheduleLease cancels any pending timers for the region and schedules the
// warn and end events for its current rent lease. Every lease transition
// passes through here (or cancelTimers), keeping at most one warn and one end
// event queued per region.
func (m *Market) scheduleLease(r *model.Region) {
	m.queue.CancelRegion(r.Name)
	if r.Rent == nil {
		return
	}
	if off := m.warnOffset(r); off > 0 && !r.Rent.WarnSent {
		m.queue.ScheduleAt(r.Rent.EndsAt.Add(-off), schedule.KindWarn, r.Name, r.LeaseVersion)
	}
	kind := schedule.KindExpire
	if r.Rent.AutoRenew {
		kind = schedule.KindAutoRenew
	}
	m.queue.ScheduleAt(r.Rent.EndsAt, kind, r.Name, r.LeaseVersion)
}

func (m *Market) cancelTimers(region string) {
	m.queue.CancelRegion(region)
}

func (m *Market) persist(r *model.Region) {
	if m.db != nil {
		m.db.PutRegion(r)
	}
}

func (m *Market) setOccupant(r *model.Region, account string) {
	if m.prot == nil || r.Boundary == "" {
		return
	}
	var err error
	if account == "" {
		err = m.prot.ClearOccupant(r.Boundary)
	} else {
		err = m.prot.SetOccupant(r.Boundary, account)
	}
	if err != nil {
		m.log.Printf("protection update %s: %v", r.Name, err)
	}
}
