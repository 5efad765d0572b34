package model

import "time"

// Kind is the offering configured on a region by an admin.
type Kind string

const (
	KindRent Kind = "rent"
	KindBuy  Kind = "buy"
)

// State is the externally visible lease state of a region.
type State string

const (
	StateUnleased  State = "unleased"
	StateRented    State = "rented"
	StateSold      State = "sold"
	StateRestoring State = "restoring" // lease cleared, contents restore still pending
)

type Region struct {
	Name     string
	World    string
	Boundary string // opaque handle into the protection capability
	Groups   []string

	Kind         Kind
	Price        int64         // per rent period, or purchase price for buy regions
	Duration     time.Duration // rent period length (rent regions)
	MaxRenewals  int           // 0 = unlimited
	WarnOffset   time.Duration // 0 = use the configured default
	RestoreOnEnd bool

	// Landlord is the account credited with rent/purchase proceeds.
	Landlord string

	// LeaseVersion increments on every lease transition. Scheduled events carry
	// the version they were created under; a mismatch at fire time means the
	// lease was replaced and the event is stale.
	LeaseVersion uint64

	Rent *RentLease
	Buy  *BuyLease

	// SnapshotID is the snapshot taken at the start of the current lease cycle.
	SnapshotID string
	// PendingRestore holds a snapshot id whose restore failed and awaits retry.
	PendingRestore string
}

type RentLease struct {
	Tenant    string
	StartedAt time.Time
	EndsAt    time.Time
	Duration  time.Duration
	Renewals  int
	WarnSent  bool
	AutoRenew bool
}

type BuyLease struct {
	Owner       string
	PurchasedAt time.Time
	ResellPrice int64
	ForSale     bool
}

// Group batches price and restore policy over member regions. It carries no
// lease state of its own.
type Group struct {
	Name            string
	PriceMultiplier float64
	RestoreOnEnd    *bool // nil = no override
}

func (r *Region) State() State {
	switch {
	case r.Rent != nil:
		return StateRented
	case r.Buy != nil:
		return StateSold
	case r.PendingRestore != "":
		return StateRestoring
	default:
		return StateUnleased
	}
}

// Leased reports whether any lease is active. At most one of Rent/Buy is
// non-nil at any time; the engine maintains that invariant.
func (r *Region) Leased() bool {
	return r.Rent != nil || r.Buy != nil
}

func (r *Region) InGroup(name string) bool {
	for _, g := range r.Groups {
		if g == name {
			return true
		}
	}
	return false
}

func (r *Region) Clone() *Region {
	cp := *r
	cp.Groups = append([]string(nil), r.Groups...)
	if r.Rent != nil {
		rl := *r.Rent
		cp.Rent = &rl
	}
	if r.Buy != nil {
		bl := *r.Buy
		cp.Buy = &bl
	}
	return &cp
}
