package engine

import (
	"fmt"
	"time"

	"landrush.gg/internal/lease/model"
)

// CreateRegion registers a new leasable region. Admin surface: errors are
// plain Go errors, not protocol results.
func (m *Market) CreateRegion(r *model.Region) error {
	if r.Name == "" {
		return fmt.Errorf("missing region name")
	}
	if _, exists := m.store.Get(r.Name); exists {
		return fmt.Errorf("region %q already exists", r.Name)
	}
	switch r.Kind {
	case model.KindRent:
		if r.Duration <= 0 {
			return fmt.Errorf("rent region %q needs a positive duration", r.Name)
		}
	case model.KindBuy:
	default:
		return fmt.Errorf("region %q has unknown kind %q", r.Name, r.Kind)
	}
	if r.Price < 0 {
		return fmt.Errorf("region %q has negative price", r.Name)
	}
	if r.Landlord == "" {
		r.Landlord = m.cfg.ServerAccount
	}
	if r.World == "" {
		r.World = m.cfg.World
	}
	r.Rent, r.Buy = nil, nil
	r.LeaseVersion = 0
	m.store.Put(r)
	m.persist(r)
	m.log.Printf("region created %s kind=%s price=%d", r.Name, r.Kind, r.Price)
	return nil
}

// DeleteRegion removes an unleased region and its timers.
func (m *Market) DeleteRegion(name string) error {
	r, found := m.store.Get(name)
	if !found {
		return fmt.Errorf("region %q not found", name)
	}
	if r.Leased() {
		return fmt.Errorf("region %q is leased", name)
	}
	m.cancelTimers(name)
	m.store.Remove(name)
	if m.db != nil {
		m.db.DeleteRegion(name)
	}
	m.log.Printf("region deleted %s", name)
	return nil
}

func (m *Market) SetGroup(g model.Group) error {
	if g.Name == "" {
		return fmt.Errorf("missing group name")
	}
	if g.PriceMultiplier < 0 {
		return fmt.Errorf("group %q has negative multiplier", g.Name)
	}
	m.store.PutGroup(g)
	if m.db != nil {
		m.db.PutGroup(g)
	}
	return nil
}

func (m *Market) DeleteGroup(name string) {
	m.store.RemoveGroup(name)
	if m.db != nil {
		m.db.DeleteGroup(name)
	}
}

// Load seeds the store from persisted state and rebuilds the event queue from
// lease end times. Scheduler state is never persisted; everything needed to
// reconstruct it lives on the leases. Leases already past due fire on the
// first tick.
func (m *Market) Load(regions []*model.Region, groups []model.Group) {
	for _, g := range groups {
		m.store.PutGroup(g)
	}
	scheduled := 0
	for _, r := range regions {
		m.store.Put(r)
		if r.Rent != nil {
			m.scheduleLease(r)
			scheduled++
			m.setOccupant(r, r.Rent.Tenant)
		} else if r.Buy != nil {
			m.setOccupant(r, r.Buy.Owner)
		}
	}
	m.log.Printf("loaded %d regions, %d groups, %d leases scheduled", len(regions), len(groups), scheduled)
}

// LoadFromDB is the startup path when a lease database is attached.
func (m *Market) LoadFromDB() error {
	if m.db == nil {
		return nil
	}
	regions, groups, err := m.db.LoadAll()
	if err != nil {
		return fmt.Errorf("load lease db: %w", err)
	}
	m.Load(regions, groups)
	return nil
}

// NextFire exposes the earliest pending event, for observability.
func (m *Market) NextFire() (time.Time, bool) {
	return m.queue.NextFire()
}
