package engine

import (
	"landrush.gg/internal/lease/model"
	"landrush.gg/internal/protocol"
)

func (m *Market) statusOf(r *model.Region) protocol.RegionStatus {
	st := protocol.RegionStatus{
		Name:           r.Name,
		World:          r.World,
		Kind:           string(r.Kind),
		State:          string(r.State()),
		Groups:         append([]string(nil), r.Groups...),
		Price:          r.Price,
		MaxRenewals:    r.MaxRenewals,
		PendingRestore: r.PendingRestore != "",
	}
	if r.Kind == model.KindRent {
		st.DurationS = int64(r.Duration.Seconds())
	}
	if r.Rent != nil {
		st.Tenant = r.Rent.Tenant
		st.EndsAt = r.Rent.EndsAt.Unix()
		st.Renewals = r.Rent.Renewals
		st.AutoRenew = r.Rent.AutoRenew
	}
	if r.Buy != nil {
		st.Owner = r.Buy.Owner
		st.ForSale = r.Buy.ForSale
		st.ResellPrice = r.Buy.ResellPrice
	}
	return st
}

// PreviewPrice computes the price of the next applicable transition without
// moving funds. Deterministic and side-effect free.
func (m *Market) PreviewPrice(region string) Result {
	r, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	var price int64
	switch {
	case r.Rent != nil:
		price = m.rentPrice(r, r.Rent.Renewals+1)
	case r.Buy != nil && r.Buy.ForSale:
		price = r.Buy.ResellPrice
	case r.Buy != nil:
		return fail(protocol.ErrNotForSale, "region is not listed for resale")
	case r.Kind == model.KindBuy:
		price = m.buyPrice(r)
	default:
		price = m.rentPrice(r, 0)
	}
	st := m.statusOf(r)
	return Result{OK: true, Price: price, Status: &st}
}

// ListRegions returns the status of every region, optionally filtered by
// group membership.
func (m *Market) ListRegions(group string) Result {
	regions := m.store.List(group)
	out := make([]protocol.RegionStatus, 0, len(regions))
	for _, r := range regions {
		out = append(out, m.statusOf(r))
	}
	return Result{OK: true, Regions: out}
}

func (m *Market) RegionStatus(region string) Result {
	r, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	st := m.statusOf(r)
	return Result{OK: true, Status: &st}
}

// RetryRestore re-attempts a restore that failed during a lease transition.
func (m *Market) RetryRestore(region string) Result {
	r, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if r.PendingRestore == "" {
		return fail(protocol.ErrBadRequest, "no restore pending")
	}
	if err := m.snaps.Restore(region, r.PendingRestore); err != nil {
		m.log.Printf("retry restore %s: %v", region, err)
		return fail(protocol.ErrSnapshot, "restore failed again")
	}
	r.PendingRestore = ""
	m.persist(r)
	m.log.Printf("retry restore %s: done", region)
	st := m.statusOf(r)
	return Result{OK: true, Status: &st}
}
