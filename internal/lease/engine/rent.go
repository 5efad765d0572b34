package engine

import (
	"errors"
	"time"

	"landrush.gg/internal/capability/ledger"
	"landrush.gg/internal/lease/model"
	"landrush.gg/internal/lease/pricing"
	"landrush.gg/internal/protocol"
)

// Rent starts a rent lease. The debit happens before the snapshot; if the
// snapshot then fails, the debit is compensated and no lease is recorded, so
// a rejected rent leaves both funds and region state unchanged.
func (m *Market) Rent(region, tenant string, duration time.Duration, autoRenew bool) Result {
	now := m.now()
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Kind != model.KindRent {
		return fail(protocol.ErrNotForSale, "region is not for rent")
	}
	if cur.Leased() {
		return fail(protocol.ErrAlreadyLeased, "region is already leased")
	}
	if duration == 0 {
		duration = cur.Duration
	}
	if duration <= 0 || (cur.Duration > 0 && duration != cur.Duration) {
		return fail(protocol.ErrDurationInvalid, "rent period is fixed per region")
	}
	if tenant == "" {
		return fail(protocol.ErrBadRequest, "missing tenant")
	}

	price := m.rentPrice(cur, 0)
	if err := m.ledger.Transfer(tenant, cur.Landlord, price); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fail(protocol.ErrInsufficientFunds, "cannot afford rent")
		}
		m.log.Printf("rent %s: ledger: %v", region, err)
		return fail(protocol.ErrLedger, "funds transfer failed")
	}

	snapID := ""
	if m.restoreEnabled(cur) {
		id, err := m.snaps.Save(region)
		if err != nil {
			m.log.Printf("rent %s: snapshot: %v", region, err)
			if rerr := m.ledger.Transfer(cur.Landlord, tenant, price); rerr != nil {
				m.log.Printf("rent %s: refund after snapshot failure: %v", region, rerr)
			}
			return fail(protocol.ErrSnapshot, "snapshot failed, rent aborted")
		}
		snapID = id
	}

	r := cur.Clone()
	r.Rent = &model.RentLease{
		Tenant:    tenant,
		StartedAt: now,
		EndsAt:    now.Add(duration),
		Duration:  duration,
		AutoRenew: autoRenew,
	}
	r.SnapshotID = snapID
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		// Single-threaded mutation makes this unreachable in practice; treat it
		// as a lost update all the same and refund.
		m.log.Printf("rent %s: replace: %v", region, err)
		if rerr := m.ledger.Transfer(cur.Landlord, tenant, price); rerr != nil {
			m.log.Printf("rent %s: refund after conflict: %v", region, rerr)
		}
		return fail(protocol.ErrConflict, "region changed during rent")
	}

	m.scheduleLease(r)
	m.setOccupant(r, tenant)
	m.persist(r)
	m.log.Printf("rent %s tenant=%s price=%d until=%s", region, tenant, price, r.Rent.EndsAt.UTC().Format(time.RFC3339))

	st := m.statusOf(r)
	return Result{OK: true, Price: price, Status: &st}
}

// ExtendRent renews the current lease for another period, repriced by the
// renewal curve. The tenant (or the scheduler's auto-renew path) may call it.
func (m *Market) ExtendRent(region, requester string) Result {
	now := m.now()
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Rent == nil {
		return fail(protocol.ErrNotTenant, "region is not rented")
	}
	if requester != SystemInitiator && requester != cur.Rent.Tenant {
		return fail(protocol.ErrNotTenant, "not the current tenant")
	}
	if cur.MaxRenewals > 0 && cur.Rent.Renewals >= cur.MaxRenewals {
		return fail(protocol.ErrRenewalLimit, "renewal limit reached")
	}

	price := m.rentPrice(cur, cur.Rent.Renewals+1)
	if err := m.ledger.Transfer(cur.Rent.Tenant, cur.Landlord, price); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fail(protocol.ErrInsufficientFunds, "cannot afford renewal")
		}
		m.log.Printf("extend %s: ledger: %v", region, err)
		return fail(protocol.ErrLedger, "funds transfer failed")
	}

	r := cur.Clone()
	r.Rent.Renewals++
	r.Rent.StartedAt = now
	r.Rent.EndsAt = now.Add(r.Rent.Duration)
	r.Rent.WarnSent = false
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		m.log.Printf("extend %s: replace: %v", region, err)
		if rerr := m.ledger.Transfer(cur.Landlord, cur.Rent.Tenant, price); rerr != nil {
			m.log.Printf("extend %s: refund after conflict: %v", region, rerr)
		}
		return fail(protocol.ErrConflict, "region changed during renewal")
	}

	m.scheduleLease(r)
	m.persist(r)
	m.log.Printf("extend %s tenant=%s renewals=%d price=%d until=%s",
		region, r.Rent.Tenant, r.Rent.Renewals, price, r.Rent.EndsAt.UTC().Format(time.RFC3339))

	st := m.statusOf(r)
	return Result{OK: true, Price: price, Status: &st}
}

// Unrent terminates a rent lease: cancels timers, refunds the prorated
// remainder when the tenant leaves early, restores contents if the policy
// asks for it, and clears the lease. A failed restore never blocks
// clearance; the region keeps a pending-restore marker instead.
func (m *Market) Unrent(region, initiator string) Result {
	now := m.now()
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Rent == nil {
		return fail(protocol.ErrNotTenant, "region is not rented")
	}
	tenant := cur.Rent.Tenant
	if initiator != SystemInitiator && initiator != tenant {
		return fail(protocol.ErrNotTenant, "not the current tenant")
	}

	var refund int64
	if initiator != SystemInitiator {
		paid := m.rentPrice(cur, cur.Rent.Renewals)
		refund = pricing.Refund(paid, cur.Rent.StartedAt, cur.Rent.EndsAt, now, m.cfg.MoneyBack)
	}
	if refund > 0 {
		if err := m.ledger.Transfer(cur.Landlord, tenant, refund); err != nil {
			m.log.Printf("unrent %s: refund: %v", region, err)
			return fail(protocol.ErrLedger, "refund transfer failed")
		}
	}

	r := cur.Clone()
	restoreErr := m.restoreOnEnd(r)
	r.Rent = nil
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		m.log.Printf("unrent %s: replace: %v", region, err)
		return fail(protocol.ErrConflict, "region changed during unrent")
	}

	m.cancelTimers(region)
	m.setOccupant(r, "")
	m.persist(r)
	m.log.Printf("unrent %s tenant=%s initiator=%s refund=%d", region, tenant, initiator, refund)

	st := m.statusOf(r)
	res := Result{OK: true, Refund: refund, Status: &st}
	if restoreErr != nil {
		m.log.Printf("unrent %s: restore: %v", region, restoreErr)
		m.emit(protocol.EventMsg{
			Type:    protocol.TypeEvent,
			Event:   "restore_failed",
			Region:  region,
			Account: tenant,
			Message: restoreErr.Error(),
		})
		res.Code = protocol.ErrSnapshot
		res.Message = "lease cleared, contents restore pending"
	}
	return res
}

// restoreOnEnd attempts the configured restore on the clone, moving the
// snapshot id to PendingRestore when it fails. Returns the restore error;
// callers treat it as reportable, not fatal.
func (m *Market) restoreOnEnd(r *model.Region) error {
	if !m.restoreEnabled(r) || r.SnapshotID == "" {
		r.SnapshotID = ""
		return nil
	}
	id := r.SnapshotID
	r.SnapshotID = ""
	if err := m.snaps.Restore(r.Name, id); err != nil {
		r.PendingRestore = id
		return err
	}
	r.PendingRestore = ""
	return nil
}
