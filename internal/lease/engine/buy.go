package engine

import (
	"errors"
	"math"

	"landrush.gg/internal/capability/ledger"
	"landrush.gg/internal/lease/model"
	"landrush.gg/internal/protocol"
)

// Buy purchases an unleased buy-region from the landlord. Mirrors Rent's
// atomicity: debit first, snapshot second, compensate on snapshot failure.
func (m *Market) Buy(region, buyer string) Result {
	now := m.now()
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Kind != model.KindBuy {
		return fail(protocol.ErrNotForSale, "region is not for sale")
	}
	if cur.Leased() {
		return fail(protocol.ErrAlreadyLeased, "region is already leased")
	}
	if buyer == "" {
		return fail(protocol.ErrBadRequest, "missing buyer")
	}

	price := m.buyPrice(cur)
	if err := m.ledger.Transfer(buyer, cur.Landlord, price); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fail(protocol.ErrInsufficientFunds, "cannot afford purchase")
		}
		m.log.Printf("buy %s: ledger: %v", region, err)
		return fail(protocol.ErrLedger, "funds transfer failed")
	}

	snapID := ""
	if m.restoreEnabled(cur) {
		id, err := m.snaps.Save(region)
		if err != nil {
			m.log.Printf("buy %s: snapshot: %v", region, err)
			if rerr := m.ledger.Transfer(cur.Landlord, buyer, price); rerr != nil {
				m.log.Printf("buy %s: refund after snapshot failure: %v", region, rerr)
			}
			return fail(protocol.ErrSnapshot, "snapshot failed, purchase aborted")
		}
		snapID = id
	}

	r := cur.Clone()
	r.Buy = &model.BuyLease{Owner: buyer, PurchasedAt: now}
	r.SnapshotID = snapID
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		m.log.Printf("buy %s: replace: %v", region, err)
		if rerr := m.ledger.Transfer(cur.Landlord, buyer, price); rerr != nil {
			m.log.Printf("buy %s: refund after conflict: %v", region, rerr)
		}
		return fail(protocol.ErrConflict, "region changed during purchase")
	}

	m.setOccupant(r, buyer)
	m.persist(r)
	m.log.Printf("buy %s owner=%s price=%d", region, buyer, price)

	st := m.statusOf(r)
	return Result{OK: true, Price: price, Status: &st}
}

// Sell relinquishes an owned region back to the landlord. The owner receives
// the configured money_back fraction of the purchase price; contents restore
// follows the same non-fatal rules as Unrent.
func (m *Market) Sell(region, owner string) Result {
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Buy == nil {
		return fail(protocol.ErrNotTenant, "region is not owned")
	}
	if owner != SystemInitiator && owner != cur.Buy.Owner {
		return fail(protocol.ErrNotTenant, "not the current owner")
	}

	refund := int64(math.Round(float64(m.buyPrice(cur)) * m.cfg.MoneyBack))
	if refund > 0 {
		if err := m.ledger.Transfer(cur.Landlord, cur.Buy.Owner, refund); err != nil {
			m.log.Printf("sell %s: refund: %v", region, err)
			return fail(protocol.ErrLedger, "refund transfer failed")
		}
	}

	prevOwner := cur.Buy.Owner
	r := cur.Clone()
	restoreErr := m.restoreOnEnd(r)
	r.Buy = nil
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		m.log.Printf("sell %s: replace: %v", region, err)
		return fail(protocol.ErrConflict, "region changed during sale")
	}

	m.setOccupant(r, "")
	m.persist(r)
	m.log.Printf("sell %s owner=%s refund=%d", region, prevOwner, refund)

	st := m.statusOf(r)
	res := Result{OK: true, Refund: refund, Status: &st}
	if restoreErr != nil {
		m.log.Printf("sell %s: restore: %v", region, restoreErr)
		m.emit(protocol.EventMsg{
			Type:    protocol.TypeEvent,
			Event:   "restore_failed",
			Region:  region,
			Account: prevOwner,
			Message: restoreErr.Error(),
		})
		res.Code = protocol.ErrSnapshot
		res.Message = "sale completed, contents restore pending"
	}
	return res
}

// SetResell lists an owned region for resale at the given price, or delists
// it when price is zero.
func (m *Market) SetResell(region, owner string, price int64) Result {
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Buy == nil {
		return fail(protocol.ErrNotTenant, "region is not owned")
	}
	if owner != cur.Buy.Owner {
		return fail(protocol.ErrNotTenant, "not the current owner")
	}
	if price < 0 {
		return fail(protocol.ErrBadRequest, "negative resell price")
	}

	// Listing state is part of the lease, not a new lease; the version stays.
	cur.Buy.ForSale = price > 0
	cur.Buy.ResellPrice = price
	m.persist(cur)

	st := m.statusOf(cur)
	return Result{OK: true, Status: &st}
}

// Resell transfers ownership of a listed region to a new buyer, paying the
// current owner the resell price. The baseline snapshot taken at the original
// purchase survives the transfer so a later Sell still restores the
// landlord-era contents; when restore-between-owners is enabled it is applied
// here too, non-fatally.
func (m *Market) Resell(region, newBuyer string) Result {
	now := m.now()
	cur, found := m.store.Get(region)
	if !found {
		return fail(protocol.ErrRegionNotFound, "no such region")
	}
	if cur.Buy == nil || !cur.Buy.ForSale {
		return fail(protocol.ErrNotForSale, "region is not listed for resale")
	}
	if newBuyer == "" {
		return fail(protocol.ErrBadRequest, "missing buyer")
	}
	if newBuyer == cur.Buy.Owner {
		return fail(protocol.ErrBadRequest, "already the owner")
	}

	price := cur.Buy.ResellPrice
	seller := cur.Buy.Owner
	if err := m.ledger.Transfer(newBuyer, seller, price); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return fail(protocol.ErrInsufficientFunds, "cannot afford resale price")
		}
		m.log.Printf("resell %s: ledger: %v", region, err)
		return fail(protocol.ErrLedger, "funds transfer failed")
	}

	r := cur.Clone()
	var restoreErr error
	if m.restoreEnabled(r) && r.SnapshotID != "" {
		if err := m.snaps.Restore(region, r.SnapshotID); err != nil {
			r.PendingRestore = r.SnapshotID
			restoreErr = err
		}
	}
	r.Buy = &model.BuyLease{Owner: newBuyer, PurchasedAt: now}
	r.LeaseVersion = cur.LeaseVersion + 1
	if err := m.store.Replace(r, cur.LeaseVersion); err != nil {
		m.log.Printf("resell %s: replace: %v", region, err)
		if rerr := m.ledger.Transfer(seller, newBuyer, price); rerr != nil {
			m.log.Printf("resell %s: refund after conflict: %v", region, rerr)
		}
		return fail(protocol.ErrConflict, "region changed during resale")
	}

	m.setOccupant(r, newBuyer)
	m.persist(r)
	m.log.Printf("resell %s %s->%s price=%d", region, seller, newBuyer, price)

	st := m.statusOf(r)
	res := Result{OK: true, Price: price, Status: &st}
	if restoreErr != nil {
		m.log.Printf("resell %s: restore: %v", region, restoreErr)
		m.emit(protocol.EventMsg{
			Type:    protocol.TypeEvent,
			Event:   "restore_failed",
			Region:  region,
			Account: seller,
			Message: restoreErr.Error(),
		})
		res.Code = protocol.ErrSnapshot
		res.Message = "ownership transferred, contents restore pending"
	}
	return res
}
