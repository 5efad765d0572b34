package engine

import (
	"time"

	"landrush.gg/internal/lease/schedule"
	"landrush.gg/internal/protocol"
)

// Tick fires every due scheduler event. A large gap since the previous call
// (server downtime) simply yields all missed events, each handled exactly
// once. Tick is never called concurrently with itself: the market loop owns
// it, and tests call it directly on one goroutine.
func (m *Market) Tick(now time.Time) {
	for _, ev := range m.queue.Due(now) {
		switch ev.Kind {
		case schedule.KindWarn:
			m.handleWarn(ev)
		case schedule.KindExpire, schedule.KindAutoRenew:
			m.handleEnd(ev)
		}
	}
}

// handleWarn notifies the tenant once per lease period. A lease renewed or
// cleared since scheduling carries a different version, making this a no-op.
func (m *Market) handleWarn(ev schedule.Event) {
	r, found := m.store.Get(ev.Region)
	if !found || r.Rent == nil || r.LeaseVersion != ev.LeaseVersion {
		return
	}
	if r.Rent.WarnSent {
		return
	}
	// Warning is not a lease transition; the version must not move, or the
	// pending end event would go stale.
	r.Rent.WarnSent = true
	m.persist(r)
	m.emit(protocol.EventMsg{
		Type:    protocol.TypeEvent,
		Event:   "warn",
		Region:  ev.Region,
		Account: r.Rent.Tenant,
		EndsAt:  r.Rent.EndsAt.Unix(),
		Message: "lease expires soon",
	})
}

// handleEnd processes an expire or auto-renew firing. The version check
// guards against stale timers left behind by an intervening unrent.
func (m *Market) handleEnd(ev schedule.Event) {
	r, found := m.store.Get(ev.Region)
	if !found || r.Rent == nil || r.LeaseVersion != ev.LeaseVersion {
		return
	}
	tenant := r.Rent.Tenant

	if ev.Kind == schedule.KindAutoRenew {
		res := m.ExtendRent(ev.Region, SystemInitiator)
		if res.OK {
			m.emit(protocol.EventMsg{
				Type:    protocol.TypeEvent,
				Event:   "renewed",
				Region:  ev.Region,
				Account: tenant,
				EndsAt:  res.Status.EndsAt,
			})
			return
		}
		switch res.Code {
		case protocol.ErrInsufficientFunds, protocol.ErrRenewalLimit:
			// Fall through to normal expiry.
			m.log.Printf("autorenew %s: %s, expiring", ev.Region, res.Code)
		default:
			// Ledger outage or similar: do not clear the lease on a transient
			// failure, retry on the next tick.
			m.log.Printf("autorenew %s: %s, retrying next tick", ev.Region, res.Code)
			m.queue.ScheduleAt(m.now().Add(m.cfg.TickInterval()), schedule.KindAutoRenew, ev.Region, ev.LeaseVersion)
			return
		}
	}

	res := m.Unrent(ev.Region, SystemInitiator)
	if !res.OK {
		m.log.Printf("expire %s: %s %s", ev.Region, res.Code, res.Message)
		return
	}
	m.emit(protocol.EventMsg{
		Type:    protocol.TypeEvent,
		Event:   "expired",
		Region:  ev.Region,
		Account: tenant,
	})
}

// emit fans an event out to every subscriber, dropping for slow ones.
func (m *Market) emit(ev protocol.EventMsg) {
	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
