package engine

import (
	"context"
	"time"

	"landrush.gg/internal/protocol"
)

type cmdEnvelope struct {
	Account string
	Cmd     protocol.CmdMsg
	Resp    chan Result
}

type subReq struct {
	id   string
	ch   chan protocol.EventMsg
	resp chan struct{}
}

// Run drives the market loop: commands accumulate between ticks and are
// applied at tick boundaries, after due scheduler events, in arrival order.
// This is the single logical control thread every operation executes on.
func (m *Market) Run(ctx context.Context) error {
	// Whatever path exits the loop, the stop channel must close so blocked
	// Do callers get an answer instead of hanging.
	defer m.Stop()

	ticker := time.NewTicker(m.cfg.TickInterval())
	defer ticker.Stop()

	var pending []cmdEnvelope

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stop:
			return nil
		case req := <-m.sub:
			m.subs[req.id] = req.ch
			close(req.resp)
		case id := <-m.unsub:
			if ch, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(ch)
			}
		case env := <-m.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			m.Tick(m.now())
			for _, env := range pending {
				res := m.dispatch(env.Account, env.Cmd)
				if env.Resp != nil {
					env.Resp <- res
				}
			}
			pending = pending[:0]
		}
	}
}

func (m *Market) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Do routes a command through the market loop and waits for its result.
func (m *Market) Do(account string, cmd protocol.CmdMsg) Result {
	resp := make(chan Result, 1)
	select {
	case m.inbox <- cmdEnvelope{Account: account, Cmd: cmd, Resp: resp}:
	case <-m.stop:
		return fail(protocol.ErrInternal, "market stopped")
	}
	select {
	case res := <-resp:
		return res
	case <-m.stop:
		return fail(protocol.ErrInternal, "market stopped")
	}
}

// Subscribe registers an event feed for a transport session.
func (m *Market) Subscribe(id string) <-chan protocol.EventMsg {
	ch := make(chan protocol.EventMsg, 64)
	resp := make(chan struct{})
	m.sub <- subReq{id: id, ch: ch, resp: resp}
	<-resp
	return ch
}

func (m *Market) Unsubscribe(id string) {
	m.unsub <- id
}

func (m *Market) dispatch(account string, cmd protocol.CmdMsg) Result {
	switch cmd.Op {
	case protocol.OpRent:
		return m.Rent(cmd.Region, account, time.Duration(cmd.DurationS)*time.Second, cmd.AutoRenew)
	case protocol.OpExtendRent:
		return m.ExtendRent(cmd.Region, account)
	case protocol.OpUnrent:
		return m.Unrent(cmd.Region, account)
	case protocol.OpBuy:
		return m.Buy(cmd.Region, account)
	case protocol.OpSell:
		return m.Sell(cmd.Region, account)
	case protocol.OpSetResell:
		return m.SetResell(cmd.Region, account, cmd.Price)
	case protocol.OpResell:
		return m.Resell(cmd.Region, account)
	case protocol.OpPreviewPrice:
		return m.PreviewPrice(cmd.Region)
	case protocol.OpListRegions:
		return m.ListRegions(cmd.Group)
	case protocol.OpRegionStatus:
		return m.RegionStatus(cmd.Region)
	case protocol.OpRetryRestore:
		return m.RetryRestore(cmd.Region)
	default:
		return fail(protocol.ErrBadRequest, "unknown op")
	}
}
