package schedule

import (
	"container/heap"
	"time"
)

type Kind string

const (
	KindExpire    Kind = "expire"
	KindWarn      Kind = "warn"
	KindAutoRenew Kind = "autorenew"
)

// Event is a pending timed action against a region. LeaseVersion records the
// region's lease version at schedule time so handlers can reject stale timers.
type Event struct {
	FireAt       time.Time
	Kind         Kind
	Region       string
	LeaseVersion uint64

	seq      uint64
	canceled bool
}

// Queue is a time-ordered event queue. Events with equal fire times pop in
// insertion order. Not safe for concurrent use; the market loop owns it.
type Queue struct {
	items eventHeap
	seq   uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) ScheduleAt(at time.Time, kind Kind, region string, leaseVersion uint64) {
	q.seq++
	heap.Push(&q.items, &Event{
		FireAt:       at,
		Kind:         kind,
		Region:       region,
		LeaseVersion: leaseVersion,
		seq:          q.seq,
	})
}

// CancelRegion cancels every pending event for the region. Cancellation is
// synchronous: once it returns, no event for the region will be returned by
// Due. Dead events are dropped lazily when they reach the front.
func (q *Queue) CancelRegion(region string) {
	for _, ev := range q.items {
		if ev.Region == region {
			ev.canceled = true
		}
	}
}

// Due pops every event with FireAt <= now, in (FireAt, insertion) order.
// A large gap between calls simply yields all missed events at once.
func (q *Queue) Due(now time.Time) []Event {
	var due []Event
	for q.items.Len() > 0 {
		head := q.items[0]
		if head.canceled {
			heap.Pop(&q.items)
			continue
		}
		if head.FireAt.After(now) {
			break
		}
		heap.Pop(&q.items)
		due = append(due, *head)
	}
	return due
}

// Len counts live (non-canceled) events.
func (q *Queue) Len() int {
	n := 0
	for _, ev := range q.items {
		if !ev.canceled {
			n++
		}
	}
	return n
}

// NextFire reports the earliest pending fire time.
func (q *Queue) NextFire() (time.Time, bool) {
	for q.items.Len() > 0 {
		if q.items[0].canceled {
			heap.Pop(&q.items)
			continue
		}
		return q.items[0].FireAt, true
	}
	return time.Time{}, false
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].FireAt.Equal(h[j].FireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].FireAt.Before(h[j].FireAt)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}
