// Package protection wraps the world-protection plugin: region boundaries and
// the access flags applied to them. The lease engine only ever sees opaque
// boundary handles.
package protection

import (
	"fmt"
	"sync"
)

type Bounds struct {
	World   string
	AnchorX int
	AnchorZ int
	Radius  int // square radius in blocks
}

func (b Bounds) Contains(x, z int) bool {
	dx := x - b.AnchorX
	if dx < 0 {
		dx = -dx
	}
	dz := z - b.AnchorZ
	if dz < 0 {
		dz = -dz
	}
	return dx <= b.Radius && dz <= b.Radius
}

type Flags struct {
	AllowBuild bool
	AllowBreak bool
	AllowEnter bool
}

// Service is the boundary+flag capability consumed by the lease engine.
type Service interface {
	Bounds(handle string) (Bounds, bool)
	SetOccupant(handle, account string) error
	ClearOccupant(handle string) error
	SetFlags(handle string, f Flags) error
}

type entry struct {
	bounds   Bounds
	occupant string
	flags    Flags
}

// InMemory is the default implementation backing a single in-process world.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*entry)}
}

// Define registers a boundary under a new handle. Handles are chosen by the
// admin layer (typically the region name).
func (s *InMemory) Define(handle string, b Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[handle]; ok {
		return fmt.Errorf("boundary %q already defined", handle)
	}
	s.entries[handle] = &entry{bounds: b, flags: Flags{AllowEnter: true}}
	return nil
}

func (s *InMemory) Remove(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, handle)
}

func (s *InMemory) Bounds(handle string) (Bounds, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[handle]
	if !ok {
		return Bounds{}, false
	}
	return e.bounds, true
}

func (s *InMemory) SetOccupant(handle, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[handle]
	if !ok {
		return fmt.Errorf("unknown boundary %q", handle)
	}
	e.occupant = account
	e.flags = Flags{AllowBuild: true, AllowBreak: true, AllowEnter: true}
	return nil
}

func (s *InMemory) ClearOccupant(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[handle]
	if !ok {
		return fmt.Errorf("unknown boundary %q", handle)
	}
	e.occupant = ""
	e.flags = Flags{AllowEnter: true}
	return nil
}

func (s *InMemory) Occupant(handle string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[handle]; ok {
		return e.occupant
	}
	return ""
}

func (s *InMemory) SetFlags(handle string, f Flags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[handle]
	if !ok {
		return fmt.Errorf("unknown boundary %q", handle)
	}
	e.flags = f
	return nil
}

func (s *InMemory) FlagsOf(handle string) (Flags, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[handle]
	if !ok {
		return Flags{}, false
	}
	return e.flags, true
}
