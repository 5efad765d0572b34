package snapshot

import (
	"fmt"
	"sync"
)

// Memory is an in-process snapshot store for tests, with failure injection to
// exercise the engine's non-fatal snapshot error paths.
type Memory struct {
	mu    sync.Mutex
	next  int
	byID  map[string]memorySnap
	saves int

	FailSave    bool
	FailRestore bool
}

type memorySnap struct {
	region string
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]memorySnap)}
}

func (m *Memory) Save(region string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave {
		return "", fmt.Errorf("snapshot save failed")
	}
	m.next++
	id := fmt.Sprintf("snap_%04d", m.next)
	m.byID[id] = memorySnap{region: region}
	m.saves++
	return id, nil
}

func (m *Memory) Restore(region, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRestore {
		return fmt.Errorf("snapshot restore failed")
	}
	snap, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("unknown snapshot %s", id)
	}
	if snap.region != region {
		return fmt.Errorf("snapshot %s belongs to %s, not %s", id, snap.region, region)
	}
	return nil
}

func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
