package ledger

import (
	"fmt"
	"sync"
)

// Memory is an in-process ledger used in tests and single-server setups
// without an external economy provider.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64

	// FailNext forces the next Transfer to fail with a provider error,
	// simulating an economy plugin outage.
	FailNext bool

	transfers int
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

func (m *Memory) Balance(account string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

func (m *Memory) Deposit(account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative deposit %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
	return nil
}

func (m *Memory) Transfer(from, to string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("economy provider unavailable")
	}
	if m.balances[from] < amount {
		return ErrInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	m.transfers++
	return nil
}

// Transfers counts completed transfers, for assertions on at-most-once calls.
func (m *Memory) Transfers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfers
}
