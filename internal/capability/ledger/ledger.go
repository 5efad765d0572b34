// Package ledger wraps the economy provider as an opaque funds-transfer
// capability. The engine calls Transfer at most once per lease transition and
// never retries a failed transfer on its own.
package ledger

import "errors"

// ErrInsufficientFunds also covers transfers from accounts that have never
// held a balance; callers cannot distinguish empty from absent.
var ErrInsufficientFunds = errors.New("insufficient funds")

type Ledger interface {
	Balance(account string) (int64, error)
	Deposit(account string, amount int64) error
	// Transfer moves amount from one account to another atomically. It returns
	// ErrInsufficientFunds when the source balance cannot cover the amount; any
	// other error is a provider failure.
	Transfer(from, to string, amount int64) error
}
