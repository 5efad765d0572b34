package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Lease transitions.
	ErrRegionNotFound    = "E_REGION_NOT_FOUND"
	ErrAlreadyLeased     = "E_ALREADY_LEASED"
	ErrNotTenant         = "E_NOT_TENANT"
	ErrNotForSale        = "E_NOT_FOR_SALE"
	ErrInsufficientFunds = "E_INSUFFICIENT_FUNDS"
	ErrRenewalLimit      = "E_RENEWAL_LIMIT"
	ErrDurationInvalid   = "E_DURATION_INVALID"

	// Capability failures surfaced at the engine boundary.
	ErrSnapshot = "E_SNAPSHOT" // non-fatal: lease bookkeeping proceeded, restore pending
	ErrLedger   = "E_LEDGER"   // fatal: transition aborted with no side effects

	// Admin/request layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrConflict   = "E_CONFLICT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrRegionNotFound:    {},
	ErrAlreadyLeased:     {},
	ErrNotTenant:         {},
	ErrNotForSale:        {},
	ErrInsufficientFunds: {},
	ErrRenewalLimit:      {},
	ErrDurationInvalid:   {},
	ErrSnapshot:          {},
	ErrLedger:            {},
	ErrBadRequest:        {},
	ErrConflict:          {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
