package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrRegionNotFound,
		ErrAlreadyLeased,
		ErrNotTenant,
		ErrNotForSale,
		ErrInsufficientFunds,
		ErrRenewalLimit,
		ErrDurationInvalid,
		ErrSnapshot,
		ErrLedger,
		ErrBadRequest,
		ErrConflict,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected %q to be known", c)
		}
	}
	if IsKnownCode("E_NOPE") {
		t.Fatalf("expected E_NOPE to be unknown")
	}
}
