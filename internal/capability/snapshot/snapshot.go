// Package snapshot captures and restores the physical contents of a region
// across lease transitions. The block-level mutation engine is opaque: it is
// reached only through the WorldAccess adapter selected at startup.
package snapshot

// Store is the capability consumed by the lease engine. Save and Restore may
// be slow and may fail; the engine treats failures as non-fatal to lease
// bookkeeping and records a pending restore for later retry.
type Store interface {
	Save(region string) (id string, err error)
	Restore(region, id string) error
}

// WorldAccess is the swappable world-mutation adapter. Payloads are opaque to
// the snapshot layer; only the adapter that produced one can interpret it.
type WorldAccess interface {
	Export(region string) ([]byte, error)
	Import(region string, data []byte) error
}
