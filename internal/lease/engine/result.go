package engine

import "landrush.gg/internal/protocol"

// Result is the structured outcome of every market operation. Failures carry
// one of the protocol E_* codes; a success may still carry ErrSnapshot when
// lease bookkeeping completed but a contents restore is pending (the only
// documented partial-completion case).
type Result struct {
	OK      bool
	Code    string
	Message string

	Price   int64
	Refund  int64
	Status  *protocol.RegionStatus
	Regions []protocol.RegionStatus
}

func fail(code, message string) Result {
	return Result{Code: code, Message: message}
}
