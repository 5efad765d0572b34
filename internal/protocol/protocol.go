package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeResult  = "RESULT"
	TypeEvent   = "EVENT"
)

// Operations carried by CMD messages.
const (
	OpRent         = "rent"
	OpExtendRent   = "extend_rent"
	OpUnrent       = "unrent"
	OpBuy          = "buy"
	OpSell         = "sell"
	OpSetResell    = "set_resell"
	OpResell       = "resell"
	OpPreviewPrice = "preview_price"
	OpListRegions  = "list_regions"
	OpRegionStatus = "region_status"
	OpRetryRestore = "retry_restore"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
