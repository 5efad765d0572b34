package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Account         string `json:"account"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Account         string `json:"account"`
	World           string `json:"world"`
}

// CMD (client -> server). Fields beyond Op/ID are op-specific; unused ones are
// left at their zero value and rejected by schema validation where required.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`
	Region          string `json:"region,omitempty"`
	DurationS       int64  `json:"duration_s,omitempty"`
	Price           int64  `json:"price,omitempty"`
	AutoRenew       bool   `json:"auto_renew,omitempty"`
	Group           string `json:"group,omitempty"`
}

// RESULT (server -> client), one per CMD.
type ResultMsg struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	Price   int64          `json:"price,omitempty"`
	Refund  int64          `json:"refund,omitempty"`
	Status  *RegionStatus  `json:"status,omitempty"`
	Regions []RegionStatus `json:"regions,omitempty"`
}

// EVENT (server -> client), pushed on scheduler firings.
type EventMsg struct {
	Type    string `json:"type"`
	Event   string `json:"event"` // warn | expired | renewed | restore_failed
	Region  string `json:"region"`
	Account string `json:"account,omitempty"`
	EndsAt  int64  `json:"ends_at_unix,omitempty"`
	Message string `json:"message,omitempty"`
}

type RegionStatus struct {
	Name           string   `json:"name"`
	World          string   `json:"world"`
	Kind           string   `json:"kind"`
	State          string   `json:"state"`
	Groups         []string `json:"groups,omitempty"`
	Price          int64    `json:"price"`
	DurationS      int64    `json:"duration_s,omitempty"`
	Tenant         string   `json:"tenant,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	EndsAt         int64    `json:"ends_at_unix,omitempty"`
	Renewals       int      `json:"renewals,omitempty"`
	MaxRenewals    int      `json:"max_renewals,omitempty"`
	AutoRenew      bool     `json:"auto_renew,omitempty"`
	ForSale        bool     `json:"for_sale,omitempty"`
	ResellPrice    int64    `json:"resell_price,omitempty"`
	PendingRestore bool     `json:"pending_restore,omitempty"`
}
