package tuning

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := `
protocol_version: "1.0"
tick_ms: 500
world: "overworld"
server_account: "@bank"
warn_offset_s: 300
money_back: 0.25
renewal_curve: linear
renewal_step: 0.1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TickInterval() != 500*time.Millisecond {
		t.Fatalf("tick interval: %v", cfg.TickInterval())
	}
	if cfg.WarnOffset() != 5*time.Minute {
		t.Fatalf("warn offset: %v", cfg.WarnOffset())
	}
	if cfg.MoneyBack != 0.25 || cfg.RenewalCurve != "linear" || cfg.RenewalStep != 0.1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := Defaults()
	bad.MoneyBack = 1.5
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected money_back validation failure")
	}

	bad = Defaults()
	bad.TickMs = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected tick_ms validation failure")
	}
}
