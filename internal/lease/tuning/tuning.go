package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickMs        int    `yaml:"tick_ms"`
	World         string `yaml:"world"`
	ServerAccount string `yaml:"server_account"`

	WarnOffsetS int     `yaml:"warn_offset_s"`
	MoneyBack   float64 `yaml:"money_back"`

	RenewalCurve string  `yaml:"renewal_curve"`
	RenewalStep  float64 `yaml:"renewal_step"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickMs:          1000,
		World:           "world_1",
		ServerAccount:   "@server",
		WarnOffsetS:     600,
		MoneyBack:       0.5,
		RenewalCurve:    "flat",
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickMs <= 0 {
		return fmt.Errorf("tick_ms must be > 0")
	}
	if t.MoneyBack < 0 || t.MoneyBack > 1 {
		return fmt.Errorf("money_back must be in [0,1]")
	}
	if t.WarnOffsetS < 0 {
		return fmt.Errorf("warn_offset_s must be >= 0")
	}
	if t.ServerAccount == "" {
		return fmt.Errorf("server_account must be set")
	}
	return nil
}

func (t Tuning) TickInterval() time.Duration {
	return time.Duration(t.TickMs) * time.Millisecond
}

func (t Tuning) WarnOffset() time.Duration {
	return time.Duration(t.WarnOffsetS) * time.Second
}
