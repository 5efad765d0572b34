package pricing

import (
	"fmt"
	"math"
	"time"
)

// Curve scales a base rent price by the number of elapsed renewals. Curves are
// deterministic and side-effect free so prices can be previewed before any
// funds move.
type Curve interface {
	Scale(renewals int) float64
}

type Flat struct{}

func (Flat) Scale(int) float64 { return 1 }

// Linear raises the price by Step per renewal: 1, 1+Step, 1+2*Step, ...
type Linear struct {
	Step float64
}

func (c Linear) Scale(renewals int) float64 {
	if renewals < 0 {
		renewals = 0
	}
	return 1 + c.Step*float64(renewals)
}

func CurveFromConfig(kind string, step float64) (Curve, error) {
	switch kind {
	case "", "flat":
		return Flat{}, nil
	case "linear":
		if step < 0 {
			return nil, fmt.Errorf("renewal_step must be >= 0, got %v", step)
		}
		return Linear{Step: step}, nil
	default:
		return nil, fmt.Errorf("unknown renewal curve %q", kind)
	}
}

// RentPrice computes the price of one rent period: base price, times the
// stacked group multipliers, times the renewal curve.
func RentPrice(base int64, groupMult float64, curve Curve, renewals int) int64 {
	if base <= 0 {
		return 0
	}
	if groupMult <= 0 {
		groupMult = 1
	}
	scale := 1.0
	if curve != nil {
		scale = curve.Scale(renewals)
	}
	return int64(math.Round(float64(base) * groupMult * scale))
}

func BuyPrice(base int64, groupMult float64) int64 {
	if base <= 0 {
		return 0
	}
	if groupMult <= 0 {
		groupMult = 1
	}
	return int64(math.Round(float64(base) * groupMult))
}

// Refund computes the prorated refund for ending a lease early: the unused
// fraction of the paid period price, scaled by the configured money_back
// fraction. Outside the lease window the refund is zero.
func Refund(paid int64, start, end, now time.Time, moneyBack float64) int64 {
	if paid <= 0 || moneyBack <= 0 || !end.After(start) {
		return 0
	}
	if moneyBack > 1 {
		moneyBack = 1
	}
	if !now.Before(end) {
		return 0
	}
	if now.Before(start) {
		now = start
	}
	remaining := end.Sub(now).Seconds() / end.Sub(start).Seconds()
	return int64(math.Round(float64(paid) * remaining * moneyBack))
}
