package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"landrush.gg/internal/capability/protection"
	"landrush.gg/internal/lease/engine"
	"landrush.gg/internal/lease/model"
)

// regionsFile bootstraps the leasable catalog on a fresh server. Regions that
// already exist in the lease database keep their state; only missing ones are
// created here.
type regionsFile struct {
	Groups []struct {
		Name            string  `yaml:"name"`
		PriceMultiplier float64 `yaml:"price_multiplier"`
		RestoreOnEnd    *bool   `yaml:"restore_on_end"`
	} `yaml:"groups"`
	Regions []struct {
		Name        string   `yaml:"name"`
		World       string   `yaml:"world"`
		Kind        string   `yaml:"kind"`
		Price       int64    `yaml:"price"`
		DurationS   int64    `yaml:"duration_s"`
		MaxRenewals int      `yaml:"max_renewals"`
		WarnOffsetS int64    `yaml:"warn_offset_s"`
		Restore     bool     `yaml:"restore_on_end"`
		Landlord    string   `yaml:"landlord"`
		Groups      []string `yaml:"groups"`
		Boundary    struct {
			AnchorX int `yaml:"anchor_x"`
			AnchorZ int `yaml:"anchor_z"`
			Radius  int `yaml:"radius"`
		} `yaml:"boundary"`
	} `yaml:"regions"`
}

func seedRegions(market *engine.Market, prot *protection.InMemory, path string, logger *log.Logger) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Printf("no regions file at %s, skipping bootstrap", path)
		return nil
	}
	if err != nil {
		return err
	}
	var file regionsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("regions.yaml: %w", err)
	}

	for _, g := range file.Groups {
		if err := market.SetGroup(model.Group{
			Name:            g.Name,
			PriceMultiplier: g.PriceMultiplier,
			RestoreOnEnd:    g.RestoreOnEnd,
		}); err != nil {
			return err
		}
	}

	created := 0
	for _, spec := range file.Regions {
		if _, exists := market.Store().Get(spec.Name); exists {
			continue
		}
		if spec.Boundary.Radius > 0 {
			if err := prot.Define(spec.Name, protection.Bounds{
				World:   spec.World,
				AnchorX: spec.Boundary.AnchorX,
				AnchorZ: spec.Boundary.AnchorZ,
				Radius:  spec.Boundary.Radius,
			}); err != nil {
				return err
			}
		}
		err := market.CreateRegion(&model.Region{
			Name:         spec.Name,
			World:        spec.World,
			Boundary:     spec.Name,
			Groups:       spec.Groups,
			Kind:         model.Kind(spec.Kind),
			Price:        spec.Price,
			Duration:     time.Duration(spec.DurationS) * time.Second,
			MaxRenewals:  spec.MaxRenewals,
			WarnOffset:   time.Duration(spec.WarnOffsetS) * time.Second,
			RestoreOnEnd: spec.Restore,
			Landlord:     spec.Landlord,
		})
		if err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		logger.Printf("bootstrapped %d regions from %s", created, path)
	}
	return nil
}
