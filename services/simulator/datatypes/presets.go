// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetDistribution is the five-way outcome split a preset aims for.
// The probabilities must sum to 1.
type TargetDistribution struct {
	Success   float64 `json:"success" yaml:"success"`
	Failure   float64 `json:"failure" yaml:"failure"`
	Retried   float64 `json:"retried" yaml:"retried"`
	Cancelled float64 `json:"cancelled" yaml:"cancelled"`
	Bounced   float64 `json:"bounced" yaml:"bounced"`
}

// PairOverride models a degraded bank+method combination: an elevated
// failure rate plus a latency multiplier applied to the base range.
type PairOverride struct {
	FailureRate       float64 `json:"failureRate" yaml:"failureRate"`
	LatencyMultiplier float64 `json:"latencyMultiplier" yaml:"latencyMultiplier"`
}

// FailurePreset is a named bundle of distribution parameters controlling
// simulated failure intensity. Presets are defined at startup and never
// mutated afterwards.
//
// BankMethodPairs is keyed "<bank>+<method>", e.g. "HDFC+UPI".
type FailurePreset struct {
	Name               string                  `json:"name" yaml:"name"`
	TargetDistribution TargetDistribution      `json:"targetDistribution" yaml:"targetDistribution"`
	BankMethodPairs    map[string]PairOverride `json:"bankMethodPairs" yaml:"bankMethodPairs"`
	BurstProbability   float64                 `json:"burstProbability" yaml:"burstProbability"`
	RetryChainRate     float64                 `json:"retryChainRate" yaml:"retryChainRate"`
}

// PairKey builds the BankMethodPairs lookup key for a bank and method.
func PairKey(bank, method string) string {
	return bank + "+" + method
}

// builtinPresets returns the three shipped failure presets.
func builtinPresets() map[string]FailurePreset {
	return map[string]FailurePreset{
		"NORMAL": {
			Name: "NORMAL",
			TargetDistribution: TargetDistribution{
				Success: 0.92, Failure: 0.03, Retried: 0.03, Cancelled: 0.01, Bounced: 0.01,
			},
			BankMethodPairs: map[string]PairOverride{
				"HDFC+UPI":       {FailureRate: 0.08, LatencyMultiplier: 1.2},
				"SBI+Netbanking": {FailureRate: 0.05, LatencyMultiplier: 1.5},
			},
			BurstProbability: 0.02,
			RetryChainRate:   0.03,
		},
		"DEGRADED": {
			Name: "DEGRADED",
			TargetDistribution: TargetDistribution{
				Success: 0.60, Failure: 0.18, Retried: 0.12, Cancelled: 0.07, Bounced: 0.03,
			},
			BankMethodPairs: map[string]PairOverride{
				"HDFC+UPI":       {FailureRate: 0.42, LatencyMultiplier: 2.5},
				"SBI+Netbanking": {FailureRate: 0.35, LatencyMultiplier: 3.0},
				"ICICI+Card":     {FailureRate: 0.25, LatencyMultiplier: 1.8},
				"Axis+UPI":       {FailureRate: 0.30, LatencyMultiplier: 2.2},
			},
			BurstProbability: 0.15,
			RetryChainRate:   0.12,
		},
		"OUTAGE_SIMULATION": {
			Name: "OUTAGE_SIMULATION",
			TargetDistribution: TargetDistribution{
				Success: 0.35, Failure: 0.40, Retried: 0.15, Cancelled: 0.07, Bounced: 0.03,
			},
			BankMethodPairs: map[string]PairOverride{
				"HDFC+UPI":       {FailureRate: 0.75, LatencyMultiplier: 4.0},
				"HDFC+Card":      {FailureRate: 0.65, LatencyMultiplier: 3.5},
				"SBI+Netbanking": {FailureRate: 0.70, LatencyMultiplier: 4.5},
				"SBI+UPI":        {FailureRate: 0.68, LatencyMultiplier: 3.8},
				"ICICI+Card":     {FailureRate: 0.55, LatencyMultiplier: 2.5},
				"Axis+UPI":       {FailureRate: 0.60, LatencyMultiplier: 3.2},
			},
			BurstProbability: 0.35,
			RetryChainRate:   0.20,
		},
	}
}

// DefaultPresetName is used when FAILURE_PRESET is unset or unknown.
const DefaultPresetName = "DEGRADED"

// PresetCatalog is the static registry of named failure presets. Lookups
// never fail: unknown names fall back to the active default.
type PresetCatalog struct {
	presets     map[string]FailurePreset
	defaultName string
}

// NewPresetCatalog builds a catalog with the built-in presets. The active
// default is taken from the FAILURE_PRESET environment variable, falling
// back to DEGRADED when unset or unrecognized.
func NewPresetCatalog() *PresetCatalog {
	c := &PresetCatalog{
		presets:     builtinPresets(),
		defaultName: DefaultPresetName,
	}
	if name := os.Getenv("FAILURE_PRESET"); name != "" {
		if _, ok := c.presets[name]; ok {
			c.defaultName = name
		} else {
			slog.Warn("FAILURE_PRESET not recognized, using default",
				"requested", name, "default", c.defaultName)
		}
	}
	return c
}

// LoadOverrides merges presets from a YAML file into the catalog. Entries
// with the same name replace the built-in definition. Must be called before
// the catalog is shared across goroutines.
func (c *PresetCatalog) LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset file: %w", err)
	}
	var file struct {
		Presets []FailurePreset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse preset file: %w", err)
	}
	for _, p := range file.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset file %s contains an unnamed preset", path)
		}
		c.presets[p.Name] = p
		slog.Info("Loaded preset override", "preset", p.Name, "path", path)
	}
	return nil
}

// Get returns the named preset, or the active default when the name is
// empty or unknown. It never fails.
func (c *PresetCatalog) Get(name string) FailurePreset {
	if p, ok := c.presets[name]; ok {
		return p
	}
	return c.presets[c.defaultName]
}

// ActiveDefault returns the process-wide default preset.
func (c *PresetCatalog) ActiveDefault() FailurePreset {
	return c.presets[c.defaultName]
}

// Names returns the names of all registered presets.
func (c *PresetCatalog) Names() []string {
	names := make([]string, 0, len(c.presets))
	for name := range c.presets {
		names = append(names, name)
	}
	return names
}
