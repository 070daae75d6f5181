package main

import (
	"flag"
	"path/filepath"

	"github.com/skillport/skillport/core/config"
	"github.com/skillport/skillport/core/registry"
)

// runPlan lists what is currently registered as installed, the
// provenance-backed source of truth for "what does this agent already
// have available".
func runPlan(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	cfg, err := config.Load("")
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "config_load_failed", Message: err.Error()}, exitGeneral)
	}
	reg, err := registry.Load(filepath.Join(cfg.ConfigDir, registry.RegistryFileName))
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "registry_unreadable", Message: err.Error()}, exitGeneral)
	}

	return writeEnvelope(jsonMode, map[string]any{"skills": reg.Skills}, envelopeError{}, exitOK)
}
