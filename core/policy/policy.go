// Package policy implements the declarative `.skillportrc` policy engine:
// load-with-fallback from project, then user config, then built-in
// defaults, plus the per-action and auto-install gating rules of spec §4.6.
// A malformed or missing policy file is never an error — it silently falls
// back, mirroring the teacher's projectconfig.Load.
package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// AutoInstall holds the thresholds that gate a non-interactive install.
type AutoInstall struct {
	MaxRiskScore       int  `json:"max_risk_score"`
	RequirePlatformSig bool `json:"require_platform_sig"`
	MaxPerSession      int  `json:"max_per_session"`
}

// Policy is the decoded form of `.skillportrc`'s top-level "policy" object.
type Policy struct {
	AllowedHosts      []string    `json:"allowed_hosts"`
	WorkspaceBoundary bool        `json:"workspace_boundary"`
	RequiresApproval  []string    `json:"requires_approval"`
	AutoInstall       AutoInstall `json:"auto_install"`
}

type document struct {
	Policy Policy `json:"policy"`
}

// Defaults returns the built-in policy used when no `.skillportrc` is
// found or the one found cannot be parsed.
func Defaults() Policy {
	return Policy{
		AllowedHosts:      nil,
		WorkspaceBoundary: true,
		RequiresApproval:  nil,
		AutoInstall: AutoInstall{
			MaxRiskScore:       30,
			RequirePlatformSig: false,
			MaxPerSession:      5,
		},
	}
}

// FileName is the on-disk name of the policy file at either scope.
const FileName = ".skillportrc"

// Load returns the first valid `.skillportrc` found in projectDir then
// userConfigDir; a missing or malformed file at either scope falls through
// rather than erroring, per spec §4.6.
func Load(projectDir, userConfigDir string) Policy {
	if p, ok := loadFrom(filepath.Join(projectDir, FileName)); ok {
		return p
	}
	if p, ok := loadFrom(filepath.Join(userConfigDir, FileName)); ok {
		return p
	}
	return Defaults()
}

func loadFrom(path string) (Policy, bool) {
	content, err := os.ReadFile(path) // #nosec G304 -- path is a fixed filename under a caller-supplied config directory.
	if err != nil {
		return Policy{}, false
	}
	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return Policy{}, false
	}
	return doc.Policy, true
}

// Context carries the per-install facts check needs to evaluate the
// auto-install thresholds.
type Context struct {
	NonInteractive      bool
	RiskScore           int
	HasPlatformSig      bool
	SessionInstallCount int
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Reason  string   `json:"reason,omitempty"`
	Hints   []string `json:"hints,omitempty"`
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// Check evaluates action under p and ctx per spec §4.6's three-step
// semantics: approval-required actions are denied outright in
// non-interactive mode, install has its own auto-install thresholds, and
// everything else is allowed.
func Check(p Policy, action string, ctx Context) Decision {
	if ctx.NonInteractive && contains(p.RequiresApproval, action) {
		return Decision{
			Allowed: false,
			Reason:  "action " + action + " requires approval and cannot run non-interactively",
			Hints:   []string{"remove \"" + action + "\" from requires_approval in .skillportrc, or run interactively"},
		}
	}

	if action == "install" && ctx.NonInteractive {
		if ctx.RiskScore > p.AutoInstall.MaxRiskScore {
			return Decision{
				Allowed: false,
				Reason:  "risk_score exceeds auto_install.max_risk_score",
				Hints:   []string{"raise auto_install.max_risk_score in .skillportrc, or install interactively"},
			}
		}
		if p.AutoInstall.RequirePlatformSig && !ctx.HasPlatformSig {
			return Decision{
				Allowed: false,
				Reason:  "auto_install.require_platform_sig is set and no platform signature is present",
				Hints:   []string{"obtain a platform-signed archive, or set auto_install.require_platform_sig to false"},
			}
		}
		if ctx.SessionInstallCount >= p.AutoInstall.MaxPerSession {
			return Decision{
				Allowed: false,
				Reason:  "session install count reached auto_install.max_per_session",
				Hints:   []string{"raise auto_install.max_per_session in .skillportrc, or start a new session"},
			}
		}
	}

	return Decision{Allowed: true}
}

// IsHostAllowed reports whether host may be contacted: every host is
// allowed when AllowedHosts is empty, otherwise membership is exact.
func IsHostAllowed(p Policy, host string) bool {
	if len(p.AllowedHosts) == 0 {
		return true
	}
	return contains(p.AllowedHosts, host)
}
