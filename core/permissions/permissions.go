// Package permissions implements the declarative permission assessor: it
// reduces a manifest's permissions block to a per-dimension Level and an
// aggregated overall Level, without consulting any live system state (spec
// §4.5). It never denies an install itself — core/policy and core/install
// consume its Assessment to decide that.
package permissions

import (
	"sort"
	"strings"

	"github.com/skillport/skillport/core/manifest"
)

// Level is a risk level on the safe < low < medium < high < critical scale.
type Level string

const (
	LevelSafe     Level = "safe"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelSafe:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// higher returns whichever of a, b ranks higher on the safe..critical scale.
func higher(a, b Level) Level {
	if levelRank[b] > levelRank[a] {
		return b
	}
	return a
}

// Assessment is the per-dimension and overall risk classification of a
// manifest's declared permissions.
type Assessment struct {
	Network      Level    `json:"network"`
	Filesystem   Level    `json:"filesystem"`
	Exec         Level    `json:"exec"`
	Integrations Level    `json:"integrations"`
	Overall      Level    `json:"overall"`
	Reasons      []string `json:"reasons"`
}

// sensitiveWritePrefixes are write_paths roots that always rate critical,
// regardless of how many paths are declared.
var sensitiveWritePrefixes = []string{"/", "~", "/etc", "/usr"}

// Assess reduces m's permissions block to an Assessment, per the exact
// rules of spec §4.5.
func Assess(m manifest.Manifest) Assessment {
	a := Assessment{}

	a.Network, a.Reasons = assessNetwork(m.Permissions.Network, a.Reasons)
	a.Filesystem, a.Reasons = assessFilesystem(m.Permissions.Filesystem, a.Reasons)
	a.Exec, a.Reasons = assessExec(m.Permissions.Exec, a.Reasons)
	a.Integrations, a.Reasons = assessIntegrations(m.Permissions.Integrations, a.Reasons)

	overall := LevelSafe
	overall = higher(overall, a.Network)
	overall = higher(overall, a.Filesystem)
	overall = higher(overall, a.Exec)
	overall = higher(overall, a.Integrations)
	a.Overall = overall

	return a
}

func assessNetwork(p manifest.NetworkPermission, reasons []string) (Level, []string) {
	switch p.Mode {
	case "", "none":
		return LevelSafe, reasons
	case "allowlist":
		if len(p.Domains) <= 2 {
			return LevelLow, append(reasons, "network access is limited to a small declared allowlist")
		}
		return LevelMedium, append(reasons, "network access is declared to more than two domains")
	default:
		return LevelMedium, append(reasons, "network mode "+p.Mode+" grants broader access than a domain allowlist")
	}
}

func assessFilesystem(p manifest.FilesystemPermission, reasons []string) (Level, []string) {
	if len(p.WritePaths) == 0 {
		if len(p.ReadPaths) == 0 {
			return LevelSafe, reasons
		}
		return LevelLow, append(reasons, "filesystem access is read-only")
	}
	for _, wp := range p.WritePaths {
		if isSensitiveWritePath(wp) {
			return LevelCritical, append(reasons, "write access is declared to a sensitive system path: "+wp)
		}
	}
	return LevelMedium, append(reasons, "filesystem write access is declared outside sensitive system paths")
}

func isSensitiveWritePath(p string) bool {
	clean := strings.TrimSpace(p)
	for _, prefix := range sensitiveWritePrefixes {
		if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
			return true
		}
	}
	return false
}

func assessExec(p manifest.ExecPermission, reasons []string) (Level, []string) {
	if p.Shell {
		return LevelHigh, append(reasons, "shell execution is enabled")
	}
	if len(p.AllowedCommands) == 0 {
		return LevelSafe, reasons
	}
	if len(p.AllowedCommands) <= 3 {
		return LevelMedium, append(reasons, "a small, explicit set of commands is declared")
	}
	return LevelHigh, append(reasons, "more than three commands are declared")
}

func assessIntegrations(integrations map[string]manifest.IntegrationLevel, reasons []string) (Level, []string) {
	if len(integrations) == 0 {
		return LevelSafe, reasons
	}
	names := make([]string, 0, len(integrations))
	for name := range integrations {
		names = append(names, name)
	}
	sort.Strings(names)

	level := LevelLow
	for _, name := range names {
		switch integrations[name] {
		case manifest.IntegrationSend, manifest.IntegrationWrite:
			level = higher(level, LevelHigh)
		case manifest.IntegrationRead:
			level = higher(level, LevelMedium)
		}
	}
	switch level {
	case LevelHigh:
		reasons = append(reasons, "declared integrations include write or send access")
	case LevelMedium:
		reasons = append(reasons, "declared integrations include read access")
	}
	return level, reasons
}
