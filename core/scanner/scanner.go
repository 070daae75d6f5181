// Package scanner implements the line-oriented static security scanner:
// a detector framework applying regex rules plus optional filters (Shannon
// entropy, Luhn) across scannable payload files, producing a ScanReport
// with a weighted risk score (spec §4.4).
//
// Detectors are represented as plain values — a Rule carries its regex,
// severity, and an optional filter closure — rather than as a class
// hierarchy (spec §9 "Detector registry").
package scanner

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Category is the kind of issue a rule flags.
type Category string

const (
	CategorySecret      Category = "secret"
	CategoryDangerous   Category = "dangerous"
	CategoryPII         Category = "pii"
	CategoryObfuscation Category = "obfuscation"
	CategoryNetwork     Category = "network"
)

// Severity is the weight class of an issue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityWeight assigns the scoring weight per spec §4.4.
var severityWeight = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      2,
	SeverityMedium:   5,
	SeverityHigh:     15,
	SeverityCritical: 30,
}

const (
	// MaxScannedFileBytes caps each individually scanned file (spec §5).
	MaxScannedFileBytes = 1024 * 1024

	// MaxScanPathBytes caps the cumulative bytes a single Scan call will
	// read across every file, independent of the per-file cap (spec §5).
	MaxScanPathBytes = 10 * 1024 * 1024

	// Version is the scanner engine version recorded on every report.
	Version = "1.0.0"

	// MaxRiskScore is the saturation point of the weighted score.
	MaxRiskScore = 100

	// snippetLength is the number of leading characters from a matching
	// line captured as the issue's snippet.
	snippetLength = 200
)

// scannableExtensions is the closed whitelist from spec §4.4.
var scannableExtensions = map[string]bool{
	".md": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".py": true, ".sh": true, ".bash": true, ".zsh": true, ".json": true,
	".yaml": true, ".yml": true, ".txt": true, ".toml": true, ".cfg": true,
	".ini": true, ".env": true, ".conf": true,
}

// IsScannable reports whether name's extension is in the scannable
// whitelist.
func IsScannable(name string) bool {
	return scannableExtensions[strings.ToLower(filepath.Ext(name))]
}

// Issue is one detector match.
type Issue struct {
	RuleID      string   `json:"rule_id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Snippet     string   `json:"snippet"`
	Remediation string   `json:"remediation"`
}

// Summary aggregates issue counts.
type Summary struct {
	Total      int                `json:"total"`
	BySeverity map[Severity]int   `json:"by_severity"`
	ByCategory map[Category]int   `json:"by_category"`
}

// ScanReport is the result of scanning a set of files.
type ScanReport struct {
	Passed         bool      `json:"passed"`
	RiskScore      int       `json:"risk_score"`
	Summary        Summary   `json:"summary"`
	Issues         []Issue   `json:"issues"`
	ScannedFiles   []string  `json:"scanned_files"`
	SkippedFiles   []string  `json:"skipped_files"`
	ScannedAt      time.Time `json:"scanned_at"`
	ScannerVersion string    `json:"scanner_version"`
}

// Engine holds the active detector rule set.
type Engine struct {
	Rules []Rule
}

// NewEngine builds an engine with the required detector set from spec
// §4.4.
func NewEngine() *Engine {
	return &Engine{Rules: defaultRules()}
}

// Scan runs every rule, line by line, over every scannable file in files
// (path -> content), skipping files over MaxScannedFileBytes and files
// whose extension is not in the scannable whitelist. now is injected so
// scanned_at is reproducible in tests.
func (e *Engine) Scan(files map[string][]byte, now time.Time) ScanReport {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	report := ScanReport{
		ScannedAt:      now,
		ScannerVersion: Version,
		Summary: Summary{
			BySeverity: map[Severity]int{},
			ByCategory: map[Category]int{},
		},
	}

	var cumulative int
	capReached := false
	for _, p := range paths {
		if !IsScannable(p) {
			continue
		}
		content := files[p]
		if len(content) > MaxScannedFileBytes {
			report.SkippedFiles = append(report.SkippedFiles, p)
			continue
		}
		if capReached || cumulative+len(content) > MaxScanPathBytes {
			capReached = true
			report.SkippedFiles = append(report.SkippedFiles, p)
			continue
		}
		cumulative += len(content)
		report.ScannedFiles = append(report.ScannedFiles, p)
		report.Issues = append(report.Issues, e.scanFile(p, content)...)
	}

	score := 0
	for _, issue := range report.Issues {
		report.Summary.Total++
		report.Summary.BySeverity[issue.Severity]++
		report.Summary.ByCategory[issue.Category]++
		score += severityWeight[issue.Severity]
	}
	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	report.RiskScore = score
	report.Passed = report.Summary.BySeverity[SeverityHigh] == 0 && report.Summary.BySeverity[SeverityCritical] == 0

	return report
}

func (e *Engine) scanFile(path string, content []byte) []Issue {
	var issues []Issue
	lines := strings.Split(string(content), "\n")
	for idx, line := range lines {
		lineNo := idx + 1
		for _, rule := range e.Rules {
			match := rule.Regex.FindString(line)
			if match == "" {
				continue
			}
			if rule.Filter != nil && !rule.Filter(match, line) {
				continue
			}
			issues = append(issues, Issue{
				RuleID:      rule.ID,
				Category:    rule.Category,
				Severity:    rule.Severity,
				File:        path,
				Line:        lineNo,
				Snippet:     snippet(line),
				Remediation: rule.Remediation,
			})
		}
	}
	return issues
}

func snippet(line string) string {
	if len(line) <= snippetLength {
		return line
	}
	return line[:snippetLength]
}
