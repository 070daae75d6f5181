// Package registry maintains the installed-skills index and the
// append-only provenance log described in spec §4.8: registry.json is
// rewritten atomically as a whole document, provenance.jsonl is appended
// one JSON object per line and never rewritten. Both are grounded on the
// teacher's core/fsx primitives.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/skillport/skillport/core/fsx"
)

const (
	// RegistryFileName is the on-disk name of the installed-skills index.
	RegistryFileName = "registry.json"
	// ProvenanceFileName is the on-disk name of the append-only log.
	ProvenanceFileName = "provenance.jsonl"

	registryFileMode   = 0o644
	provenanceFileMode = 0o644
)

// Record is one installed skill entry.
type Record struct {
	ID             string    `json:"id"`
	Version        string    `json:"version"`
	InstalledAt    time.Time `json:"installed_at"`
	InstallPath    string    `json:"install_path"`
	AuthorKeyID    string    `json:"author_key_id"`
	ManifestDigest string    `json:"manifest_digest"`
}

// Registry is the on-disk installed-skills index. At most one record per
// ID — the uniqueness invariant of spec §3.
type Registry struct {
	Skills []Record `json:"skills"`
}

// Load reads the registry at path, returning an empty Registry if the file
// does not yet exist.
func Load(path string) (Registry, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path is the caller's configured registry location.
	if err != nil {
		if os.IsNotExist(err) {
			return Registry{}, nil
		}
		return Registry{}, fmt.Errorf("read registry: %w", err)
	}
	var reg Registry
	if err := json.Unmarshal(content, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse registry: %w", err)
	}
	return reg, nil
}

// Upsert filters out any existing record with the same ID, appends rec,
// sorts the records by ID, and atomically rewrites the registry file at
// path.
func Upsert(path string, rec Record) (Registry, error) {
	reg, err := Load(path)
	if err != nil {
		return Registry{}, err
	}
	reg.Skills = remove(reg.Skills, rec.ID)
	reg.Skills = append(reg.Skills, rec)
	sort.Slice(reg.Skills, func(i, j int) bool { return reg.Skills[i].ID < reg.Skills[j].ID })

	if err := write(path, reg); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

// Remove deletes the record with the given ID, if present, and atomically
// rewrites the registry file at path.
func Remove(path, id string) (Registry, error) {
	reg, err := Load(path)
	if err != nil {
		return Registry{}, err
	}
	reg.Skills = remove(reg.Skills, id)
	if err := write(path, reg); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

// Find returns the record for id, if installed.
func Find(reg Registry, id string) (Record, bool) {
	for _, r := range reg.Skills {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func remove(records []Record, id string) []Record {
	out := records[:0:0]
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func write(path string, reg Registry) error {
	content, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	if err := fsx.WriteFileAtomic(path, content, registryFileMode); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// ProvenanceEntry is one append-only record describing an action taken
// against a skill (spec §3). Fields beyond the common envelope are free
// form, carried in Extra.
type ProvenanceEntry struct {
	Timestamp time.Time      `json:"ts"`
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Agent     string         `json:"agent,omitempty"`
	Extra     map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object alongside the
// common envelope fields.
func (e ProvenanceEntry) MarshalJSON() ([]byte, error) {
	flat := map[string]any{
		"ts":         e.Timestamp,
		"session_id": e.SessionID,
		"action":     e.Action,
	}
	if e.Agent != "" {
		flat["agent"] = e.Agent
	}
	for k, v := range e.Extra {
		flat[k] = v
	}
	return json.Marshal(flat)
}

// AppendProvenance appends one JSON line describing entry to the
// provenance log at path, under a cross-process lock.
func AppendProvenance(path string, entry ProvenanceEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal provenance entry: %w", err)
	}
	if err := fsx.AppendLineLocked(path, line, provenanceFileMode); err != nil {
		return fmt.Errorf("append provenance entry: %w", err)
	}
	return nil
}
