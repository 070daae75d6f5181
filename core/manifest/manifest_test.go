package manifest

import (
	"encoding/json"
	"strings"
	"testing"
)

func validRawManifestJSON(t *testing.T) []byte {
	t.Helper()
	doc := map[string]any{
		"ssp_version": "1.0",
		"id":          "alice/demo",
		"version":     "1.0.0",
		"author":      map[string]any{"name": "Alice", "signing_key_id": "0123456789abcdef"},
		"os_compat":   []string{"macos", "linux"},
		"entrypoints": []string{"SKILL.md"},
		"permissions": map[string]any{
			"network":    map[string]any{"mode": "none"},
			"filesystem": map[string]any{"read_paths": []string{}, "write_paths": []string{}},
			"exec":       map[string]any{"allowed_commands": []string{}, "shell": false},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return raw
}

func TestValidateAppliesDefaults(t *testing.T) {
	m, violations := Validate(validRawManifestJSON(t))
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
	if m.Platform != PlatformOpenclaw {
		t.Fatalf("expected default platform openclaw, got %s", m.Platform)
	}
	if m.DeclaredRisk != RiskMedium {
		t.Fatalf("expected default declared_risk medium, got %s", m.DeclaredRisk)
	}
	if m.Inputs == nil || m.Outputs == nil {
		t.Fatalf("expected inputs/outputs to default to empty slices, not nil")
	}
	if m.Hashes == nil {
		t.Fatalf("expected hashes to default to an empty map, not nil")
	}
}

func TestValidateRejectsBadID(t *testing.T) {
	doc := map[string]any{}
	if err := json.Unmarshal(validRawManifestJSON(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["id"] = "Alice/Demo"
	raw, _ := json.Marshal(doc)
	_, violations := Validate(raw)
	if !hasViolation(violations, "id") {
		t.Fatalf("expected an id violation, got %v", violations)
	}
}

func TestValidateRejectsBadVersion(t *testing.T) {
	doc := map[string]any{}
	if err := json.Unmarshal(validRawManifestJSON(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["version"] = "1.0"
	raw, _ := json.Marshal(doc)
	_, violations := Validate(raw)
	if !hasViolation(violations, "version") {
		t.Fatalf("expected a version violation, got %v", violations)
	}
}

func TestValidateRejectsEmptyEntrypoints(t *testing.T) {
	doc := map[string]any{}
	if err := json.Unmarshal(validRawManifestJSON(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["entrypoints"] = []string{}
	raw, _ := json.Marshal(doc)
	_, violations := Validate(raw)
	if !hasViolation(violations, "entrypoints") {
		t.Fatalf("expected an entrypoints violation, got %v", violations)
	}
}

func TestValidateAcceptsOpenclawCompatRange(t *testing.T) {
	doc := map[string]any{}
	if err := json.Unmarshal(validRawManifestJSON(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["openclaw_compat"] = ">=1.0.0 <2.0.0"
	raw, _ := json.Marshal(doc)
	_, violations := Validate(raw)
	if hasViolation(violations, "openclaw_compat") {
		t.Fatalf("expected a valid semver range to pass, got %v", violations)
	}
}

func TestValidateRejectsBadOpenclawCompat(t *testing.T) {
	doc := map[string]any{}
	if err := json.Unmarshal(validRawManifestJSON(t), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["openclaw_compat"] = "whatever version works"
	raw, _ := json.Marshal(doc)
	_, violations := Validate(raw)
	if !hasViolation(violations, "openclaw_compat") {
		t.Fatalf("expected an openclaw_compat violation, got %v", violations)
	}
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	_, violations := Validate([]byte(`{not json`))
	if len(violations) != 1 {
		t.Fatalf("expected exactly one violation for malformed json, got %v", violations)
	}
}

func TestCheckEntrypointsMissingFile(t *testing.T) {
	m, violations := Validate(validRawManifestJSON(t))
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
	payload := map[string][]byte{}
	entrypointViolations := CheckEntrypoints(m, payload)
	if len(entrypointViolations) != 1 {
		t.Fatalf("expected one missing-entrypoint violation, got %v", entrypointViolations)
	}

	payload["SKILL.md"] = []byte("# Demo")
	if violations := CheckEntrypoints(m, payload); len(violations) != 0 {
		t.Fatalf("expected no violations when entrypoint is present, got %v", violations)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	m, violations := Validate(validRawManifestJSON(t))
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
	out, err := Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "\"id\": \"alice/demo\"") {
		t.Fatalf("expected two-space indented json, got:\n%s", out)
	}
	reparsed, violations := Validate(out)
	if len(violations) != 0 {
		t.Fatalf("expected marshaled manifest to re-validate cleanly, got %v", violations)
	}
	if reparsed.ID != m.ID || reparsed.Version != m.Version {
		t.Fatalf("round trip changed manifest identity")
	}
}

func hasViolation(violations []Violation, field string) bool {
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}
