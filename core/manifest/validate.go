package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	idPattern      = regexp.MustCompile(`^[a-z0-9_-]+/[a-z0-9_-]+$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	hexPattern     = regexp.MustCompile(`^[0-9a-f]+$`)

	// semverRangeTerm matches one comparator+version term of a semver range,
	// e.g. "^1.2.3", "~2.0.0", ">=1.0.0", or a bare "1.2.3".
	semverRangeTerm = `(?:\^|~|>=|<=|>|<)?\d+\.\d+\.\d+`
	// openclawCompatPattern matches a semver range: one or more
	// space-separated terms joined by " || " alternation.
	openclawCompatPattern = regexp.MustCompile(`^` + semverRangeTerm + `(?: ` + semverRangeTerm + `)*(?: \|\| ` + semverRangeTerm + `(?: ` + semverRangeTerm + `)*)*$`)
)

var validOSCompat = map[string]bool{"macos": true, "linux": true, "windows": true}

// Validate is the total manifest validator: it either produces a fully
// typed, defaulted Manifest or a non-empty list of Violations. It never
// checks entrypoint-against-payload existence — that requires the archive's
// file map and is performed separately by CheckEntrypoints, once the
// archive codec has extracted the payload.
func Validate(data []byte) (Manifest, []Violation) {
	var violations []Violation

	var raw rawManifest
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return Manifest{}, []Violation{{Field: "$", Message: fmt.Sprintf("malformed manifest json: %v", err)}}
	}
	if decoder.More() {
		return Manifest{}, []Violation{{Field: "$", Message: "trailing data after manifest json"}}
	}

	violations = append(violations, schemaViolations(data)...)

	m := applyDefaults(raw)
	violations = append(violations, structuralViolations(m)...)

	if len(violations) > 0 {
		return Manifest{}, violations
	}
	return m, nil
}

func structuralViolations(m Manifest) []Violation {
	var violations []Violation

	if m.SSPVersion != SSPVersion {
		violations = append(violations, Violation{Field: "ssp_version", Message: fmt.Sprintf("must equal %q", SSPVersion)})
	}
	if !idPattern.MatchString(m.ID) {
		violations = append(violations, Violation{Field: "id", Message: "must match [a-z0-9_-]+/[a-z0-9_-]+"})
	}
	if !versionPattern.MatchString(m.Version) {
		violations = append(violations, Violation{Field: "version", Message: "must be strict x.y.z semver"})
	}
	if len(m.Author.SigningKeyID) != 16 || !hexPattern.MatchString(m.Author.SigningKeyID) {
		violations = append(violations, Violation{Field: "author.signing_key_id", Message: "must be 16 lowercase hex characters"})
	}
	if len(m.OSCompat) == 0 {
		violations = append(violations, Violation{Field: "os_compat", Message: "must be non-empty"})
	}
	for _, os := range m.OSCompat {
		if !validOSCompat[os] {
			violations = append(violations, Violation{Field: "os_compat", Message: fmt.Sprintf("unsupported os %q", os)})
		}
	}
	if len(m.Entrypoints) == 0 {
		violations = append(violations, Violation{Field: "entrypoints", Message: "must be non-empty"})
	}
	if m.OpenclawCompat != "" && !openclawCompatPattern.MatchString(m.OpenclawCompat) {
		violations = append(violations, Violation{Field: "openclaw_compat", Message: "must be a semver range, e.g. \"^1.2.3\" or \">=1.0.0 <2.0.0\""})
	}
	if m.Permissions.Network.Mode != "none" && m.Permissions.Network.Mode != "allowlist" {
		violations = append(violations, Violation{Field: "permissions.network.mode", Message: "must be none or allowlist"})
	}
	for domain, level := range m.Permissions.Integrations {
		switch level {
		case IntegrationNone, IntegrationRead, IntegrationWrite, IntegrationSend:
		default:
			violations = append(violations, Violation{Field: fmt.Sprintf("permissions.integrations.%s", domain), Message: "invalid integration level"})
		}
	}
	for path, hexDigest := range m.Hashes {
		if len(hexDigest) != 64 || !hexPattern.MatchString(hexDigest) {
			violations = append(violations, Violation{Field: fmt.Sprintf("hashes.%s", path), Message: "must be 64 lowercase hex characters"})
		}
	}
	switch m.Platform {
	case PlatformOpenclaw, PlatformClaudeCode, PlatformUniversal:
	default:
		violations = append(violations, Violation{Field: "platform", Message: "unsupported platform"})
	}
	switch m.DeclaredRisk {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		violations = append(violations, Violation{Field: "declared_risk", Message: "unsupported declared_risk"})
	}

	return violations
}

// CheckEntrypoints verifies that every declared entrypoint names a file
// present in payload, where payload keys are archive-internal paths with
// any leading "payload/" segment already stripped, plus "SKILL.md" for the
// root file when present.
func CheckEntrypoints(m Manifest, payload map[string][]byte) []Violation {
	var violations []Violation
	for _, entry := range m.Entrypoints {
		if _, ok := payload[entry]; !ok {
			violations = append(violations, Violation{Field: "entrypoints", Message: fmt.Sprintf("entrypoint %q not found in archive payload", entry)})
		}
	}
	return violations
}

// Marshal renders m with the stable formatting the create path signs: a
// two-space indent and the field order declared on the struct. Callers must
// treat the returned bytes as opaque once signed — never re-marshal a
// manifest that has already been signed or stored.
func Marshal(m Manifest) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	out := buf.Bytes()
	// json.Encoder.Encode always appends a trailing newline; trim it so the
	// signed bytes are exactly the document, no more.
	return bytes.TrimRight(out, "\n"), nil
}
