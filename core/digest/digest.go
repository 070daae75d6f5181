// Package digest computes secondary, non-authoritative content-addressed
// digests of JSON documents for provenance, audit, and registry logging.
//
// It must never be used to produce the bytes that are signed or stored as
// manifest.json: those bytes are opaque between sign and verify (spec open
// question 1). Canonicalization here only backs tamper-evident log fields
// such as a registry's manifest_digest or a provenance entry's content hash.
package digest

import (
	"encoding/json"
	"fmt"

	"github.com/skillport/skillport/core/jcs"
)

// CanonicalDigest marshals value to JSON, canonicalizes it per RFC 8785, and
// returns the lowercase hex SHA-256 digest of the canonical form.
func CanonicalDigest(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal for digest: %w", err)
	}
	sum, err := jcs.DigestJCS(raw)
	if err != nil {
		return "", fmt.Errorf("digest canonical json: %w", err)
	}
	return sum, nil
}
