// Package marketplace declares the consumed-interface boundary between the
// core and the skill marketplace (spec §6 "Marketplace protocol"): four
// JSON-over-HTTPS operations the core depends on and never implements
// itself. No HTTP client lives in this repository — the marketplace CLI
// binary, the interactive prompting layer, and the MCP server are all out
// of scope per spec §1; this package gives a marketplace client a named,
// typed contract. core/install's Source.Fetch is a plain function value,
// which a Client-backed downloader can supply.
package marketplace

import "context"

// DownloadGrant is a time-limited download URL for one SSP package.
type DownloadGrant struct {
	URL       string
	ExpiresAt string
}

// SearchResult is one marketplace entry matching a search by SSP id.
type SearchResult struct {
	ID            string
	LatestVersion string
	Author        string
}

// KeyRegistration names a public key an author wants the marketplace to
// record against their account.
type KeyRegistration struct {
	PublicKeyPEM string
	Label        string
}

// Client is the four-operation surface the core depends on: search by
// SSP-id, request a time-limited download URL, register a public key, and
// upload a signed .ssp. Implementations must reject non-HTTPS endpoints for
// any non-loopback host.
type Client interface {
	Search(ctx context.Context, id string) ([]SearchResult, error)
	RequestDownloadURL(ctx context.Context, id, version string) (DownloadGrant, error)
	RegisterKey(ctx context.Context, reg KeyRegistration) error
	Upload(ctx context.Context, archiveBytes []byte) error
}
