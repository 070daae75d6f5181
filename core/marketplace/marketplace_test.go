package marketplace

import (
	"context"
	"errors"
	"testing"
)

// fakeClient is an in-memory stand-in used only to exercise the Client
// contract; the real HTTP implementation lives outside this repository
// (spec §1 "external collaborators").
type fakeClient struct {
	results []SearchResult
	grant   DownloadGrant
	err     error
}

func (f *fakeClient) Search(_ context.Context, _ string) ([]SearchResult, error) {
	return f.results, f.err
}

func (f *fakeClient) RequestDownloadURL(_ context.Context, _, _ string) (DownloadGrant, error) {
	return f.grant, f.err
}

func (f *fakeClient) RegisterKey(_ context.Context, _ KeyRegistration) error {
	return f.err
}

func (f *fakeClient) Upload(_ context.Context, _ []byte) error {
	return f.err
}

func TestClientSearchReturnsResults(t *testing.T) {
	var client Client = &fakeClient{results: []SearchResult{{ID: "alice/demo", LatestVersion: "1.0.0"}}}
	results, err := client.Search(context.Background(), "alice/demo")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "alice/demo" {
		t.Fatalf("expected one result for alice/demo, got %v", results)
	}
}

func TestClientRequestDownloadURLPropagatesGrant(t *testing.T) {
	var client Client = &fakeClient{grant: DownloadGrant{URL: "https://marketplace.skillport.dev/x", ExpiresAt: "2026-08-01T00:00:00Z"}}
	grant, err := client.RequestDownloadURL(context.Background(), "alice/demo", "1.0.0")
	if err != nil {
		t.Fatalf("request download url: %v", err)
	}
	if grant.URL == "" {
		t.Fatalf("expected a non-empty download URL")
	}
}

func TestClientPropagatesErrors(t *testing.T) {
	var client Client = &fakeClient{err: errors.New("unreachable")}
	if _, err := client.Search(context.Background(), "x"); err == nil {
		t.Fatalf("expected search to propagate the underlying error")
	}
	if err := client.RegisterKey(context.Background(), KeyRegistration{PublicKeyPEM: "pem", Label: "default"}); err == nil {
		t.Fatalf("expected register key to propagate the underlying error")
	}
	if err := client.Upload(context.Background(), []byte("zip bytes")); err == nil {
		t.Fatalf("expected upload to propagate the underlying error")
	}
}
