package digest

import "testing"

func TestCanonicalDigestStableUnderKeyOrder(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1}
	b := struct {
		A int `json:"a"`
		B int `json:"b"`
	}{A: 1, B: 2}

	da, err := CanonicalDigest(a)
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	db, err := CanonicalDigest(b)
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if da != db {
		t.Fatalf("expected equal digests for equivalent documents, got %s vs %s", da, db)
	}
}

func TestCanonicalDigestChangesWithContent(t *testing.T) {
	d1, err := CanonicalDigest(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("digest 1: %v", err)
	}
	d2, err := CanonicalDigest(map[string]any{"a": 2})
	if err != nil {
		t.Fatalf("digest 2: %v", err)
	}
	if d1 == d2 {
		t.Fatalf("expected different digests for different content")
	}
}
