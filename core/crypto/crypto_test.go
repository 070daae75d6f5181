package crypto

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	data := []byte(`{"id":"alice/demo"}`)
	sig, err := Sign(data, kp.PrivatePEM)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !Verify(data, sig, kp.PublicPEM) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyTamperedBytesFails(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	data := []byte(`{"id":"alice/demo"}`)
	sig, err := Sign(data, kp.PrivatePEM)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := []byte(`{"id":"alice/demo2"}`)
	if Verify(tampered, sig, kp.PublicPEM) {
		t.Fatalf("expected verification to fail on tampered bytes")
	}
}

func TestVerifyNeverErrorsOnMalformedInput(t *testing.T) {
	if Verify([]byte("x"), "not-base64!!", "not a pem") {
		t.Fatalf("expected false for malformed input, not true")
	}
	if Verify([]byte("x"), "", "") {
		t.Fatalf("expected false for empty input")
	}
}

func TestKeyIDLengthAndStability(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	if len(kp.KeyID) != KeyIDLength {
		t.Fatalf("expected %d hex chars, got %d", KeyIDLength, len(kp.KeyID))
	}
	if KeyIDFromPublicPEM(kp.PublicPEM) != kp.KeyID {
		t.Fatalf("key id derivation is not stable across calls")
	}
}

func TestPEMRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	priv, err := ParsePrivateKeyPEM(kp.PrivatePEM)
	if err != nil {
		t.Fatalf("parse private: %v", err)
	}
	pub, err := ParsePublicKeyPEM(kp.PublicPEM)
	if err != nil {
		t.Fatalf("parse public: %v", err)
	}
	if !priv.Equal(kp.Private) {
		t.Fatalf("private key mismatch after pem round trip")
	}
	if !pub.Equal(kp.Public) {
		t.Fatalf("public key mismatch after pem round trip")
	}
}

func TestComputeAndVerifyChecksums(t *testing.T) {
	files := map[string][]byte{
		"SKILL.md":           []byte("# Demo"),
		"payload/run.sh":     []byte("echo hi"),
	}
	sums := ComputeChecksums(files)
	if len(sums) != len(files) {
		t.Fatalf("expected %d checksums, got %d", len(files), len(sums))
	}
	ok, mismatches := VerifyChecksums(files, sums)
	if !ok || len(mismatches) != 0 {
		t.Fatalf("expected clean verify, got mismatches=%v", mismatches)
	}

	tampered := map[string][]byte{
		"SKILL.md": []byte("# Tampered"),
	}
	ok, mismatches = VerifyChecksums(tampered, sums)
	if ok {
		t.Fatalf("expected tamper to be detected")
	}
	if len(mismatches) != 2 {
		t.Fatalf("expected both the mismatched and the missing file flagged, got %v", mismatches)
	}
}

func TestLoadPrivateKeyFromFile(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	dir := t.TempDir()
	privPath := filepath.Join(dir, "default.key")
	if err := os.WriteFile(privPath, []byte(kp.PrivatePEM), KeyFileMode); err != nil {
		t.Fatalf("write key: %v", err)
	}
	loaded, err := LoadPrivateKey(KeySource{Path: privPath})
	if err != nil {
		t.Fatalf("load private key: %v", err)
	}
	if !loaded.Equal(kp.Private) {
		t.Fatalf("loaded private key does not match original")
	}
}

func TestLoadPrivateKeyRejectsPathAndEnvTogether(t *testing.T) {
	_, err := LoadPrivateKey(KeySource{Path: "a", Env: "B"})
	if err == nil {
		t.Fatalf("expected error when both path and env are set")
	}
}
