package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	skillcrypto "github.com/skillport/skillport/core/crypto"
	coreerrors "github.com/skillport/skillport/core/errors"
	"github.com/skillport/skillport/core/manifest"
)

func demoManifest(t *testing.T, keyID string) manifest.Manifest {
	t.Helper()
	raw := []byte(`{
		"ssp_version": "1.0",
		"id": "alice/demo",
		"version": "1.0.0",
		"author": {"name": "Alice", "signing_key_id": "` + keyID + `"},
		"os_compat": ["macos", "linux"],
		"entrypoints": ["SKILL.md"],
		"permissions": {
			"network": {"mode": "none"},
			"filesystem": {"read_paths": [], "write_paths": []},
			"exec": {"allowed_commands": [], "shell": false}
		}
	}`)
	m, violations := manifest.Validate(raw)
	if len(violations) != 0 {
		t.Fatalf("expected valid fixture manifest, got %v", violations)
	}
	return m
}

// TestCreateExtractRoundTrip is scenario S1 from the acceptance surface:
// create then extract must report the author signature present, checksums
// valid, SKILL.md content intact, and the signature verifying against the
// original manifest bytes.
func TestCreateExtractRoundTrip(t *testing.T) {
	kp, err := skillcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	m := demoManifest(t, kp.KeyID)

	files := map[string][]byte{"SKILL.md": []byte("# Demo")}
	created, err := Create(m, files, kp.PrivatePEM)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	extracted, err := Extract(created.ArchiveBytes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if extracted.AuthorSig == "" {
		t.Fatalf("expected author signature present")
	}
	if !extracted.HasSkillMD || extracted.SkillMD != "# Demo" {
		t.Fatalf("expected SKILL.md = %q, got %q (present=%v)", "# Demo", extracted.SkillMD, extracted.HasSkillMD)
	}
	ok, mismatches := skillcrypto.VerifyChecksums(map[string][]byte{"SKILL.md": []byte("# Demo")}, extracted.Checksums)
	if !ok {
		t.Fatalf("expected checksums to be valid, mismatches=%v", mismatches)
	}
	if !skillcrypto.Verify(extracted.RawManifestBytes, extracted.AuthorSig, kp.PublicPEM) {
		t.Fatalf("expected signature to verify against extracted raw manifest bytes")
	}
	if extracted.Manifest.ID != m.ID || extracted.Manifest.Version != m.Version {
		t.Fatalf("manifest identity changed across round trip")
	}
}

func TestTamperedPayloadFailsChecksum(t *testing.T) {
	kp, err := skillcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	m := demoManifest(t, kp.KeyID)
	created, err := Create(m, map[string][]byte{"SKILL.md": []byte("# Demo")}, kp.PrivatePEM)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	extracted, err := Extract(created.ArchiveBytes)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	tampered := []byte("# Tampered")
	ok, mismatches := skillcrypto.VerifyChecksums(map[string][]byte{"SKILL.md": tampered}, extracted.Checksums)
	if ok || len(mismatches) == 0 {
		t.Fatalf("expected tampered payload to fail checksum verification")
	}
}

func TestTamperedManifestFailsSignature(t *testing.T) {
	kp, err := skillcrypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	m := demoManifest(t, kp.KeyID)
	created, err := Create(m, map[string][]byte{"SKILL.md": []byte("# Demo")}, kp.PrivatePEM)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tamperedManifest := append(bytes.Clone(created.ManifestBytes), ' ')
	if skillcrypto.Verify(tamperedManifest, created.AuthorSig, kp.PublicPEM) {
		t.Fatalf("expected signature verification to fail on tampered manifest bytes")
	}
}

// TestZipSlipRejected is scenario S2: a crafted entry containing ".." must
// abort extraction with ZipSlip and never reach the in-memory payload map.
func TestZipSlipRejected(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mustWrite(t, w, ManifestEntry, []byte(`{"ssp_version":"1.0"}`))
	mustWrite(t, w, "payload/../../etc/passwd", []byte("pwned"))
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err := Extract(buf.Bytes())
	if err == nil {
		t.Fatalf("expected zip-slip rejection")
	}
	if coreerrors.CategoryOf(err) != coreerrors.CategoryZipSlip {
		t.Fatalf("expected ZipSlip category, got %s", coreerrors.CategoryOf(err))
	}
}

func TestBackslashEntryRejected(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mustWrite(t, w, ManifestEntry, []byte(`{"ssp_version":"1.0"}`))
	mustWrite(t, w, `payload\..\..\etc\passwd`, []byte("pwned"))
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err := Extract(buf.Bytes())
	if coreerrors.CategoryOf(err) != coreerrors.CategoryZipSlip {
		t.Fatalf("expected ZipSlip category, got %s", coreerrors.CategoryOf(err))
	}
}

func TestMissingManifestIsMalformed(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mustWrite(t, w, "payload/run.sh", []byte("echo hi"))
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err := Extract(buf.Bytes())
	if coreerrors.CategoryOf(err) != coreerrors.CategoryMalformedArchive {
		t.Fatalf("expected MalformedArchive category, got %s", coreerrors.CategoryOf(err))
	}
}

func TestDecompressionBombRejected(t *testing.T) {
	validManifest, err := manifest.Marshal(demoManifest(t, "0123456789abcdef"))
	if err != nil {
		t.Fatalf("marshal fixture manifest: %v", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	mustWrite(t, w, ManifestEntry, validManifest)

	header := &zip.FileHeader{Name: "payload/big.bin", Method: zip.Store}
	part, err := w.CreateHeader(header)
	if err != nil {
		t.Fatalf("create header: %v", err)
	}
	chunk := bytes.Repeat([]byte{0}, 1024*1024)
	// Writing just over the 500 MiB cap in 1 MiB chunks, zip.Store (no
	// compression) so the writer doesn't need true random data.
	for i := 0; i < 501; i++ {
		if _, err := part.Write(chunk); err != nil {
			t.Fatalf("write chunk: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	_, err = Extract(buf.Bytes())
	if coreerrors.CategoryOf(err) != coreerrors.CategoryDecompressionBomb {
		t.Fatalf("expected DecompressionBomb category, got %s", coreerrors.CategoryOf(err))
	}
}

func mustWrite(t *testing.T, w *zip.Writer, name string, content []byte) {
	t.Helper()
	part, err := w.Create(name)
	if err != nil {
		t.Fatalf("create entry %s: %v", name, err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write entry %s: %v", name, err)
	}
}
