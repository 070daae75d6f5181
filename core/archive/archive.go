// Package archive implements the .ssp container codec: deterministic create
// and safe extract of a ZIP with the fixed logical layout from spec §3/§4.3,
// including zip-slip and decompression-bomb defenses.
//
// The teacher's own pack codec (core/pack/pack.go in the reference repo)
// delegates deterministic zip writing to a core/zipx package that is absent
// from the retrieved snapshot (see DESIGN.md). This package is written
// directly against the standard library's archive/zip instead of
// reconstructing that missing dependency.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	coreerrors "github.com/skillport/skillport/core/errors"
	"github.com/skillport/skillport/core/crypto"
	"github.com/skillport/skillport/core/manifest"
)

const (
	ManifestEntry     = "manifest.json"
	ChecksumsEntry    = "checksums.json"
	AuthorSigEntry    = "signatures/author.sig"
	PlatformSigEntry  = "signatures/platform.sig"
	SkillMDEntry      = "SKILL.md"
	PayloadPrefix     = "payload/"

	// MaxCumulativeUncompressedBytes is the hard cap on total decompressed
	// bytes per archive (spec §5 resource caps).
	MaxCumulativeUncompressedBytes = 500 * 1024 * 1024
)

// deterministicModTime is the fixed timestamp written to every zip entry so
// that two creates of the same logical content produce byte-identical
// archives.
var deterministicModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// CreateResult is the outcome of a successful archive build.
type CreateResult struct {
	ArchiveBytes  []byte
	Manifest      manifest.Manifest
	ManifestBytes []byte
	AuthorSig     string
}

// Create builds a .ssp archive from m (pre-hash) and files, a map of
// logical path to bytes where the key "SKILL.md" lands at the archive root
// and every other key lands under payload/. It computes checksums,
// overwrites m.Hashes, serializes and signs the manifest, then emits the
// zip in the fixed logical order required by spec §4.3.
func Create(m manifest.Manifest, files map[string][]byte, privateKeyPEM string) (CreateResult, error) {
	internal := make(map[string][]byte, len(files))
	var skillMD []byte
	hasSkillMD := false
	for logicalPath, content := range files {
		if logicalPath == SkillMDEntry {
			skillMD = content
			hasSkillMD = true
			internal[SkillMDEntry] = content
			continue
		}
		internal[PayloadPrefix+logicalPath] = content
	}

	m.Hashes = crypto.ComputeChecksums(internal)

	manifestBytes, err := manifest.Marshal(m)
	if err != nil {
		return CreateResult{}, fmt.Errorf("marshal manifest: %w", err)
	}

	sigB64, err := crypto.Sign(manifestBytes, privateKeyPEM)
	if err != nil {
		return CreateResult{}, fmt.Errorf("sign manifest: %w", err)
	}

	checksumsJSON, err := json.MarshalIndent(m.Hashes, "", "  ")
	if err != nil {
		return CreateResult{}, fmt.Errorf("marshal checksums: %w", err)
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	registerMaxCompression(writer)

	if err := writeEntry(writer, ManifestEntry, manifestBytes); err != nil {
		return CreateResult{}, err
	}
	if err := writeEntry(writer, AuthorSigEntry, []byte(sigB64)); err != nil {
		return CreateResult{}, err
	}
	if err := writeEntry(writer, ChecksumsEntry, checksumsJSON); err != nil {
		return CreateResult{}, err
	}
	if hasSkillMD {
		if err := writeEntry(writer, SkillMDEntry, skillMD); err != nil {
			return CreateResult{}, err
		}
	}

	payloadPaths := make([]string, 0, len(internal))
	for p := range internal {
		if p == SkillMDEntry {
			continue
		}
		payloadPaths = append(payloadPaths, p)
	}
	sort.Strings(payloadPaths)
	for _, p := range payloadPaths {
		if err := writeEntry(writer, p, internal[p]); err != nil {
			return CreateResult{}, err
		}
	}

	if err := writer.Close(); err != nil {
		return CreateResult{}, fmt.Errorf("close archive: %w", err)
	}

	return CreateResult{
		ArchiveBytes:  buf.Bytes(),
		Manifest:      m,
		ManifestBytes: manifestBytes,
		AuthorSig:     sigB64,
	}, nil
}

// registerMaxCompression makes writer emit deflate at level 9 (spec §4.3
// "deflate level 9") instead of archive/zip's default level 6.
func registerMaxCompression(writer *zip.Writer) {
	writer.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
}

func writeEntry(writer *zip.Writer, name string, content []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: deterministicModTime,
	}
	header.SetMode(0o644)
	part, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}

// ExtractResult is the outcome of a successful extract. RawManifestBytes
// are the bytes read directly from the archive — never a re-serialization
// — since they are what the signature was computed over.
type ExtractResult struct {
	Manifest         manifest.Manifest
	RawManifestBytes []byte
	Payload          map[string][]byte
	SkillMD          string
	HasSkillMD       bool
	AuthorSig        string
	PlatformSig      string
	Checksums        map[string]string
}

// Extract parses archiveBytes per spec §4.3: it rejects missing manifests,
// validates the manifest schema, applies the zip-slip path check to every
// entry before any join, and enforces the cumulative decompression-bomb
// cap while decompressing the remaining entries into memory.
func Extract(archiveBytes []byte) (ExtractResult, error) {
	reader, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return ExtractResult{}, coreerrors.Wrap(fmt.Errorf("open zip: %w", err), coreerrors.CategoryMalformedArchive, "archive_unreadable", "re-export the .ssp archive and try again", false)
	}

	entries := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := validateEntryPath(f.Name); err != nil {
			return ExtractResult{}, coreerrors.Wrap(err, coreerrors.CategoryZipSlip, "zip_slip_detected", "the archive contains an unsafe path and cannot be trusted", false)
		}
		entries[f.Name] = f
	}

	manifestFile, ok := entries[ManifestEntry]
	if !ok {
		return ExtractResult{}, coreerrors.New(coreerrors.CategoryMalformedArchive, "manifest_missing", "archive is missing manifest.json", "re-export the .ssp archive", false)
	}

	var cumulative int64
	rawManifestBytes, err := readEntry(manifestFile, &cumulative)
	if err != nil {
		return ExtractResult{}, err
	}

	m, violations := manifest.Validate(rawManifestBytes)
	if len(violations) > 0 {
		return ExtractResult{}, coreerrors.New(coreerrors.CategoryManifestInvalid, "manifest_invalid", fmt.Sprintf("manifest failed validation: %v", violations), "re-export the skill with a corrected manifest", false)
	}

	result := ExtractResult{
		Manifest:         m,
		RawManifestBytes: rawManifestBytes,
		Payload:          map[string][]byte{},
		Checksums:        map[string]string{},
	}

	if sigFile, ok := entries[AuthorSigEntry]; ok {
		raw, err := readEntry(sigFile, &cumulative)
		if err != nil {
			return ExtractResult{}, err
		}
		result.AuthorSig = strings.TrimSpace(string(raw))
	}
	if sigFile, ok := entries[PlatformSigEntry]; ok {
		raw, err := readEntry(sigFile, &cumulative)
		if err != nil {
			return ExtractResult{}, err
		}
		result.PlatformSig = strings.TrimSpace(string(raw))
	}
	if checksumsFile, ok := entries[ChecksumsEntry]; ok {
		raw, err := readEntry(checksumsFile, &cumulative)
		if err != nil {
			return ExtractResult{}, err
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			if err := json.Unmarshal(raw, &result.Checksums); err != nil {
				return ExtractResult{}, coreerrors.Wrap(err, coreerrors.CategoryMalformedArchive, "checksums_invalid", "checksums.json is not valid JSON", false)
			}
		}
	}
	if skillFile, ok := entries[SkillMDEntry]; ok {
		raw, err := readEntry(skillFile, &cumulative)
		if err != nil {
			return ExtractResult{}, err
		}
		result.SkillMD = string(raw)
		result.HasSkillMD = true
	}

	for name, f := range entries {
		if isMetadataEntry(name) {
			continue
		}
		raw, err := readEntry(f, &cumulative)
		if err != nil {
			return ExtractResult{}, err
		}
		payloadPath := strings.TrimPrefix(name, PayloadPrefix)
		result.Payload[payloadPath] = raw
	}

	return result, nil
}

func isMetadataEntry(name string) bool {
	if name == ManifestEntry || name == ChecksumsEntry {
		return true
	}
	return strings.HasPrefix(name, "signatures/")
}

// validateEntryPath applies the zip-slip defense: reject any entry whose
// name contains "..", begins with "/", or contains a backslash. This runs
// before any path is joined against a destination directory.
func validateEntryPath(name string) error {
	if strings.Contains(name, "\\") {
		return fmt.Errorf("entry path contains a backslash: %s", name)
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("entry path is absolute: %s", name)
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(name, "..") {
		return fmt.Errorf("entry path escapes the archive root: %s", name)
	}
	return nil
}

// readEntry decompresses f fully, adding its size to cumulative and
// aborting with DecompressionBomb once the running total exceeds
// MaxCumulativeUncompressedBytes.
func readEntry(f *zip.File, cumulative *int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("open entry %s: %w", f.Name, err), coreerrors.CategoryMalformedArchive, "archive_entry_unreadable", "re-export the .ssp archive", false)
	}
	defer func() { _ = rc.Close() }()

	budget := MaxCumulativeUncompressedBytes - *cumulative
	if budget < 0 {
		budget = 0
	}
	limited := io.LimitReader(rc, budget+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("read entry %s: %w", f.Name, err), coreerrors.CategoryMalformedArchive, "archive_entry_unreadable", "re-export the .ssp archive", false)
	}
	*cumulative += int64(len(data))
	if *cumulative > MaxCumulativeUncompressedBytes {
		return nil, coreerrors.New(coreerrors.CategoryDecompressionBomb, "decompression_bomb", "archive exceeds the 500 MiB cumulative uncompressed size cap", "the archive is too large or crafted to exhaust memory; do not extract it", false)
	}
	return data, nil
}
