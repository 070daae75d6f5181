package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/skillport/skillport/core/archive"
	skillcrypto "github.com/skillport/skillport/core/crypto"
	"github.com/skillport/skillport/core/manifest"
)

// runExport builds a .ssp archive from a manifest skeleton document and a
// payload directory, signing it with the configured private key.
func runExport(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "", "path to the manifest JSON document")
	payloadDir := fs.String("payload", "", "directory of payload files to include")
	keyPath := fs.String("key", "", "path to the PEM-encoded Ed25519 private key")
	outPath := fs.String("out", "skill.ssp", "path to write the resulting archive")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	rawManifest, err := os.ReadFile(*manifestPath) // #nosec G304 -- manifest path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "manifest_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	m, violations := manifest.Validate(rawManifest)
	if len(violations) > 0 {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "manifest_invalid", Message: "manifest failed validation", Hints: violationStrings(violations)}, exitInputInvalid)
	}

	files, err := collectPayload(*payloadDir)
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "payload_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	if entryViolations := manifest.CheckEntrypoints(m, files); len(entryViolations) > 0 {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "entrypoint_missing", Message: "a declared entrypoint is missing from payload", Hints: violationStrings(entryViolations)}, exitInputInvalid)
	}

	privatePEM, err := os.ReadFile(*keyPath) // #nosec G304 -- key path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "key_unreadable", Message: err.Error()}, exitInputInvalid)
	}

	created, err := archive.Create(m, files, string(privatePEM))
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "export_failed", Message: err.Error()}, exitGeneral)
	}
	if err := os.WriteFile(*outPath, created.ArchiveBytes, 0o644); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "archive_write_failed", Message: err.Error()}, exitGeneral)
	}

	return writeEnvelope(jsonMode, map[string]any{
		"id":      created.Manifest.ID,
		"version": created.Manifest.Version,
		"out":     *outPath,
	}, envelopeError{}, exitOK)
}

func collectPayload(dir string) (map[string][]byte, error) {
	files := map[string][]byte{}
	if dir == "" {
		return files, nil
	}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path) // #nosec G304 -- path is produced by Walk over a caller-supplied directory.
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = content
		return nil
	})
	return files, err
}

func violationStrings(violations []manifest.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.String())
	}
	return out
}

func runSign(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "", "path to the exact manifest.json bytes to sign")
	keyPath := fs.String("key", "", "path to the PEM-encoded Ed25519 private key")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	data, err := os.ReadFile(*manifestPath) // #nosec G304 -- manifest path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "manifest_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	privatePEM, err := os.ReadFile(*keyPath) // #nosec G304 -- key path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "key_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	sig, err := skillcrypto.Sign(data, string(privatePEM))
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "sign_failed", Message: err.Error()}, exitGeneral)
	}

	return writeEnvelope(jsonMode, map[string]any{"signature": sig}, envelopeError{}, exitOK)
}

func runConvert(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	in := fs.String("in", "", "path to a legacy manifest document to convert")
	out := fs.String("out", "", "path to write the converted manifest document")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	raw, err := os.ReadFile(*in) // #nosec G304 -- input path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "input_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	m, violations := manifest.Validate(raw)
	if len(violations) > 0 {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "manifest_invalid", Message: "input does not validate as a manifest", Hints: violationStrings(violations)}, exitInputInvalid)
	}
	converted, err := manifest.Marshal(m)
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "marshal_failed", Message: err.Error()}, exitGeneral)
	}
	if *out == "" {
		return writeEnvelope(jsonMode, map[string]any{"manifest": json.RawMessage(converted)}, envelopeError{}, exitOK)
	}
	if err := os.WriteFile(*out, converted, 0o644); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "output_write_failed", Message: err.Error()}, exitGeneral)
	}
	return writeEnvelope(jsonMode, map[string]any{"out": *out}, envelopeError{}, exitOK)
}
