package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/skillport/skillport/core/manifest"
)

// runInit scaffolds a new skill project directory: a manifest skeleton
// that fills in every field the schema requires, and a starter SKILL.md
// entrypoint (written only if none exists), ready for an author to fill in
// before `export`. The skeleton is not run through manifest.Validate here.
func runInit(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory to scaffold the skill project into")
	id := fs.String("id", "", "skill id, author/name")
	keyID := fs.String("signing-key-id", "", "key_id of the signing key this skill will be exported with")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}
	if *id == "" {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "missing_id", Message: "--id is required"}, exitInputInvalid)
	}

	skeleton := manifest.Manifest{
		SSPVersion:  manifest.SSPVersion,
		ID:          *id,
		Version:     "0.1.0",
		Author:      manifest.Author{SigningKeyID: *keyID},
		OSCompat:    []string{"macos", "linux", "windows"},
		Entrypoints: []string{"SKILL.md"},
		Permissions: manifest.Permissions{
			Network:    manifest.NetworkPermission{Mode: "none"},
			Filesystem: manifest.FilesystemPermission{ReadPaths: []string{}, WritePaths: []string{}},
			Exec:       manifest.ExecPermission{AllowedCommands: []string{}, Shell: false},
		},
		Hashes:       map[string]string{},
		Platform:     manifest.PlatformUniversal,
		DeclaredRisk: manifest.RiskMedium,
		Inputs:       []string{},
		Outputs:      []string{},
	}
	encoded, err := json.MarshalIndent(skeleton, "", "  ")
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "marshal_failed", Message: err.Error()}, exitGeneral)
	}

	if err := os.MkdirAll(*dir, 0o750); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "dir_create_failed", Message: err.Error()}, exitGeneral)
	}
	manifestPath := filepath.Join(*dir, "manifest.json")
	if err := os.WriteFile(manifestPath, encoded, 0o644); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "manifest_write_failed", Message: err.Error()}, exitGeneral)
	}
	skillMDPath := filepath.Join(*dir, "SKILL.md")
	if _, err := os.Stat(skillMDPath); os.IsNotExist(err) {
		if err := os.WriteFile(skillMDPath, []byte("# "+*id+"\n\nDescribe what this skill does and how to invoke it.\n"), 0o644); err != nil {
			return writeEnvelope(jsonMode, nil, envelopeError{Code: "skill_md_write_failed", Message: err.Error()}, exitGeneral)
		}
	}

	return writeEnvelope(jsonMode, map[string]any{
		"manifest_path": manifestPath,
		"skill_md_path": skillMDPath,
	}, envelopeError{}, exitOK)
}
