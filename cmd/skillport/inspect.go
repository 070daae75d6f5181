package main

import (
	"flag"
	"os"
	"time"

	"github.com/skillport/skillport/core/archive"
	"github.com/skillport/skillport/core/envprobe"
	"github.com/skillport/skillport/core/permissions"
	"github.com/skillport/skillport/core/scanner"
)

// runInspect extracts an archive and reports its manifest, permission
// assessment, scan findings, and environment compatibility, without
// installing or mutating any local state.
func runInspect(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	archivePath := fs.String("archive", "", "path to the .ssp archive to inspect")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	archiveBytes, err := os.ReadFile(*archivePath) // #nosec G304 -- archive path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "archive_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	extracted, err := archive.Extract(archiveBytes)
	if err != nil {
		e := envelopeErrorFromErr(err)
		return writeEnvelope(jsonMode, nil, e, exitCodeForError(err))
	}

	files := make(map[string][]byte, len(extracted.Payload)+1)
	if extracted.HasSkillMD {
		files[archive.SkillMDEntry] = []byte(extracted.SkillMD)
	}
	for p, content := range extracted.Payload {
		files[p] = content
	}
	scanReport := scanner.NewEngine().Scan(files, time.Now().UTC())
	assessment := permissions.Assess(extracted.Manifest)
	envReport := envprobe.CheckEnvironment(extracted.Manifest, nil, nil)

	return writeEnvelope(jsonMode, map[string]any{
		"manifest":    extracted.Manifest,
		"scan":        scanReport,
		"permissions": assessment,
		"environment": envReport,
	}, envelopeError{}, exitOK)
}
