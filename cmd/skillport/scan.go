package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/skillport/skillport/core/scanner"
)

// runScan walks a directory of payload files and runs the static risk
// scanner over it, independent of the install pipeline.
func runScan(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory to scan")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	files, err := collectScannable(*dir)
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "dir_unreadable", Message: err.Error()}, exitInputInvalid)
	}

	report := scanner.NewEngine().Scan(files, time.Now().UTC())
	exit := exitOK
	if !report.Passed {
		exit = exitQualityFailed
	}
	return writeEnvelope(jsonMode, report, envelopeError{}, exit)
}

func collectScannable(dir string) (map[string][]byte, error) {
	files := map[string][]byte{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || !scanner.IsScannable(path) || info.Size() > scanner.MaxScannedFileBytes {
			return nil
		}
		content, err := os.ReadFile(path) // #nosec G304 -- path is produced by Walk over a caller-supplied directory.
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = content
		return nil
	})
	return files, err
}
