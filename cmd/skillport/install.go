package main

import (
	"flag"

	"github.com/skillport/skillport/core/install"
	"github.com/skillport/skillport/core/session"
)

func runInstall(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	archivePath := fs.String("archive", "", "path to the .ssp archive to install")
	trustDir := fs.String("trust", ".skillport/keys", "directory of trusted public keys (key_id.pub)")
	nonInteractive := fs.Bool("non-interactive", false, "refuse any action that requires approval")
	consent := fs.Bool("consent", false, "explicit consent for elevated-risk installs")
	force := fs.Bool("force", false, "bypass the already-installed idempotency check")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	opts, err := buildInstallOptions(*nonInteractive, *consent, *trustDir)
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "config_load_failed", Message: err.Error()}, exitGeneral)
	}
	opts.ForceReinstall = *force

	result, err := install.Run(install.Source{LocalPath: *archivePath}, opts)
	if err != nil {
		e := envelopeErrorFromErr(err)
		return writeEnvelope(jsonMode, nil, e, exitCodeForError(err))
	}
	if !result.AlreadyInstalled {
		session.Current().RecordInstall()
	}

	return writeEnvelope(jsonMode, map[string]any{
		"id":                result.Manifest.ID,
		"version":           result.Manifest.Version,
		"state":             result.State,
		"already_installed": result.AlreadyInstalled,
		"install_path":      result.InstallPath,
		"risk_score":        result.ScanReport.RiskScore,
		"permission_level":  result.PermissionAssessment.Overall,
	}, envelopeError{}, exitOK)
}

func runDryRun(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("dry-run", flag.ContinueOnError)
	archivePath := fs.String("archive", "", "path to the .ssp archive to evaluate")
	trustDir := fs.String("trust", ".skillport/keys", "directory of trusted public keys (key_id.pub)")
	nonInteractive := fs.Bool("non-interactive", false, "refuse any action that requires approval")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	opts, err := buildInstallOptions(*nonInteractive, true, *trustDir)
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "config_load_failed", Message: err.Error()}, exitGeneral)
	}
	opts.DryRun = true

	result, err := install.Run(install.Source{LocalPath: *archivePath}, opts)
	if err != nil {
		e := envelopeErrorFromErr(err)
		return writeEnvelope(jsonMode, nil, e, exitCodeForError(err))
	}

	return writeEnvelope(jsonMode, map[string]any{
		"id":                result.Manifest.ID,
		"version":           result.Manifest.Version,
		"state":             result.State,
		"already_installed": result.AlreadyInstalled,
		"risk_score":        result.ScanReport.RiskScore,
		"permission_level":  result.PermissionAssessment.Overall,
		"policy_decision":   result.PolicyDecision,
	}, envelopeError{}, exitOK)
}

func runUninstall(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("uninstall", flag.ContinueOnError)
	id := fs.String("id", "", "id of the installed skill to remove")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	opts, err := buildInstallOptions(true, true, ".skillport/keys")
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "config_load_failed", Message: err.Error()}, exitGeneral)
	}

	if err := install.Uninstall(*id, opts); err != nil {
		e := envelopeErrorFromErr(err)
		return writeEnvelope(jsonMode, nil, e, exitCodeForError(err))
	}

	return writeEnvelope(jsonMode, map[string]any{"id": *id, "removed": true}, envelopeError{}, exitOK)
}
