// Package install orchestrates the twelve-state install pipeline of spec
// §4.7: Load, ExtractVerified, ChecksumsOK, SignatureOK, Scanned,
// PolicyCleared, EnvOK, ConsentGiven, IdempotencyChecked, Materialized,
// Registered, Logged. Every state must complete before the next begins;
// the first failure aborts the pipeline with a classified error, and the
// returned Result's State names the state it failed in.
package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillport/skillport/core/archive"
	"github.com/skillport/skillport/core/audit"
	skillcrypto "github.com/skillport/skillport/core/crypto"
	"github.com/skillport/skillport/core/digest"
	coreerrors "github.com/skillport/skillport/core/errors"
	"github.com/skillport/skillport/core/envprobe"
	"github.com/skillport/skillport/core/manifest"
	"github.com/skillport/skillport/core/permissions"
	"github.com/skillport/skillport/core/policy"
	"github.com/skillport/skillport/core/registry"
	"github.com/skillport/skillport/core/scanner"
)

// State names a pipeline checkpoint, used only for diagnostics; the error
// returned from a failed state already carries its own classified category.
type State string

const (
	StateLoad               State = "Load"
	StateExtractVerified    State = "ExtractVerified"
	StateChecksumsOK        State = "ChecksumsOK"
	StateSignatureOK        State = "SignatureOK"
	StateScanned            State = "Scanned"
	StatePolicyCleared      State = "PolicyCleared"
	StateEnvOK              State = "EnvOK"
	StateConsentGiven       State = "ConsentGiven"
	StateIdempotencyChecked State = "IdempotencyChecked"
	StateMaterialized       State = "Materialized"
	StateRegistered         State = "Registered"
	StateLogged             State = "Logged"
)

// Source is where the archive's bytes come from: a local file or an
// injected marketplace fetch. Fetch is a plain function value; a
// downloader built on marketplace.Client can supply it. At most one should
// be set; Fetch takes precedence when both are.
type Source struct {
	LocalPath string
	Fetch     func() ([]byte, error)
}

// Options carries every external fact the pipeline needs beyond the
// archive bytes themselves.
type Options struct {
	NonInteractive  bool
	ForceReinstall  bool
	ConsentGiven    bool
	HasPlatformSig  bool
	TrustedKeys     map[string]string // signing_key_id -> public key PEM
	Policy          policy.Policy
	SkillsDir       string
	RegistryPath    string
	ProvenancePath  string
	AuditPath       string
	RequiredEnvVars []envprobe.RequiredEnvVar
	SessionID       string
	AgentIdentity   string
	InstallCount    int // session_install_count, read before this call
	DryRun          bool
}

// Result is the pipeline's outcome on success.
type Result struct {
	State                State
	AlreadyInstalled     bool
	Manifest             manifest.Manifest
	InstallPath          string
	ScanReport           scanner.ScanReport
	PermissionAssessment permissions.Assessment
	EnvReport            envprobe.Report
	PolicyDecision       policy.Decision
}

// Run executes the full pipeline against src under opts.
func Run(src Source, opts Options) (Result, error) {
	archiveBytes, err := load(src)
	if err != nil {
		return Result{State: StateLoad}, err
	}

	extracted, err := archive.Extract(archiveBytes)
	if err != nil {
		return Result{State: StateExtractVerified}, err
	}

	if err := checksumsOK(extracted); err != nil {
		return Result{State: StateChecksumsOK, Manifest: extracted.Manifest}, err
	}

	if err := signatureOK(extracted, opts.TrustedKeys); err != nil {
		return Result{State: StateSignatureOK, Manifest: extracted.Manifest}, err
	}

	scanFiles := scannableFiles(extracted)
	report := scanner.NewEngine().Scan(scanFiles, time.Now().UTC())

	decision := policy.Check(opts.Policy, "install", policy.Context{
		NonInteractive:      opts.NonInteractive,
		RiskScore:           report.RiskScore,
		HasPlatformSig:      opts.HasPlatformSig,
		SessionInstallCount: opts.InstallCount,
	})
	if !decision.Allowed {
		return Result{State: StatePolicyCleared, Manifest: extracted.Manifest, ScanReport: report, PolicyDecision: decision},
			coreerrors.New(coreerrors.CategoryPolicyRejected, "policy_rejected", decision.Reason, strings.Join(decision.Hints, "; "), false)
	}

	envReport := envprobe.CheckEnvironment(extracted.Manifest, requiredBinaries(extracted.Manifest), opts.RequiredEnvVars)
	if !envReport.Ready {
		return Result{State: StateEnvOK, Manifest: extracted.Manifest, ScanReport: report, EnvReport: envReport}, envError(envReport)
	}

	assessment := permissions.Assess(extracted.Manifest)
	if err := consentGiven(extracted.Manifest, report, opts.ConsentGiven); err != nil {
		return Result{State: StateConsentGiven, Manifest: extracted.Manifest, ScanReport: report, PermissionAssessment: assessment, EnvReport: envReport}, err
	}

	reg, err := registry.Load(opts.RegistryPath)
	if err != nil {
		return Result{State: StateIdempotencyChecked, Manifest: extracted.Manifest}, coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "registry_unreadable", "check the registry file and permissions", false)
	}
	if existing, ok := registry.Find(reg, extracted.Manifest.ID); ok && existing.Version == extracted.Manifest.Version && !opts.ForceReinstall {
		return Result{
			State:                StateIdempotencyChecked,
			AlreadyInstalled:     true,
			Manifest:             extracted.Manifest,
			InstallPath:          existing.InstallPath,
			ScanReport:           report,
			PermissionAssessment: assessment,
			EnvReport:            envReport,
			PolicyDecision:       decision,
		}, nil
	}

	if opts.DryRun {
		return Result{
			State:                StateIdempotencyChecked,
			Manifest:             extracted.Manifest,
			ScanReport:           report,
			PermissionAssessment: assessment,
			EnvReport:            envReport,
			PolicyDecision:       decision,
		}, nil
	}

	installPath, err := materialize(opts.SkillsDir, extracted)
	if err != nil {
		return Result{State: StateMaterialized, Manifest: extracted.Manifest}, err
	}

	manifestDigest, err := digest.CanonicalDigest(extracted.Manifest)
	if err != nil {
		return Result{State: StateRegistered, Manifest: extracted.Manifest, InstallPath: installPath}, coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "manifest_digest_failed", "the manifest could not be canonicalized for the registry digest", false)
	}

	if _, err := registry.Upsert(opts.RegistryPath, registry.Record{
		ID:             extracted.Manifest.ID,
		Version:        extracted.Manifest.Version,
		InstalledAt:    time.Now().UTC(),
		InstallPath:    installPath,
		AuthorKeyID:    extracted.Manifest.Author.SigningKeyID,
		ManifestDigest: manifestDigest,
	}); err != nil {
		return Result{State: StateRegistered, Manifest: extracted.Manifest, InstallPath: installPath}, coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "registry_write_failed", "check permissions on the registry directory", false)
	}

	if err := logOutcome(opts, extracted.Manifest, report, manifestDigest); err != nil {
		return Result{State: StateLogged, Manifest: extracted.Manifest, InstallPath: installPath}, err
	}

	return Result{
		State:                StateLogged,
		Manifest:             extracted.Manifest,
		InstallPath:          installPath,
		ScanReport:           report,
		PermissionAssessment: assessment,
		EnvReport:            envReport,
		PolicyDecision:       decision,
	}, nil
}

func load(src Source) ([]byte, error) {
	if src.Fetch != nil {
		data, err := src.Fetch()
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CategoryNetwork, "marketplace_fetch_failed", "check network connectivity and marketplace credentials", true)
		}
		return data, nil
	}
	if src.LocalPath == "" {
		return nil, coreerrors.New(coreerrors.CategoryInputInvalid, "source_required", "no local archive path or marketplace source was given", "pass a local .ssp path or a marketplace source", false)
	}
	data, err := os.ReadFile(src.LocalPath) // #nosec G304 -- local path is explicit caller-supplied input.
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.Wrap(err, coreerrors.CategoryFileNotFound, "archive_not_found", "check the path and try again", false)
		}
		return nil, coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "archive_unreadable", "check file permissions", false)
	}
	return data, nil
}

func checksumsOK(extracted archive.ExtractResult) error {
	combined := make(map[string][]byte, len(extracted.Payload)+1)
	if extracted.HasSkillMD {
		combined[archive.SkillMDEntry] = []byte(extracted.SkillMD)
	}
	for p, content := range extracted.Payload {
		combined[archive.PayloadPrefix+p] = content
	}
	ok, mismatches := skillcrypto.VerifyChecksums(combined, extracted.Manifest.Hashes)
	if !ok {
		return coreerrors.New(coreerrors.CategoryChecksumMismatch, "checksum_mismatch", fmt.Sprintf("checksum mismatch on: %s", strings.Join(mismatches, ", ")), "re-export or re-download the archive", false)
	}
	return nil
}

func signatureOK(extracted archive.ExtractResult, trustedKeys map[string]string) error {
	if extracted.AuthorSig == "" {
		return coreerrors.New(coreerrors.CategorySignatureMissing, "signature_missing", "signatures/author.sig is empty or absent", "the archive was not signed; request a signed export", false)
	}
	publicPEM, ok := trustedKeys[extracted.Manifest.Author.SigningKeyID]
	if !ok {
		return coreerrors.New(coreerrors.CategoryKeyNotRegistered, "key_not_registered", "signing_key_id "+extracted.Manifest.Author.SigningKeyID+" is not in the local trust store", "register the author's public key with keys register before installing", false)
	}
	if !skillcrypto.Verify(extracted.RawManifestBytes, extracted.AuthorSig, publicPEM) {
		return coreerrors.New(coreerrors.CategorySignatureInvalid, "signature_invalid", "author signature does not verify against manifest.json", "the archive may be corrupted or tampered with", false)
	}
	return nil
}

func scannableFiles(extracted archive.ExtractResult) map[string][]byte {
	files := make(map[string][]byte, len(extracted.Payload)+1)
	if extracted.HasSkillMD {
		files[archive.SkillMDEntry] = []byte(extracted.SkillMD)
	}
	for p, content := range extracted.Payload {
		files[p] = content
	}
	return files
}

func requiredBinaries(m manifest.Manifest) []envprobe.RequiredBinary {
	binaries := make([]envprobe.RequiredBinary, 0, len(m.Permissions.Exec.AllowedCommands))
	for _, name := range m.Permissions.Exec.AllowedCommands {
		binaries = append(binaries, envprobe.RequiredBinary{Name: name})
	}
	return binaries
}

func envError(report envprobe.Report) error {
	for _, c := range report.Checks {
		if c.Name == "os_compat" && c.Status == envprobe.StatusMissing {
			return coreerrors.New(coreerrors.CategoryOsIncompatible, "os_incompatible", c.Message, "this skill does not support the current operating system", false)
		}
	}
	for _, c := range report.Checks {
		if c.Status == envprobe.StatusMissing {
			return coreerrors.New(coreerrors.CategoryDependencyMissing, "dependency_missing", c.Message, "install the missing dependency and retry", false)
		}
	}
	return coreerrors.New(coreerrors.CategoryDependencyMissing, "environment_not_ready", "environment checks did not pass", "review the environment report and retry", false)
}

func consentGiven(m manifest.Manifest, report scanner.ScanReport, consentGiven bool) error {
	if !requiresExplicitConsent(m, report) || consentGiven {
		return nil
	}
	return coreerrors.New(coreerrors.CategoryForbidden, "consent_required", "this skill requests shell execution or triggered a critical scan finding", "re-run with explicit acceptance of elevated risk", false)
}

func requiresExplicitConsent(m manifest.Manifest, report scanner.ScanReport) bool {
	if m.Permissions.Exec.Shell {
		return true
	}
	return report.Summary.BySeverity[scanner.SeverityCritical] > 0
}

func materialize(skillsDir string, extracted archive.ExtractResult) (string, error) {
	installPath := filepath.Join(skillsDir, sanitizeID(extracted.Manifest.ID))
	if err := os.MkdirAll(installPath, 0o750); err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "install_dir_failed", "check permissions on the skills directory", false)
	}
	if err := os.WriteFile(filepath.Join(installPath, archive.ManifestEntry), extracted.RawManifestBytes, 0o644); err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "manifest_write_failed", "check permissions on the install directory", false)
	}
	if extracted.HasSkillMD {
		if err := os.WriteFile(filepath.Join(installPath, archive.SkillMDEntry), []byte(extracted.SkillMD), 0o644); err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "skill_md_write_failed", "check permissions on the install directory", false)
		}
	}
	for p, content := range extracted.Payload {
		dest := filepath.Join(installPath, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "payload_dir_failed", "check permissions on the install directory", false)
		}
		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "payload_write_failed", "check permissions on the install directory", false)
		}
	}
	return installPath, nil
}

func sanitizeID(id string) string {
	return strings.ReplaceAll(id, "/", "-")
}

func logOutcome(opts Options, m manifest.Manifest, report scanner.ScanReport, manifestDigest string) error {
	if opts.ProvenancePath != "" {
		entry := registry.ProvenanceEntry{
			Timestamp: time.Now().UTC(),
			SessionID: opts.SessionID,
			Action:    "install",
			Agent:     opts.AgentIdentity,
			Extra: map[string]any{
				"id":              m.ID,
				"version":         m.Version,
				"risk_score":      report.RiskScore,
				"manifest_digest": manifestDigest,
			},
		}
		if err := registry.AppendProvenance(opts.ProvenancePath, entry); err != nil {
			return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "provenance_append_failed", "check permissions on the provenance log", false)
		}
	}
	if opts.AuditPath != "" {
		if err := audit.Append(opts.AuditPath, audit.Entry{
			Timestamp: time.Now().UTC(),
			SessionID: opts.SessionID,
			Action:    "install",
			Subject:   m.ID + "@" + m.Version,
			Outcome:   "ok",
		}); err != nil {
			return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "audit_append_failed", "check permissions on the audit log", false)
		}
	}
	return nil
}

// Uninstall removes an installed skill: deletes its install directory,
// removes its registry entry, and appends a provenance entry describing
// the rollback.
func Uninstall(id string, opts Options) error {
	reg, err := registry.Load(opts.RegistryPath)
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "registry_unreadable", "check the registry file and permissions", false)
	}
	rec, ok := registry.Find(reg, id)
	if !ok {
		return coreerrors.New(coreerrors.CategoryNotFound, "not_installed", "no installed skill with id "+id, "check the id against `skillport plan`", false)
	}
	if rec.InstallPath != "" {
		if err := os.RemoveAll(rec.InstallPath); err != nil {
			return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "uninstall_cleanup_failed", "check permissions on the install directory", false)
		}
	}
	if _, err := registry.Remove(opts.RegistryPath, id); err != nil {
		return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "registry_write_failed", "check permissions on the registry directory", false)
	}
	if opts.ProvenancePath != "" {
		entry := registry.ProvenanceEntry{
			Timestamp: time.Now().UTC(),
			SessionID: opts.SessionID,
			Action:    "uninstall",
			Agent:     opts.AgentIdentity,
			Extra:     map[string]any{"id": id, "version": rec.Version, "manifest_digest": rec.ManifestDigest},
		}
		if err := registry.AppendProvenance(opts.ProvenancePath, entry); err != nil {
			return coreerrors.Wrap(err, coreerrors.CategoryInputInvalid, "provenance_append_failed", "check permissions on the provenance log", false)
		}
	}
	return nil
}
