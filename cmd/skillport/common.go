package main

import (
	"os"
	"path/filepath"

	"github.com/skillport/skillport/core/config"
	coreenvprobe "github.com/skillport/skillport/core/envprobe"
	"github.com/skillport/skillport/core/install"
	"github.com/skillport/skillport/core/policy"
	"github.com/skillport/skillport/core/registry"
	"github.com/skillport/skillport/core/session"
)

// loadTrustedKeys reads every *.pub file under dir into a signing_key_id ->
// PEM map, the on-disk form written by `keys register`.
func loadTrustedKeys(dir string) map[string]string {
	trusted := map[string]string{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return trusted
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pub" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304 -- dir is explicit CLI input, names come from ReadDir.
		if err != nil {
			continue
		}
		keyID := entry.Name()[:len(entry.Name())-len(".pub")]
		trusted[keyID] = string(content)
	}
	return trusted
}

// buildInstallOptions assembles core/install.Options from process
// configuration, the project's .skillportrc policy, and the local trust
// store, the shared wiring behind install, dry-run, and uninstall.
func buildInstallOptions(nonInteractive, consentGiven bool, trustDir string) (install.Options, error) {
	cfg, err := config.Load("")
	if err != nil {
		return install.Options{}, err
	}
	pol := policy.Load(".", cfg.ConfigDir)
	sess := session.Current()
	sess.SetAgentIdentity(cfg.AgentIdentity)

	return install.Options{
		NonInteractive:  nonInteractive,
		ConsentGiven:    consentGiven,
		TrustedKeys:     loadTrustedKeys(trustDir),
		Policy:          pol,
		SkillsDir:       cfg.SkillsDir,
		RegistryPath:    filepath.Join(cfg.ConfigDir, registry.RegistryFileName),
		ProvenancePath:  filepath.Join(cfg.ConfigDir, registry.ProvenanceFileName),
		AuditPath:       filepath.Join(cfg.ConfigDir, "audit", "audit.log"),
		RequiredEnvVars: []coreenvprobe.RequiredEnvVar{},
		SessionID:       sess.ID(),
		AgentIdentity:   cfg.AgentIdentity,
		InstallCount:    sess.InstallCount(),
	}, nil
}
