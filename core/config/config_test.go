package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPopulatesConfigDirAndSkillsDir(t *testing.T) {
	cfg := Default()
	if cfg.ConfigDir == "" || cfg.SkillsDir == "" {
		t.Fatalf("expected non-empty defaults, got %+v", cfg)
	}
	if cfg.MaxPerSession != 5 {
		t.Fatalf("expected default max_per_session=5, got %d", cfg.MaxPerSession)
	}
}

func TestLoadWithNoFilePresentReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigDir != dir {
		t.Fatalf("expected config dir to be %s, got %s", dir, cfg.ConfigDir)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content, _ := json.Marshal(map[string]any{"marketplace_api_url": "https://custom.example"})
	if err := os.WriteFile(filepath.Join(dir, FileName), content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MarketplaceAPIURL != "https://custom.example" {
		t.Fatalf("expected file value to apply, got %s", cfg.MarketplaceAPIURL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content, _ := json.Marshal(map[string]any{"marketplace_api_url": "https://from-file.example"})
	if err := os.WriteFile(filepath.Join(dir, FileName), content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("SKILLPORT_API_URL", "https://from-env.example")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MarketplaceAPIURL != "https://from-env.example" {
		t.Fatalf("expected env override to win, got %s", cfg.MarketplaceAPIURL)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.ConfigDir = dir
	cfg.DefaultKeyID = "abc123"

	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if reloaded.DefaultKeyID != "abc123" {
		t.Fatalf("expected default_key_id to round trip, got %s", reloaded.DefaultKeyID)
	}
}

func TestGetEnvDocsListsEveryTaggedField(t *testing.T) {
	docs := GetEnvDocs()
	if len(docs) == 0 {
		t.Fatalf("expected at least one documented env var")
	}
	found := false
	for _, d := range docs {
		if d.Var == "SKILLPORT_API_URL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected SKILLPORT_API_URL to be documented, got %+v", docs)
	}
}

func TestLoadSkillsDirOverridePrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENCLAW_SKILLS_DIR", "/openclaw/skills")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SkillsDir != "/openclaw/skills" {
		t.Fatalf("expected OPENCLAW_SKILLS_DIR to override, got %s", cfg.SkillsDir)
	}

	t.Setenv("CLAUDE_SKILLS_DIR", "/claude/skills")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SkillsDir != "/claude/skills" {
		t.Fatalf("expected CLAUDE_SKILLS_DIR to win over OPENCLAW_SKILLS_DIR, got %s", cfg.SkillsDir)
	}
}

func TestLoadAgentIdentityHints(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("CLAUDE_CODE", "1")
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AgentIdentity != "claude-code" {
		t.Fatalf("expected CLAUDE_CODE hint to resolve to claude-code, got %s", cfg.AgentIdentity)
	}

	t.Setenv("SKILLPORT_MCP", "1")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AgentIdentity != "claude-code" {
		t.Fatalf("expected CLAUDE_CODE to take precedence over SKILLPORT_MCP, got %s", cfg.AgentIdentity)
	}

	t.Setenv("SKILLPORT_AGENT", "explicit-agent")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AgentIdentity != "explicit-agent" {
		t.Fatalf("expected explicit SKILLPORT_AGENT to win over hints, got %s", cfg.AgentIdentity)
	}
}
