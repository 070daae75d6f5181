// Package config loads SkillPort's own process configuration: a layered
// defaults -> config.json -> environment-variable resolution, grounded on
// the reflective env-tag loader used across the retrieved pack's runner
// services. Unlike core/policy (a project-scoped, author-facing
// .skillportrc), this is operator-facing process state: where the
// marketplace lives, which key to sign with by default, where skills are
// installed.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/skillport/skillport/core/fsx"
)

// Config is SkillPort's process configuration.
type Config struct {
	ConfigDir         string `json:"config_dir" env:"SKILLPORT_CONFIG_DIR"`
	SkillsDir         string `json:"skills_dir" env:"SKILLPORT_SKILLS_DIR"`
	MarketplaceAPIURL string `json:"marketplace_api_url" env:"SKILLPORT_API_URL"`
	AuthToken         string `json:"auth_token" env:"SKILLPORT_AUTH_TOKEN"`
	DefaultKeyID      string `json:"default_key_id" env:"SKILLPORT_DEFAULT_KEY_ID"`
	AgentIdentity     string `json:"agent_identity" env:"SKILLPORT_AGENT"`
	MaxPerSession     int    `json:"max_per_session" env:"SKILLPORT_MAX_PER_SESSION"`
}

// Environment variables consulted outside the reflective env-tag loop,
// because each maps onto a field under a precedence rule rather than a
// single direct assignment (spec "Environment variables").
const (
	envOpenclawSkillsDir = "OPENCLAW_SKILLS_DIR"
	envClaudeSkillsDir   = "CLAUDE_SKILLS_DIR"
	envClaudeCode        = "CLAUDE_CODE"
	envSkillportMCP      = "SKILLPORT_MCP"
)

// FileName is the on-disk name of the process config document.
const FileName = "config.json"

// Default returns the built-in configuration before any file or
// environment overrides are applied.
func Default() *Config {
	home, err := os.UserHomeDir()
	configDir := ".skillport"
	if err == nil {
		configDir = filepath.Join(home, ".skillport")
	}
	return &Config{
		ConfigDir:         configDir,
		SkillsDir:         filepath.Join(configDir, "skills"),
		MarketplaceAPIURL: "https://marketplace.skillport.dev",
		MaxPerSession:     5,
	}
}

// Load resolves configuration in priority order: defaults, then
// {configDir}/config.json if present, then environment variables. A
// missing config file is not an error.
func Load(configDir string) (*Config, error) {
	cfg := Default()
	if configDir != "" {
		cfg.ConfigDir = configDir
		cfg.SkillsDir = filepath.Join(configDir, "skills")
	}

	path := filepath.Join(cfg.ConfigDir, FileName)
	if content, err := os.ReadFile(path); err == nil { // #nosec G304 -- path is derived from the resolved config directory.
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}
	applySkillsDirOverride(cfg)
	applyAgentIdentityHints(cfg)
	return cfg, nil
}

// applySkillsDirOverride lets OPENCLAW_SKILLS_DIR and CLAUDE_SKILLS_DIR
// override the install root set by config.json or SKILLPORT_SKILLS_DIR.
// CLAUDE_SKILLS_DIR is the most specific of the three and wins when set.
func applySkillsDirOverride(cfg *Config) {
	if v := os.Getenv(envOpenclawSkillsDir); v != "" {
		cfg.SkillsDir = v
	}
	if v := os.Getenv(envClaudeSkillsDir); v != "" {
		cfg.SkillsDir = v
	}
}

// applyAgentIdentityHints resolves the agent-identity hint carried into
// provenance entries. SKILLPORT_AGENT is an explicit operator override and
// always wins; CLAUDE_CODE and SKILLPORT_MCP are presence hints set by the
// respective host processes, checked in that order when SKILLPORT_AGENT is
// unset.
func applyAgentIdentityHints(cfg *Config) {
	if cfg.AgentIdentity != "" {
		return
	}
	if os.Getenv(envClaudeCode) != "" {
		cfg.AgentIdentity = "claude-code"
		return
	}
	if os.Getenv(envSkillportMCP) != "" {
		cfg.AgentIdentity = "skillport-mcp"
	}
}

// Save atomically persists cfg to {cfg.ConfigDir}/config.json.
func Save(cfg *Config) error {
	if err := os.MkdirAll(cfg.ConfigDir, 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(cfg.ConfigDir, FileName)
	if err := fsx.WriteFileAtomic(path, content, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" {
			continue
		}
		value, ok := os.LookupEnv(envTag)
		if !ok || value == "" {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("set %s from %s: %w", t.Field(i).Name, envTag, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind: %s", field.Kind())
	}
	return nil
}

// EnvDoc names one environment variable this package reads, for `skillport
// init`-style onboarding output.
type EnvDoc struct {
	Var   string
	Field string
}

// GetEnvDocs introspects Config's env tags so CLI help output never drifts
// from the actual field list, then appends the override/hint variables
// applySkillsDirOverride and applyAgentIdentityHints read outside that loop.
func GetEnvDocs() []EnvDoc {
	t := reflect.TypeOf(Config{})
	docs := make([]EnvDoc, 0, t.NumField()+4)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}
		docs = append(docs, EnvDoc{Var: envTag, Field: field.Name})
	}
	docs = append(docs,
		EnvDoc{Var: envOpenclawSkillsDir, Field: "SkillsDir"},
		EnvDoc{Var: envClaudeSkillsDir, Field: "SkillsDir"},
		EnvDoc{Var: envClaudeCode, Field: "AgentIdentity"},
		EnvDoc{Var: envSkillportMCP, Field: "AgentIdentity"},
	)
	return docs
}
