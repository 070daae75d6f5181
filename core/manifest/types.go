// Package manifest implements the declarative validator for a skill's
// manifest document: the contract between a skill and its runtime. The
// on-wire and validated forms are kept as distinct types (spec §9 "Defaulted
// schemas with post-parse fields") — rawManifest is what authors write,
// Manifest is what create/extract work with after defaults are applied.
// Signatures are always computed over the serialized Manifest, never over
// rawManifest text.
package manifest

// IntegrationLevel is the access level a skill declares for a named
// integration.
type IntegrationLevel string

const (
	IntegrationNone  IntegrationLevel = "none"
	IntegrationRead  IntegrationLevel = "read"
	IntegrationWrite IntegrationLevel = "write"
	IntegrationSend  IntegrationLevel = "send"
)

// Platform values a manifest may declare.
const (
	PlatformOpenclaw   = "openclaw"
	PlatformClaudeCode = "claude-code"
	PlatformUniversal  = "universal"
)

// DeclaredRisk values a manifest may declare.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// SSPVersion is the only manifest schema version this package accepts.
const SSPVersion = "1.0"

// NetworkPermission describes a skill's declared network access.
type NetworkPermission struct {
	Mode    string   `json:"mode"`
	Domains []string `json:"domains,omitempty"`
}

// FilesystemPermission describes a skill's declared filesystem access.
type FilesystemPermission struct {
	ReadPaths  []string `json:"read_paths"`
	WritePaths []string `json:"write_paths"`
}

// ExecPermission describes a skill's declared process-execution access.
type ExecPermission struct {
	AllowedCommands []string `json:"allowed_commands"`
	Shell           bool     `json:"shell"`
}

// Permissions is always fully specified on a validated Manifest: the three
// mandatory sub-records are never nil.
type Permissions struct {
	Network      NetworkPermission           `json:"network"`
	Filesystem   FilesystemPermission        `json:"filesystem"`
	Exec         ExecPermission              `json:"exec"`
	Integrations map[string]IntegrationLevel `json:"integrations,omitempty"`
}

// Author identifies the signer of a skill.
type Author struct {
	Name         string `json:"name,omitempty"`
	SigningKeyID string `json:"signing_key_id"`
}

// Scope records the coarse-grained capabilities a skill uses, defaulting to
// all-false/empty.
type Scope struct {
	Files     bool `json:"files"`
	Network   bool `json:"network"`
	Processes bool `json:"processes"`
	EnvVars   bool `json:"env_vars"`
}

// Manifest is the validated, defaulted form of a skill's manifest document:
// the form whose serialized bytes are signed and stored in the archive.
type Manifest struct {
	SSPVersion     string            `json:"ssp_version"`
	ID             string            `json:"id"`
	Version        string            `json:"version"`
	OpenclawCompat string            `json:"openclaw_compat,omitempty"`
	Author         Author            `json:"author"`
	OSCompat       []string          `json:"os_compat"`
	Entrypoints    []string          `json:"entrypoints"`
	Permissions    Permissions       `json:"permissions"`
	Hashes         map[string]string `json:"hashes"`
	Platform       string            `json:"platform"`
	DeclaredRisk   string            `json:"declared_risk"`
	Inputs         []string          `json:"inputs"`
	Outputs        []string          `json:"outputs"`
	Scope          Scope             `json:"scope"`
}

// Violation names one field that failed validation and why.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}
