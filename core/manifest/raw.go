package manifest

// rawManifest mirrors Manifest but with pointers on fields that are
// optional on the wire and defaulted during validation, so the decoder can
// tell "absent" from "present and zero".
type rawManifest struct {
	SSPVersion     string          `json:"ssp_version"`
	ID             string          `json:"id"`
	Version        string          `json:"version"`
	OpenclawCompat string          `json:"openclaw_compat,omitempty"`
	Author         *Author         `json:"author"`
	OSCompat       []string        `json:"os_compat"`
	Entrypoints    []string        `json:"entrypoints"`
	Permissions    *rawPermissions `json:"permissions"`
	Hashes         map[string]string `json:"hashes,omitempty"`
	Platform       string          `json:"platform,omitempty"`
	DeclaredRisk   string          `json:"declared_risk,omitempty"`
	Inputs         []string        `json:"inputs,omitempty"`
	Outputs        []string        `json:"outputs,omitempty"`
	Scope          *Scope          `json:"scope,omitempty"`
}

type rawPermissions struct {
	Network      *NetworkPermission          `json:"network"`
	Filesystem   *FilesystemPermission       `json:"filesystem"`
	Exec         *ExecPermission             `json:"exec"`
	Integrations map[string]IntegrationLevel `json:"integrations,omitempty"`
}
