package manifest

// applyDefaults turns a decoded rawManifest into a Manifest, filling in the
// defaults named in spec §3. It never reports an error: defaulting is total
// over any raw value that made it through strict JSON decoding. Structural
// invariants (id format, version format, and so on) are validated
// separately, after defaults are applied, since the signed bytes must be the
// bytes of the defaulted document.
func applyDefaults(raw rawManifest) Manifest {
	m := Manifest{
		SSPVersion:     raw.SSPVersion,
		ID:             raw.ID,
		Version:        raw.Version,
		OpenclawCompat: raw.OpenclawCompat,
		OSCompat:       raw.OSCompat,
		Entrypoints:    raw.Entrypoints,
		Hashes:         raw.Hashes,
		Platform:       raw.Platform,
		DeclaredRisk:   raw.DeclaredRisk,
		Inputs:         raw.Inputs,
		Outputs:        raw.Outputs,
	}

	if raw.Author != nil {
		m.Author = *raw.Author
	}
	if m.Platform == "" {
		m.Platform = PlatformOpenclaw
	}
	if m.DeclaredRisk == "" {
		m.DeclaredRisk = RiskMedium
	}
	if m.Inputs == nil {
		m.Inputs = []string{}
	}
	if m.Outputs == nil {
		m.Outputs = []string{}
	}
	if m.Hashes == nil {
		m.Hashes = map[string]string{}
	}
	if raw.Scope != nil {
		m.Scope = *raw.Scope
	}

	m.Permissions = Permissions{
		Filesystem: FilesystemPermission{ReadPaths: []string{}, WritePaths: []string{}},
		Exec:       ExecPermission{AllowedCommands: []string{}},
	}
	if raw.Permissions != nil {
		if raw.Permissions.Network != nil {
			m.Permissions.Network = *raw.Permissions.Network
		}
		if raw.Permissions.Filesystem != nil {
			m.Permissions.Filesystem = *raw.Permissions.Filesystem
			if m.Permissions.Filesystem.ReadPaths == nil {
				m.Permissions.Filesystem.ReadPaths = []string{}
			}
			if m.Permissions.Filesystem.WritePaths == nil {
				m.Permissions.Filesystem.WritePaths = []string{}
			}
		}
		if raw.Permissions.Exec != nil {
			m.Permissions.Exec = *raw.Permissions.Exec
			if m.Permissions.Exec.AllowedCommands == nil {
				m.Permissions.Exec.AllowedCommands = []string{}
			}
		}
		m.Permissions.Integrations = raw.Permissions.Integrations
	}
	if m.Permissions.Network.Mode == "" {
		m.Permissions.Network.Mode = "none"
	}

	return m
}
