package crypto

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"
)

// KeyFileMode is the required file mode for persisted private key material
// (spec §5 resource caps: signing key material at file-mode 0o600).
const KeyFileMode = 0o600

// KeySource names where a key may be read from: an explicit PEM file path,
// or an environment variable holding the PEM text directly. At most one may
// be set; LoadPrivateKey/LoadPublicKey reject both being set at once.
type KeySource struct {
	Path string
	Env  string
}

func (s KeySource) isEmpty() bool {
	return s.Path == "" && s.Env == ""
}

func (s KeySource) resolve() (string, error) {
	if s.Path != "" && s.Env != "" {
		return "", fmt.Errorf("key source: set either path or env, not both")
	}
	if s.Path != "" {
		// #nosec G304 -- key path is operator-configured local state under .skillport/.
		raw, err := os.ReadFile(s.Path)
		if err != nil {
			return "", fmt.Errorf("read key file: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	if s.Env != "" {
		val, ok := os.LookupEnv(s.Env)
		if !ok || strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("key env not set: %s", s.Env)
		}
		return strings.TrimSpace(val), nil
	}
	return "", fmt.Errorf("key source not configured")
}

// LoadPrivateKey reads and parses a PEM-encoded Ed25519 private key from
// src.
func LoadPrivateKey(src KeySource) (ed25519.PrivateKey, error) {
	if src.isEmpty() {
		return nil, fmt.Errorf("private key not configured")
	}
	pemText, err := src.resolve()
	if err != nil {
		return nil, err
	}
	return ParsePrivateKeyPEM(pemText)
}

// LoadPublicKey reads and parses a PEM-encoded Ed25519 public key from src.
func LoadPublicKey(src KeySource) (ed25519.PublicKey, error) {
	if src.isEmpty() {
		return nil, fmt.Errorf("public key not configured")
	}
	pemText, err := src.resolve()
	if err != nil {
		return nil, err
	}
	return ParsePublicKeyPEM(pemText)
}

// WriteKeyFiles persists a generated keypair to privatePath (mode
// KeyFileMode) and publicPath (mode 0o644) through the supplied writeFile,
// private key first. Whether each write is atomic depends on writeFile.
func WriteKeyFiles(writeFile func(path string, content []byte, mode os.FileMode) error, privatePath, publicPath string, kp KeyPair) error {
	if err := writeFile(privatePath, []byte(kp.PrivatePEM), KeyFileMode); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := writeFile(publicPath, []byte(kp.PublicPEM), 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}
