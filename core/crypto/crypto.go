// Package crypto implements SkillPort's cryptographic primitives: Ed25519
// keypair generation with PEM encoding, detached sign/verify over octet-exact
// bytes, SHA-256 checksums, and key-id derivation. Verify never raises on
// malformed input: it reports false.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

const (
	pemBlockPublic  = "PUBLIC KEY"
	pemBlockPrivate = "PRIVATE KEY"

	// AlgEd25519 is the only signature algorithm this package produces or
	// accepts.
	AlgEd25519 = "ed25519"

	// KeyIDLength is the number of hex characters retained from the SHA-256
	// digest of the PEM-encoded public key string.
	KeyIDLength = 16
)

// KeyPair holds an Ed25519 key in both raw and PEM form, plus its derived
// key id. PrivatePEM is empty for a public-only pair (e.g. one loaded purely
// to verify).
type KeyPair struct {
	Public     ed25519.PublicKey
	Private    ed25519.PrivateKey
	PublicPEM  string
	PrivatePEM string
	KeyID      string
}

// GenerateKeyPair creates a fresh Ed25519 keypair, encodes the public key as
// an SPKI PEM block and the private key as a PKCS#8 PEM block, and derives
// the key id from the public PEM string.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate ed25519 keypair: %w", err)
	}
	publicPEM, err := EncodePublicKeyPEM(pub)
	if err != nil {
		return KeyPair{}, err
	}
	privatePEM, err := EncodePrivateKeyPEM(priv)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		Public:     pub,
		Private:    priv,
		PublicPEM:  publicPEM,
		PrivatePEM: privatePEM,
		KeyID:      KeyIDFromPublicPEM(publicPEM),
	}, nil
}

// KeyIDFromPublicPEM derives a key_id as the first 16 lowercase hex
// characters of the SHA-256 digest of the public key's PEM string, exactly
// as authored (including headers and line breaks).
func KeyIDFromPublicPEM(publicPEM string) string {
	sum := sha256.Sum256([]byte(publicPEM))
	full := hex.EncodeToString(sum[:])
	if len(full) < KeyIDLength {
		return full
	}
	return full[:KeyIDLength]
}

// EncodePublicKeyPEM renders pub as an SPKI PEM block.
func EncodePublicKeyPEM(pub ed25519.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	block := &pem.Block{Type: pemBlockPublic, Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// EncodePrivateKeyPEM renders priv as a PKCS#8 PEM block.
func EncodePrivateKeyPEM(priv ed25519.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	block := &pem.Block{Type: pemBlockPrivate, Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// ParsePublicKeyPEM decodes an SPKI PEM block back into an Ed25519 public
// key.
func ParsePublicKeyPEM(publicPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return nil, fmt.Errorf("decode public key pem: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ed25519")
	}
	return pub, nil
}

// ParsePrivateKeyPEM decodes a PKCS#8 PEM block back into an Ed25519 private
// key.
func ParsePrivateKeyPEM(privatePEM string) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, fmt.Errorf("decode private key pem: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not ed25519")
	}
	return priv, nil
}

// Sign computes a detached Ed25519 signature over the exact bytes of data
// and returns it base64-encoded. The caller must pass the bytes that will
// actually be stored and later verified — this function never reformats
// data.
func Sign(data []byte, privatePEM string) (string, error) {
	priv, err := ParsePrivateKeyPEM(privatePEM)
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(priv, data)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether sigBase64 is a valid Ed25519 signature over data
// under publicPEM. It never returns an error: any decode or format failure
// is reported as false, per the crypto primitive contract.
func Verify(data []byte, sigBase64 string, publicPEM string) bool {
	pub, err := ParsePublicKeyPEM(publicPEM)
	if err != nil {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(sigBase64)
	if err != nil {
		return false
	}
	if len(raw) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, data, raw)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ComputeChecksums hashes every file in files and returns a path -> hex
// digest map with one entry per input path.
func ComputeChecksums(files map[string][]byte) map[string]string {
	out := make(map[string]string, len(files))
	for path, content := range files {
		out[path] = SHA256Hex(content)
	}
	return out
}

// VerifyChecksums compares files against expected, marking a path as a
// mismatch both when it is present with different content and when it is
// absent from files entirely. ok is true iff mismatches is empty.
func VerifyChecksums(files map[string][]byte, expected map[string]string) (ok bool, mismatches []string) {
	for path, wantHex := range expected {
		content, present := files[path]
		if !present {
			mismatches = append(mismatches, path)
			continue
		}
		if SHA256Hex(content) != wantHex {
			mismatches = append(mismatches, path)
		}
	}
	return len(mismatches) == 0, mismatches
}
