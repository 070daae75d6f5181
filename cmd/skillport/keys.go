package main

import (
	"flag"
	"os"
	"path/filepath"

	skillcrypto "github.com/skillport/skillport/core/crypto"
)

func runKeys(arguments []string, jsonMode bool) int {
	if len(arguments) == 0 || arguments[0] != "register" {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: "usage: skillport keys register --out <dir>"}, exitInputInvalid)
	}

	fs := flag.NewFlagSet("keys register", flag.ContinueOnError)
	outDir := fs.String("out", ".skillport/keys", "directory to write the generated keypair into")
	if err := fs.Parse(arguments[1:]); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	kp, err := skillcrypto.GenerateKeyPair()
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "keygen_failed", Message: err.Error()}, exitGeneral)
	}

	privatePath := filepath.Join(*outDir, kp.KeyID+".key")
	publicPath := filepath.Join(*outDir, kp.KeyID+".pub")
	writeFile := func(path string, content []byte, mode os.FileMode) error {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		return os.WriteFile(path, content, mode)
	}
	if err := skillcrypto.WriteKeyFiles(writeFile, privatePath, publicPath, kp); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "key_write_failed", Message: err.Error()}, exitGeneral)
	}

	return writeEnvelope(jsonMode, map[string]any{
		"key_id":       kp.KeyID,
		"private_path": privatePath,
		"public_path":  publicPath,
	}, envelopeError{}, exitOK)
}
