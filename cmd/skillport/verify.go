package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/skillport/skillport/core/archive"
	skillcrypto "github.com/skillport/skillport/core/crypto"
	coreerrors "github.com/skillport/skillport/core/errors"
)

// runVerify extracts an archive and checks checksums and author signature
// against a trust store, without installing anything.
func runVerify(arguments []string, jsonMode bool) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	archivePath := fs.String("archive", "", "path to the .ssp archive to verify")
	trustDir := fs.String("trust", ".skillport/keys", "directory of trusted public keys (key_id.pub)")
	if err := fs.Parse(arguments); err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "usage", Message: err.Error()}, exitInputInvalid)
	}

	archiveBytes, err := os.ReadFile(*archivePath) // #nosec G304 -- archive path is explicit CLI input.
	if err != nil {
		return writeEnvelope(jsonMode, nil, envelopeError{Code: "archive_unreadable", Message: err.Error()}, exitInputInvalid)
	}
	extracted, err := archive.Extract(archiveBytes)
	if err != nil {
		e := envelopeErrorFromErr(err)
		return writeEnvelope(jsonMode, nil, e, exitCodeForError(err))
	}

	combined := make(map[string][]byte, len(extracted.Payload)+1)
	if extracted.HasSkillMD {
		combined[archive.SkillMDEntry] = []byte(extracted.SkillMD)
	}
	for p, content := range extracted.Payload {
		combined[archive.PayloadPrefix+p] = content
	}
	ok, mismatches := skillcrypto.VerifyChecksums(combined, extracted.Manifest.Hashes)
	if !ok {
		err := coreerrors.New(coreerrors.CategoryChecksumMismatch, "checksum_mismatch", fmt.Sprintf("checksum mismatch on: %s", strings.Join(mismatches, ", ")), "re-export or re-download the archive", false)
		return writeEnvelope(jsonMode, nil, envelopeErrorFromErr(err), exitCodeForError(err))
	}

	publicPEM, trustErr := readTrustedKey(*trustDir, extracted.Manifest.Author.SigningKeyID)
	if trustErr != nil {
		err := coreerrors.New(coreerrors.CategoryKeyNotRegistered, "key_not_registered", trustErr.Error(), "register the author's public key with keys register before verifying", false)
		return writeEnvelope(jsonMode, nil, envelopeErrorFromErr(err), exitCodeForError(err))
	}
	if extracted.AuthorSig == "" {
		err := coreerrors.New(coreerrors.CategorySignatureMissing, "signature_missing", "signatures/author.sig is empty or absent", "the archive was not signed; request a signed export", false)
		return writeEnvelope(jsonMode, nil, envelopeErrorFromErr(err), exitCodeForError(err))
	}
	if !skillcrypto.Verify(extracted.RawManifestBytes, extracted.AuthorSig, publicPEM) {
		err := coreerrors.New(coreerrors.CategorySignatureInvalid, "signature_invalid", "author signature does not verify against manifest.json", "the archive may be corrupted or tampered with", false)
		return writeEnvelope(jsonMode, nil, envelopeErrorFromErr(err), exitCodeForError(err))
	}

	return writeEnvelope(jsonMode, map[string]any{
		"id":             extracted.Manifest.ID,
		"version":        extracted.Manifest.Version,
		"checksums_ok":   true,
		"signature_ok":   true,
		"signing_key_id": extracted.Manifest.Author.SigningKeyID,
	}, envelopeError{}, exitOK)
}

func readTrustedKey(dir, keyID string) (string, error) {
	path := dir + "/" + keyID + ".pub"
	content, err := os.ReadFile(path) // #nosec G304 -- trust dir is explicit CLI input, key_id comes from the validated manifest.
	if err != nil {
		return "", fmt.Errorf("signing_key_id %s is not in the local trust store", keyID)
	}
	return string(content), nil
}
