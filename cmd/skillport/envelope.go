package main

import (
	"encoding/json"
	"fmt"

	coreerrors "github.com/skillport/skillport/core/errors"
)

// envelopeError is the "error" object of a failing JSON envelope.
type envelopeError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Retryable bool     `json:"retryable"`
	Hints     []string `json:"hints,omitempty"`
}

type envelope struct {
	SchemaVersion int            `json:"schema_version"`
	OK            bool           `json:"ok"`
	Data          any            `json:"data,omitempty"`
	Error         *envelopeError `json:"error,omitempty"`
}

// writeEnvelope renders either the success or failure JSON envelope when
// jsonMode is set; in human mode it prints a short progress line to
// stderr-equivalent stdout instead, per spec §6 ("stderr carries
// human-readable progress only when JSON mode is off" — this demonstration
// binary keeps that output on stdout for simplicity).
func writeEnvelope(jsonMode bool, data any, errInfo envelopeError, exitCode int) int {
	if !jsonMode {
		if errInfo.Message != "" {
			fmt.Println("error:", errInfo.Message)
		} else {
			fmt.Println("ok")
		}
		return exitCode
	}

	env := envelope{SchemaVersion: 1, OK: errInfo.Message == ""}
	if env.OK {
		env.Data = data
	} else {
		env.Error = &errInfo
	}
	encoded, err := json.Marshal(env)
	if err != nil {
		fmt.Println(`{"schema_version":1,"ok":false,"error":{"code":"encode_failed","message":"failed to encode output","retryable":false}}`)
		return exitInputInvalid
	}
	fmt.Println(string(encoded))
	return exitCode
}

// exitCodeForError maps a classified error to the stable exit-code
// contract of spec §6.
func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInputInvalid, coreerrors.CategoryFileNotFound, coreerrors.CategoryNotFound:
		return exitInputInvalid
	case coreerrors.CategoryNetwork, coreerrors.CategoryRateLimited:
		return exitNetwork
	case coreerrors.CategoryAuthRequired, coreerrors.CategoryForbidden:
		return exitAuthRequired
	case coreerrors.CategoryDependencyMissing, coreerrors.CategoryOsIncompatible:
		return exitDependencyMissing
	case coreerrors.CategoryMalformedArchive, coreerrors.CategoryManifestInvalid, coreerrors.CategoryZipSlip,
		coreerrors.CategoryDecompressionBomb, coreerrors.CategoryChecksumMismatch, coreerrors.CategorySignatureMissing,
		coreerrors.CategorySignatureInvalid, coreerrors.CategoryKeyMissing, coreerrors.CategoryKeyNotRegistered:
		return exitSecurityRejected
	case coreerrors.CategoryScanFailed:
		return exitQualityFailed
	case coreerrors.CategoryPolicyRejected:
		return exitPolicyRejected
	default:
		return exitGeneral
	}
}

// envelopeErrorFromErr renders a classified error into the envelope's
// error object, falling back to a generic code/message for anything that
// never passed through core/errors.Wrap.
func envelopeErrorFromErr(err error) envelopeError {
	code := coreerrors.CodeOf(err)
	if code == "" {
		code = "unclassified_error"
	}
	e := envelopeError{
		Code:      code,
		Message:   err.Error(),
		Retryable: coreerrors.RetryableOf(err),
	}
	if hint := coreerrors.HintOf(err); hint != "" {
		e.Hints = []string{hint}
	}
	return e
}
