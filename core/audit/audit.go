// Package audit implements the append-only, human-readable audit log
// written alongside provenance on every install-pipeline action (spec
// §4.7 "Logged" state). It reuses the same cross-process locked-append
// primitive as core/registry's provenance log.
package audit

import (
	"fmt"
	"time"

	"github.com/skillport/skillport/core/fsx"
)

// FileName is the on-disk name of the audit log.
const FileName = "audit.log"

const fileMode = 0o644

// Entry is one line of the audit log.
type Entry struct {
	Timestamp time.Time
	SessionID string
	Action    string
	Subject   string
	Outcome   string
	Detail    string
}

// Append writes one formatted line to the audit log at path.
func Append(path string, e Entry) error {
	line := fmt.Sprintf("%s session=%s action=%s subject=%s outcome=%s",
		e.Timestamp.UTC().Format(time.RFC3339), e.SessionID, e.Action, e.Subject, e.Outcome)
	if e.Detail != "" {
		line += " detail=" + e.Detail
	}
	if err := fsx.AppendLineLocked(path, []byte(line), fileMode); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
