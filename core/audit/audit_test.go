package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesFormattedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	err := Append(path, Entry{
		Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SessionID: "sess-1",
		Action:    "install",
		Subject:   "alice/demo@1.0.0",
		Outcome:   "ok",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	line := strings.TrimSpace(string(content))
	if !strings.Contains(line, "action=install") || !strings.Contains(line, "subject=alice/demo@1.0.0") {
		t.Fatalf("unexpected audit line: %s", line)
	}
}

func TestAppendTwiceProducesTwoLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	for i := 0; i < 2; i++ {
		if err := Append(path, Entry{Timestamp: time.Now(), SessionID: "s", Action: "install", Subject: "x", Outcome: "ok"}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestAppendIncludesDetailWhenPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := Append(path, Entry{Timestamp: time.Now(), SessionID: "s", Action: "install", Subject: "x", Outcome: "rejected", Detail: "risk_score_exceeded"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(content), "detail=risk_score_exceeded") {
		t.Fatalf("expected detail in line: %s", content)
	}
}
