// Package session models the process-wide state the source relies on as
// module-level globals: a session id and an install counter. Both are
// explicit here rather than hidden package state that can't be reset between
// tests, and neither is ever shared across processes (spec §9 "Globals").
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one process run. It carries a stable id (minted once, at
// first use) and a counter of installs completed so far within the run,
// which the policy engine's auto_install.max_per_session limit reads.
type Session struct {
	mu            sync.Mutex
	id            string
	installCount  int
	agentIdentity string
}

var (
	currentMu sync.Mutex
	current   *Session
)

// Current returns the process-wide session, minting its id on first call.
func Current() *Session {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == nil {
		current = New()
	}
	return current
}

// Reset discards the process-wide session, so the next call to Current
// mints a fresh one. Tests use this to avoid cross-test leakage of the
// install counter.
func Reset() {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = nil
}

// New mints a fresh session with its own id, independent of the
// process-wide singleton. Useful for tests and for callers embedding the
// core in a long-lived process that wants one session per logical request.
func New() *Session {
	return &Session{id: uuid.New().String()}
}

// ID returns the session's UUID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SetAgentIdentity records the agent-identity hint carried into provenance
// entries. Callers populate this from config.Config.AgentIdentity, which
// config.Load resolves from CLAUDE_CODE, SKILLPORT_MCP, and SKILLPORT_AGENT.
func (s *Session) SetAgentIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentIdentity = identity
}

// AgentIdentity returns the recorded agent-identity hint, or "" if none was
// set.
func (s *Session) AgentIdentity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentIdentity
}

// InstallCount returns the number of installs completed so far this
// session.
func (s *Session) InstallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installCount
}

// RecordInstall increments the session's install counter and returns the
// new count.
func (s *Session) RecordInstall() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installCount++
	return s.installCount
}
