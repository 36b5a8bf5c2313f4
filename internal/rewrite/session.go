// Package rewrite implements the Manifest Rewriter and its Edit Session:
// the in-place, atomically-restorable manifest edits behind --no-dev-deps,
// --remove-dev-deps, and --no-private. Writes go through the same
// atomic-rename-into-place pattern (github.com/google/renameio) used
// elsewhere in this codebase, applied here to restoring a manifest's
// original bytes rather than producing a new file.
package rewrite

import (
	"os"
	"sync"

	"github.com/distr1/hackctl/internal/herrors"
	"github.com/google/renameio"
)

// entry is one edited manifest's before/after bytes.
type entry struct {
	original []byte
	current  []byte
}

// Session is the process-wide record of on-disk manifest mutations that
// must be reverted on exit. It is created lazily on first edit, shared
// between the Manifest Rewriter (which writes to it) and the Signal Guard
// (which restores it), and is safe for concurrent access even though the
// run loop itself is single-threaded: a signal can arrive on any OS
// thread at any time.
type Session struct {
	mu       sync.Mutex
	entries  map[string]*entry
	restored bool
}

// NewSession returns an empty, ready-to-use Edit Session.
func NewSession() *Session {
	return &Session{entries: map[string]*entry{}}
}

// Record registers path's edit, storing original only the first time path
// is seen (subsequent edits to the same path in one session update
// current but never touch the recorded original).
func (s *Session) Record(path string, original, current []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		e = &entry{original: original}
		s.entries[path] = e
	}
	e.current = current
}

// Paths returns the set of manifest paths with a pending edit; none once
// the session has been restored.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restored {
		return nil
	}
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	return paths
}

// Restore writes every recorded path's original bytes back, atomically
// per file via a temporary sibling and rename, and is idempotent: calling
// it twice (e.g. once from an error path, once from the Signal Guard) only
// performs the writes once. Restore does not clear entries, but Paths
// reports none afterward; callers that want a fresh session should
// discard it and call NewSession again.
func (s *Session) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restored {
		return nil
	}
	s.restored = true
	for path, e := range s.entries {
		if err := atomicWrite(path, e.original); err != nil {
			return herrors.New(herrors.IoError, err).WithOffending(path)
		}
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if err := os.Chmod(t.Name(), 0o644); err != nil {
		// best effort: the original file's mode is not otherwise tracked
	}
	if _, err := t.Write(data); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// Handle is a lock-guarded pointer to the process's single active Edit
// Session, shared between the Manifest Rewriter (which sets it on first
// edit) and the Signal Guard (which reads it to trigger restoration).
// There is exactly one Handle per process, created in cmd/hackctl's
// main and threaded through explicitly rather than kept as a package
// global, so tests can run with independent sessions.
type Handle struct {
	mu      sync.Mutex
	session *Session
}

// NewHandle returns an empty Handle.
func NewHandle() *Handle { return &Handle{} }

// Session returns the current session, creating one on first call.
func (h *Handle) Session() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		h.session = NewSession()
	}
	return h.session
}

// RestoreIfAny restores the session if one was ever created, doing
// nothing (and returning nil) if no edit has happened yet.
func (h *Handle) RestoreIfAny() error {
	h.mu.Lock()
	s := h.session
	h.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Restore()
}

// PendingPaths returns the manifest paths with a recorded edit, or nil if
// no Session has been created yet. Used to report what a pending
// restoration will touch before it happens.
func (h *Handle) PendingPaths() []string {
	h.mu.Lock()
	s := h.session
	h.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Paths()
}
