// Package docstore keeps the process-wide table of open documents.
package docstore

import (
	"errors"
	"sort"
	"sync"

	"risorls/internal/diag"
)

// ErrNotFound is returned by Get for unknown or closed URIs. Callers
// treat it as "nothing to report", not a failure.
var ErrNotFound = errors.New("docstore: document not found")

// Snapshot is an immutable copy of a document's state. Analysis runs
// against a Snapshot while newer edits land in the store.
type Snapshot struct {
	URI     string
	Text    string
	Version int32
	Diags   []diag.Diagnostic
}

type document struct {
	text        string
	version     int32
	diags       []diag.Diagnostic
	diagVersion int32
	hasDiags    bool
}

// Store maps URIs to open documents. Reads take the shared lock; writes
// to any URI serialize on the exclusive lock, whose critical sections are
// map operations only.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*document
}

func NewStore() *Store {
	return &Store{docs: make(map[string]*document)}
}

// Open registers a document. Reopening an existing URI replaces its state.
func (s *Store) Open(uri, text string, version int32) {
	s.mu.Lock()
	s.docs[uri] = &document{text: text, version: version}
	s.mu.Unlock()
}

// Update replaces a document's text and version. An update for an unknown
// URI is treated as an implicit open.
func (s *Store) Update(uri, text string, version int32) {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.docs[uri] = &document{text: text, version: version}
		s.mu.Unlock()
		return
	}
	doc.text = text
	doc.version = version
	s.mu.Unlock()
}

// Close removes a document. Returns false when the URI was not open.
func (s *Store) Close(uri string) bool {
	s.mu.Lock()
	_, ok := s.docs[uri]
	delete(s.docs, uri)
	s.mu.Unlock()
	return ok
}

// Get returns an immutable snapshot of a document, or ErrNotFound.
func (s *Store) Get(uri string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	snap := Snapshot{
		URI:     uri,
		Text:    doc.text,
		Version: doc.version,
	}
	if doc.hasDiags {
		snap.Diags = append([]diag.Diagnostic(nil), doc.diags...)
	}
	return snap, nil
}

// Version returns the current version of an open document.
func (s *Store) Version(uri string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return 0, false
	}
	return doc.version, true
}

// SetDiagnostics records the result of a completed analysis. The write is
// refused when the document is closed or when a result for a newer
// version has already been recorded, so the stored diagnostics always
// reflect the latest completed analysis by version, not by completion
// order.
func (s *Store) SetDiagnostics(uri string, version int32, diags []diag.Diagnostic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		return false
	}
	if doc.hasDiags && doc.diagVersion > version {
		return false
	}
	doc.diags = append([]diag.Diagnostic(nil), diags...)
	doc.diagVersion = version
	doc.hasDiags = true
	return true
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// URIs returns the open document URIs in sorted order.
func (s *Store) URIs() []string {
	s.mu.RLock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	s.mu.RUnlock()
	sort.Strings(uris)
	return uris
}
