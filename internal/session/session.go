// Package session orchestrates document lifecycle events: it owns the
// store, drives the analyzer and feeds the publisher, keeping at most one
// active analysis result per URI.
package session

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"

	"risorls/internal/analysis"
	"risorls/internal/docstore"
	"risorls/internal/publisher"
	"risorls/internal/source"
)

// AnalyzeFunc runs analysis for one document snapshot.
type AnalyzeFunc func(ctx context.Context, text string) analysis.Result

// Options configures a Session.
type Options struct {
	Analyze AnalyzeFunc
	Log     commonlog.Logger
}

type task struct {
	cancel  context.CancelFunc
	version int32
}

// Session coordinates open/change/close events. Every analysis runs on
// its own goroutine, tagged with the version it was computed from; a
// result is discarded unless its version still matches the store and is
// not older than the last applied version for that URI.
type Session struct {
	store   *docstore.Store
	pub     *publisher.Publisher
	analyze AnalyzeFunc
	log     commonlog.Logger

	mu       sync.Mutex
	baseCtx  context.Context
	inflight map[string]*task
	applied  map[string]int32
}

func New(ctx context.Context, store *docstore.Store, pub *publisher.Publisher, opts Options) *Session {
	return &Session{
		store:    store,
		pub:      pub,
		analyze:  opts.Analyze,
		log:      opts.Log,
		baseCtx:  ctx,
		inflight: make(map[string]*task),
		applied:  make(map[string]int32),
	}
}

// Store exposes the document table for protocol handlers that need the
// current text when applying ranged edits.
func (s *Session) Store() *docstore.Store {
	return s.store
}

// DidOpen stores the document and triggers analysis.
func (s *Session) DidOpen(uri, text string, version int32) {
	s.store.Open(uri, text, version)
	s.trigger(uri, text, version)
}

// DidChange updates the document (implicitly opening unknown URIs) and
// triggers analysis, superseding any in-flight run for an older version.
func (s *Session) DidChange(uri, text string, version int32) {
	s.store.Update(uri, text, version)
	s.trigger(uri, text, version)
}

// DidClose removes the document, cancels in-flight analysis and clears
// client-side diagnostics. The close and the clear happen under the
// session lock so a completing analysis can never slip a schedule in
// between and resurrect diagnostics for a closed document.
func (s *Session) DidClose(uri string) {
	s.mu.Lock()
	s.store.Close(uri)
	if t, ok := s.inflight[uri]; ok {
		t.cancel()
		delete(s.inflight, uri)
	}
	delete(s.applied, uri)
	s.pub.Clear(uri)
	s.mu.Unlock()
}

// Shutdown closes every open document and clears all published
// diagnostics.
func (s *Session) Shutdown() {
	s.mu.Lock()
	for _, uri := range s.store.URIs() {
		s.store.Close(uri)
	}
	for _, t := range s.inflight {
		t.cancel()
	}
	s.inflight = make(map[string]*task)
	s.applied = make(map[string]int32)
	s.pub.ClearAll()
	s.mu.Unlock()
}

func (s *Session) trigger(uri, text string, version int32) {
	s.mu.Lock()
	if prev, ok := s.inflight[uri]; ok && prev.version <= version {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	t := &task{cancel: cancel, version: version}
	s.inflight[uri] = t
	s.mu.Unlock()

	s.debugf("analysis start: uri=%s version=%d", uri, version)
	go s.run(ctx, t, uri, text, version)
}

func (s *Session) run(ctx context.Context, t *task, uri, text string, version int32) {
	defer t.cancel()
	res := s.analyze(ctx, text)

	if ctx.Err() != nil {
		s.debugf("analysis discard: uri=%s version=%d reason=canceled", uri, version)
		return
	}

	s.mu.Lock()
	if cur, ok := s.inflight[uri]; ok && cur == t {
		delete(s.inflight, uri)
	}
	storeVersion, open := s.store.Version(uri)
	if !open {
		s.mu.Unlock()
		s.debugf("analysis discard: uri=%s version=%d reason=closed", uri, version)
		return
	}
	if storeVersion != version {
		s.mu.Unlock()
		s.debugf("analysis discard: uri=%s version=%d current=%d", uri, version, storeVersion)
		return
	}
	if last, ok := s.applied[uri]; ok && last > version {
		s.mu.Unlock()
		s.debugf("analysis discard: uri=%s version=%d applied=%d", uri, version, last)
		return
	}
	s.applied[uri] = version
	// Apply while still holding the lock: a DidClose must observe either
	// no schedule at all or a schedule it can still clear.
	s.store.SetDiagnostics(uri, version, res.Diags)
	s.pub.Schedule(uri, version, source.NewFile(uri, text), res.Diags)
	s.mu.Unlock()
	s.debugf("analysis done: uri=%s version=%d diags=%d", uri, version, len(res.Diags))
}

func (s *Session) debugf(format string, args ...any) {
	if s.log != nil {
		s.log.Debugf(format, args...)
	}
}
