package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"risorls/internal/analysis"
	"risorls/internal/diag"
	"risorls/internal/docstore"
	"risorls/internal/publisher"
	"risorls/internal/source"
)

type recorder struct {
	mu     sync.Mutex
	events []protocol.PublishDiagnosticsParams
}

func (r *recorder) notify() glsp.NotifyFunc {
	return func(method string, params any) {
		if method != protocol.ServerTextDocumentPublishDiagnostics {
			return
		}
		r.mu.Lock()
		r.events = append(r.events, params.(protocol.PublishDiagnosticsParams))
		r.mu.Unlock()
	}
}

func (r *recorder) snapshot() []protocol.PublishDiagnosticsParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.PublishDiagnosticsParams(nil), r.events...)
}

func (r *recorder) waitFor(t *testing.T, n int) []protocol.PublishDiagnosticsParams {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := r.snapshot(); len(events) >= n {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d publishes, got %d", n, len(r.snapshot()))
	return nil
}

// echoAnalyze reports one diagnostic whose message is the analyzed text
// when the text contains "bad", and blocks on gate while it contains
// "slow".
func echoAnalyze(gate chan struct{}) AnalyzeFunc {
	return func(ctx context.Context, text string) analysis.Result {
		if strings.Contains(text, "slow") && gate != nil {
			<-gate
		}
		if strings.Contains(text, "bad") {
			return analysis.Result{Diags: []diag.Diagnostic{
				diag.NewError(diag.SynParse, source.Span{
					Start: source.Location{Line: 1, Column: 1},
					End:   source.Location{Line: 1, Column: 2},
				}, text),
			}}
		}
		return analysis.Result{}
	}
}

func newTestSession(analyze AnalyzeFunc, rec *recorder) *Session {
	pub := publisher.New(10*time.Millisecond, 100, "risorls", nil)
	pub.SetNotify(rec.notify())
	store := docstore.NewStore()
	return New(context.Background(), store, pub, Options{Analyze: analyze})
}

func TestOpenPublishesDiagnostics(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(echoAnalyze(nil), rec)

	s.DidOpen("file:///a.risor", "bad v1", 1)
	events := rec.waitFor(t, 1)
	if len(events[0].Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(events[0].Diagnostics))
	}
	if events[0].Diagnostics[0].Message != "bad v1" {
		t.Fatalf("unexpected payload: %q", events[0].Diagnostics[0].Message)
	}

	snap, err := s.Store().Get("file:///a.risor")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(snap.Diags) != 1 {
		t.Fatalf("store should hold the completed analysis, got %+v", snap.Diags)
	}
}

func TestCleanDocumentPublishesEmpty(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(echoAnalyze(nil), rec)

	s.DidOpen("file:///a.risor", "x := 1", 1)
	events := rec.waitFor(t, 1)
	if len(events[0].Diagnostics) != 0 {
		t.Fatalf("expected empty diagnostics, got %d", len(events[0].Diagnostics))
	}
}

func TestMonotonicityAcrossCompletionOrder(t *testing.T) {
	rec := &recorder{}
	gate := make(chan struct{})
	s := newTestSession(echoAnalyze(gate), rec)

	// Version 1 blocks inside analysis; version 2 completes immediately.
	s.DidOpen("file:///a.risor", "bad slow v1", 1)
	s.DidChange("file:///a.risor", "bad v2", 2)

	events := rec.waitFor(t, 1)
	if events[0].Diagnostics[0].Message != "bad v2" {
		t.Fatalf("expected v2 payload, got %q", events[0].Diagnostics[0].Message)
	}

	// Let the stale analysis finish; it must be discarded.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	final := rec.snapshot()
	last := final[len(final)-1]
	if last.Diagnostics[0].Message != "bad v2" {
		t.Fatalf("stale result overwrote newer one: %q", last.Diagnostics[0].Message)
	}
	snap, _ := s.Store().Get("file:///a.risor")
	if len(snap.Diags) != 1 || snap.Diags[0].Message != "bad v2" {
		t.Fatalf("store holds stale diagnostics: %+v", snap.Diags)
	}
}

func TestIdempotentUpdates(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(echoAnalyze(nil), rec)

	s.DidOpen("file:///a.risor", "bad same", 1)
	s.DidChange("file:///a.risor", "bad same", 2)
	s.DidChange("file:///a.risor", "bad same", 3)

	events := rec.waitFor(t, 1)
	time.Sleep(50 * time.Millisecond)
	events = rec.snapshot()
	last := events[len(events)-1]
	if len(last.Diagnostics) != 1 || last.Diagnostics[0].Message != "bad same" {
		t.Fatalf("repeated identical updates changed the outcome: %+v", last.Diagnostics)
	}
}

func TestCloseBeforeAnalysisCompletes(t *testing.T) {
	rec := &recorder{}
	gate := make(chan struct{})
	s := newTestSession(echoAnalyze(gate), rec)

	s.DidOpen("file:///a.risor", "bad slow", 1)
	s.DidClose("file:///a.risor")
	close(gate)
	time.Sleep(50 * time.Millisecond)

	if events := rec.snapshot(); len(events) != 0 {
		t.Fatalf("no diagnostics should be published for a closed document, got %d", len(events))
	}
	if _, err := s.Store().Get("file:///a.risor"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after close, got %v", err)
	}
}

func TestCloseRacingAnalysisLeavesNoDiagnostics(t *testing.T) {
	rec := &recorder{}
	pub := publisher.New(time.Millisecond, 100, "risorls", nil)
	pub.SetNotify(rec.notify())
	store := docstore.NewStore()
	s := New(context.Background(), store, pub, Options{Analyze: echoAnalyze(nil)})

	// Hammer open/close so analysis completion straddles the close.
	for i := int32(1); i <= 500; i++ {
		s.DidOpen("file:///a.risor", "bad racing", i)
		s.DidClose("file:///a.risor")
	}

	time.Sleep(100 * time.Millisecond)
	events := rec.snapshot()
	if len(events) > 0 {
		last := events[len(events)-1]
		if len(last.Diagnostics) != 0 {
			t.Fatalf("closed document ended with %d stale diagnostics after %d publishes",
				len(last.Diagnostics), len(events))
		}
	}
	if _, err := s.Store().Get("file:///a.risor"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("document should be closed, got %v", err)
	}
}

func TestCloseClearsPublishedDiagnostics(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(echoAnalyze(nil), rec)

	s.DidOpen("file:///a.risor", "bad v1", 1)
	rec.waitFor(t, 1)

	s.DidClose("file:///a.risor")
	events := rec.waitFor(t, 2)
	last := events[len(events)-1]
	if len(last.Diagnostics) != 0 {
		t.Fatalf("close must clear diagnostics, got %d", len(last.Diagnostics))
	}
}

func TestShutdownClearsEverything(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(echoAnalyze(nil), rec)

	s.DidOpen("file:///a.risor", "bad a", 1)
	s.DidOpen("file:///b.risor", "bad b", 1)
	rec.waitFor(t, 2)

	s.Shutdown()
	rec.waitFor(t, 4)
	if s.Store().Len() != 0 {
		t.Fatalf("store should be empty after shutdown, got %d", s.Store().Len())
	}
}
