// Package publisher debounces and sends textDocument/publishDiagnostics
// notifications, one stream per URI.
package publisher

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"risorls/internal/diag"
	"risorls/internal/position"
	"risorls/internal/source"
)

const defaultDebounce = 200 * time.Millisecond

type pending struct {
	timer   *time.Timer
	version int32
	list    []protocol.Diagnostic
}

// Publisher coalesces rapid Schedule calls per URI into a single publish
// carrying the newest payload. Publishes are monotonic in document
// version: a payload for an older version never replaces a newer one.
type Publisher struct {
	mu          sync.Mutex
	notify      glsp.NotifyFunc
	debounce    time.Duration
	maxDiags    int
	sourceLabel string
	log         commonlog.Logger

	pending     map[string]*pending
	lastVersion map[string]int32
	published   map[string]struct{}
}

func New(debounce time.Duration, maxDiagnostics int, sourceLabel string, log commonlog.Logger) *Publisher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}
	return &Publisher{
		debounce:    debounce,
		maxDiags:    maxDiagnostics,
		sourceLabel: sourceLabel,
		log:         log,
		pending:     make(map[string]*pending),
		lastVersion: make(map[string]int32),
		published:   make(map[string]struct{}),
	}
}

// SetNotify installs the transport callback. Handlers call this on every
// inbound message so the publisher always holds a live connection.
func (p *Publisher) SetNotify(fn glsp.NotifyFunc) {
	p.mu.Lock()
	p.notify = fn
	p.mu.Unlock()
}

// SetDebounce adjusts the debounce window for subsequent schedules.
func (p *Publisher) SetDebounce(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.debounce = d
	p.mu.Unlock()
}

// SetMaxDiagnostics adjusts the per-publish cap for subsequent schedules.
func (p *Publisher) SetMaxDiagnostics(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	p.maxDiags = n
	p.mu.Unlock()
}

// Schedule queues diagnostics for a URI. Calls within the debounce window
// coalesce, keeping the payload with the highest version. Every call is
// eventually represented by a publish of its own payload or a strictly
// newer one.
func (p *Publisher) Schedule(uri string, version int32, file *source.File, diags []diag.Diagnostic) {
	list := p.convert(file, diags)

	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastVersion[uri]; ok && version < last {
		p.debugf("publish skip: uri=%s version=%d published=%d", uri, version, last)
		return
	}
	if cur, ok := p.pending[uri]; ok {
		if version < cur.version {
			return
		}
		cur.timer.Stop()
	}
	entry := &pending{version: version, list: list}
	entry.timer = time.AfterFunc(p.debounce, func() {
		p.flush(uri, entry)
	})
	p.pending[uri] = entry
}

// Clear cancels pending work for a URI and, when the client has seen
// diagnostics for it, publishes an empty set so stale markers are removed.
//
// Sends happen under the mutex, here and in flush: a clear's empty set
// must never be overtaken on the wire by a concurrently flushing payload.
func (p *Publisher) Clear(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.pending[uri]; ok {
		cur.timer.Stop()
		delete(p.pending, uri)
	}
	_, hadPublished := p.published[uri]
	delete(p.published, uri)
	delete(p.lastVersion, uri)

	if hadPublished && p.notify != nil {
		p.send(p.notify, uri, nil)
	}
}

// ClearAll clears every URI the client has diagnostics for. Used on
// shutdown.
func (p *Publisher) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cur := range p.pending {
		cur.timer.Stop()
	}
	p.pending = make(map[string]*pending)
	uris := make([]string, 0, len(p.published))
	for uri := range p.published {
		uris = append(uris, uri)
	}
	p.published = make(map[string]struct{})
	p.lastVersion = make(map[string]int32)

	if p.notify == nil {
		return
	}
	for _, uri := range uris {
		p.send(p.notify, uri, nil)
	}
}

func (p *Publisher) flush(uri string, entry *pending) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.pending[uri]
	if !ok || cur != entry {
		// A newer schedule or a clear superseded this timer.
		return
	}
	delete(p.pending, uri)
	p.lastVersion[uri] = entry.version
	if len(entry.list) > 0 {
		p.published[uri] = struct{}{}
	} else {
		delete(p.published, uri)
	}

	if p.notify == nil {
		p.debugf("publish drop: uri=%s no transport", uri)
		return
	}
	p.send(p.notify, uri, entry.list)
	p.debugf("publishDiagnostics: uri=%s version=%d diags=%d", uri, entry.version, len(entry.list))
}

func (p *Publisher) send(notify glsp.NotifyFunc, uri string, list []protocol.Diagnostic) {
	if list == nil {
		list = []protocol.Diagnostic{}
	}
	notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: list,
	})
}

func (p *Publisher) convert(file *source.File, diags []diag.Diagnostic) []protocol.Diagnostic {
	p.mu.Lock()
	maxDiags := p.maxDiags
	p.mu.Unlock()

	list := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if len(list) >= maxDiags {
			break
		}
		severity := protocolSeverity(d.Severity)
		code := d.Code.String()
		src := p.sourceLabel
		list = append(list, protocol.Diagnostic{
			Range:    position.ToProtocol(file, d.Primary),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: code},
			Source:   &src,
			Message:  d.Message,
		})
	}
	return list
}

func protocolSeverity(sev diag.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diag.SevError:
		return protocol.DiagnosticSeverityError
	case diag.SevWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SevInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

func (p *Publisher) debugf(format string, args ...any) {
	if p.log != nil {
		p.log.Debugf(format, args...)
	}
}
