package server

import (
	"encoding/json"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"risorls/internal/version"
)

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	openClose := true
	change := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version.Number,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.log.Infof("server initialized")
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.session.Shutdown()
	return nil
}

func (s *Server) exit(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.pub.SetNotify(ctx.Notify)
	s.session.DidOpen(string(params.TextDocument.URI), params.TextDocument.Text, params.TextDocument.Version)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.pub.SetNotify(ctx.Notify)
	uri := string(params.TextDocument.URI)

	base := ""
	if snap, err := s.session.Store().Get(uri); err == nil {
		base = snap.Text
	}
	text, ok := applyContentChanges(base, params.ContentChanges)
	if !ok {
		return nil
	}
	s.session.DidChange(uri, text, params.TextDocument.Version)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.pub.SetNotify(ctx.Notify)
	s.session.DidClose(string(params.TextDocument.URI))
	return nil
}

// settingsPayload is the shape clients push under the "risorls" section.
type settingsPayload struct {
	Risorls struct {
		DebounceMS     *int    `json:"debounceMs"`
		MaxDiagnostics *int    `json:"maxDiagnostics"`
		Semantic       *bool   `json:"semantic"`
		Trace          *string `json:"trace"`
	} `json:"risorls"`
}

func (s *Server) didChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	raw, err := json.Marshal(params.Settings)
	if err != nil {
		s.log.Errorf("settings: %v", err)
		return nil
	}
	var settings settingsPayload
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.log.Errorf("settings: %v", err)
		return nil
	}
	cfg := settings.Risorls
	if cfg.DebounceMS != nil && *cfg.DebounceMS > 0 {
		s.pub.SetDebounce(time.Duration(*cfg.DebounceMS) * time.Millisecond)
		s.log.Infof("settings: debounce set to %dms", *cfg.DebounceMS)
	}
	if cfg.MaxDiagnostics != nil && *cfg.MaxDiagnostics > 0 {
		s.pub.SetMaxDiagnostics(*cfg.MaxDiagnostics)
		s.log.Infof("settings: max diagnostics set to %d", *cfg.MaxDiagnostics)
	}
	if cfg.Semantic != nil {
		s.analyzer.SetSemantic(*cfg.Semantic)
		s.log.Infof("settings: semantic stage enabled=%v", *cfg.Semantic)
	}
	if cfg.Trace != nil {
		switch v := protocol.TraceValue(*cfg.Trace); v {
		case protocol.TraceValueOff, protocol.TraceValueMessage, protocol.TraceValueVerbose:
			protocol.SetTraceValue(v)
		default:
			s.log.Errorf("settings: unknown trace value %q", *cfg.Trace)
		}
	}
	return nil
}
