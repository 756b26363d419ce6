// Package server binds the analysis session to the LSP transport
// provided by glsp.
package server

import (
	"context"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"risorls/internal/analysis"
	"risorls/internal/config"
	"risorls/internal/docstore"
	"risorls/internal/publisher"
	"risorls/internal/session"
)

// Name identifies the language server to clients and in diagnostics.
const Name = "risorls"

// Server owns the protocol handler table and the session behind it.
type Server struct {
	handler  protocol.Handler
	session  *session.Session
	pub      *publisher.Publisher
	analyzer *analysis.Analyzer
	log      commonlog.Logger
}

// New builds the server. Registry construction is the only fatal startup
// failure; everything after it surfaces as diagnostics or log entries.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	reg, err := analysis.NewRegistry()
	if err != nil {
		return nil, err
	}
	analyzer := analysis.New(reg, analysis.Options{Semantic: cfg.SemanticEnabled()})

	log := commonlog.GetLogger(Name)
	pub := publisher.New(cfg.Debounce(), cfg.Server.MaxDiagnostics, Name, log)
	store := docstore.NewStore()
	sess := session.New(ctx, store, pub, session.Options{
		Analyze: analyzer.Analyze,
		Log:     log,
	})

	s := &Server{
		session:  sess,
		pub:      pub,
		analyzer: analyzer,
		log:      log,
	}
	s.handler = protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		Exit:                            s.exit,
		SetTrace:                        s.setTrace,
		TextDocumentDidOpen:             s.didOpen,
		TextDocumentDidChange:           s.didChange,
		TextDocumentDidClose:            s.didClose,
		WorkspaceDidChangeConfiguration: s.didChangeConfiguration,
	}
	return s, nil
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	srv := glspserver.NewServer(&s.handler, Name, false)
	return srv.RunStdio()
}

// Session exposes the session for tests and the CLI.
func (s *Server) Session() *session.Session {
	return s.session
}

// Store exposes the document table.
func (s *Server) Store() *docstore.Store {
	return s.session.Store()
}
