// Package analysis runs the external risor parser and compiler over
// document text and reports the outcome as diagnostics.
package analysis

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/parser"
	"github.com/risor-io/risor/token"

	"risorls/internal/diag"
	"risorls/internal/source"
)

// Result is the outcome of analyzing one document: a compiled artifact on
// success, diagnostics otherwise. Results are produced fresh per call and
// never cached beyond the caller's own bookkeeping.
type Result struct {
	Artifact *compiler.Code
	Diags    []diag.Diagnostic
}

// OK reports whether analysis finished without diagnostics.
func (r Result) OK() bool {
	return len(r.Diags) == 0
}

// Options configures an Analyzer.
type Options struct {
	// Semantic enables the compile stage after a clean parse, surfacing
	// errors like undefined names.
	Semantic bool
}

// Analyzer is a pure function of document text. It holds only the shared
// read-only Registry and is safe for concurrent use.
type Analyzer struct {
	reg      *Registry
	semantic atomic.Bool
}

func New(reg *Registry, opts Options) *Analyzer {
	a := &Analyzer{reg: reg}
	a.semantic.Store(opts.Semantic)
	return a
}

// SetSemantic toggles the compile stage at runtime. Used by the settings
// push; in-flight analyses keep the stage they started with.
func (a *Analyzer) SetSemantic(on bool) {
	a.semantic.Store(on)
}

// Analyze parses text and, when enabled, compiles it against the registry
// globals. A failed parse is an ordinary result carrying diagnostics, not
// an error. Panics inside the external analyzer are recovered and
// reported as a single internal-error diagnostic at document start.
func (a *Analyzer) Analyze(ctx context.Context, text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Diags: []diag.Diagnostic{
				diag.NewError(diag.IntFailure, source.Span{}, "internal analysis failure"),
			}}
		}
	}()

	prog, err := parser.Parse(ctx, text)
	if err != nil {
		// risor's parser stops at the first syntax error.
		return Result{Diags: []diag.Diagnostic{
			diag.NewError(diag.SynParse, spanFromError(err), err.Error()),
		}}
	}
	if !a.semantic.Load() {
		return Result{}
	}

	code, err := compiler.Compile(prog, compiler.WithGlobalNames(a.reg.Names()))
	if err != nil {
		span := spanFromError(err)
		msg := err.Error()
		if span.IsZero() {
			msg, span = splitCompileError(msg)
		}
		return Result{Diags: []diag.Diagnostic{
			diag.NewError(diag.SemCompile, span, msg),
		}}
	}
	return Result{Artifact: code}
}

// compileLocRe matches the location trailer risor's compiler appends to
// its error strings, e.g. "\nlocation: unknown:2:1 (line 2, column 1)".
var compileLocRe = regexp.MustCompile(`\n?\s*location:\s*\S+\s*\(line (\d+), column (\d+)\)\s*$`)

// splitCompileError recovers a span from a compile error message. risor
// compile errors are plain formatted strings, not positioned values, so
// the 1-based line/column pair is parsed out of the trailer and the
// trailer stripped from the message. Messages without the trailer pass
// through with a zero span.
func splitCompileError(msg string) (string, source.Span) {
	m := compileLocRe.FindStringSubmatchIndex(msg)
	if m == nil {
		return msg, source.Span{}
	}
	line, _ := strconv.Atoi(msg[m[2]:m[3]])
	col, _ := strconv.Atoi(msg[m[4]:m[5]])
	if line < 1 || col < 1 {
		return msg, source.Span{}
	}
	clean := strings.TrimSpace(msg[:m[0]])
	if clean == "" {
		clean = msg
	}
	span := source.Span{
		Start: source.Location{Line: line, Column: col},
		End:   source.Location{Line: line, Column: col + 1},
	}
	return clean, span
}

// positioned is implemented by risor errors that carry source positions.
type positioned interface {
	StartPosition() token.Position
	EndPosition() token.Position
}

// spanFromError extracts the analyzer's native range from an error, or a
// zero span when the error carries none. risor positions are 0-based
// internally with 1-based accessors; the end position points at the last
// rune of the offending token, so the exclusive end column is one past it.
func spanFromError(err error) source.Span {
	var pe positioned
	if !errors.As(err, &pe) {
		return source.Span{}
	}
	start := pe.StartPosition()
	end := pe.EndPosition()
	span := source.Span{
		Start: source.Location{Line: start.LineNumber(), Column: start.ColumnNumber()},
		End:   source.Location{Line: end.LineNumber(), Column: end.ColumnNumber() + 1},
	}
	if span.End.Line < span.Start.Line ||
		(span.End.Line == span.Start.Line && span.End.Column <= span.Start.Column) {
		span.End = source.Location{Line: span.Start.Line, Column: span.Start.Column + 1}
	}
	return span
}
