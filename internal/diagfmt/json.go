package diagfmt

import (
	"encoding/json"
	"io"

	"risorls/internal/source"
)

// LocationJSON is a file position in JSON output. Lines and columns are
// 1-based; columns count runes.
type LocationJSON struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line,omitempty"`
	StartCol  int    `json:"start_col,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	EndCol    int    `json:"end_col,omitempty"`
}

// NoteJSON is a secondary message attached to a diagnostic.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON report.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(path string, span source.Span) LocationJSON {
	return LocationJSON{
		File:      path,
		StartLine: span.Start.Line,
		StartCol:  span.Start.Column,
		EndLine:   span.End.Line,
		EndCol:    span.End.Column,
	}
}

// BuildDiagnosticsOutput assembles the JSON report without serializing it.
func BuildDiagnosticsOutput(files []FileDiagnostics, opts JSONOpts) DiagnosticsOutput {
	var diagnostics []DiagnosticJSON
	for _, fd := range files {
		items := fd.Diags
		if opts.Max > 0 && opts.Max < len(items) {
			items = items[:opts.Max]
		}
		for _, d := range items {
			diagJSON := DiagnosticJSON{
				Severity: d.Severity.String(),
				Code:     d.Code.String(),
				Message:  d.Message,
				Location: makeLocation(fd.Path, d.Primary),
			}
			if opts.IncludeNotes && len(d.Notes) > 0 {
				diagJSON.Notes = make([]NoteJSON, len(d.Notes))
				for j, note := range d.Notes {
					diagJSON.Notes[j] = NoteJSON{
						Message:  note.Msg,
						Location: makeLocation(fd.Path, note.Span),
					}
				}
			}
			diagnostics = append(diagnostics, diagJSON)
		}
	}
	if diagnostics == nil {
		diagnostics = []DiagnosticJSON{}
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON writes the diagnostics report as indented JSON.
func JSON(w io.Writer, files []FileDiagnostics, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(files, opts))
}
