// Package diagfmt renders analysis diagnostics for the check command in
// pretty, JSON and SARIF form.
package diagfmt

import (
	"risorls/internal/diag"
	"risorls/internal/source"
)

// FileDiagnostics pairs one analyzed file with its diagnostics. Diags are
// expected to be sorted (diag.Bag.Sort order).
type FileDiagnostics struct {
	Path  string
	File  *source.File
	Diags []diag.Diagnostic
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	// Max truncates the per-file diagnostic list; 0 means no limit.
	Max          int
	IncludeNotes bool
}

// SarifRunMeta provides tool metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
