package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"risorls/internal/diag"
	"risorls/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	hintColor    = color.New(color.FgGreen)
	markerColor  = color.New(color.FgRed, color.Bold)
)

// Pretty writes human-readable diagnostics. For each diagnostic it prints
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the offending source line and a ^~~~ underline for the span,
// then any notes in the same shape.
func Pretty(w io.Writer, files []FileDiagnostics, opts PrettyOpts) {
	for _, fd := range files {
		for _, d := range fd.Diags {
			printHeading(w, fd.Path, d, opts)
			printContext(w, fd.File, d.Primary, opts)
			if opts.ShowNotes {
				for _, note := range d.Notes {
					fmt.Fprintf(w, "%s: note: %s\n", headingLocation(fd.Path, note.Span.Start), note.Msg)
					printContext(w, fd.File, note.Span, opts)
				}
			}
		}
	}
}

func printHeading(w io.Writer, path string, d diag.Diagnostic, opts PrettyOpts) {
	sev := d.Severity.String()
	if opts.Color {
		sev = severityColor(d.Severity).Sprint(sev)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", headingLocation(path, d.Primary.Start), sev, d.Code, d.Message)
}

func headingLocation(path string, loc source.Location) string {
	if loc.IsZero() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, loc.Line, loc.Column)
}

// printContext prints the source line of the span start with an underline.
// Zero spans and spans outside the file print nothing.
func printContext(w io.Writer, file *source.File, span source.Span, opts PrettyOpts) {
	if file == nil || span.IsZero() {
		return
	}
	lineNo := int(span.Start.Line) // 1-based
	if lineNo < 1 || lineNo > file.LineCount() {
		return
	}
	line := file.Line(lineNo - 1)
	runes := []rune(line)

	startCol := int(span.Start.Column)
	if startCol < 1 {
		startCol = 1
	}
	if startCol > len(runes)+1 {
		startCol = len(runes) + 1
	}
	endCol := len(runes) + 1
	if span.End.Line == span.Start.Line && int(span.End.Column) < endCol {
		endCol = int(span.End.Column)
	}
	if endCol <= startCol {
		endCol = startCol + 1
	}

	// Underline width follows the display width of the underlined runes so
	// markers stay aligned under wide characters.
	pad := runewidth.StringWidth(string(runes[:startCol-1]))
	width := 1
	if startCol-1 < len(runes) {
		stop := endCol - 1
		if stop > len(runes) {
			stop = len(runes)
		}
		width = runewidth.StringWidth(string(runes[startCol-1 : stop]))
		if width < 1 {
			width = 1
		}
	}

	marker := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		marker = markerColor.Sprint(marker)
	}
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), marker)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	case diag.SevInfo:
		return infoColor
	default:
		return hintColor
	}
}
