package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"risorls/internal/diag"
	"risorls/internal/source"
)

func span(startLine, startCol, endLine, endCol int) source.Span {
	return source.Span{
		Start: source.Location{Line: startLine, Column: startCol},
		End:   source.Location{Line: endLine, Column: endCol},
	}
}

func oneFile(text string, diags ...diag.Diagnostic) []FileDiagnostics {
	return []FileDiagnostics{{
		Path:  "scripts/main.risor",
		File:  source.NewFile("scripts/main.risor", text),
		Diags: diags,
	}}
}

func TestPrettyHeadingAndUnderline(t *testing.T) {
	var buf bytes.Buffer
	files := oneFile("x := \ny := 2\n",
		diag.NewError(diag.SynParse, span(1, 6, 1, 7), "unexpected end of expression"))

	Pretty(&buf, files, PrettyOpts{})
	out := buf.String()

	if !strings.Contains(out, "scripts/main.risor:1:6: ERROR RLS1001: unexpected end of expression") {
		t.Fatalf("missing heading in output:\n%s", out)
	}
	if !strings.Contains(out, "  x := \n") {
		t.Fatalf("missing source line in output:\n%s", out)
	}
	if !strings.Contains(out, "  "+strings.Repeat(" ", 5)+"^") {
		t.Fatalf("caret misplaced in output:\n%s", out)
	}
}

func TestPrettyUnderlineWidth(t *testing.T) {
	var buf bytes.Buffer
	files := oneFile("undefined_name\n",
		diag.NewError(diag.SemUndefined, span(1, 1, 1, 15), "undefined variable"))

	Pretty(&buf, files, PrettyOpts{})
	if !strings.Contains(buf.String(), "^"+strings.Repeat("~", 13)) {
		t.Fatalf("expected full-identifier underline:\n%s", buf.String())
	}
}

func TestPrettyZeroSpanSkipsContext(t *testing.T) {
	var buf bytes.Buffer
	files := oneFile("x := 1\n",
		diag.NewError(diag.IntFailure, source.Span{}, "internal analysis failure"))

	Pretty(&buf, files, PrettyOpts{})
	out := buf.String()
	if !strings.Contains(out, "scripts/main.risor: ERROR RLS9001: internal analysis failure") {
		t.Fatalf("missing zero-span heading:\n%s", out)
	}
	if strings.Contains(out, "^") {
		t.Fatalf("zero span should not print an underline:\n%s", out)
	}
}

func TestPrettyNotes(t *testing.T) {
	var buf bytes.Buffer
	d := diag.NewError(diag.SemUndefined, span(1, 1, 1, 2), "undefined variable").
		WithNote(span(2, 1, 2, 2), "did you mean y?")
	files := oneFile("x\ny := 1\n", d)

	Pretty(&buf, files, PrettyOpts{ShowNotes: true})
	if !strings.Contains(buf.String(), "scripts/main.risor:2:1: note: did you mean y?") {
		t.Fatalf("missing note line:\n%s", buf.String())
	}

	buf.Reset()
	Pretty(&buf, files, PrettyOpts{})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes printed without ShowNotes:\n%s", buf.String())
	}
}
