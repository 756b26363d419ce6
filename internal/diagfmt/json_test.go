package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"risorls/internal/diag"
)

func TestBuildDiagnosticsOutput(t *testing.T) {
	files := oneFile("x := \n",
		diag.NewError(diag.SynParse, span(1, 6, 1, 7), "unexpected end of expression"))

	out := BuildDiagnosticsOutput(files, JSONOpts{})
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected output: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "RLS1001" {
		t.Fatalf("unexpected severity/code: %+v", d)
	}
	if d.Location.File != "scripts/main.risor" || d.Location.StartLine != 1 || d.Location.StartCol != 6 {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
}

func TestBuildDiagnosticsOutputMax(t *testing.T) {
	files := oneFile("x\ny\n",
		diag.NewError(diag.SemUndefined, span(1, 1, 1, 2), "undefined variable"),
		diag.NewError(diag.SemUndefined, span(2, 1, 2, 2), "undefined variable"))

	out := BuildDiagnosticsOutput(files, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("expected truncation to 1, got %d", out.Count)
	}
}

func TestBuildDiagnosticsOutputNotes(t *testing.T) {
	d := diag.NewError(diag.SemUndefined, span(1, 1, 1, 2), "undefined variable").
		WithNote(span(2, 1, 2, 2), "did you mean y?")
	files := oneFile("x\ny := 1\n", d)

	out := BuildDiagnosticsOutput(files, JSONOpts{IncludeNotes: true})
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Fatalf("expected one note, got %+v", out.Diagnostics[0])
	}

	out = BuildDiagnosticsOutput(files, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 0 {
		t.Fatalf("notes included without IncludeNotes: %+v", out.Diagnostics[0])
	}
}

func TestJSONEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, nil, JSONOpts{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"diagnostics": []`) {
		t.Fatalf("empty report should serialize an empty array:\n%s", buf.String())
	}
}

func TestSarifReport(t *testing.T) {
	var buf bytes.Buffer
	files := oneFile("x := \n",
		diag.NewError(diag.SynParse, span(1, 6, 1, 7), "unexpected end of expression"))

	err := Sarif(&buf, files, SarifRunMeta{
		ToolName:       "risorls",
		ToolVersion:    "0.1.0",
		InvocationArgs: []string{"risorls", "check", "scripts"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var log map[string]any
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if log["version"] != "2.1.0" {
		t.Fatalf("unexpected SARIF version: %v", log["version"])
	}
	out := buf.String()
	for _, want := range []string{`"ruleId": "RLS1001"`, `"level": "error"`, `"startLine": 1`, `"commandLine": "risorls check scripts"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}
