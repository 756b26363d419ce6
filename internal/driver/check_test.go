package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"risorls/internal/analysis"
	"risorls/internal/diag"
	"risorls/internal/observ"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func newAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	reg, err := analysis.NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return analysis.New(reg, analysis.Options{Semantic: true})
}

func TestListScriptFiles(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "b.risor", "x := 1\n")
	writeScript(t, dir, "a.risor", "x := 1\n")
	writeScript(t, dir, "sub/c.risor", "x := 1\n")
	writeScript(t, dir, "ignored.txt", "not a script\n")

	files, err := ListScriptFiles([]string{dir})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 scripts, got %v", files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Fatalf("files not sorted: %v", files)
		}
	}
}

func TestListScriptFilesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "script.txt", "x := 1\n")

	files, err := ListScriptFiles([]string{path})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Fatalf("explicit file should be included verbatim, got %v", files)
	}
}

func TestListScriptFilesMissingPath(t *testing.T) {
	if _, err := ListScriptFiles([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestCheckReportsPerFile(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "good.risor", "x := 1\nprint(x)\n")
	writeScript(t, dir, "bad.risor", "x := \n")

	res, err := Check(context.Background(), newAnalyzer(t), CheckOptions{Paths: []string{dir}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(res.Files))
	}
	if !res.Errors {
		t.Fatal("bad.risor should flip the error flag")
	}

	// Sorted by path: bad.risor first.
	if len(res.Files[0].Diags) == 0 {
		t.Fatalf("bad.risor should carry diagnostics: %+v", res.Files[0])
	}
	if res.Files[0].Diags[0].Code != diag.SynParse {
		t.Fatalf("expected a parse diagnostic, got %v", res.Files[0].Diags[0].Code)
	}
	if len(res.Files[1].Diags) != 0 {
		t.Fatalf("good.risor should be clean: %+v", res.Files[1])
	}
}

func TestCheckEmptyDirectory(t *testing.T) {
	res, err := Check(context.Background(), newAnalyzer(t), CheckOptions{Paths: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Files) != 0 || res.Errors {
		t.Fatalf("empty dir should produce an empty result: %+v", res)
	}
}

func TestCheckUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.risor", "x := \n")

	cache, err := analysis.OpenCacheDir(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	analyzer := newAnalyzer(t)

	first, err := Check(context.Background(), analyzer, CheckOptions{Paths: []string{dir}, Cache: cache})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	second, err := Check(context.Background(), analyzer, CheckOptions{Paths: []string{dir}, Cache: cache})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(first.Files[0].Diags) != len(second.Files[0].Diags) {
		t.Fatalf("cached run diverged: %d vs %d diagnostics",
			len(first.Files[0].Diags), len(second.Files[0].Diags))
	}
	if second.Files[0].Diags[0].Message != first.Files[0].Diags[0].Message {
		t.Fatalf("cached diagnostic differs: %q vs %q",
			second.Files[0].Diags[0].Message, first.Files[0].Diags[0].Message)
	}
}

func TestCheckRecordsTimings(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "good.risor", "x := 1\n")

	timer := observ.NewTimer()
	if _, err := Check(context.Background(), newAnalyzer(t), CheckOptions{Paths: []string{dir}, Timer: timer}); err != nil {
		t.Fatalf("check: %v", err)
	}
	phases := timer.Phases()
	if len(phases) != 2 {
		t.Fatalf("expected scan and analyze phases, got %+v", phases)
	}
	if phases[0].Name != "scan" || phases[1].Name != "analyze" {
		t.Fatalf("unexpected phase names: %+v", phases)
	}
	if phases[0].Note != "1 file" {
		t.Fatalf("unexpected scan note: %q", phases[0].Note)
	}
}

func TestCheckJobsLimit(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.risor", "b.risor", "c.risor", "d.risor"} {
		writeScript(t, dir, name, "x := 1\n")
	}
	res, err := Check(context.Background(), newAnalyzer(t), CheckOptions{Paths: []string{dir}, Jobs: 1})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(res.Files) != 4 || res.Errors {
		t.Fatalf("unexpected result: %+v", res)
	}
}
