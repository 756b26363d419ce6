// Package driver runs batch analysis over script files on disk for the
// check command.
package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"risorls/internal/analysis"
	"risorls/internal/diag"
	"risorls/internal/diagfmt"
	"risorls/internal/observ"
	"risorls/internal/source"
)

// ScriptExt is the file extension the check command looks for.
const ScriptExt = ".risor"

// CheckOptions configures a batch check run.
type CheckOptions struct {
	// Paths are files or directories to analyze. Directories are walked
	// recursively for *.risor files.
	Paths []string
	// MaxDiagnostics caps diagnostics kept per file; 0 means the default.
	MaxDiagnostics int
	// Jobs bounds analysis parallelism; 0 means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, is consulted by content hash before analyzing
	// and updated after.
	Cache *analysis.Cache
	// Timer, when non-nil, records the scan and analyze phases.
	Timer *observ.Timer
}

// CheckResult is the outcome of a batch run.
type CheckResult struct {
	// Files holds per-file diagnostics in deterministic path order,
	// including files with none.
	Files []diagfmt.FileDiagnostics
	// Errors reports whether any file produced an error diagnostic.
	Errors bool
}

// ListScriptFiles returns the sorted *.risor files under each path. Paths
// naming a file directly are included regardless of extension.
func ListScriptFiles(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, dup := seen[path]; !dup {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ScriptExt) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	// Deterministic order regardless of walk interleaving.
	sort.Strings(files)
	return files, nil
}

// Check analyzes every script under opts.Paths in parallel.
func Check(ctx context.Context, analyzer *analysis.Analyzer, opts CheckOptions) (CheckResult, error) {
	maxDiagnostics := opts.MaxDiagnostics
	if maxDiagnostics <= 0 {
		maxDiagnostics = 100
	}

	var stopScan func(string)
	if opts.Timer != nil {
		stopScan = opts.Timer.Phase("scan")
	}
	files, err := ListScriptFiles(opts.Paths)
	if stopScan != nil {
		stopScan(pluralFiles(len(files)))
	}
	if err != nil {
		return CheckResult{}, err
	}
	if len(files) == 0 {
		return CheckResult{}, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var stopAnalyze func(string)
	if opts.Timer != nil {
		stopAnalyze = opts.Timer.Phase("analyze")
	}

	// Each goroutine writes only its own index; no mutex needed.
	results := make([]diagfmt.FileDiagnostics, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			content, err := os.ReadFile(path)
			if err != nil {
				results[i] = diagfmt.FileDiagnostics{
					Path: path,
					Diags: []diag.Diagnostic{
						diag.NewError(diag.IntFailure, source.Span{}, "failed to read file: "+err.Error()),
					},
				}
				return nil
			}
			text := string(content)

			res, hit := cachedResult(opts.Cache, text)
			if !hit {
				res = analyzer.Analyze(gctx, text)
				if opts.Cache != nil {
					// Best effort; a failed write only costs a re-analysis.
					_ = opts.Cache.Put(analysis.ContentKey(text), res)
				}
			}

			bag := diag.NewBag(maxDiagnostics)
			for _, d := range res.Diags {
				bag.Add(d)
			}
			bag.Sort()

			results[i] = diagfmt.FileDiagnostics{
				Path:  path,
				File:  source.NewFile(path, text),
				Diags: bag.Items(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return CheckResult{}, err
	}
	if stopAnalyze != nil {
		stopAnalyze(pluralFiles(len(files)))
	}

	out := CheckResult{Files: results}
	for _, fd := range results {
		for _, d := range fd.Diags {
			if d.Severity >= diag.SevError {
				out.Errors = true
			}
		}
	}
	return out, nil
}

func cachedResult(cache *analysis.Cache, text string) (analysis.Result, bool) {
	if cache == nil {
		return analysis.Result{}, false
	}
	res, hit, err := cache.Get(analysis.ContentKey(text))
	if err != nil || !hit {
		return analysis.Result{}, false
	}
	return res, true
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return strconv.Itoa(n) + " files"
}
