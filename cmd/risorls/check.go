package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"risorls/internal/analysis"
	"risorls/internal/config"
	"risorls/internal/diagfmt"
	"risorls/internal/driver"
	"risorls/internal/observ"
	"risorls/internal/version"
)

var (
	checkFormat         string
	checkJobs           int
	checkTimings        bool
	checkNoCache        bool
	checkSyntaxOnly     bool
	checkMaxDiagnostics int
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "output format (pretty|json|sarif)")
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "max parallel analyses (0 = number of CPUs)")
	checkCmd.Flags().BoolVar(&checkTimings, "timings", false, "print phase timings to stderr")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "skip the on-disk result cache")
	checkCmd.Flags().BoolVar(&checkSyntaxOnly, "syntax-only", false, "skip the compile stage")
	checkCmd.Flags().IntVar(&checkMaxDiagnostics, "max-diagnostics", config.DefaultMaxDiagnostics, "maximum diagnostics per file")
}

var checkCmd = &cobra.Command{
	Use:          "check [paths...]",
	Short:        "Analyze Risor scripts and report diagnostics",
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	reg, err := analysis.NewRegistry()
	if err != nil {
		return err
	}
	analyzer := analysis.New(reg, analysis.Options{Semantic: !checkSyntaxOnly})

	var cache *analysis.Cache
	if !checkNoCache {
		// A broken cache only costs re-analysis, never a failed run.
		if c, err := analysis.OpenCache("risorls"); err == nil {
			cache = c
		}
	}

	var timer *observ.Timer
	if checkTimings {
		timer = observ.NewTimer()
	}

	res, err := driver.Check(cmd.Context(), analyzer, driver.CheckOptions{
		Paths:          paths,
		MaxDiagnostics: checkMaxDiagnostics,
		Jobs:           checkJobs,
		Cache:          cache,
		Timer:          timer,
	})
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	out := cmd.OutOrStdout()
	switch checkFormat {
	case "pretty":
		diagfmt.Pretty(out, res.Files, diagfmt.PrettyOpts{
			Color:     colorEnabled(cmd, os.Stdout),
			ShowNotes: !quiet,
		})
	case "json":
		if err := diagfmt.JSON(out, res.Files, diagfmt.JSONOpts{
			Max:          checkMaxDiagnostics,
			IncludeNotes: !quiet,
		}); err != nil {
			return err
		}
	case "sarif":
		if err := diagfmt.Sarif(out, res.Files, diagfmt.SarifRunMeta{
			ToolName:       "risorls",
			ToolVersion:    version.Number,
			InvocationArgs: os.Args,
		}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", checkFormat)
	}

	if timer != nil && !quiet {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	if res.Errors {
		os.Exit(1)
	}
	return nil
}
