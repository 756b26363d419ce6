package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"risorls/internal/config"
	"risorls/internal/server"
)

var (
	lspConfigPath string
	lspLogFile    string
	lspVerbosity  int
)

func init() {
	lspCmd.Flags().StringVar(&lspConfigPath, "config", "", "path to risorls.toml")
	lspCmd.Flags().StringVar(&lspLogFile, "log-file", "", "write server logs to a file instead of stderr")
	lspCmd.Flags().CountVarP(&lspVerbosity, "verbose", "v", "increase log verbosity (repeatable)")
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Risor language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(lspConfigPath)
	if err != nil {
		return err
	}
	if lspVerbosity > 0 {
		cfg.Log.Verbosity = lspVerbosity
	}
	if lspLogFile != "" {
		cfg.Log.File = lspLogFile
	}

	// Logs must never touch stdout: that is the LSP channel.
	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	srv, err := server.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return srv.RunStdio()
}
