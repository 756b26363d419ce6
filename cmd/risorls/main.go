package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"risorls/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "risorls",
	Short: "Language server and batch checker for Risor scripts",
	Long:  `risorls analyzes Risor scripts, as a stdio LSP server or in batch over directories`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves the --color flag against the output terminal.
func colorEnabled(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on", "always":
		return true
	case "off", "never":
		return false
	default:
		return isTerminal(f)
	}
}
