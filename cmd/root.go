package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/newsiq/newsiq/cmd.Version=...".
var Version = "dev"

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
}

var rootCmd = &cobra.Command{
	Use:   "newsiq",
	Short: "Ask questions about the news and get cited, streamed answers",
	Long: `newsiq talks to a NewsIQ backend: ask a question and the answer streams in
with numbered references to the articles it was drawn from.

Examples:
  newsiq chat                                 # interactive session
  newsiq ask "what happened in tech today?"
  newsiq ask -c sports "who won last night?"
  newsiq history search "inflation"
  newsiq news list -c business

  newsiq config show                          # view configuration`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
}

var debugLog bool
var noColor bool

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
