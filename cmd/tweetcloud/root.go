package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tweetcloud",
	Short: "Collect tweets for a keyword and turn them into a word cloud",
	Long: `tweetcloud polls the Twitter search API for a keyword, appends every new
tweet text to a local file and renders a Japanese word cloud from that file.

Features:
  - OAuth 1.0a credentials from the system keychain, an encrypted file or env vars
  - Rate limit aware polling that sleeps until the quota window resets
  - Automatic retry of failed HTTP requests
  - Resumable collection cursor
  - Morphological analysis with kagome and PNG word cloud rendering`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuiet(quiet)

		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./tweetcloud.yaml or $HOME/.tweetcloud.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`tweetcloud {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration, adding the global log level when it was set
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the run logger. console is nil for the default stderr output.
func newLogger(cfg *config.Config, console io.Writer) (logger.Logger, error) {
	if console == nil {
		return logger.New(&cfg.Logging)
	}
	return logger.NewWithWriter(&cfg.Logging, console)
}
