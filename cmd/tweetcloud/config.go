package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tweetcloud/pkg/auth"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetcloud configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TWEETCLOUD_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'tweetcloud.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

Credentials are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration and check it for invalid values.

Missing credentials and an empty query are reported as warnings, since
they can still be given on the command line.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# tweetcloud configuration file
#
# Every key can also be set with an environment variable prefixed with
# TWEETCLOUD_, for example TWEETCLOUD_API_KEY or TWEETCLOUD_QUERY.
# Prefer 'tweetcloud auth login' over storing secrets here.

twitter:
  api_key: ""
  api_secret_key: ""
  access_token: ""
  access_token_secret: ""
  base_url: "https://api.twitter.com/1.1"
  timeout: 30s

collector:
  # Search keyword (required)
  query: ""

  # Number of search iterations
  num_searches: 100

  # Minimum time between the start of two iterations
  interval: 30s

  # Texts are appended to this file, one per line
  output_path: "tweet_data.txt"

  # Tweets per search (1-100)
  page_size: 100

  # Texts shorter than this many characters are dropped
  min_chars: 2

  # Start after the newest tweet of the previous run
  resume: false

rate_limit:
  # Wait when this many calls or fewer are left
  threshold: 1

  # Added to the reset time before retrying
  safety_margin: 30s

  # Status checks before giving up
  max_checks: 10

retry:
  max_attempts: 10
  delay: 30s

cloud:
  input_path: "tweet_data.txt"
  output_path: "wordcloud.png"

  # A TrueType or OpenType font with Japanese glyphs (required)
  font_path: "/System/Library/Fonts/ヒラギノ角ゴシック W2.ttc"

  width: 400
  height: 200
  max_words: 200
  background: "white"

  # Goroutines tokenizing the input (defaults to the number of CPUs)
  # workers: 4

logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log format: console, json
  format: "console"

  # Log file path (optional)
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "tweetcloud.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintInfo("To overwrite, first remove the existing file", "rm "+configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Store your credentials with 'tweetcloud auth login'")
	fmt.Fprintln(ui.Out, "2. Set collector.query and cloud.font_path")
	fmt.Fprintln(ui.Out, "3. Run 'tweetcloud config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "4. Start collecting with 'tweetcloud collect'")
	return nil
}

// maskConfig returns a copy of cfg with the Twitter secrets masked
func maskConfig(cfg *config.Config) *config.Config {
	masked := *cfg
	tc := cfg.Twitter

	sanitized := auth.SanitizeAccount(&auth.Account{
		APIKey:            tc.APIKey,
		APISecretKey:      tc.APISecretKey,
		AccessToken:       tc.AccessToken,
		AccessTokenSecret: tc.AccessTokenSecret,
	})

	mask := func(orig, s string) string {
		if orig == "" {
			return ""
		}
		return s
	}
	masked.Twitter.APIKey = mask(tc.APIKey, sanitized.APIKey)
	masked.Twitter.APISecretKey = mask(tc.APISecretKey, sanitized.APISecretKey)
	masked.Twitter.AccessToken = mask(tc.AccessToken, sanitized.AccessToken)
	masked.Twitter.AccessTokenSecret = mask(tc.AccessTokenSecret, sanitized.AccessTokenSecret)
	return &masked
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))

	fmt.Fprintln(ui.Out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Out, "1. Command line flags")
	fmt.Fprintln(ui.Out, "2. Environment variables (TWEETCLOUD_*) and .env files")
	if configFile != "" {
		fmt.Fprintf(ui.Out, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Out, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Out, "4. Default values")
	return nil
}

// configWarnings lists settings that are valid but will stop a command later
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if !hasAllSecrets(cfg.Twitter) {
		warnings = append(warnings, "Twitter credentials not fully configured (stored accounts are used by 'collect')")
	}
	if cfg.Collector.Query == "" {
		warnings = append(warnings, "collector.query is empty")
	}
	if _, err := os.Stat(cfg.Cloud.FontPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("font not found: %s", cfg.Cloud.FontPath))
	}
	return warnings
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Fprintf(ui.Out, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Query: %q\n", cfg.Collector.Query)
	fmt.Fprintf(ui.Out, "  Searches: %d every %s\n", cfg.Collector.NumSearches, cfg.Collector.Interval)
	fmt.Fprintf(ui.Out, "  Output: %s\n", cfg.Collector.OutputPath)
	fmt.Fprintf(ui.Out, "  Retries: %d every %s\n", cfg.Retry.MaxAttempts, cfg.Retry.Delay)
	fmt.Fprintf(ui.Out, "  Word cloud: %s (%dx%d)\n", cfg.Cloud.OutputPath, cfg.Cloud.Width, cfg.Cloud.Height)
	fmt.Fprintf(ui.Out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
