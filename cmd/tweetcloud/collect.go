package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"tweetcloud/pkg/auth"
	"tweetcloud/pkg/checkpoint"
	"tweetcloud/pkg/collector"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/ratelimit"
	"tweetcloud/pkg/storage"
	"tweetcloud/pkg/twitter"
	"tweetcloud/pkg/ui"
	"tweetcloud/pkg/ui/tui"
)

var (
	// Collect command flags
	apiKey            string
	apiSecretKey      string
	accessToken       string
	accessTokenSecret string
	query             string
	numSearches       int
	interval          int
	outputFile        string
	resumeCursor      bool
	accountName       string
	useTUI            bool
	notify            bool
)

var _ ui.Reporter = (*tui.TUI)(nil)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Poll the search API and append new tweet texts to a file",
	Long: `Search Twitter for a keyword every interval and append the normalized
text of every tweet newer than the previous batch to the output file.

Credentials are resolved in this order:
  - --api-key style flags, environment variables and the config file
  - the account named with --account
  - the most recently stored account ('tweetcloud auth login')

Before each search the rate limit status is checked. When a quota is
spent the collector sleeps until the window resets.`,
	Example: `  # 100 searches, one every 30 seconds
  tweetcloud collect --query "ラーメン"

  # A short run into a custom file
  tweetcloud collect -q "猫" -n 5 --interval 10 -o cats.txt

  # Continue after the newest tweet of the previous run
  tweetcloud collect --query "猫" --resume

  # Full-screen dashboard and a desktop notification at the end
  tweetcloud collect --query "猫" --tui --notify`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&apiKey, "api-key", "", "Twitter API key")
	collectCmd.Flags().StringVar(&apiSecretKey, "api-secret-key", "", "Twitter API secret key")
	collectCmd.Flags().StringVar(&accessToken, "access-token", "", "Twitter access token")
	collectCmd.Flags().StringVar(&accessTokenSecret, "access-token-secret", "", "Twitter access token secret")
	collectCmd.Flags().StringVar(&query, "query", "", "search keyword")
	collectCmd.Flags().IntVarP(&numSearches, "num-searches", "n", 100, "number of search iterations")
	collectCmd.Flags().IntVar(&interval, "interval", 30, "minimum seconds between iterations")
	collectCmd.Flags().StringVarP(&outputFile, "output", "o", "", "file to append texts to (default tweet_data.txt)")
	collectCmd.Flags().BoolVar(&resumeCursor, "resume", false, "start after the newest tweet of the previous run")
	collectCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	collectCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
	collectCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

// collectFlags returns the flags the user actually set, keyed for config.MergeCommandLineFlags
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags().Changed

	if set("api-key") {
		flags["api-key"] = apiKey
	}
	if set("api-secret-key") {
		flags["api-secret-key"] = apiSecretKey
	}
	if set("access-token") {
		flags["access-token"] = accessToken
	}
	if set("access-token-secret") {
		flags["access-token-secret"] = accessTokenSecret
	}
	if set("query") {
		flags["query"] = query
	}
	if set("num-searches") {
		flags["num-searches"] = numSearches
	}
	if set("interval") {
		flags["interval"] = interval
	}
	if set("output") {
		flags["output"] = outputFile
	}
	if set("resume") {
		flags["resume"] = resumeCursor
	}
	return flags
}

func hasAllSecrets(tc config.TwitterConfig) bool {
	return tc.APIKey != "" && tc.APISecretKey != "" &&
		tc.AccessToken != "" && tc.AccessTokenSecret != ""
}

// resolveCredentials fills missing secrets from the credential manager.
// A named account must exist; the default account is optional.
func resolveCredentials(cfg *config.Config, manager *auth.Manager, name string, log logger.Logger) error {
	if name != "" {
		account, err := manager.Retrieve(name)
		if err != nil {
			return fmt.Errorf("account %q: %w (see 'tweetcloud auth list')", name, err)
		}
		account.ApplyTo(&cfg.Twitter)
		log.WithField("account", account.Name).Info("Using stored credentials")
		return nil
	}

	if hasAllSecrets(cfg.Twitter) {
		log.Debug("Using credentials from configuration")
		return nil
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return nil
		}
		return err
	}
	account.ApplyTo(&cfg.Twitter)
	log.WithField("account", account.Name).Info("Using stored credentials")
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, collectFlags(cmd))
	if err != nil {
		return err
	}

	var console io.Writer
	if useTUI {
		console = io.Discard
	}
	log, err := newLogger(cfg, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.WithField("version", version).Info("tweetcloud collector starting")

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := resolveCredentials(cfg, manager, accountName, log); err != nil {
		return err
	}

	if err := cfg.ValidateCollector(); err != nil {
		if !hasAllSecrets(cfg.Twitter) {
			auth.ShowQuickGuide(os.Stderr)
		}
		return err
	}

	sink, err := storage.NewManager(cfg.Collector.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	client := twitter.NewClientFromConfig(cfg, log)
	gate := ratelimit.NewQuotaGate(client, cfg.RateLimit, log)
	c := collector.New(client, gate, sink, cfg.Collector, log)

	if cfg.Collector.Resume {
		mgr, err := checkpoint.NewManager(cfg.Collector.CheckpointDir, cfg.Collector.Query, log)
		if err != nil {
			return fmt.Errorf("failed to initialize checkpoints: %w", err)
		}
		c.SetCheckpointManager(mgr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary *collector.Summary
	if useTUI {
		summary, err = runDashboard(ctx, c, gate, cfg.Collector)
	} else {
		ui.PrintInfo("Query", cfg.Collector.Query)
		ui.PrintInfo("Output", sink.GetOutputPath())
		ui.PrintHighlight("[COLLECTING]")

		tracker := ui.NewStatusTracker(nil, cfg.Collector.NumSearches)
		ui.Attach(tracker, c, gate)
		summary, err = c.Run(ctx)
		tracker.Done(err)
	}

	if notify {
		notifier := ui.NewNotifier()
		if err != nil {
			notifier.SendError("tweetcloud", fmt.Sprintf("Collection for %q stopped: %v", cfg.Collector.Query, err))
		} else {
			notifier.SendSuccess("tweetcloud", fmt.Sprintf("Collected %d texts for %q", summary.Collected, cfg.Collector.Query))
		}
	}

	ui.PrintCollectSummary(summary, sink.GetOutputPath())

	if errors.Is(err, context.Canceled) {
		log.Warn("collection interrupted")
		ui.PrintWarning("Collection interrupted", "collected texts were kept")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("collection failed")
		return err
	}
	return nil
}

// runDashboard runs the collector behind the full-screen dashboard
func runDashboard(ctx context.Context, c *collector.Collector, gate *ratelimit.QuotaGate, cfg config.CollectorConfig) (*collector.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash := tui.New(cfg.Query, cfg.NumSearches, cancel)
	ui.Attach(dash, c, gate)

	type result struct {
		summary *collector.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		dash.Log("INFO", "collecting %q, %d searches every %s", cfg.Query, cfg.NumSearches, cfg.Interval)
		summary, err := c.Run(ctx)
		dash.Done(err)
		done <- result{summary, err}
	}()

	if err := dash.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}

	// The dashboard may close first when the user quits
	r := <-done
	return r.summary, r.err
}
