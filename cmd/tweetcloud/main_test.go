package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"tweetcloud/pkg/analyzer"
	"tweetcloud/pkg/auth"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/wordcloud"
)

func clearTwitterEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{auth.EnvAPIKey, auth.EnvAPISecretKey, auth.EnvAccessToken, auth.EnvAccessTokenSecret} {
		t.Setenv(key, "")
	}
}

func TestCollectFlagsOnlyChanged(t *testing.T) {
	require.NoError(t, collectCmd.ParseFlags([]string{"--query", "猫", "-n", "3", "--resume"}))

	flags := collectFlags(collectCmd)
	assert.Equal(t, "猫", flags["query"])
	assert.Equal(t, 3, flags["num-searches"])
	assert.Equal(t, true, flags["resume"])
	assert.NotContains(t, flags, "interval")
	assert.NotContains(t, flags, "api-key")

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 3, cfg.Collector.NumSearches)
	assert.Equal(t, 30*time.Second, cfg.Collector.Interval)
}

func TestCloudFlagsMapToCloudKeys(t *testing.T) {
	require.NoError(t, cloudCmd.ParseFlags([]string{"-i", "in.txt", "-o", "out.png", "--width", "800", "--background", "black"}))

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(cloudFlags(cloudCmd))

	assert.Equal(t, "in.txt", cfg.Cloud.InputPath)
	assert.Equal(t, "out.png", cfg.Cloud.OutputPath)
	assert.Equal(t, 800, cfg.Cloud.Width)
	assert.Equal(t, 200, cfg.Cloud.Height)
	assert.Equal(t, "black", cfg.Cloud.Background)
	assert.Equal(t, "tweet_data.txt", cfg.Collector.OutputPath)
}

func TestResolveCredentials(t *testing.T) {
	clearTwitterEnv(t)

	store, err := auth.NewEncryptedFileStore(filepath.Join(t.TempDir(), "credentials.enc"), "test-passphrase")
	require.NoError(t, err)
	require.NoError(t, store.Store(&auth.Account{
		Name:              "research",
		APIKey:            "stored-key",
		APISecretKey:      "stored-secret",
		AccessToken:       "stored-token",
		AccessTokenSecret: "stored-token-secret",
		LastModified:      time.Now(),
	}))
	manager := auth.NewManagerWithStores(auth.NewEnvironmentStore(), store)
	log := logger.NewTestLogger()

	t.Run("named account", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, resolveCredentials(cfg, manager, "research", log))
		assert.Equal(t, "stored-key", cfg.Twitter.APIKey)
		assert.Equal(t, "stored-token-secret", cfg.Twitter.AccessTokenSecret)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := resolveCredentials(config.DefaultConfig(), manager, "nobody", log)
		assert.ErrorIs(t, err, auth.ErrCredentialsNotFound)
	})

	t.Run("flags win over stored account", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Twitter.APIKey = "flag-key"
		require.NoError(t, resolveCredentials(cfg, manager, "", log))
		assert.Equal(t, "flag-key", cfg.Twitter.APIKey)
		assert.Equal(t, "stored-secret", cfg.Twitter.APISecretKey)
	})

	t.Run("complete config is left alone", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Twitter = config.TwitterConfig{APIKey: "a", APISecretKey: "b", AccessToken: "c", AccessTokenSecret: "d"}
		require.NoError(t, resolveCredentials(cfg, manager, "", log))
		assert.Equal(t, "a", cfg.Twitter.APIKey)
	})

	t.Run("no stored accounts", func(t *testing.T) {
		cfg := config.DefaultConfig()
		empty := auth.NewManagerWithStores(auth.NewEnvironmentStore())
		require.NoError(t, resolveCredentials(cfg, empty, "", log))
		assert.Error(t, cfg.ValidateCollector())
	})
}

func TestMaskConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Twitter.APIKey = "abcdefghijklmnop"
	cfg.Twitter.AccessToken = "short"

	masked := maskConfig(cfg)

	assert.Equal(t, "abcd...mnop", masked.Twitter.APIKey)
	assert.Equal(t, "********", masked.Twitter.AccessToken)
	assert.Empty(t, masked.Twitter.APISecretKey)
	assert.Equal(t, "abcdefghijklmnop", cfg.Twitter.APIKey)
}

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweetcloud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0600))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())

	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Collector, cfg.Collector)
	assert.Equal(t, defaults.RateLimit, cfg.RateLimit)
	assert.Equal(t, defaults.Retry, cfg.Retry)
	assert.Equal(t, defaults.Cloud, cfg.Cloud)
}

func TestConfigWarnings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cloud.FontPath = filepath.Join(t.TempDir(), "missing.ttf")

	warnings := configWarnings(cfg)
	assert.Len(t, warnings, 3)

	cfg.Twitter = config.TwitterConfig{APIKey: "a", APISecretKey: "b", AccessToken: "c", AccessTokenSecret: "d"}
	cfg.Collector.Query = "猫"
	assert.Len(t, configWarnings(cfg), 1)
}

func TestAccountsTableMasksSecrets(t *testing.T) {
	out := accountsTable([]*auth.Account{{
		Name:         "research",
		APIKey:       "abcdefghijklmnop",
		AccessToken:  "1234567890-token",
		LastModified: time.Now().Add(-2 * time.Hour),
	}})

	assert.Contains(t, out, "research")
	assert.Contains(t, out, "abcd...mnop")
	assert.NotContains(t, out, "abcdefghijklmnop")
	assert.Contains(t, out, "2 hours ago")
}

// spaceTokenizer treats every space separated field as a noun
type spaceTokenizer struct{}

func (spaceTokenizer) Tokenize(text string) []analyzer.Token {
	var tokens []analyzer.Token
	for _, f := range strings.Fields(text) {
		tokens = append(tokens, analyzer.Token{Surface: f, BaseForm: f, POS: "名詞"})
	}
	return tokens
}

func cloudConfig(t *testing.T, lines string) config.CloudConfig {
	t.Helper()
	dir := t.TempDir()

	fontPath := filepath.Join(dir, "goregular.ttf")
	require.NoError(t, os.WriteFile(fontPath, goregular.TTF, 0644))

	input := filepath.Join(dir, "tweet_data.txt")
	require.NoError(t, os.WriteFile(input, []byte(lines), 0644))

	cc := config.DefaultConfig().Cloud
	cc.InputPath = input
	cc.OutputPath = filepath.Join(dir, "cloud.png")
	cc.FontPath = fontPath
	return cc
}

func TestRenderCloud(t *testing.T) {
	cc := cloudConfig(t, "gopher golang gopher\ngopher cloud\n")

	res, err := renderCloud(cc, spaceTokenizer{}, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Words)
	require.Len(t, res.Counts, 3)
	assert.Equal(t, wordcloud.WordCount{Word: "gopher", Count: 3}, res.Counts[0])
	assert.Positive(t, res.Placed)

	info, err := os.Stat(cc.OutputPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderCloudNoWords(t *testing.T) {
	cc := cloudConfig(t, "")

	_, err := renderCloud(cc, spaceTokenizer{}, nil)
	assert.ErrorIs(t, err, ErrNoWords)

	_, statErr := os.Stat(cc.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderCloudMissingFont(t *testing.T) {
	cc := cloudConfig(t, "gopher golang\n")
	cc.FontPath = filepath.Join(t.TempDir(), "missing.ttc")

	_, err := renderCloud(cc, spaceTokenizer{}, nil)
	assert.ErrorIs(t, err, wordcloud.ErrFontNotFound)
}
