package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for tweetcloud
type Config struct {
	// Twitter API credentials and endpoints
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Collector loop settings
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// Quota gate settings
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// HTTP retry settings
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Word cloud settings
	Cloud CloudConfig `yaml:"cloud" json:"cloud"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the four OAuth 1.0a secrets and the API location
type TwitterConfig struct {
	APIKey            string        `yaml:"api_key" json:"api_key"`
	APISecretKey      string        `yaml:"api_secret_key" json:"api_secret_key"`
	AccessToken       string        `yaml:"access_token" json:"access_token"`
	AccessTokenSecret string        `yaml:"access_token_secret" json:"access_token_secret"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
}

// CollectorConfig holds the polling loop configuration
type CollectorConfig struct {
	Query       string        `yaml:"query" json:"query"`
	NumSearches int           `yaml:"num_searches" json:"num_searches"`
	Interval    time.Duration `yaml:"interval" json:"interval"`
	OutputPath  string        `yaml:"output_path" json:"output_path"`
	PageSize    int           `yaml:"page_size" json:"page_size"`
	MinChars    int           `yaml:"min_chars" json:"min_chars"`
	Resume      bool          `yaml:"resume" json:"resume"`
	// CheckpointDir overrides the platform data directory for cursor checkpoints
	CheckpointDir string `yaml:"checkpoint_dir" json:"checkpoint_dir"`
}

// RateLimitConfig holds quota gate configuration
type RateLimitConfig struct {
	Threshold    int           `yaml:"threshold" json:"threshold"`
	SafetyMargin time.Duration `yaml:"safety_margin" json:"safety_margin"`
	MaxChecks    int           `yaml:"max_checks" json:"max_checks"`
}

// RetryConfig holds HTTP retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	Delay       time.Duration `yaml:"delay" json:"delay"`
}

// CloudConfig holds word cloud rendering configuration
type CloudConfig struct {
	InputPath  string   `yaml:"input_path" json:"input_path"`
	OutputPath string   `yaml:"output_path" json:"output_path"`
	FontPath   string   `yaml:"font_path" json:"font_path"`
	Width      int      `yaml:"width" json:"width"`
	Height     int      `yaml:"height" json:"height"`
	MaxWords   int      `yaml:"max_words" json:"max_words"`
	Background string   `yaml:"background" json:"background"`
	Stopwords  []string `yaml:"stopwords" json:"stopwords"`

	// Workers is the number of goroutines tokenizing the input
	Workers int `yaml:"workers" json:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultStopwords are dropped from the word cloud
var DefaultStopwords = []string{
	"ある", "いい", "いる", "思う", "くる", "くれる", "こと", "これ",
	"さん", "する", "せる", "そう", "てる", "ない", "なる", "の",
	"みたい", "やる", "よい", "よう", "られる", "れる", "ん",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL: "https://api.twitter.com/1.1",
			Timeout: 30 * time.Second,
		},
		Collector: CollectorConfig{
			NumSearches: 100,
			Interval:    30 * time.Second,
			OutputPath:  "tweet_data.txt",
			PageSize:    100,
			MinChars:    2,
		},
		RateLimit: RateLimitConfig{
			Threshold:    1,
			SafetyMargin: 30 * time.Second,
			MaxChecks:    10,
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			Delay:       30 * time.Second,
		},
		Cloud: CloudConfig{
			InputPath:  "tweet_data.txt",
			OutputPath: "wordcloud.png",
			FontPath:   "/System/Library/Fonts/ヒラギノ角ゴシック W2.ttc",
			Width:      400,
			Height:     200,
			MaxWords:   200,
			Background: "white",
			Stopwords:  append([]string(nil), DefaultStopwords...),
			Workers:    runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Credentials
	if v := os.Getenv("TWEETCLOUD_API_KEY"); v != "" {
		c.Twitter.APIKey = v
	}
	if v := os.Getenv("TWEETCLOUD_API_SECRET_KEY"); v != "" {
		c.Twitter.APISecretKey = v
	}
	if v := os.Getenv("TWEETCLOUD_ACCESS_TOKEN"); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := os.Getenv("TWEETCLOUD_ACCESS_TOKEN_SECRET"); v != "" {
		c.Twitter.AccessTokenSecret = v
	}
	if v := os.Getenv("TWEETCLOUD_BASE_URL"); v != "" {
		c.Twitter.BaseURL = v
	}

	// Collector
	if v := os.Getenv("TWEETCLOUD_QUERY"); v != "" {
		c.Collector.Query = v
	}
	if v := os.Getenv("TWEETCLOUD_NUM_SEARCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TWEETCLOUD_NUM_SEARCHES %q: %w", v, err)
		}
		c.Collector.NumSearches = n
	}
	if v := os.Getenv("TWEETCLOUD_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TWEETCLOUD_INTERVAL %q: %w", v, err)
		}
		c.Collector.Interval = time.Duration(n) * time.Second
	}
	if v := os.Getenv("TWEETCLOUD_OUTPUT"); v != "" {
		c.Collector.OutputPath = v
	}

	// Cloud
	if v := os.Getenv("TWEETCLOUD_FONT_PATH"); v != "" {
		c.Cloud.FontPath = v
	}

	// Logging level
	if v := os.Getenv("TWEETCLOUD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"tweetcloud.yaml",
		".tweetcloud.yaml",
		".tweetcloud.yml",
		filepath.Join(home, ".config", "tweetcloud", "config.yaml"),
		filepath.Join(home, ".tweetcloud.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the settings shared by every command
func (c *Config) Validate() error {
	var errs []error

	if c.Collector.NumSearches < 0 {
		errs = append(errs, errors.New("num searches cannot be negative"))
	}
	if c.Collector.Interval < 0 {
		errs = append(errs, errors.New("interval cannot be negative"))
	}
	if c.Collector.OutputPath == "" {
		errs = append(errs, errors.New("collector output path is required"))
	}
	if c.Collector.PageSize <= 0 || c.Collector.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}
	if c.RateLimit.MaxChecks <= 0 {
		errs = append(errs, errors.New("rate limit max checks must be positive"))
	}
	if c.RateLimit.Threshold < 0 {
		errs = append(errs, errors.New("rate limit threshold cannot be negative"))
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Cloud.Width <= 0 || c.Cloud.Height <= 0 {
		errs = append(errs, errors.New("cloud width and height must be positive"))
	}
	if c.Cloud.MaxWords <= 0 {
		errs = append(errs, errors.New("cloud max words must be positive"))
	}
	if c.Cloud.Workers < 0 {
		errs = append(errs, errors.New("cloud workers cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// ValidateCollector checks the settings only the collector needs
func (c *Config) ValidateCollector() error {
	var errs []error

	if c.Twitter.APIKey == "" {
		errs = append(errs, errors.New("API key is required"))
	}
	if c.Twitter.APISecretKey == "" {
		errs = append(errs, errors.New("API secret key is required"))
	}
	if c.Twitter.AccessToken == "" {
		errs = append(errs, errors.New("access token is required"))
	}
	if c.Twitter.AccessTokenSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if strings.TrimSpace(c.Collector.Query) == "" {
		errs = append(errs, errors.New("query is required"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.Twitter.APIKey = v
	}
	if v, ok := flags["api-secret-key"].(string); ok && v != "" {
		c.Twitter.APISecretKey = v
	}
	if v, ok := flags["access-token"].(string); ok && v != "" {
		c.Twitter.AccessToken = v
	}
	if v, ok := flags["access-token-secret"].(string); ok && v != "" {
		c.Twitter.AccessTokenSecret = v
	}
	if v, ok := flags["query"].(string); ok && v != "" {
		c.Collector.Query = v
	}
	if v, ok := flags["num-searches"].(int); ok {
		c.Collector.NumSearches = v
	}
	if v, ok := flags["interval"].(int); ok {
		c.Collector.Interval = time.Duration(v) * time.Second
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Collector.OutputPath = v
	}
	if v, ok := flags["resume"].(bool); ok {
		c.Collector.Resume = v
	}
	if v, ok := flags["cloud-input"].(string); ok && v != "" {
		c.Cloud.InputPath = v
	}
	if v, ok := flags["cloud-output"].(string); ok && v != "" {
		c.Cloud.OutputPath = v
	}
	if v, ok := flags["font"].(string); ok && v != "" {
		c.Cloud.FontPath = v
	}
	if v, ok := flags["width"].(int); ok && v > 0 {
		c.Cloud.Width = v
	}
	if v, ok := flags["height"].(int); ok && v > 0 {
		c.Cloud.Height = v
	}
	if v, ok := flags["max-words"].(int); ok && v > 0 {
		c.Cloud.MaxWords = v
	}
	if v, ok := flags["background"].(string); ok && v != "" {
		c.Cloud.Background = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Cloud.Workers = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetcloud.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
