package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"tweetcloud/pkg/config"
	errs "tweetcloud/pkg/errors"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/retry"
)

// Client represents a Twitter API client
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      logger.Logger
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      logger.Logger
	// Sleep replaces the wait between retries, mainly for tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewOAuthHTTPClient returns an http.Client that signs every request with
// the four OAuth 1.0a secrets in cfg.
func NewOAuthHTTPClient(cfg config.TwitterConfig) *http.Client {
	oauthConfig := oauth1.NewConfig(cfg.APIKey, cfg.APISecretKey)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = cfg.Timeout
	return httpClient
}

// NewClient creates a new Twitter API client around httpClient
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 10
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     opts.BaseURL,
		logger:      opts.Logger,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		sleep:       opts.Sleep,
	}
}

// NewClientFromConfig builds a signed client from the loaded configuration
func NewClientFromConfig(cfg *config.Config, log logger.Logger) *Client {
	return NewClient(NewOAuthHTTPClient(cfg.Twitter), Options{
		BaseURL:     cfg.Twitter.BaseURL,
		MaxAttempts: cfg.Retry.MaxAttempts,
		RetryDelay:  cfg.Retry.Delay,
		Logger:      log,
	})
}

// doRequest performs a single GET request
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.Path,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WithError(err).ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.Path,
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, "network error", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSONOnce performs one GET and decodes the JSON body into target
func (c *Client) getJSONOnce(ctx context.Context, url string, target interface{}) error {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, "failed to read response body", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.WithError(err).ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.Path,
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return nil
}

// GetJSON performs a GET request and decodes the JSON response. Transport
// failures and non-200 responses are retried; decode failures are not.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return c.getJSONOnce(ctx, url, target)
	}, &retry.Config{
		MaxAttempts: c.maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: c.retryDelay},
		RetryIf:     retryable,
		Sleep:       c.sleep,
		Logger:      c.logger.WithField("url", url),
	})
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errs.TypeOf(err) != errs.ErrorTypeParsing
}

// checkResponseStatus maps a non-200 response to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	c.logger.WarnWithFields("unexpected status code", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.Path,
	})
	return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("status code %d", resp.StatusCode))
}

// RateLimitStatus fetches the current quota of every resource family
func (c *Client) RateLimitStatus(ctx context.Context) (*RateLimitStatus, error) {
	var status RateLimitStatus
	if err := c.GetJSON(ctx, GetRateLimitURL(c.baseURL), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Search fetches one page of recent statuses matching query
func (c *Client) Search(ctx context.Context, query string, count int) (*SearchResponse, error) {
	c.logger.DebugWithFields("searching statuses", map[string]interface{}{
		"query": query,
		"count": count,
	})

	var response SearchResponse
	if err := c.GetJSON(ctx, GetSearchURL(c.baseURL, query, count), &response); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("search completed", map[string]interface{}{
		"query":    query,
		"statuses": len(response.Statuses),
	})

	return &response, nil
}
