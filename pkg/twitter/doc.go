// Package twitter is a small OAuth 1.0a signed client for the v1.1 search
// and rate limit status endpoints.
//
// Every request goes through GetJSON, which retries transport failures and
// non-200 responses with a fixed delay and never retries a body that fails
// to decode.
//
//	httpClient := twitter.NewOAuthHTTPClient(creds, 30*time.Second)
//	client := twitter.NewClient(httpClient, twitter.Options{Logger: log})
//
//	status, err := client.RateLimitStatus(ctx)
//	result, err := client.Search(ctx, "ラーメン", twitter.MaxSearchCount)
package twitter
