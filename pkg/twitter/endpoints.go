package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for the v1.1 REST API
	BaseURL = "https://api.twitter.com/1.1"

	// RateLimitEndpoint reports remaining calls per resource
	RateLimitEndpoint = "/application/rate_limit_status.json"

	// SearchEndpoint is the standard search endpoint
	SearchEndpoint = "/search/tweets.json"

	// SearchResource and RateLimitResource are the keys the rate limit
	// status uses for the two endpoints above.
	SearchResource    = "/search/tweets"
	RateLimitResource = "/application/rate_limit_status"

	// MaxSearchCount is the largest page the search endpoint returns
	MaxSearchCount = 100

	// BaseTimestamp is the snowflake epoch in milliseconds
	BaseTimestamp int64 = 1288834974657
)

// StatusIDToTimestamp returns the millisecond creation time encoded in a
// snowflake status id.
func StatusIDToTimestamp(id int64) int64 {
	return (id >> 22) + BaseTimestamp
}

// GetRateLimitURL constructs the rate limit status URL under base
func GetRateLimitURL(base string) string {
	return strings.TrimRight(base, "/") + RateLimitEndpoint
}

// GetSearchURL constructs the search URL for query under base
func GetSearchURL(base, query string, count int) string {
	if count <= 0 || count > MaxSearchCount {
		count = MaxSearchCount
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("tweet_mode", "extended")

	return strings.TrimRight(base, "/") + SearchEndpoint + "?" + params.Encode()
}
