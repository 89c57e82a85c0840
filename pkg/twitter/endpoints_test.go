package twitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusIDToTimestamp(t *testing.T) {
	assert.Equal(t, BaseTimestamp, StatusIDToTimestamp(0))
	assert.Equal(t, BaseTimestamp+1, StatusIDToTimestamp(1<<22))
	// 2018-10-10T20:19:24.211Z
	assert.Equal(t, int64(1539202764211), StatusIDToTimestamp(1050118621198921728))
}

func TestStatusIDToTimestampMonotonic(t *testing.T) {
	ids := []int64{0, 1, 1 << 22, 1<<22 + 5, 1 << 40, 1050118621198921728, 1050118621198921729, 1 << 62}

	prev := StatusIDToTimestamp(ids[0])
	for _, id := range ids[1:] {
		ts := StatusIDToTimestamp(id)
		assert.GreaterOrEqual(t, ts, prev, "id %d", id)
		prev = ts
	}
}

func TestStatusTimestamp(t *testing.T) {
	s := Status{ID: 1 << 23}
	assert.Equal(t, BaseTimestamp+2, s.Timestamp())
}

func TestGetSearchURL(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		count     int
		wantCount string
	}{
		{"default page", BaseURL, 100, "100"},
		{"trailing slash", BaseURL + "/", 50, "50"},
		{"zero count", BaseURL, 0, "100"},
		{"too large", BaseURL, 500, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := GetSearchURL(tt.base, "ラーメン OR 寿司", tt.count)
			u, err := url.Parse(raw)
			require.NoError(t, err)

			assert.Equal(t, "api.twitter.com", u.Host)
			assert.Equal(t, "/1.1/search/tweets.json", u.Path)
			assert.Equal(t, "ラーメン OR 寿司", u.Query().Get("q"))
			assert.Equal(t, tt.wantCount, u.Query().Get("count"))
			assert.Equal(t, "extended", u.Query().Get("tweet_mode"))
		})
	}
}

func TestGetRateLimitURL(t *testing.T) {
	assert.Equal(t, "https://api.twitter.com/1.1/application/rate_limit_status.json", GetRateLimitURL(BaseURL))
	assert.Equal(t, "http://127.0.0.1:8080/application/rate_limit_status.json", GetRateLimitURL("http://127.0.0.1:8080/"))
}
