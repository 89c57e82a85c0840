package twitter

// RateLimitStatus is the response of the rate limit status endpoint
type RateLimitStatus struct {
	Resources map[string]map[string]RateLimit `json:"resources"`
}

// RateLimit is the quota of a single endpoint
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// Lookup returns the quota for endpoint within family
func (s *RateLimitStatus) Lookup(family, endpoint string) (RateLimit, bool) {
	endpoints, ok := s.Resources[family]
	if !ok {
		return RateLimit{}, false
	}
	limit, ok := endpoints[endpoint]
	return limit, ok
}

// SearchResponse is the response of the search endpoint
type SearchResponse struct {
	Statuses       []Status       `json:"statuses"`
	SearchMetadata SearchMetadata `json:"search_metadata"`
}

// SearchMetadata carries paging hints for a search
type SearchMetadata struct {
	MaxID       int64  `json:"max_id"`
	SinceID     int64  `json:"since_id"`
	Count       int    `json:"count"`
	NextResults string `json:"next_results"`
	Query       string `json:"query"`
}

// Status is a single post
type Status struct {
	ID        int64  `json:"id"`
	IDStr     string `json:"id_str"`
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
	Lang      string `json:"lang"`
}

// Timestamp returns the millisecond creation time encoded in the id
func (s Status) Timestamp() int64 {
	return StatusIDToTimestamp(s.ID)
}
