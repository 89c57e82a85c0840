package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tweetcloud/pkg/checkpoint"
	"tweetcloud/pkg/config"
	"tweetcloud/pkg/logger"
	"tweetcloud/pkg/ratelimit"
	"tweetcloud/pkg/storage"
	"tweetcloud/pkg/twitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idAt returns a status id whose snowflake timestamp is BaseTimestamp+ms
func idAt(ms int64) int64 {
	return ms << 22
}

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

type fakeSearch struct {
	pages   [][]twitter.Status
	calls   int
	clock   *fakeClock
	latency time.Duration
	err     error
}

func (f *fakeSearch) Search(ctx context.Context, query string, count int) (*twitter.SearchResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.clock != nil {
		f.clock.now = f.clock.now.Add(f.latency)
	}
	page := f.pages[min(f.calls, len(f.pages)-1)]
	f.calls++
	return &twitter.SearchResponse{Statuses: page}, nil
}

type openGate struct {
	calls int
	err   error
}

func (g *openGate) Wait(ctx context.Context) error {
	g.calls++
	return g.err
}

type memorySink struct {
	lines   []string
	batches int
}

func (s *memorySink) AppendLines(lines []string) error {
	s.batches++
	s.lines = append(s.lines, lines...)
	return nil
}

func (s *memorySink) TotalLines() int { return len(s.lines) }

func testConfig(n int) config.CollectorConfig {
	return config.CollectorConfig{
		Query:       "ラーメン",
		NumSearches: n,
		Interval:    30 * time.Second,
		OutputPath:  "tweet_data.txt",
		PageSize:    100,
		MinChars:    2,
	}
}

func newTestCollector(search SearchClient, gate QuotaGate, sink Sink, cfg config.CollectorConfig, clock *fakeClock) *Collector {
	c := New(search, gate, sink, cfg, logger.NewTestLogger())
	c.Now = clock.Now
	c.Sleep = clock.Sleep
	return c
}

func TestFilterStatuses(t *testing.T) {
	cursor := twitter.BaseTimestamp + 1000
	statuses := []twitter.Status{
		{ID: idAt(500), FullText: "古い投稿です"},
		{ID: idAt(1000), FullText: "境界の投稿です"},
		{ID: idAt(1500), FullText: "新しい投稿です"},
		{ID: idAt(3000), FullText: "RT @someone 拡散"},
		{ID: idAt(2000), FullText: "@bob a"},
		{ID: idAt(2500), FullText: "美味しい"},
	}

	latest, texts := FilterStatuses(statuses, cursor, 2)

	assert.Equal(t, twitter.BaseTimestamp+3000, latest)
	assert.Equal(t, []string{"新しい投稿です", "美味しい"}, texts)
}

func TestFilterStatusesNothingNewer(t *testing.T) {
	cursor := twitter.BaseTimestamp + 1000
	latest, texts := FilterStatuses([]twitter.Status{{ID: idAt(10), FullText: "古い"}}, cursor, 2)

	assert.Equal(t, cursor, latest)
	assert.Empty(t, texts)
}

func TestRunExcludesSeenStatuses(t *testing.T) {
	page1 := []twitter.Status{
		{ID: idAt(100), FullText: "一つ目の投稿"},
		{ID: idAt(200), FullText: "二つ目の投稿"},
	}
	// The second page repeats the first plus one newer status
	page2 := append([]twitter.Status{{ID: idAt(300), FullText: "三つ目の投稿"}}, page1...)

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	search := &fakeSearch{pages: [][]twitter.Status{page1, page2}}
	gate := &openGate{}
	sink := &memorySink{}

	c := newTestCollector(search, gate, sink, testConfig(3), clock)
	summary, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"一つ目の投稿", "二つ目の投稿", "三つ目の投稿"}, sink.lines)
	assert.Equal(t, 3, sink.batches)
	assert.Equal(t, 3, gate.calls)
	assert.Equal(t, 3, summary.Iterations)
	assert.Equal(t, 3, summary.Collected)
	assert.Equal(t, twitter.BaseTimestamp+300, summary.Cursor)
}

func TestRunPacing(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	search := &fakeSearch{
		pages:   [][]twitter.Status{{}},
		clock:   clock,
		latency: 5 * time.Second,
	}

	var results []IterationResult
	c := newTestCollector(search, &openGate{}, &memorySink{}, testConfig(3), clock)
	c.OnIteration = func(r IterationResult) { results = append(results, r) }

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	// No pause after the last iteration
	assert.Equal(t, []time.Duration{25 * time.Second, 25 * time.Second}, clock.sleeps)
	require.Len(t, results, 3)
	assert.Equal(t, 5*time.Second, results[0].Elapsed)
}

func TestRunNoPacingWhenIterationIsSlow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	search := &fakeSearch{
		pages:   [][]twitter.Status{{}},
		clock:   clock,
		latency: 45 * time.Second,
	}

	c := newTestCollector(search, &openGate{}, &memorySink{}, testConfig(3), clock)
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, clock.sleeps)
}

func TestRunStopsOnGateError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	gate := &openGate{err: ratelimit.ErrQuotaExhausted}
	search := &fakeSearch{pages: [][]twitter.Status{{}}}

	c := newTestCollector(search, gate, &memorySink{}, testConfig(5), clock)
	summary, err := c.Run(context.Background())

	assert.ErrorIs(t, err, ratelimit.ErrQuotaExhausted)
	assert.Equal(t, 0, summary.Iterations)
	assert.Equal(t, 0, search.calls)
}

func TestRunStopsOnSearchError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	boom := errors.New("max retry attempts exceeded")

	c := newTestCollector(&fakeSearch{err: boom}, &openGate{}, &memorySink{}, testConfig(5), clock)
	_, err := c.Run(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestRunCancelledDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	sink := &memorySink{}
	search := &fakeSearch{pages: [][]twitter.Status{{{ID: idAt(1), FullText: "最初の投稿"}}}}

	c := newTestCollector(search, &openGate{}, sink, testConfig(5), clock)
	c.OnIteration = func(IterationResult) { cancel() }

	summary, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Iterations)
	assert.Equal(t, []string{"最初の投稿"}, sink.lines)
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(1)

	mgr, err := checkpoint.NewManager(dir, cfg.Query, nil)
	require.NoError(t, err)
	cp, err := mgr.Create(cfg.Query, cfg.OutputPath, twitter.BaseTimestamp+150)
	require.NoError(t, err)
	require.NotNil(t, cp)

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	search := &fakeSearch{pages: [][]twitter.Status{{
		{ID: idAt(100), FullText: "前回取得済み"},
		{ID: idAt(200), FullText: "今回の新着"},
	}}}
	sink := &memorySink{}

	c := newTestCollector(search, &openGate{}, sink, cfg, clock)
	c.SetCheckpointManager(mgr)

	_, err = c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"今回の新着"}, sink.lines)

	saved, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, twitter.BaseTimestamp+200, saved.Cursor)
	assert.Equal(t, 1, saved.Iterations)
	assert.Equal(t, 1, saved.TotalCollected)
}

func TestRunEndToEnd(t *testing.T) {
	var searches, statusChecks int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/application/rate_limit_status.json":
			statusChecks++
			fmt.Fprint(w, `{"resources":{
				"search":{"/search/tweets":{"limit":180,"remaining":100,"reset":0}},
				"application":{"/application/rate_limit_status":{"limit":180,"remaining":100,"reset":0}}}}`)
		case "/search/tweets.json":
			searches++
			assert.Equal(t, "猫", r.URL.Query().Get("q"))
			fmt.Fprintf(w, `{"statuses":[
				{"id":%d,"full_text":"RT @cat にゃー"},
				{"id":%d,"full_text":"猫が可愛い @friend #猫 https://t.co/abc"},
				{"id":%d,"full_text":"猫 0"}
			]}`, idAt(int64(searches)*1000+1), idAt(int64(searches)*1000+2), idAt(int64(searches)*1000+3))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	outPath := filepath.Join(t.TempDir(), "tweet_data.txt")
	require.NoError(t, os.WriteFile(outPath, []byte("既存の行\n"), 0644))

	log := logger.NewTestLogger()
	client := twitter.NewClient(server.Client(), twitter.Options{BaseURL: server.URL, Logger: log})
	gate := ratelimit.NewQuotaGate(client, config.RateLimitConfig{Threshold: 1, SafetyMargin: 30 * time.Second, MaxChecks: 10}, log)
	sink, err := storage.NewManager(outPath)
	require.NoError(t, err)

	cfg := testConfig(2)
	cfg.Query = "猫"
	cfg.OutputPath = outPath
	cfg.Interval = 0

	summary, err := New(client, gate, sink, cfg, log).Run(context.Background())
	require.NoError(t, err)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "既存の行\n猫が可愛い\n猫が可愛い\n", string(content))
	assert.Equal(t, 3, summary.TotalLines)
	assert.Equal(t, 2, searches)
	assert.Equal(t, 2, statusChecks)

	iterLogs := 0
	for _, msg := range log.GetMessagesByLevel("INFO") {
		if strings.Contains(msg.Message, "iteration finished") {
			iterLogs++
			assert.Equal(t, 1, msg.Fields["current"])
		}
	}
	assert.Equal(t, 2, iterLogs)
}
