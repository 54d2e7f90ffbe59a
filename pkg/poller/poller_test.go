package poller

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"voice-status-bot/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]string
	errs    []error
	games   map[string][]string
}

func (f *fakeFetcher) fetch(_ context.Context, ids []string) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ids)
	if len(f.errs) != 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	result := make(map[string][]string)
	for _, id := range ids {
		if games, ok := f.games[id]; ok {
			result[id] = games
		}
	}
	return result, nil
}

func newTestPoller(f *fakeFetcher, opts Options) (*Poller, *[]time.Duration) {
	p := New(f.fetch, opts)
	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return p, &sleeps
}

func TestPollBatchesAndDeduplicates(t *testing.T) {
	f := &fakeFetcher{games: map[string][]string{
		"a": {"Game A"},
		"b": {},
		"c": {"Game C"},
	}}
	opts := DefaultOptions("test")
	opts.BatchSize = 2
	p, _ := newTestPoller(f, opts)

	p.SetPoll(1, []string{"a", "b"})
	p.SetPoll(2, []string{"b", "c"})
	require.NoError(t, p.Poll(context.Background()))

	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, f.batches)

	games, ok := p.Values("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"Game A"}, games)

	games, ok = p.Values("b")
	assert.True(t, ok)
	assert.Empty(t, games)

	_, ok = p.Values("missing")
	assert.False(t, ok)
	_, ok = p.Values("")
	assert.False(t, ok)
	assert.False(t, p.LastUpdate().IsZero())
}

func TestPollWithoutIDsClearsCache(t *testing.T) {
	f := &fakeFetcher{games: map[string][]string{"a": {"Game"}}}
	p, _ := newTestPoller(f, DefaultOptions("test"))

	p.SetPoll(1, []string{"a"})
	require.NoError(t, p.Poll(context.Background()))
	p.RemoveChannel(1)
	require.NoError(t, p.Poll(context.Background()))

	_, ok := p.Values("a")
	assert.False(t, ok)
	assert.True(t, p.LastUpdate().IsZero())
	assert.Len(t, f.batches, 1)
}

func TestPollKeepsCacheOnFailure(t *testing.T) {
	f := &fakeFetcher{games: map[string][]string{"a": {"Game"}}}
	opts := DefaultOptions("test")
	opts.BatchSize = 1
	p, _ := newTestPoller(f, opts)

	p.SetPoll(1, []string{"a"})
	require.NoError(t, p.Poll(context.Background()))

	p.AddToPoll(1, []string{"b"})
	f.errs = []error{nil, errors.New("boom")}
	require.Error(t, p.Poll(context.Background()))

	games, ok := p.Values("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"Game"}, games)
}

func TestClearCacheKeepsPollIDs(t *testing.T) {
	f := &fakeFetcher{games: map[string][]string{"a": {"Game"}}}
	p, _ := newTestPoller(f, DefaultOptions("test"))

	p.SetPoll(1, []string{"a"})
	require.NoError(t, p.Poll(context.Background()))
	require.False(t, p.LastUpdate().IsZero())

	p.ClearCache()
	_, ok := p.Values("a")
	assert.False(t, ok)
	assert.True(t, p.LastUpdate().IsZero())

	require.NoError(t, p.Poll(context.Background()))
	games, ok := p.Values("a")
	assert.True(t, ok)
	assert.Equal(t, []string{"Game"}, games)
}

func TestBackoffOnErrors(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{errs: []error{boom, boom, boom, boom}}
	opts := DefaultOptions("test")
	opts.MaxRetries = 3
	opts.BaseBackoff = time.Second
	p, sleeps := newTestPoller(f, opts)

	p.SetPoll(1, []string{"a"})
	p.pollWithBackoff(context.Background())

	assert.Len(t, f.batches, 4, "one attempt plus three retries")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *sleeps)
}

func TestBackoffRecovers(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("boom")}, games: map[string][]string{"a": {"Game"}}}
	p, sleeps := newTestPoller(f, DefaultOptions("test"))

	p.SetPoll(1, []string{"a"})
	p.pollWithBackoff(context.Background())

	assert.Len(t, *sleeps, 1)
	_, ok := p.Values("a")
	assert.True(t, ok)
}

func TestRateLimitHonoursRetryAfter(t *testing.T) {
	f := &fakeFetcher{errs: []error{
		&RateLimitError{RetryAfter: 5 * time.Second},
		&util.StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 2 * time.Minute},
		&util.StatusError{StatusCode: http.StatusTooManyRequests},
	}}
	opts := DefaultOptions("test")
	opts.BaseBackoff = time.Second
	p, sleeps := newTestPoller(f, opts)

	p.SetPoll(1, []string{"a"})
	p.pollWithBackoff(context.Background())

	assert.Equal(t, []time.Duration{5 * time.Second, 60 * time.Second, 4 * time.Second}, *sleeps)
}

func TestRateLimitClearsStaleCache(t *testing.T) {
	f := &fakeFetcher{games: map[string][]string{"a": {"Game"}}}
	opts := DefaultOptions("test")
	opts.MaxRetries = 0
	p, _ := newTestPoller(f, opts)

	now := time.Now()
	p.now = func() time.Time { return now }
	p.SetPoll(1, []string{"a"})
	require.NoError(t, p.Poll(context.Background()))

	f.errs = []error{&RateLimitError{}}
	now = now.Add(5 * time.Minute)
	p.pollWithBackoff(context.Background())
	_, ok := p.Values("a")
	assert.True(t, ok, "cache is still fresh")

	f.errs = []error{&RateLimitError{}}
	now = now.Add(15 * time.Minute)
	p.pollWithBackoff(context.Background())
	_, ok = p.Values("a")
	assert.False(t, ok, "stale cache is cleared when rate limited")
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{}
	p := New(f.fetch, DefaultOptions("test"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- p.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestNewClampsOptions(t *testing.T) {
	p := New((&fakeFetcher{}).fetch, Options{Name: "clamped", BatchSize: 0, MaxRetries: -1})
	assert.Equal(t, 1, p.opts.BatchSize)
	assert.Equal(t, 0, p.opts.MaxRetries)
	assert.Equal(t, minBaseBackoff, p.opts.BaseBackoff)
	assert.Equal(t, time.Minute, p.opts.Interval)
}
