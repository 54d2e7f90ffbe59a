// Package poller periodically fetches the games of externally linked player accounts in batches and
// keeps the last successful result as a cache.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"voice-status-bot/pkg/util"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const (
	rateLimitMaxDelay = 60 * time.Second
	errorMaxDelay     = 30 * time.Second
	minBaseBackoff    = 100 * time.Millisecond
)

// FetchFunc returns the games each of the given ids is playing. Ids missing from the result are
// treated as unknown.
type FetchFunc func(ctx context.Context, ids []string) (map[string][]string, error)

// RateLimitError lets a fetcher request a backoff without exposing HTTP details.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

type Options struct {
	Name         string
	Interval     time.Duration
	StaleTimeout time.Duration
	BatchSize    int
	MaxRetries   int
	BaseBackoff  time.Duration
}

func DefaultOptions(name string) Options {
	return Options{
		Name:         name,
		Interval:     60 * time.Second,
		StaleTimeout: 15 * time.Minute,
		BatchSize:    100,
		MaxRetries:   3,
		BaseBackoff:  2 * time.Second,
	}
}

type Poller struct {
	opts  Options
	fetch FetchFunc
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu         sync.RWMutex
	pollIDs    map[snowflake.ID][]string
	cache      map[string][]string
	lastUpdate time.Time
}

func New(fetch FetchFunc, opts Options) *Poller {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseBackoff < minBaseBackoff {
		opts.BaseBackoff = minBaseBackoff
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions(opts.Name).Interval
	}
	slog.Info("voicestatus: player poller initialized", slog.String("poller", opts.Name))
	return &Poller{
		opts:    opts,
		fetch:   fetch,
		sleep:   sleepContext,
		now:     time.Now,
		pollIDs: make(map[snowflake.ID][]string),
		cache:   make(map[string][]string),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetPoll replaces the ids polled on behalf of a voice channel.
func (p *Poller) SetPoll(channelID snowflake.ID, ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(ids) == 0 {
		delete(p.pollIDs, channelID)
		return
	}
	p.pollIDs[channelID] = slices.Clone(ids)
}

func (p *Poller) AddToPoll(channelID snowflake.ID, ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pollIDs[channelID] = append(p.pollIDs[channelID], ids...)
}

func (p *Poller) RemoveChannel(channelID snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pollIDs, channelID)
}

func (p *Poller) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearCache()
}

func (p *Poller) clearCache() {
	clear(p.cache)
	p.lastUpdate = time.Time{}
}

// Values returns the cached games of an id. ok is false when the id is unknown.
func (p *Poller) Values(id string) (games []string, ok bool) {
	if id == "" {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	games, ok = p.cache[id]
	return slices.Clone(games), ok
}

func (p *Poller) LastUpdate() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdate
}

// ids flattens the poll lists, keeping the first occurrence of every id.
func (p *Poller) ids() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	channels := slices.Sorted(maps.Keys(p.pollIDs))
	seen := make(map[string]struct{})
	var ids []string
	for _, channelID := range channels {
		for _, id := range p.pollIDs[channelID] {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Poll runs one cycle. The cache is only replaced when every batch succeeds.
func (p *Poller) Poll(ctx context.Context) error {
	ids := p.ids()
	if len(ids) == 0 {
		p.mu.Lock()
		if len(p.cache) != 0 {
			slog.Debug("voicestatus: no ids to poll, clearing cache", slog.String("poller", p.opts.Name))
		}
		p.clearCache()
		p.mu.Unlock()
		return nil
	}

	cache := make(map[string][]string, len(ids))
	for batch := range slices.Chunk(ids, p.opts.BatchSize) {
		result, err := p.fetch(ctx, batch)
		if err != nil {
			return err
		}
		for id, games := range result {
			if games == nil {
				continue
			}
			cache[id] = slices.Clone(games)
		}
	}

	p.mu.Lock()
	p.cache = cache
	p.lastUpdate = p.now()
	p.mu.Unlock()
	slog.Debug("voicestatus: poll successful", slog.String("poller", p.opts.Name), slog.Int("cache.size", len(cache)), slog.Int("ids", len(ids)))
	return nil
}

// Run polls every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	slog.Debug("voicestatus: poller started", slog.String("poller", p.opts.Name))
	defer slog.Warn("voicestatus: poller stopped", slog.String("poller", p.opts.Name))
	for {
		p.pollWithBackoff(ctx)
		if err := p.sleep(ctx, p.opts.Interval); err != nil {
			return nil
		}
	}
}

func (p *Poller) pollWithBackoff(ctx context.Context) {
	for retries := 0; ; retries++ {
		err := p.Poll(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		var delay time.Duration
		if retryAfter, limited := rateLimited(err); limited {
			p.clearIfStale()
			delay = retryAfter
			if delay <= 0 {
				delay = p.backoff(retries)
			}
			delay = min(delay, rateLimitMaxDelay)
			slog.Debug("voicestatus: rate limited, retrying",
				slog.String("poller", p.opts.Name),
				slog.Duration("retry.in", delay),
				slog.Int("attempt", retries+1),
				slog.Int("max.retries", p.opts.MaxRetries))
		} else {
			if retries >= p.opts.MaxRetries {
				slog.Error("voicestatus: poll failed after retries, keeping old cache", slog.String("poller", p.opts.Name), tint.Err(err))
				return
			}
			delay = min(p.backoff(retries), errorMaxDelay)
			slog.Warn("voicestatus: poll error, retrying",
				slog.String("poller", p.opts.Name),
				slog.Duration("retry.in", delay),
				slog.Int("attempt", retries+1),
				slog.Int("max.retries", p.opts.MaxRetries),
				tint.Err(err))
		}

		if p.sleep(ctx, delay) != nil {
			return
		}
		if retries+1 > p.opts.MaxRetries {
			return
		}
	}
}

func (p *Poller) backoff(retries int) time.Duration {
	return p.opts.BaseBackoff * time.Duration(1<<retries)
}

func (p *Poller) clearIfStale() {
	p.mu.Lock()
	defer p.mu.Unlock()
	since := p.now().Sub(p.lastUpdate)
	if since > p.opts.StaleTimeout && len(p.cache) != 0 {
		slog.Warn("voicestatus: rate limited with a stale cache, clearing it", slog.String("poller", p.opts.Name), slog.Duration("since", since))
		p.clearCache()
	}
}

func rateLimited(err error) (time.Duration, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.RetryAfter, true
	}
	var statusErr *util.StatusError
	if errors.As(err, &statusErr) && statusErr.TooManyRequests() {
		return statusErr.RetryAfter, true
	}
	return 0, false
}
