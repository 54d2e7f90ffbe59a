package util

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lmittmann/tint"
)

const (
	DiscordURL = "https://discord.com"

	connectionBaseDelay = time.Second
	connectionMaxDelay  = 30 * time.Second
)

// WaitForConnection blocks until url answers a HEAD request or ctx is done.
// Any HTTP response counts as connected; only transport errors are retried.
func WaitForConnection(ctx context.Context, client *http.Client, url string) error {
	delay := connectionBaseDelay
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return err
		}
		rs, err := client.Do(req)
		if err == nil {
			rs.Body.Close()
			if attempt > 1 {
				slog.Info("voicestatus: connection established", slog.String("url", url), slog.Int("attempts", attempt))
			}
			return nil
		}
		slog.Warn("voicestatus: waiting for connection", slog.String("url", url), slog.Duration("retry.in", delay), tint.Err(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, connectionMaxDelay)
	}
}
