package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-status-bot/pkg"
	"voice-status-bot/pkg/db"
	"voice-status-bot/pkg/handlers"
	"voice-status-bot/pkg/icon"
	"voice-status-bot/pkg/poller"
	"voice-status-bot/pkg/roblox"
	"voice-status-bot/pkg/status"
	"voice-status-bot/pkg/steam"
	"voice-status-bot/pkg/tracker"
	"voice-status-bot/pkg/util"
	"voice-status-bot/pkg/voice"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"golang.org/x/sync/errgroup"
)

func main() {
	if run() {
		reload()
	}
}

// reload replaces the process with a fresh copy of itself.
func reload() {
	executable, err := os.Executable()
	if err != nil {
		panic(err)
	}
	if err := syscall.Exec(executable, os.Args, os.Environ()); err != nil {
		panic(err)
	}
}

// run starts the bot and blocks until it is stopped. It reports whether /reload asked for a restart.
func run() bool {
	cfg, err := pkg.LoadConfig()
	if err != nil {
		panic(err)
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:           cfg.SentryDSN,
		EnableTracing: false,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if cfg.Production() { // only log events in prod
				return event
			}
			return nil
		},
	})
	if err != nil {
		panic(err)
	}

	defer sentry.Flush(2 * time.Second)

	fileWriter, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		panic(err)
	}
	defer fileWriter.Close()

	logger := slog.New(slogmulti.Fanout(
		tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		}),
		slog.NewTextHandler(fileWriter, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}),
		sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelWarn, slog.LevelError},
		}.NewSentryHandler(context.Background())))
	slog.SetDefault(logger)

	slog.Info("starting the bot...", slog.String("disgo.version", disgo.Version))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	if err := util.WaitForConnection(ctx, util.NewCheckClient(), util.DiscordURL); err != nil {
		panic(err)
	}

	apiClient := util.NewAPIClient()
	steamClient := steam.New(apiClient, cfg.SteamKey)

	steamOpts := poller.DefaultOptions("steam")
	steamOpts.Interval = cfg.PollInterval
	robloxOpts := poller.DefaultOptions("roblox")
	robloxOpts.Interval = cfg.PollInterval

	steamPoller := poller.New(steamClient.Fetch, steamOpts)
	robloxPoller := poller.New(roblox.New(apiClient).Fetch, robloxOpts)
	icons := icon.New(apiClient, util.NewCheckClient(), steamClient)
	icons.Start()
	defer icons.Stop()

	reloading := make(chan struct{}, 1)
	b := &pkg.Bot{
		DB:     store,
		Steam:  steamPoller,
		Roblox: robloxPoller,
		Icons:  icons,
		Reload: func() {
			select {
			case reloading <- struct{}{}:
			default:
			}
		},
	}
	h := handlers.NewHandler(b, cfg)

	client, err := disgo.New(cfg.DiscordToken,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildVoiceStates, gateway.IntentGuildPresences),
			gateway.WithPresenceOpts(gateway.WithWatchingActivity("voice channels"))),
		bot.WithCacheConfigOpts(tracker.CacheConfigOpts()...),
		bot.WithEventListeners(h, handlers.NewListener(b)))
	if err != nil {
		panic(err)
	}

	b.Tracker = tracker.New(client.Caches)
	b.Updater = status.NewUpdater(store, b.Tracker, voice.New(cfg.DiscordToken, cfg.SuperProperties), steamPoller, robloxPoller).
		WithInterval(cfg.UpdateInterval)

	defer client.Close(context.TODO())

	if cfg.SyncCommands {
		var guildIDs []snowflake.ID
		if cfg.DevGuildID != 0 {
			guildIDs = append(guildIDs, cfg.DevGuildID)
		}
		if err := handler.SyncCommands(client, handlers.Commands, guildIDs); err != nil {
			slog.Error("voicestatus: error while syncing commands", tint.Err(err))
		}
	}

	if err := client.OpenGateway(ctx); err != nil {
		panic(err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return b.Updater.Run(egCtx)
	})
	if cfg.SteamKey != "" {
		eg.Go(func() error {
			return steamPoller.Run(egCtx)
		})
	} else {
		slog.Warn("voicestatus: STEAM_KEY is not set, linked steam accounts are not polled")
	}
	eg.Go(func() error {
		return robloxPoller.Run(egCtx)
	})
	eg.Go(func() error {
		if err := icons.Preload(egCtx); err != nil {
			slog.Warn("voicestatus: error while preloading icon lists", tint.Err(err))
		}
		return nil
	})

	slog.Info("voice status bot is now running.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	restart := false
	select {
	case sig := <-s:
		slog.Info("voicestatus: shutting down", slog.String("signal", sig.String()))
	case <-reloading:
		slog.Warn("voicestatus: reloading")
		restart = true
	}

	cancel()
	if err := eg.Wait(); err != nil {
		slog.Error("voicestatus: error while stopping workers", tint.Err(err))
	}
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := store.Save(saveCtx); err != nil {
		slog.Error("voicestatus: error while saving config", tint.Err(err))
	}
	return restart
}

// openStore uses Postgres when DATABASE_URL is set and the JSON file otherwise.
func openStore(ctx context.Context, cfg *pkg.Config) (*db.DB, func()) {
	var backend db.Backend
	closeStore := func() {}
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			panic(err)
		}
		closeStore = pool.Close
		pg, err := db.NewPostgresBackend(ctx, pool)
		if err != nil {
			panic(err)
		}
		backend = pg
		slog.Info("voicestatus: using the postgres config store")
	} else {
		backend = db.NewFileBackend(cfg.ConfigFile)
		slog.Info("voicestatus: using the file config store", slog.String("path", cfg.ConfigFile))
	}
	store, err := db.Open(ctx, backend)
	if err != nil {
		panic(err)
	}
	return store, closeStore
}
