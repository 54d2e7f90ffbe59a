// Package icon finds an image URL for the game a member is playing, from Discord's detectable
// applications or the Steam store.
package icon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"voice-status-bot/pkg/steam"
	"voice-status-bot/pkg/tracker"
	"voice-status-bot/pkg/util"

	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDiscordAPIURL = "https://discord.com/api/v10"
	DefaultSteamCDNURL   = "https://cdn.cloudflare.steamstatic.com/steam/apps"

	discordCDNURL   = "https://cdn.discordapp.com"
	discordMediaURL = "https://media.discordapp.net/"

	listTTL = 24 * time.Hour
	rpcTTL  = time.Hour

	discordListKey = "discord"
	steamListKey   = "steam"
)

type Source string

const (
	SourceAny     Source = ""
	SourceDiscord Source = "discord"
	SourceSteam   Source = "steam"
)

func (s Source) discord() bool {
	return s == SourceAny || s == SourceDiscord
}

func (s Source) steam() bool {
	return s == SourceAny || s == SourceSteam
}

type DetectableApp struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

type rpcApplication struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

type appIndex struct {
	discordByID   map[string]DetectableApp
	discordByName map[string]DetectableApp
	steamByName   map[string]int
}

type Resolver struct {
	httpClient  *http.Client
	checkClient *http.Client
	steam       *steam.Client

	discordAPIURL string
	steamCDNURL   string

	loadMu sync.Mutex
	lists  *ttlcache.Cache[string, appIndex]
	rpc    *ttlcache.Cache[string, rpcApplication]
}

func New(httpClient *http.Client, checkClient *http.Client, steamClient *steam.Client) *Resolver {
	return &Resolver{
		httpClient:    httpClient,
		checkClient:   checkClient,
		steam:         steamClient,
		discordAPIURL: DefaultDiscordAPIURL,
		steamCDNURL:   DefaultSteamCDNURL,
		lists: ttlcache.New[string, appIndex](
			ttlcache.WithTTL[string, appIndex](listTTL),
			ttlcache.WithDisableTouchOnHit[string, appIndex](),
		),
		rpc: ttlcache.New[string, rpcApplication](ttlcache.WithTTL[string, rpcApplication](rpcTTL)),
	}
}

func (r *Resolver) WithURLs(discordAPIURL string, steamCDNURL string) *Resolver {
	r.discordAPIURL = strings.TrimSuffix(discordAPIURL, "/")
	r.steamCDNURL = strings.TrimSuffix(steamCDNURL, "/")
	return r
}

// Start runs the cache janitors until Stop is called.
func (r *Resolver) Start() {
	go r.lists.Start()
	go r.rpc.Start()
}

func (r *Resolver) Stop() {
	r.lists.Stop()
	r.rpc.Stop()
}

// Preload fetches both application lists concurrently so the first lookup does not wait.
func (r *Resolver) Preload(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		_, err := r.discordApps(ctx)
		return err
	})
	eg.Go(func() error {
		_, err := r.steamApps(ctx)
		return err
	})
	return eg.Wait()
}

// Resolve returns the icon URL of the game, or "" when none was found.
func (r *Resolver) Resolve(ctx context.Context, game tracker.Activity, source Source) (string, error) {
	if source.discord() {
		for _, asset := range []string{game.LargeImage, game.SmallImage} {
			if u := assetURL(game.ApplicationID, asset); u != "" {
				return u, nil
			}
		}
		index, err := r.discordApps(ctx)
		if err != nil {
			return "", err
		}
		app, ok := index.discordByID[game.ApplicationID.String()]
		if !ok {
			app, ok = index.discordByName[game.Name]
		}
		if ok {
			u, err := r.appIcon(ctx, app.ID)
			if err != nil {
				return "", err
			}
			if u != "" {
				slog.Debug("voicestatus: found discord app", slog.String("app.id", app.ID), slog.String("app.name", app.Name))
				return u, nil
			}
		}
	}
	if source.steam() {
		index, err := r.steamApps(ctx)
		if err != nil {
			return "", err
		}
		if appID, ok := index.steamByName[game.Name]; ok {
			slog.Debug("voicestatus: found steam app", slog.Int("app.id", appID), slog.String("app.name", game.Name))
			for _, ext := range []string{"png", "jpg"} {
				u := fmt.Sprintf("%s/%d/logo.%s", r.steamCDNURL, appID, ext)
				if r.exists(ctx, u) {
					return u, nil
				}
			}
		}
	}
	return "", nil
}

// assetURL turns an activity asset key into a URL. Media proxy assets are prefixed with "mp:".
func assetURL(applicationID snowflake.ID, asset string) string {
	if asset == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(asset, "mp:"); ok {
		return discordMediaURL + rest
	}
	if strings.Contains(asset, ":") || applicationID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/app-assets/%s/%s.png", discordCDNURL, applicationID, asset)
}

func (r *Resolver) appIcon(ctx context.Context, appID string) (string, error) {
	var app rpcApplication
	if item := r.rpc.Get(appID); item != nil {
		app = item.Value()
	} else {
		if err := r.getJSON(ctx, r.discordAPIURL+"/applications/"+appID+"/rpc", &app); err != nil {
			return "", err
		}
		r.rpc.Set(appID, app, ttlcache.DefaultTTL)
	}
	if app.Icon == nil || *app.Icon == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/app-icons/%s/%s.png", discordCDNURL, appID, *app.Icon), nil
}

func (r *Resolver) discordApps(ctx context.Context) (appIndex, error) {
	return r.loadList(ctx, discordListKey, func(ctx context.Context) (appIndex, error) {
		slog.Debug("voicestatus: loading discord detectable applications")
		var apps []DetectableApp
		if err := r.getJSON(ctx, r.discordAPIURL+"/applications/detectable", &apps); err != nil {
			return appIndex{}, err
		}
		index := appIndex{
			discordByID:   make(map[string]DetectableApp, len(apps)),
			discordByName: make(map[string]DetectableApp, len(apps)),
		}
		for _, app := range apps {
			if _, ok := index.discordByID[app.ID]; !ok {
				index.discordByID[app.ID] = app
			}
			for _, name := range append([]string{app.Name}, app.Aliases...) {
				if _, ok := index.discordByName[name]; !ok {
					index.discordByName[name] = app
				}
			}
		}
		slog.Debug("voicestatus: loaded discord detectable applications", slog.Int("count", len(apps)))
		return index, nil
	})
}

func (r *Resolver) steamApps(ctx context.Context) (appIndex, error) {
	return r.loadList(ctx, steamListKey, func(ctx context.Context) (appIndex, error) {
		slog.Debug("voicestatus: loading steam applications")
		apps, err := r.steam.AppList(ctx)
		if err != nil {
			return appIndex{}, err
		}
		index := appIndex{steamByName: make(map[string]int, len(apps))}
		for _, app := range apps {
			if _, ok := index.steamByName[app.Name]; !ok {
				index.steamByName[app.Name] = app.AppID
			}
		}
		slog.Debug("voicestatus: loaded steam applications", slog.Int("count", len(apps)))
		return index, nil
	})
}

// loadList returns a cached list or loads it. Concurrent callers wait for a single load.
func (r *Resolver) loadList(ctx context.Context, key string, load func(ctx context.Context) (appIndex, error)) (appIndex, error) {
	if item := r.lists.Get(key); item != nil {
		return item.Value(), nil
	}
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if item := r.lists.Get(key); item != nil {
		return item.Value(), nil
	}
	index, err := load(ctx)
	if err != nil {
		slog.Error("voicestatus: error while loading an application list", slog.String("list", key), tint.Err(err))
		return appIndex{}, err
	}
	r.lists.Set(key, index, ttlcache.DefaultTTL)
	return index, nil
}

func (r *Resolver) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	rs, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer rs.Body.Close()
	if err := util.CheckResponse(rs); err != nil {
		return err
	}
	return json.NewDecoder(rs.Body).Decode(v)
}

func (r *Resolver) exists(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}
	rs, err := r.checkClient.Do(req)
	if err != nil {
		return false
	}
	rs.Body.Close()
	return rs.StatusCode == http.StatusOK
}
