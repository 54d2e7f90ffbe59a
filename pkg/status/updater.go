// Package status computes the voice status of every voice channel from the games its members are
// playing and keeps Discord in sync with it.
package status

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/db"
	"voice-status-bot/pkg/poller"
	"voice-status-bot/pkg/tracker"
	"voice-status-bot/pkg/util"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const DefaultInterval = 10 * time.Second

var ErrNotVoiceChannel = errors.New("this is not a voice channel")

// StatusSetter sets the status of a voice channel on Discord.
type StatusSetter interface {
	SetStatus(ctx context.Context, channelID snowflake.ID, status string) error
}

type Updater struct {
	db       *db.DB
	tracker  *tracker.Tracker
	voice    StatusSetter
	steam    *poller.Poller
	roblox   *poller.Poller
	interval time.Duration

	// serialises channel updates between the loop and commands
	mu sync.Mutex
}

func NewUpdater(store *db.DB, t *tracker.Tracker, voice StatusSetter, steam *poller.Poller, roblox *poller.Poller) *Updater {
	return &Updater{
		db:       store,
		tracker:  t,
		voice:    voice,
		steam:    steam,
		roblox:   roblox,
		interval: DefaultInterval,
	}
}

func (u *Updater) WithInterval(interval time.Duration) *Updater {
	if interval > 0 {
		u.interval = interval
	}
	return u
}

// Run updates every guild each interval until ctx is cancelled.
func (u *Updater) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()
	for {
		for _, guildID := range u.tracker.Guilds() {
			// failures are logged per channel
			_ = u.UpdateGuild(ctx, guildID)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// UpdateGuild updates every voice channel of a guild.
func (u *Updater) UpdateGuild(ctx context.Context, guildID snowflake.ID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	var errs []error
	changed := false
	for _, channel := range u.tracker.VoiceChannels(guildID) {
		channelChanged, err := u.updateChannel(ctx, guildID, channel, false)
		if err != nil {
			errs = append(errs, err)
		}
		changed = changed || channelChanged
	}
	if changed {
		u.pruneAndSave(ctx, guildID)
	}
	return errors.Join(errs...)
}

// UpdateChannel updates a single voice channel. force updates inactive channels too.
func (u *Updater) UpdateChannel(ctx context.Context, guildID snowflake.ID, channelID snowflake.ID, force bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	channel, ok := u.tracker.VoiceChannel(guildID, channelID)
	if !ok {
		return ErrNotVoiceChannel
	}
	changed, err := u.updateChannel(ctx, guildID, channel, force)
	if changed {
		u.pruneAndSave(ctx, guildID)
	}
	return err
}

// ForceUpdate drops the cached status of a channel and sends a fresh one.
func (u *Updater) ForceUpdate(ctx context.Context, guildID snowflake.ID, channelID snowflake.ID) error {
	if _, ok := u.tracker.VoiceChannel(guildID, channelID); !ok {
		return ErrNotVoiceChannel
	}
	u.db.Update(guildID, func(g *config.Guild) {
		g.Channel(channelID).CurrentMessage = nil
	})
	return u.UpdateChannel(ctx, guildID, channelID, true)
}

// Toggle flips the updates of a voice channel on or off and returns the new state.
func (u *Updater) Toggle(ctx context.Context, guildID snowflake.ID, channelID snowflake.ID) (bool, error) {
	if _, ok := u.tracker.VoiceChannel(guildID, channelID); !ok {
		return false, ErrNotVoiceChannel
	}
	var active bool
	u.db.Update(guildID, func(g *config.Guild) {
		channel := g.Channel(channelID)
		channel.Active = !channel.Active
		if !channel.Active {
			channel.CurrentMessage = nil
		}
		active = channel.Active
	})
	return active, u.db.Save(ctx)
}

// ForgetChannel stops polling on behalf of a deleted voice channel and drops its config.
func (u *Updater) ForgetChannel(ctx context.Context, guildID snowflake.ID, channelID snowflake.ID) {
	u.steam.RemoveChannel(channelID)
	u.roblox.RemoveChannel(channelID)
	if _, ok := u.db.Guild(guildID).Channels[channelID]; !ok {
		return
	}
	slog.Info("voicestatus: voice channel removed", slog.Any("guild.id", guildID), slog.Any("channel.id", channelID))
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pruneAndSave(ctx, guildID)
}

// ForgetGuild stops polling on behalf of a guild the bot left and drops its config.
func (u *Updater) ForgetGuild(ctx context.Context, guildID snowflake.ID) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for channelID := range u.db.Guild(guildID).Channels {
		u.steam.RemoveChannel(channelID)
		u.roblox.RemoveChannel(channelID)
	}
	u.db.RemoveGuild(guildID)
	return u.db.Save(ctx)
}

func (u *Updater) updateChannel(ctx context.Context, guildID snowflake.ID, channel tracker.Channel, force bool) (bool, error) {
	changed := false
	active := true
	u.db.Update(guildID, func(g *config.Guild) {
		c := g.Channel(channel.ID)
		if c.Name == nil || *c.Name != channel.Name {
			name := channel.Name
			c.Name = &name
			changed = true
		}
		active = c.Active
	})
	if !active && !force {
		return changed, nil
	}

	guild := u.db.Guild(guildID)
	members := u.tracker.ChannelMembers(guildID, channel.ID)
	u.registerAccounts(channel.ID, members, guild)

	infos := u.summarize(members, guild)
	status := FormatStatus(infos)
	if guild.Channel(channel.ID).HasMessage(status) {
		return changed, nil
	}
	u.db.Update(guildID, func(g *config.Guild) {
		g.Channel(channel.ID).CurrentMessage = &status
	})
	if len(infos) != 0 {
		slog.Info("voicestatus: games in voice channel", slog.Any("channel.id", channel.ID), slog.Any("games", infos))
	}

	if len(members) == 0 {
		slog.Info("voicestatus: setting cached status", slog.Any("channel.id", channel.ID), slog.String("channel.name", channel.Name), slog.String("status", status))
		return true, nil
	}
	slog.Info("voicestatus: setting status", slog.Any("channel.id", channel.ID), slog.String("channel.name", channel.Name), slog.String("status", status))
	if err := u.voice.SetStatus(ctx, channel.ID, status); err != nil {
		attrs := []any{slog.Any("channel.id", channel.ID), slog.String("channel.name", channel.Name)}
		var statusErr *util.StatusError
		if errors.As(err, &statusErr) {
			attrs = append(attrs, slog.Int("status.code", statusErr.StatusCode))
		}
		slog.Error("voicestatus: error while setting voice status", append(attrs, tint.Err(err))...)
		return true, err
	}
	return true, nil
}

// registerAccounts makes the pollers fetch the linked accounts of the channel's members.
func (u *Updater) registerAccounts(channelID snowflake.ID, members []tracker.Member, guild config.Guild) {
	var steamIDs, robloxIDs []string
	for _, member := range members {
		linked := guild.LookupMember(member.ID)
		if linked.SteamID != "" {
			steamIDs = append(steamIDs, linked.SteamID)
		}
		if linked.RobloxID != "" {
			robloxIDs = append(robloxIDs, linked.RobloxID)
		}
	}
	u.steam.SetPoll(channelID, steamIDs)
	u.roblox.SetPoll(channelID, robloxIDs)
}

func (u *Updater) summarize(members []tracker.Member, guild config.Guild) []GameInfo {
	games := make([][]string, 0, len(members))
	for _, member := range members {
		games = append(games, TrackedGames(member, guild, u.steam, u.roblox))
	}
	return Summarize(games, guild)
}

func (u *Updater) pruneAndSave(ctx context.Context, guildID snowflake.ID) {
	voiceChannelIDs := u.tracker.VoiceChannelIDs(guildID)
	u.db.Update(guildID, func(g *config.Guild) {
		g.Prune(voiceChannelIDs)
	})
	if err := u.db.Save(ctx); err != nil {
		slog.Error("voicestatus: error while saving config", slog.Any("guild.id", guildID), tint.Err(err))
	}
}
