package handlers

import (
	"context"
	"log/slog"

	"voice-status-bot/pkg"
	"voice-status-bot/pkg/tracker"

	"github.com/disgoorg/disgo/events"
	"github.com/lmittmann/tint"
)

// NewListener reacts to guilds and voice channels going away. The disgo caches behind the tracker
// keep themselves up to date.
func NewListener(b *pkg.Bot) *events.ListenerAdapter {
	return &events.ListenerAdapter{
		OnGuildReady: func(ev *events.GuildReady) {
			slog.Info("voicestatus: guild ready", slog.Any("guild.id", ev.Guild.ID), slog.Int("voice.channels", len(b.Tracker.VoiceChannelIDs(ev.Guild.ID))))
		},
		OnGuildJoin: func(ev *events.GuildJoin) {
			slog.Info("voicestatus: joined a guild", slog.Any("guild.id", ev.Guild.ID))
		},
		OnGuildLeave: func(ev *events.GuildLeave) {
			slog.Info("voicestatus: left a guild", slog.Any("guild.id", ev.GuildID))
			if err := b.Updater.ForgetGuild(context.Background(), ev.GuildID); err != nil {
				slog.Error("voicestatus: error while dropping the config of a guild", slog.Any("guild.id", ev.GuildID), tint.Err(err))
			}
		},
		OnGuildChannelUpdate: func(ev *events.GuildChannelUpdate) {
			if !tracker.IsVoiceChannel(ev.Channel) {
				b.Updater.ForgetChannel(context.Background(), ev.GuildID, ev.ChannelID)
			}
		},
		OnGuildChannelDelete: func(ev *events.GuildChannelDelete) {
			if tracker.IsVoiceChannel(ev.Channel) {
				b.Updater.ForgetChannel(context.Background(), ev.GuildID, ev.ChannelID)
			}
		},
	}
}
