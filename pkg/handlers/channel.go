package handlers

import (
	"errors"
	"log/slog"

	"voice-status-bot/pkg/status"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

const notVoiceChannel = "This is not a voice channel"

func toggleReply(active bool) string {
	if active {
		return "Enabled Voice Status updates for this channel"
	}
	return "Disabled Voice Status updates for this channel"
}

func (h *Handler) HandleToggle(event *handler.CommandEvent) error {
	logCommand(event, "toggle")
	messageCreate := discord.NewMessageCreate().WithEphemeral(true)
	guildID, channelID, ok := guildChannel(event)
	if !ok {
		return event.CreateMessage(messageCreate.WithContent(notVoiceChannel))
	}
	ctx, cancel := commandContext()
	defer cancel()
	active, err := h.Bot.Updater.Toggle(ctx, guildID, channelID)
	if errors.Is(err, status.ErrNotVoiceChannel) {
		return event.CreateMessage(messageCreate.WithContent(notVoiceChannel))
	}
	if err != nil {
		return err
	}
	slog.Info("voicestatus: toggled voice status updates", slog.Any("channel.id", channelID), slog.Bool("active", active))
	return event.CreateMessage(messageCreate.WithContent(toggleReply(active)))
}

func (h *Handler) HandleUpdate(event *handler.CommandEvent) error {
	logCommand(event, "update")
	messageCreate := discord.NewMessageCreate().WithEphemeral(true)
	guildID, channelID, ok := guildChannel(event)
	if !ok {
		return event.CreateMessage(messageCreate.WithContent(notVoiceChannel))
	}
	ctx, cancel := commandContext()
	defer cancel()
	err := h.Bot.Updater.ForceUpdate(ctx, guildID, channelID)
	if errors.Is(err, status.ErrNotVoiceChannel) {
		return event.CreateMessage(messageCreate.WithContent(notVoiceChannel))
	}
	if err != nil {
		return err
	}
	return event.CreateMessage(messageCreate.WithContent("Updated Voice Status"))
}

func (h *Handler) HandleDebug(event *handler.CommandEvent) error {
	logCommand(event, "debug")
	messageCreate := discord.NewMessageCreate().WithEphemeral(true)
	guildID, channelID, ok := guildChannel(event)
	if !ok {
		return event.CreateMessage(messageCreate.WithContent("This is not a guild"))
	}
	info, err := h.Bot.Updater.Debug(guildID, channelID)
	if errors.Is(err, status.ErrNotVoiceChannel) {
		return event.CreateMessage(messageCreate.WithContent(notVoiceChannel))
	}
	if err != nil {
		return err
	}
	content := info.String()
	slog.Debug("voicestatus: debug info", slog.Any("channel.id", channelID), slog.String("info", content))
	return event.CreateMessage(messageCreate.WithContent(truncateContent(content)))
}
