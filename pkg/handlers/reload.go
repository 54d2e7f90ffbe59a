package handlers

import (
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

func (h *Handler) HandleReload(event *handler.CommandEvent) error {
	slog.Warn("voicestatus: user ran /reload", slog.String("user.name", event.User().Username), slog.Any("channel.id", event.Channel().ID()))
	if err := event.CreateMessage(discord.NewMessageCreate().WithContent("Reloading...").WithEphemeral(true)); err != nil {
		return err
	}
	if h.Bot.Reload != nil {
		go h.Bot.Reload()
	}
	return nil
}
