package handlers

import (
	"context"
	"log/slog"
	"time"

	"voice-status-bot/pkg"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const (
	// interactions must be answered within 3 seconds
	commandTimeout = 2500 * time.Millisecond

	contentLimit = 2000
)

func NewHandler(b *pkg.Bot, c *pkg.Config) *Handler {
	mux := handler.New()
	mux.Error(func(e *handler.InteractionEvent, err error) {
		i := e.Interaction.(discord.ApplicationCommandInteraction)
		slog.Error("voicestatus: error while handling a command", slog.String("command.name", i.Data.CommandName()), tint.Err(err))
		_ = e.Respond(discord.InteractionResponseTypeCreateMessage, discord.NewMessageCreate().
			WithContentf("There was an error while handling the command: %v", err).
			WithEphemeral(true))
	})
	handlers := &Handler{
		Bot:    b,
		Config: c,
		Router: mux,
	}
	handlers.Group(func(r handler.Router) {
		r.Command("/toggle", handlers.HandleToggle)
		r.Command("/update", handlers.HandleUpdate)
		r.Command("/debug", handlers.HandleDebug)
	})
	handlers.Group(func(r handler.Router) {
		r.SlashCommand("/emoji", handlers.HandleEmoji)
		r.SlashCommand("/get_icon", handlers.HandleGetIcon)
	})
	handlers.SlashCommand("/config", handlers.HandleConfig)
	handlers.Command("/reload", handlers.HandleReload)
	return handlers
}

type Handler struct {
	Bot    *pkg.Bot
	Config *pkg.Config
	handler.Router
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func logCommand(event *handler.CommandEvent, name string) {
	slog.Info("voicestatus: user ran a command",
		slog.String("command.name", name),
		slog.String("user.name", event.User().Username),
		slog.Any("channel.id", event.Channel().ID()))
}

// targetUser is the user given as target_user, or the user running the command.
func targetUser(data discord.SlashCommandInteractionData, event *handler.CommandEvent) discord.User {
	if user, ok := data.OptUser(optionTargetUser); ok {
		return user
	}
	return event.User()
}

func guildChannel(event *handler.CommandEvent) (snowflake.ID, snowflake.ID, bool) {
	guildID := event.GuildID()
	if guildID == nil {
		return 0, 0, false
	}
	return *guildID, event.Channel().ID(), true
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= contentLimit {
		return content
	}
	return string(runes[:contentLimit-1]) + "…"
}
