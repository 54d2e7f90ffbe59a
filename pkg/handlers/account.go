package handlers

import (
	"errors"
	"fmt"

	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/status"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

func configReply(key config.AccountKey, value string, username string, err error) (string, error) {
	switch {
	case errors.Is(err, status.ErrInvalidAccount):
		return fmt.Sprintf("%s must be a number.", key), nil
	case errors.Is(err, status.ErrInvalidInput):
		return fmt.Sprintf("Unknown key %s.", string(key)), nil
	case err != nil:
		return "", err
	}
	if value == "" {
		return fmt.Sprintf("Removed %s for %s", key, username), nil
	}
	return fmt.Sprintf("Set %s to %s for %s", key, value, username), nil
}

func (h *Handler) HandleConfig(data discord.SlashCommandInteractionData, event *handler.CommandEvent) error {
	logCommand(event, "config")
	messageCreate := discord.NewMessageCreate().WithEphemeral(true)
	guildID := event.GuildID()
	if guildID == nil {
		return event.CreateMessage(messageCreate.WithContent("Must be run in the server where the config is to be added"))
	}
	key := config.AccountKey(data.String(optionKey))
	value := data.String(optionValue)
	user := targetUser(data, event)

	ctx, cancel := commandContext()
	defer cancel()
	content, err := configReply(key, value, user.Username, h.Bot.Updater.LinkAccount(ctx, *guildID, user.ID, key, value))
	if err != nil {
		return err
	}
	return event.CreateMessage(messageCreate.WithContent(content))
}
