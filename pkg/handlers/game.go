package handlers

import (
	"errors"
	"fmt"

	"voice-status-bot/pkg/icon"
	"voice-status-bot/pkg/status"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
)

// emojiReply renders the outcome of /emoji. Only removals are announced publicly.
func emojiReply(action status.GameAction, emoji string, displayName string, edit status.GameEdit, err error) (string, bool, error) {
	switch {
	case errors.Is(err, status.ErrNoGame):
		return "You are not playing any games.", true, nil
	case errors.Is(err, status.ErrMultipleGames):
		return "You are playing multiple games. Aborting..", true, nil
	case errors.Is(err, status.ErrNoEmoji):
		return fmt.Sprintf("You have not added an emoji for this game. %s", edit.Game), true, nil
	case errors.Is(err, status.ErrInvalidInput):
		return fmt.Sprintf("Invalid input (%s, %s)", emoji, displayName), true, nil
	case err != nil:
		return "", true, err
	}
	switch action {
	case status.GameActionRemove:
		return fmt.Sprintf("Removed emoji %s for game %s", edit.Emoji, edit.Game), false, nil
	case status.GameActionIgnore:
		if edit.Ignored {
			return fmt.Sprintf("Ignored game %s", edit.Game), true, nil
		}
		return fmt.Sprintf("Unignored game %s", edit.Game), true, nil
	}
	return fmt.Sprintf("Added emoji %s for game %s", edit.Emoji, edit.Game), true, nil
}

func (h *Handler) HandleEmoji(data discord.SlashCommandInteractionData, event *handler.CommandEvent) error {
	logCommand(event, "emoji")
	guildID := event.GuildID()
	if guildID == nil {
		return event.CreateMessage(discord.NewMessageCreate().
			WithContent("Must be run in the server where the emoji is to be added").
			WithEphemeral(true))
	}
	action := status.GameAction(data.String(optionAction))
	emoji := data.String(optionEmoji)
	displayName := data.String(optionDisplayName)

	ctx, cancel := commandContext()
	defer cancel()
	edit, err := h.Bot.Updater.EditGame(ctx, *guildID, targetUser(data, event).ID, action, emoji, displayName)
	content, ephemeral, err := emojiReply(action, emoji, displayName, edit, err)
	if err != nil {
		return err
	}
	return event.CreateMessage(discord.NewMessageCreate().WithContent(content).WithEphemeral(ephemeral))
}

func (h *Handler) HandleGetIcon(data discord.SlashCommandInteractionData, event *handler.CommandEvent) error {
	logCommand(event, "get_icon")
	messageCreate := discord.NewMessageCreate().WithEphemeral(true)
	guildID := event.GuildID()
	if guildID == nil {
		return event.CreateMessage(messageCreate.WithContent("Must be run in a server to fetch activity data from user"))
	}
	game, err := h.Bot.Updater.CurrentGame(*guildID, targetUser(data, event).ID)
	if errors.Is(err, status.ErrNoGame) {
		return event.CreateMessage(messageCreate.WithContent("User is not playing any games."))
	}
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()
	u, err := h.Bot.Icons.Resolve(ctx, game, icon.Source(data.String(optionSource)))
	if err != nil {
		return err
	}
	if u == "" {
		return event.CreateMessage(messageCreate.WithContent("Unable to get game url for this game."))
	}
	return event.CreateMessage(messageCreate.WithContent(u))
}
