package handlers

import (
	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/icon"
	"voice-status-bot/pkg/status"

	"github.com/disgoorg/disgo/discord"
)

const (
	optionAction      = "action"
	optionEmoji       = "emoji"
	optionDisplayName = "display_name"
	optionTargetUser  = "target_user"
	optionKey         = "key"
	optionValue       = "value"
	optionSource      = "source"
)

func targetUserOption(description string) discord.ApplicationCommandOptionUser {
	return discord.ApplicationCommandOptionUser{
		Name:        optionTargetUser,
		Description: description,
	}
}

// Commands are the application commands served by NewHandler.
var Commands = []discord.ApplicationCommandCreate{
	discord.SlashCommandCreate{
		Name:        "toggle",
		Description: "Toggle Voice Status updates for this channel",
	},
	discord.SlashCommandCreate{
		Name:        "update",
		Description: "Force an update of the Voice Status",
	},
	discord.SlashCommandCreate{
		Name:        "debug",
		Description: "Debug the current voice channel status",
	},
	discord.SlashCommandCreate{
		Name:        "emoji",
		Description: "Edit config for the game, usually to add an emoji",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        optionAction,
				Description: "Whether to add or remove an emoji",
				Required:    true,
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: "add", Value: string(status.GameActionAdd)},
					{Name: "remove", Value: string(status.GameActionRemove)},
					{Name: "ignore", Value: string(status.GameActionIgnore)},
				},
			},
			discord.ApplicationCommandOptionString{
				Name:        optionEmoji,
				Description: "The emoji to add (ignored if removing)",
			},
			discord.ApplicationCommandOptionString{
				Name:        optionDisplayName,
				Description: "Override the game name with a custom display name",
			},
			targetUserOption("@Mention the user whose game you want to target (defaults to you if omitted)"),
		},
	},
	discord.SlashCommandCreate{
		Name:        "config",
		Description: "Edit config for this guild",
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        optionKey,
				Description: "The key to edit",
				Required:    true,
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: string(config.AccountKeySteamID), Value: string(config.AccountKeySteamID)},
					{Name: string(config.AccountKeyRobloxID), Value: string(config.AccountKeyRobloxID)},
				},
			},
			discord.ApplicationCommandOptionString{
				Name:        optionValue,
				Description: "The value to set the key to (unlinks the account if omitted)",
			},
			targetUserOption("@Mention the user who you want to target (defaults to you if omitted)"),
		},
	},
	discord.SlashCommandCreate{
		Name:        "get_icon",
		Description: "Get the link to your current game's icon if it exists",
		Options: []discord.ApplicationCommandOption{
			targetUserOption("@Mention the user whose game you want to target (defaults to you if omitted)"),
			discord.ApplicationCommandOptionString{
				Name:        optionSource,
				Description: "The service to pick the icon from (defaults to first available if omitted)",
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: "discord", Value: string(icon.SourceDiscord)},
					{Name: "steam", Value: string(icon.SourceSteam)},
				},
			},
		},
	},
	discord.SlashCommandCreate{
		Name:        "reload",
		Description: "Restart the bot cause it broke",
	},
}
