package status

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/tracker"
	"voice-status-bot/pkg/voice"
)

// GameSource looks up the games of a linked external account.
type GameSource interface {
	Values(id string) ([]string, bool)
}

// GameInfo is one entry of a voice status. Games sharing an emoji are merged into one entry.
type GameInfo struct {
	Name  string
	Emoji string
	Count int
}

func (g GameInfo) String() string {
	return fmt.Sprintf("(%s, %d)", g.Name, g.Count)
}

// TrackedGames returns the games a member counts towards: their Discord games if they have any,
// then the game of their linked Steam account, then Roblox. Ignored games are dropped.
func TrackedGames(member tracker.Member, guild config.Guild, steam GameSource, roblox GameSource) []string {
	return slices.DeleteFunc(PlayedGames(member, guild, steam, roblox), func(name string) bool {
		game, _ := guild.LookupGame(name)
		return game.Ignore
	})
}

// PlayedGames is TrackedGames with ignored games kept.
func PlayedGames(member tracker.Member, guild config.Guild, steam GameSource, roblox GameSource) []string {
	var games []string
	for _, activity := range member.Activities {
		if activity.Tracked() && !slices.Contains(games, activity.Name) {
			games = append(games, activity.Name)
		}
	}
	if len(games) == 0 {
		linked := guild.LookupMember(member.ID)
		if steam != nil {
			games, _ = steam.Values(linked.SteamID)
		}
		if len(games) == 0 && roblox != nil {
			games, _ = roblox.Values(linked.RobloxID)
		}
	}
	return slices.DeleteFunc(games, func(name string) bool {
		return name == ""
	})
}

// Summarize counts the games of all members. Entries are sorted by count, ties keep the order in
// which the games were first seen. A merged entry takes the display name of the last game that
// has one.
func Summarize(games [][]string, guild config.Guild) []GameInfo {
	var infos []GameInfo
	index := make(map[string]int)
	for _, memberGames := range games {
		for _, name := range memberGames {
			game, _ := guild.LookupGame(name)
			key := "game:" + name
			if game.Emoji != "" {
				key = "emoji:" + game.Emoji
			}
			if i, ok := index[key]; ok {
				infos[i].Count++
				if game.DisplayName != "" {
					infos[i].Name = game.DisplayName
				}
				continue
			}
			info := GameInfo{Name: name, Emoji: game.Emoji, Count: 1}
			if game.DisplayName != "" {
				info.Name = game.DisplayName
			}
			index[key] = len(infos)
			infos = append(infos, info)
		}
	}
	slices.SortStableFunc(infos, func(a GameInfo, b GameInfo) int {
		return b.Count - a.Count
	})
	return infos
}

// FormatStatus renders the summary as a voice status.
func FormatStatus(infos []GameInfo) string {
	var status string
	switch len(infos) {
	case 0:
		return ""
	case 1:
		status = infos[0].Name
		if infos[0].Emoji != "" {
			status = infos[0].Emoji + " " + status
		}
	default:
		var emojis []string
		var named GameInfo
		for _, info := range infos {
			if info.Emoji != "" {
				emojis = append(emojis, info.Emoji)
				named = info
			}
		}
		switch len(emojis) {
		case 0:
			status = fmt.Sprintf("Playing %d games", len(infos))
		case 1:
			status = named.Emoji + " " + named.Name
		default:
			status = strings.Join(emojis, " ")
		}
	}
	return truncate(status, voice.MaxStatusLength)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
