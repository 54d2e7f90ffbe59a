package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/tracker"

	"github.com/disgoorg/snowflake/v2"
)

var (
	ErrNoGame         = errors.New("not playing any games")
	ErrMultipleGames  = errors.New("playing multiple games")
	ErrNoEmoji        = errors.New("no emoji set for this game")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidAccount = errors.New("account ids must be numeric")
)

type GameAction string

const (
	GameActionAdd    GameAction = "add"
	GameActionRemove GameAction = "remove"
	GameActionIgnore GameAction = "ignore"
)

// GameEdit describes the outcome of EditGame.
type GameEdit struct {
	Game    string
	Emoji   string
	Ignored bool
}

func (u *Updater) member(guildID snowflake.ID, userID snowflake.ID) tracker.Member {
	member, ok := u.tracker.Member(guildID, userID)
	if !ok {
		member = tracker.Member{ID: userID}
	}
	return member
}

// MemberGames returns the tracked games of a member.
func (u *Updater) MemberGames(guildID snowflake.ID, userID snowflake.ID) []string {
	return TrackedGames(u.member(guildID, userID), u.db.Guild(guildID), u.steam, u.roblox)
}

// CurrentGame returns the first game of a member, with the Discord activity behind it when there is
// one. Games known only from a linked account come back as a bare activity.
func (u *Updater) CurrentGame(guildID snowflake.ID, userID snowflake.ID) (tracker.Activity, error) {
	member := u.member(guildID, userID)
	for _, activity := range member.Activities {
		if activity.Tracked() {
			return activity, nil
		}
	}
	games := TrackedGames(member, u.db.Guild(guildID), u.steam, u.roblox)
	if len(games) == 0 {
		return tracker.Activity{}, ErrNoGame
	}
	return tracker.Activity{Name: games[0], Type: tracker.ActivityTypeGame}, nil
}

// EditGame changes the settings of the one game a member is playing, ignored or not. emoji and
// displayName may be empty.
func (u *Updater) EditGame(ctx context.Context, guildID snowflake.ID, userID snowflake.ID, action GameAction, emoji string, displayName string) (GameEdit, error) {
	games := PlayedGames(u.member(guildID, userID), u.db.Guild(guildID), u.steam, u.roblox)
	if len(games) == 0 {
		return GameEdit{}, ErrNoGame
	}
	if len(games) > 1 {
		return GameEdit{}, ErrMultipleGames
	}
	edit := GameEdit{Game: games[0]}

	// an emoji never contains a space, not even a leading or trailing one
	if strings.Contains(emoji, " ") {
		emoji = ""
	}
	emoji = strings.TrimSpace(emoji)

	var err error
	u.db.Update(guildID, func(g *config.Guild) {
		existing, _ := g.LookupGame(edit.Game)
		switch action {
		case GameActionRemove:
			if existing.Emoji == "" {
				err = ErrNoEmoji
				return
			}
			edit.Emoji = existing.Emoji
			g.Game(edit.Game).Emoji = ""
		case GameActionAdd:
			if emoji == "" && displayName == "" {
				err = ErrInvalidInput
				return
			}
			game := g.Game(edit.Game)
			if emoji != "" {
				game.Emoji = emoji
			}
			if displayName != "" {
				game.DisplayName = displayName
			}
			edit.Emoji = game.Emoji
		case GameActionIgnore:
			game := g.Game(edit.Game)
			game.Ignore = !game.Ignore
			edit.Ignored = game.Ignore
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownAction, action)
		}
	})
	if err != nil {
		return edit, err
	}
	slog.Info("voicestatus: edited game",
		slog.Any("guild.id", guildID),
		slog.String("game", edit.Game),
		slog.String("action", string(action)),
		slog.String("emoji", edit.Emoji),
		slog.Bool("ignored", edit.Ignored))
	return edit, u.db.Save(ctx)
}

// LinkAccount links an external account to a member, or unlinks it when value is empty.
func (u *Updater) LinkAccount(ctx context.Context, guildID snowflake.ID, userID snowflake.ID, key config.AccountKey, value string) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)
	if value != "" {
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return ErrInvalidAccount
		}
	}
	var err error
	u.db.Update(guildID, func(g *config.Guild) {
		err = g.Member(userID).Set(key, value)
	})
	if err != nil {
		return err
	}
	slog.Info("voicestatus: linked account", slog.Any("guild.id", guildID), slog.Any("user.id", userID), slog.String("key", string(key)), slog.String("value", value))
	u.mu.Lock()
	defer u.mu.Unlock()
	voiceChannelIDs := u.tracker.VoiceChannelIDs(guildID)
	u.db.Update(guildID, func(g *config.Guild) {
		g.Prune(voiceChannelIDs)
	})
	return u.db.Save(ctx)
}

type MemberActivity struct {
	Member   string
	Activity string
}

func (a MemberActivity) String() string {
	return fmt.Sprintf("(%s, %s)", a.Member, a.Activity)
}

// DebugInfo is everything /debug shows about a voice channel.
type DebugInfo struct {
	Activities []MemberActivity
	Tracked    []GameInfo
	Channel    config.Channel
}

func (d DebugInfo) String() string {
	name := "null"
	if d.Channel.Name != nil {
		name = strconv.Quote(*d.Channel.Name)
	}
	message := "null"
	if d.Channel.CurrentMessage != nil {
		message = strconv.Quote(*d.Channel.CurrentMessage)
	}
	return fmt.Sprintf("All activities: %v\nTracked games: %v\nConfig: {active: %t, name: %s, current_message: %s}",
		d.Activities, d.Tracked, d.Channel.Active, name, message)
}

func (u *Updater) Debug(guildID snowflake.ID, channelID snowflake.ID) (DebugInfo, error) {
	if _, ok := u.tracker.VoiceChannel(guildID, channelID); !ok {
		return DebugInfo{}, ErrNotVoiceChannel
	}
	var channel config.Channel
	u.db.Update(guildID, func(g *config.Guild) {
		channel = *g.Channel(channelID).Clone()
	})
	guild := u.db.Guild(guildID)
	members := u.tracker.ChannelMembers(guildID, channelID)
	info := DebugInfo{
		Activities: []MemberActivity{},
		Tracked:    u.summarize(members, guild),
		Channel:    channel,
	}
	for _, member := range members {
		for _, activity := range member.Activities {
			info.Activities = append(info.Activities, MemberActivity{Member: member.DisplayName(), Activity: activity.Name})
		}
	}
	return info, nil
}
