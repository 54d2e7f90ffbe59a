// Package tracker is a read-only view over the disgo caches: the voice channels of each guild, who
// sits in which of them and what everyone is doing.
package tracker

import (
	"cmp"
	"slices"

	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

type ActivityType int

const (
	ActivityTypeGame ActivityType = iota
	ActivityTypeStreaming
	ActivityTypeListening
	ActivityTypeWatching
	ActivityTypeCustom
	ActivityTypeCompeting
)

func (t ActivityType) String() string {
	switch t {
	case ActivityTypeGame:
		return "Playing"
	case ActivityTypeStreaming:
		return "Streaming"
	case ActivityTypeListening:
		return "Listening"
	case ActivityTypeWatching:
		return "Watching"
	case ActivityTypeCustom:
		return "Custom"
	case ActivityTypeCompeting:
		return "Competing"
	}
	return "Unknown"
}

type Activity struct {
	Name          string
	Type          ActivityType
	ApplicationID snowflake.ID
	LargeImage    string
	SmallImage    string
}

// Tracked reports whether the activity counts as playing a game for the voice status.
func (a Activity) Tracked() bool {
	return a.Name != "" && (a.Type == ActivityTypeGame || a.Type == ActivityTypeStreaming)
}

type Channel struct {
	ID   snowflake.ID
	Name string
}

type Member struct {
	ID         snowflake.ID
	Name       string
	Activities []Activity
}

// DisplayName falls back to a mention when no name was seen for the member.
func (m Member) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return "<@" + m.ID.String() + ">"
}

// CacheConfigOpts enables the caches the tracker reads from.
func CacheConfigOpts() []cache.ConfigOpt {
	return []cache.ConfigOpt{
		cache.WithCaches(cache.FlagGuilds, cache.FlagChannels, cache.FlagMembers, cache.FlagVoiceStates, cache.FlagPresences),
		cache.WithMemberCachePolicy(func(entity discord.Member) bool {
			return !entity.User.Bot
		}),
	}
}

type Tracker struct {
	caches cache.Caches
}

func New(caches cache.Caches) *Tracker {
	return &Tracker{caches: caches}
}

func (t *Tracker) Guilds() []snowflake.ID {
	var ids []snowflake.ID
	for guild := range t.caches.Guilds() {
		ids = append(ids, guild.ID)
	}
	slices.Sort(ids)
	return ids
}

// VoiceChannels returns the guild's voice channels ordered by id.
func (t *Tracker) VoiceChannels(guildID snowflake.ID) []Channel {
	var channels []Channel
	for channel := range t.caches.Channels() {
		if channel.GuildID() != guildID {
			continue
		}
		if ch, ok := voiceChannel(channel); ok {
			channels = append(channels, ch)
		}
	}
	slices.SortFunc(channels, func(a, b Channel) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return channels
}

func (t *Tracker) VoiceChannelIDs(guildID snowflake.ID) []snowflake.ID {
	channels := t.VoiceChannels(guildID)
	ids := make([]snowflake.ID, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	return ids
}

func (t *Tracker) VoiceChannel(guildID snowflake.ID, channelID snowflake.ID) (Channel, bool) {
	channel, ok := t.caches.Channel(channelID)
	if !ok || channel.GuildID() != guildID {
		return Channel{}, false
	}
	return voiceChannel(channel)
}

// ChannelMembers returns the members connected to a voice channel ordered by id.
func (t *Tracker) ChannelMembers(guildID snowflake.ID, channelID snowflake.ID) []Member {
	var members []Member
	for state := range t.caches.VoiceStates(guildID) {
		if state.ChannelID != nil && *state.ChannelID == channelID {
			members = append(members, t.member(guildID, state.UserID))
		}
	}
	slices.SortFunc(members, func(a, b Member) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return members
}

// Member returns what is known about a user, whether or not they are in voice.
func (t *Tracker) Member(guildID snowflake.ID, userID snowflake.ID) (Member, bool) {
	_, inVoice := t.caches.VoiceState(guildID, userID)
	_, hasPresence := t.caches.Presence(guildID, userID)
	_, isMember := t.caches.Member(guildID, userID)
	if !inVoice && !hasPresence && !isMember {
		return Member{}, false
	}
	return t.member(guildID, userID), true
}

func (t *Tracker) member(guildID snowflake.ID, userID snowflake.ID) Member {
	m := Member{ID: userID}
	if member, ok := t.caches.Member(guildID, userID); ok {
		m.Name = member.User.Username
	}
	if presence, ok := t.caches.Presence(guildID, userID); ok {
		m.Activities = Activities(presence.Activities)
	}
	return m
}

// IsVoiceChannel reports whether a channel gets a voice status.
func IsVoiceChannel(channel discord.GuildChannel) bool {
	return channel != nil && channel.Type() == discord.ChannelTypeGuildVoice
}

func voiceChannel(channel discord.GuildChannel) (Channel, bool) {
	if !IsVoiceChannel(channel) {
		return Channel{}, false
	}
	return Channel{ID: channel.ID(), Name: channel.Name()}, true
}

func Activities(activities []discord.Activity) []Activity {
	converted := make([]Activity, 0, len(activities))
	for _, a := range activities {
		activity := Activity{
			Name:          a.Name,
			Type:          ActivityType(a.Type),
			ApplicationID: a.ApplicationID,
		}
		if a.Assets != nil {
			activity.LargeImage = a.Assets.LargeImage
			activity.SmallImage = a.Assets.SmallImage
		}
		converted = append(converted, activity)
	}
	return converted
}
