package tracker

import (
	"fmt"
	"testing"

	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id snowflake.ID) *snowflake.ID {
	return &id
}

func guildChannel(t *testing.T, channelType discord.ChannelType, guildID snowflake.ID, id snowflake.ID, name string) discord.GuildChannel {
	t.Helper()
	data := fmt.Sprintf(`{"id":"%d","type":%d,"guild_id":"%d","name":%q}`, id, channelType, guildID, name)
	var channel discord.UnmarshalChannel
	require.NoError(t, json.Unmarshal([]byte(data), &channel))
	guildChannel, ok := channel.Channel.(discord.GuildChannel)
	require.True(t, ok)
	return guildChannel
}

func newTestCaches(t *testing.T) cache.Caches {
	caches := cache.New(CacheConfigOpts()...)
	caches.AddGuild(discord.Guild{ID: 1})
	caches.AddGuild(discord.Guild{ID: 2})
	caches.AddChannel(guildChannel(t, discord.ChannelTypeGuildVoice, 1, 20, "Lounge"))
	caches.AddChannel(guildChannel(t, discord.ChannelTypeGuildVoice, 1, 10, "General"))
	caches.AddChannel(guildChannel(t, discord.ChannelTypeGuildText, 1, 15, "chat"))
	caches.AddChannel(guildChannel(t, discord.ChannelTypeGuildVoice, 2, 30, "Elsewhere"))

	caches.AddVoiceState(discord.VoiceState{GuildID: 1, ChannelID: ptr(10), UserID: 200})
	caches.AddVoiceState(discord.VoiceState{GuildID: 1, ChannelID: ptr(10), UserID: 100})
	caches.AddVoiceState(discord.VoiceState{GuildID: 1, ChannelID: ptr(20), UserID: 300})

	caches.AddMember(discord.Member{GuildID: 1, User: discord.User{ID: 100, Username: "alice"}})
	caches.AddPresence(discord.Presence{
		PresenceUser: discord.PresenceUser{ID: 100},
		GuildID:      1,
		Activities: []discord.Activity{
			{Name: "Minecraft", Type: discord.ActivityTypeGame, ApplicationID: 42},
		},
	})
	caches.AddPresence(discord.Presence{
		PresenceUser: discord.PresenceUser{ID: 400},
		GuildID:      1,
		Activities:   []discord.Activity{{Name: "Hades", Type: discord.ActivityTypeGame}},
	})
	return caches
}

func TestQueries(t *testing.T) {
	tr := New(newTestCaches(t))

	assert.Equal(t, []snowflake.ID{1, 2}, tr.Guilds())
	assert.Equal(t, []Channel{{ID: 10, Name: "General"}, {ID: 20, Name: "Lounge"}}, tr.VoiceChannels(1))
	assert.Equal(t, []snowflake.ID{10, 20}, tr.VoiceChannelIDs(1))
	assert.Equal(t, []snowflake.ID{30}, tr.VoiceChannelIDs(2))

	members := tr.ChannelMembers(1, 10)
	require.Len(t, members, 2)
	assert.Equal(t, snowflake.ID(100), members[0].ID)
	assert.Equal(t, "alice", members[0].DisplayName())
	assert.Equal(t, []Activity{{Name: "Minecraft", Type: ActivityTypeGame, ApplicationID: 42}}, members[0].Activities)
	assert.Equal(t, "<@200>", members[1].DisplayName())
	assert.Empty(t, members[1].Activities)
}

func TestVoiceChannel(t *testing.T) {
	tr := New(newTestCaches(t))

	ch, ok := tr.VoiceChannel(1, 20)
	assert.True(t, ok)
	assert.Equal(t, "Lounge", ch.Name)

	_, ok = tr.VoiceChannel(1, 15)
	assert.False(t, ok, "text channels have no voice status")
	_, ok = tr.VoiceChannel(1, 30)
	assert.False(t, ok, "channel of another guild")
	_, ok = tr.VoiceChannel(1, 99)
	assert.False(t, ok)
}

func TestVoiceStateMoves(t *testing.T) {
	caches := newTestCaches(t)
	tr := New(caches)

	caches.AddVoiceState(discord.VoiceState{GuildID: 1, ChannelID: ptr(20), UserID: 100})
	require.Len(t, tr.ChannelMembers(1, 10), 1)
	assert.Len(t, tr.ChannelMembers(1, 20), 2)

	caches.AddVoiceState(discord.VoiceState{GuildID: 1, UserID: 300})
	assert.Len(t, tr.ChannelMembers(1, 20), 1)
}

func TestMember(t *testing.T) {
	tr := New(newTestCaches(t))

	m, ok := tr.Member(1, 400)
	require.True(t, ok, "presence without voice state")
	assert.Equal(t, "Hades", m.Activities[0].Name)

	m, ok = tr.Member(1, 100)
	require.True(t, ok)
	assert.Equal(t, "alice", m.Name)

	_, ok = tr.Member(1, 999)
	assert.False(t, ok)
	_, ok = tr.Member(3, 100)
	assert.False(t, ok)
}

func TestIsVoiceChannel(t *testing.T) {
	assert.True(t, IsVoiceChannel(guildChannel(t, discord.ChannelTypeGuildVoice, 1, 10, "General")))
	assert.False(t, IsVoiceChannel(guildChannel(t, discord.ChannelTypeGuildStageVoice, 1, 11, "Stage")))
	assert.False(t, IsVoiceChannel(guildChannel(t, discord.ChannelTypeGuildText, 1, 12, "chat")))
	assert.False(t, IsVoiceChannel(nil))
}

func TestActivities(t *testing.T) {
	converted := Activities([]discord.Activity{
		{Name: "Minecraft", Type: discord.ActivityTypeGame, ApplicationID: 42, Assets: &discord.ActivityAssets{LargeImage: "large", SmallImage: "small"}},
		{Name: "Spotify", Type: discord.ActivityTypeListening},
	})
	assert.Equal(t, []Activity{
		{Name: "Minecraft", Type: ActivityTypeGame, ApplicationID: 42, LargeImage: "large", SmallImage: "small"},
		{Name: "Spotify", Type: ActivityTypeListening},
	}, converted)
	assert.True(t, converted[0].Tracked())
	assert.False(t, converted[1].Tracked())
}

func TestActivityTracked(t *testing.T) {
	assert.True(t, Activity{Name: "Game", Type: ActivityTypeGame}.Tracked())
	assert.True(t, Activity{Name: "Game", Type: ActivityTypeStreaming}.Tracked())
	assert.False(t, Activity{Name: "Spotify", Type: ActivityTypeListening}.Tracked())
	assert.False(t, Activity{Name: "Custom Status", Type: ActivityTypeCustom}.Tracked())
	assert.False(t, Activity{Type: ActivityTypeGame}.Tracked())
}
