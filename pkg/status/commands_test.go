package status

import (
	"context"
	"testing"

	"voice-status-bot/pkg/config"
	"voice-status-bot/pkg/tracker"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditGame(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	edit, err := f.updater.EditGame(ctx, testGuild, 1, GameActionAdd, "⛏️", "Block Game")
	require.NoError(t, err)
	assert.Equal(t, GameEdit{Game: "Minecraft", Emoji: "⛏️"}, edit)
	game, ok := f.db.Guild(testGuild).LookupGame("Minecraft")
	require.True(t, ok)
	assert.Equal(t, config.Game{Emoji: "⛏️", DisplayName: "Block Game"}, game)

	edit, err = f.updater.EditGame(ctx, testGuild, 1, GameActionRemove, "", "")
	require.NoError(t, err)
	assert.Equal(t, "⛏️", edit.Emoji)

	_, err = f.updater.EditGame(ctx, testGuild, 1, GameActionRemove, "", "")
	assert.ErrorIs(t, err, ErrNoEmoji)
}

func TestEditGameIgnoreToggles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	edit, err := f.updater.EditGame(ctx, testGuild, 1, GameActionIgnore, "", "")
	require.NoError(t, err)
	assert.Equal(t, GameEdit{Game: "Minecraft", Ignored: true}, edit)
	assert.Empty(t, f.updater.MemberGames(testGuild, 1))

	edit, err = f.updater.EditGame(ctx, testGuild, 1, GameActionIgnore, "", "")
	require.NoError(t, err)
	assert.Equal(t, GameEdit{Game: "Minecraft"}, edit)
	game, _ := f.db.Guild(testGuild).LookupGame("Minecraft")
	assert.False(t, game.Ignore)
	assert.Equal(t, []string{"Minecraft"}, f.updater.MemberGames(testGuild, 1))
}

func TestEditGameInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.updater.EditGame(ctx, testGuild, 1, GameActionAdd, "two words", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.updater.EditGame(ctx, testGuild, 1, GameActionAdd, " 😀", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.updater.EditGame(ctx, testGuild, 1, GameActionAdd, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	// a display name alone is enough and is kept as given
	edit, err := f.updater.EditGame(ctx, testGuild, 1, GameActionAdd, "two words", " Block Game")
	require.NoError(t, err)
	assert.Empty(t, edit.Emoji)
	game, _ := f.db.Guild(testGuild).LookupGame("Minecraft")
	assert.Equal(t, config.Game{DisplayName: " Block Game"}, game)

	_, err = f.updater.EditGame(ctx, testGuild, 1, "rename", "x", "")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestEditGameRefusals(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.updater.EditGame(ctx, testGuild, 2, GameActionAdd, "🎮", "")
	assert.ErrorIs(t, err, ErrNoGame)

	setActivities(f.caches, 3,
		discord.Activity{Name: "Minecraft", Type: discord.ActivityTypeGame},
		discord.Activity{Name: "Terraria", Type: discord.ActivityTypeGame})
	_, err = f.updater.EditGame(ctx, testGuild, 3, GameActionAdd, "🎮", "")
	assert.ErrorIs(t, err, ErrMultipleGames)
}

func TestLinkAccount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.updater.LinkAccount(ctx, testGuild, 2, config.AccountKeyRobloxID, "12345"))
	assert.Equal(t, "12345", f.db.Guild(testGuild).LookupMember(2).RobloxID)

	assert.ErrorIs(t, f.updater.LinkAccount(ctx, testGuild, 2, config.AccountKeySteamID, "not-a-number"), ErrInvalidAccount)
	assert.ErrorIs(t, f.updater.LinkAccount(ctx, testGuild, 2, "discord_id", "1"), ErrInvalidInput)

	// unlinking the only account prunes the member
	require.NoError(t, f.updater.LinkAccount(ctx, testGuild, 2, config.AccountKeyRobloxID, ""))
	assert.NotContains(t, f.db.Guild(testGuild).Members, snowflake.ID(2))
}

func TestCurrentGame(t *testing.T) {
	f := newFixture(t, map[string][]string{"76561198000000002": {"Terraria"}})
	ctx := context.Background()

	game, err := f.updater.CurrentGame(testGuild, 1)
	require.NoError(t, err)
	assert.Equal(t, "Minecraft", game.Name)

	_, err = f.updater.CurrentGame(testGuild, 2)
	assert.ErrorIs(t, err, ErrNoGame)

	require.NoError(t, f.updater.LinkAccount(ctx, testGuild, 2, config.AccountKeySteamID, "76561198000000002"))
	require.NoError(t, f.updater.UpdateGuild(ctx, testGuild))
	require.NoError(t, f.steam.Poll(ctx))

	game, err = f.updater.CurrentGame(testGuild, 2)
	require.NoError(t, err)
	assert.Equal(t, tracker.Activity{Name: "Terraria", Type: tracker.ActivityTypeGame}, game)
}

func TestDebug(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.updater.UpdateChannel(context.Background(), testGuild, testChannel, false))

	info, err := f.updater.Debug(testGuild, testChannel)
	require.NoError(t, err)
	assert.Equal(t, []MemberActivity{{Member: "alice", Activity: "Minecraft"}}, info.Activities)
	assert.Equal(t, []GameInfo{{Name: "Minecraft", Count: 1}}, info.Tracked)
	assert.Equal(t,
		"All activities: [(alice, Minecraft)]\nTracked games: [(Minecraft, 1)]\nConfig: {active: true, name: \"General\", current_message: \"Minecraft\"}",
		info.String())

	_, err = f.updater.Debug(testGuild, 999)
	assert.ErrorIs(t, err, ErrNotVoiceChannel)
}
