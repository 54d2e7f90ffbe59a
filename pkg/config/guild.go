package config

import (
	"slices"

	"github.com/disgoorg/snowflake/v2"
)

// File is the persisted configuration document.
type File struct {
	Guilds map[snowflake.ID]*Guild `json:"guilds"`
}

func NewFile() *File {
	return &File{Guilds: make(map[snowflake.ID]*Guild)}
}

// Guild returns the guild's config, creating an empty one on first access.
func (f *File) Guild(guildID snowflake.ID) *Guild {
	if f.Guilds == nil {
		f.Guilds = make(map[snowflake.ID]*Guild)
	}
	g, ok := f.Guilds[guildID]
	if !ok {
		g = NewGuild()
		f.Guilds[guildID] = g
	}
	g.init()
	return g
}

type Guild struct {
	Channels map[snowflake.ID]*Channel `json:"channels"`
	Games    map[string]*Game          `json:"emojis"`
	Members  map[snowflake.ID]*Member  `json:"members"`
}

func NewGuild() *Guild {
	g := &Guild{}
	g.init()
	return g
}

func (g *Guild) init() {
	if g.Channels == nil {
		g.Channels = make(map[snowflake.ID]*Channel)
	}
	if g.Games == nil {
		g.Games = make(map[string]*Game)
	}
	if g.Members == nil {
		g.Members = make(map[snowflake.ID]*Member)
	}
}

// Channel returns the voice channel's config. New channels start active with an empty status.
func (g *Guild) Channel(channelID snowflake.ID) *Channel {
	g.init()
	c, ok := g.Channels[channelID]
	if !ok {
		empty := ""
		c = &Channel{Active: true, CurrentMessage: &empty}
		g.Channels[channelID] = c
	}
	return c
}

func (g *Guild) Member(userID snowflake.ID) *Member {
	g.init()
	m, ok := g.Members[userID]
	if !ok {
		m = &Member{}
		g.Members[userID] = m
	}
	return m
}

func (g *Guild) Game(name string) *Game {
	g.init()
	game, ok := g.Games[name]
	if !ok {
		game = &Game{}
		g.Games[name] = game
	}
	return game
}

// LookupMember does not create missing entries, which makes it safe on read-only copies.
func (g Guild) LookupMember(userID snowflake.ID) Member {
	if m, ok := g.Members[userID]; ok && m != nil {
		return *m
	}
	return Member{}
}

func (g Guild) LookupGame(name string) (Game, bool) {
	if game, ok := g.Games[name]; ok && game != nil {
		return *game, true
	}
	return Game{}, false
}

// Prune drops channels that are no longer voice channels of the guild, members without a linked
// account and games without any setting. It reports whether anything was removed.
func (g *Guild) Prune(voiceChannelIDs []snowflake.ID) bool {
	g.init()
	removed := false
	for id := range g.Channels {
		if !slices.Contains(voiceChannelIDs, id) {
			delete(g.Channels, id)
			removed = true
		}
	}
	for id, m := range g.Members {
		if m == nil || m.Empty() {
			delete(g.Members, id)
			removed = true
		}
	}
	for name, game := range g.Games {
		if game == nil || game.Empty() {
			delete(g.Games, name)
			removed = true
		}
	}
	return removed
}

func (g *Guild) Clone() *Guild {
	c := &Guild{
		Channels: make(map[snowflake.ID]*Channel, len(g.Channels)),
		Games:    make(map[string]*Game, len(g.Games)),
		Members:  make(map[snowflake.ID]*Member, len(g.Members)),
	}
	for id, ch := range g.Channels {
		if ch != nil {
			c.Channels[id] = ch.Clone()
		}
	}
	for name, game := range g.Games {
		if game != nil {
			cp := *game
			c.Games[name] = &cp
		}
	}
	for id, m := range g.Members {
		if m != nil {
			cp := *m
			c.Members[id] = &cp
		}
	}
	return c
}

func (f *File) Clone() *File {
	c := &File{Guilds: make(map[snowflake.ID]*Guild, len(f.Guilds))}
	for id, g := range f.Guilds {
		if g != nil {
			c.Guilds[id] = g.Clone()
		}
	}
	return c
}

type Channel struct {
	Active         bool    `json:"active"`
	Name           *string `json:"name"`
	CurrentMessage *string `json:"current_message"`
}

func (c *Channel) Clone() *Channel {
	cp := *c
	if c.Name != nil {
		name := *c.Name
		cp.Name = &name
	}
	if c.CurrentMessage != nil {
		msg := *c.CurrentMessage
		cp.CurrentMessage = &msg
	}
	return &cp
}

// HasMessage reports whether the cached status equals message. A cleared (nil) status never matches.
func (c *Channel) HasMessage(message string) bool {
	return c.CurrentMessage != nil && *c.CurrentMessage == message
}

// Game holds the per-game settings edited by /emoji. Games are keyed by their activity name.
type Game struct {
	Emoji       string `json:"emoji,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Ignore      bool   `json:"ignore,omitempty"`
}

func (g Game) Empty() bool {
	return g.Emoji == "" && g.DisplayName == "" && !g.Ignore
}

type Member struct {
	SteamID  string `json:"steam_id,omitempty"`
	RobloxID string `json:"roblox_id,omitempty"`
}

func (m Member) Empty() bool {
	return m.SteamID == "" && m.RobloxID == ""
}
