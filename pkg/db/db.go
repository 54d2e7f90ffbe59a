package db

import (
	"context"
	"sync"

	"voice-status-bot/pkg/config"

	"github.com/disgoorg/snowflake/v2"
)

// Backend persists the whole configuration document.
type Backend interface {
	Load(ctx context.Context) (*config.File, error)
	Save(ctx context.Context, file *config.File) error
}

// DB keeps the configuration in memory and writes it through a Backend.
type DB struct {
	backend Backend

	mu   sync.Mutex
	file *config.File
}

func Open(ctx context.Context, backend Backend) (*DB, error) {
	file, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	if file == nil {
		file = config.NewFile()
	}
	return &DB{backend: backend, file: file}, nil
}

// Guild returns a copy of the guild's config.
func (db *DB) Guild(guildID snowflake.ID) config.Guild {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.file.Guild(guildID).Clone()
}

// Update runs fn with the guild's live config while holding the lock.
// fn must not call back into db.
func (db *DB) Update(guildID snowflake.ID, fn func(g *config.Guild)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.file.Guild(guildID))
}

// RemoveGuild drops all config of a guild the bot left.
func (db *DB) RemoveGuild(guildID snowflake.ID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.file.Guilds, guildID)
}

// Save persists a snapshot; the lock is not held during I/O.
func (db *DB) Save(ctx context.Context) error {
	db.mu.Lock()
	snapshot := db.file.Clone()
	db.mu.Unlock()
	return db.backend.Save(ctx, snapshot)
}
