package db

import (
	"context"

	"voice-status-bot/pkg/config"

	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableQuery = "CREATE TABLE IF NOT EXISTS guild_config (guild_id BIGINT PRIMARY KEY, data JSONB NOT NULL);"
	selectQuery      = "SELECT guild_id, data FROM guild_config;"
	upsertQuery      = "INSERT INTO guild_config (guild_id, data) VALUES ($1, $2) ON CONFLICT(guild_id) DO UPDATE SET data=excluded.data;"
	deleteQuery      = "DELETE FROM guild_config WHERE NOT (guild_id = ANY($1));"
)

// PostgresBackend stores one JSONB row per guild.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool) (*PostgresBackend, error) {
	if _, err := pool.Exec(ctx, createTableQuery); err != nil {
		return nil, err
	}
	return &PostgresBackend{pool: pool}, nil
}

type guildRow struct {
	GuildID int64  `db:"guild_id"`
	Data    []byte `db:"data"`
}

func (b *PostgresBackend) Load(ctx context.Context) (*config.File, error) {
	rows, _ := b.pool.Query(ctx, selectQuery)
	guildRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[guildRow])
	if err != nil {
		return nil, err
	}
	file := config.NewFile()
	for _, row := range guildRows {
		guild := config.NewGuild()
		if err := json.Unmarshal(row.Data, guild); err != nil {
			return nil, err
		}
		file.Guilds[snowflake.ID(row.GuildID)] = guild
	}
	return file, nil
}

// Save upserts every guild and deletes the rows of guilds no longer present, in one transaction.
func (b *PostgresBackend) Save(ctx context.Context, file *config.File) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, len(file.Guilds))
	batch := &pgx.Batch{}
	for guildID, guild := range file.Guilds {
		data, err := json.Marshal(guild)
		if err != nil {
			return err
		}
		ids = append(ids, int64(guildID))
		batch.Queue(upsertQuery, int64(guildID), data)
	}
	batch.Queue(deleteQuery, ids)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
