package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"voice-status-bot/pkg/config"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
	"github.com/schollz/jsonstore"
)

const DefaultConfigFile = "config.json"

// FileBackend stores the configuration in a jsonstore file, one key per guild id. Paths ending in
// .gz are gzipped.
type FileBackend struct {
	path string

	mu       sync.Mutex
	keystore *jsonstore.JSONStore
}

func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultConfigFile
	}
	return &FileBackend{path: path, keystore: new(jsonstore.JSONStore)}
}

// Load reads the file. A missing or undecodable file is replaced with an empty document.
func (b *FileBackend) Load(ctx context.Context) (*config.File, error) {
	keystore, err := jsonstore.Open(b.path)
	if err == nil {
		file, decodeErr := decodeKeystore(keystore)
		if decodeErr == nil {
			b.mu.Lock()
			b.keystore = keystore
			b.mu.Unlock()
			return file, nil
		}
		err = decodeErr
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("voicestatus: config file is corrupt, starting with an empty config", slog.String("path", b.path), tint.Err(err))
	}
	file := config.NewFile()
	if err := b.Save(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func decodeKeystore(keystore *jsonstore.JSONStore) (*config.File, error) {
	file := config.NewFile()
	for _, key := range keystore.Keys() {
		guildID, err := snowflake.Parse(key)
		if err != nil {
			return nil, err
		}
		guild := config.NewGuild()
		if err := keystore.Get(key, guild); err != nil {
			return nil, err
		}
		file.Guilds[guildID] = guild
	}
	return file, nil
}

// Save writes every guild of file to the keystore, drops the guilds that are gone and writes the
// keystore to a temp file that is renamed into place.
func (b *FileBackend) Save(_ context.Context, file *config.File) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(file.Guilds))
	for guildID, guild := range file.Guilds {
		key := guildID.String()
		if err := b.keystore.Set(key, guild); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	for _, key := range b.keystore.Keys() {
		if !slices.Contains(keys, key) {
			b.keystore.Delete(key)
		}
	}

	// the prefix keeps the .gz suffix intact
	tmp := filepath.Join(filepath.Dir(b.path), ".tmp-"+filepath.Base(b.path))
	if err := jsonstore.Save(b.keystore, tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, b.path)
}
