package pkg

import (
	"log/slog"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken    string `env:"DISCORD_TOKEN,required,notEmpty"`
	SteamKey        string `env:"STEAM_KEY"`
	SuperProperties string `env:"X_SUPER_PROPERTIES"`

	ConfigFile  string `env:"CONFIG_FILE" envDefault:"config.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	SentryDSN   string     `env:"SENTRY_DSN"`
	Environment string     `env:"ENVIRONMENT"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string     `env:"LOG_FILE" envDefault:"output.log"`

	UpdateInterval time.Duration `env:"UPDATE_INTERVAL" envDefault:"10s"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`

	SyncCommands bool         `env:"SYNC_COMMANDS" envDefault:"true"`
	DevGuildID   snowflake.ID `env:"DEV_GUILD_ID"`
}

// Production reports whether events should be sent to Sentry.
func (c Config) Production() bool {
	return c.Environment == "PROD"
}

// LoadConfig reads .env, when present, and parses the environment.
func LoadConfig(files ...string) (*Config, error) {
	// a missing .env is fine, the variables may come from the environment
	_ = godotenv.Load(files...)

	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(snowflake.ID(0)): func(v string) (any, error) {
				return snowflake.Parse(v)
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
