package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rotisserie/eris"
)

type Config struct {
	DiscordToken string   `envconfig:"DISCORD_BOT_TOKEN"`
	DiscordGuild string   `envconfig:"DISCORD_GUILD_ID"` // vacío = comandos globales
	AdminRoleIDs []string `envconfig:"ADMIN_ROLE_IDS"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"pairup.db"`

	HTTPAddr   string `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPSecret string `envconfig:"HTTP_SECRET"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`

	PairingInterval  time.Duration `envconfig:"PAIRING_INTERVAL" default:"5s"`
	PriorityInterval time.Duration `envconfig:"PRIORITY_INTERVAL" default:"30s"`
	PanelInterval    time.Duration `envconfig:"PANEL_INTERVAL" default:"30s"`
}

// Load lee .env (si existe) y después el entorno. El entorno gana sobre el archivo.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, eris.Wrap(err, "load .env")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, eris.Wrap(err, "env config")
	}
	cfg.DiscordToken = botAuth(cfg.DiscordToken)
	cfg.AdminRoleIDs = compact(cfg.AdminRoleIDs)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad para main: sin config no hay bot.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c Config) validate() error {
	for name, d := range map[string]time.Duration{
		"PAIRING_INTERVAL":  c.PairingInterval,
		"PRIORITY_INTERVAL": c.PriorityInterval,
		"PANEL_INTERVAL":    c.PanelInterval,
	} {
		if d <= 0 {
			return eris.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// RequireToken: solo serve habla con Discord; migrate, stats y el janitor no lo necesitan.
func (c Config) RequireToken() error {
	if c.DiscordToken == "" {
		return eris.New("DISCORD_BOT_TOKEN is required")
	}
	return nil
}

// botAuth: discordgo quiere "Bot <token>"; aceptamos el token con o sin prefijo.
func botAuth(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(strings.ToLower(token), "bot ") {
		return token
	}
	return "Bot " + token
}

func compact(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
