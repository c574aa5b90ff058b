package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/zephyrtronium/warden/command"
	"github.com/zephyrtronium/warden/rank"
)

// Load loads the bot's TOML configuration. Strings in the configuration may
// refer to environment variables as $VAR or ${VAR}.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	if u := md.Undecoded(); len(u) != 0 {
		slog.WarnContext(ctx, "unknown config keys", slog.Any("keys", u))
	}
	expandcfg(&cfg, os.Getenv)
	return &cfg, &md, nil
}

// loadEnv loads environment variables from a dotenv file. A missing file is
// not an error. Variables already in the environment take precedence.
func loadEnv(file string) error {
	if file == "" {
		return nil
	}
	err := godotenv.Load(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("couldn't load environment file: %w", err)
	}
	return nil
}

// Config is the marshaled structure of the bot's configuration.
type Config struct {
	// Owner is the table of metadata about the bot owner.
	Owner Owner `toml:"owner"`
	// Discord is the configuration for connecting to Discord.
	Discord DiscordCfg `toml:"discord"`
	// HTTP is the configuration for the HTTP server.
	HTTP HTTPCfg `toml:"http"`
	// Ranks is the role hierarchy.
	Ranks RanksCfg `toml:"ranks"`
	// Commands is the per-command configuration, keyed by command name.
	Commands map[string]CommandCfg `toml:"commands"`
	// Sleep is the sleep tracking configuration.
	Sleep SleepCfg `toml:"sleep"`
}

// Owner is the bot owner, who is the super-user.
type Owner struct {
	// ID is the owner's user ID. If empty, no one is the super-user and
	// owner-only commands are unusable.
	ID string `toml:"id"`
	// Name is the name of the owner. It does not need to be a username.
	Name string `toml:"name"`
}

// DiscordCfg is the configuration for the Discord connection.
type DiscordCfg struct {
	// Token is the bot token.
	Token string `toml:"token"`
	// Home is the ID of the community that is always allowed.
	// Slash commands are registered there instead of globally if it is set.
	Home string `toml:"home"`
	// Operator is the ID of the channel where configuration errors are
	// reported.
	Operator string `toml:"operator"`
	// Rate is the rate limit for sent messages.
	Rate Rate `toml:"rate"`
}

// HTTPCfg is the configuration for the HTTP server.
type HTTPCfg struct {
	// Listen is the address on which to serve.
	Listen string `toml:"listen"`
}

// RanksCfg is the configuration of the role hierarchy.
type RanksCfg struct {
	// Hierarchy is the list of role names, highest first.
	Hierarchy []string `toml:"hierarchy"`
}

// CommandCfg is the configuration for a single command.
type CommandCfg struct {
	// Rank overrides the minimum rank for the command.
	Rank string `toml:"rank"`
}

// SleepCfg is the configuration for sleep tracking.
type SleepCfg struct {
	// Seconds includes seconds in reported sleep durations.
	Seconds bool `toml:"seconds"`
}

// Rate is a rate limit configuration.
type Rate struct {
	Every float64 `toml:"every"`
	Num   int     `toml:"num"`
}

// DefaultHierarchy is the role hierarchy used when none is configured.
var DefaultHierarchy = []string{"owner", "co-owner", "head-admin", "admin", "head-mod", "mod", "moderator"}

// hierarchy builds the configured role hierarchy.
func (cfg *Config) hierarchy() (*rank.Hierarchy, error) {
	names := cfg.Ranks.Hierarchy
	if len(names) == 0 {
		names = DefaultHierarchy
	}
	h, err := rank.New(names...)
	if err != nil {
		return nil, fmt.Errorf("couldn't build rank hierarchy: %w", err)
	}
	return h, nil
}

// commands builds the command table with configured rank overrides applied.
// Ranks that aren't in the hierarchy are not errors here; they are reported
// by [command.Validate] and again whenever the command is used.
func (cfg *Config) commands() ([]*command.Command, error) {
	table := command.Defaults()
	ranks := make(map[string]string, len(cfg.Commands))
	for name, c := range cfg.Commands {
		if c.Rank != "" {
			ranks[name] = c.Rank
		}
	}
	if err := command.Configure(table, ranks); err != nil {
		return nil, err
	}
	return table, nil
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.Owner.ID,
		&cfg.Owner.Name,
		&cfg.Discord.Token,
		&cfg.Discord.Home,
		&cfg.Discord.Operator,
		&cfg.HTTP.Listen,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
	for i, s := range cfg.Ranks.Hierarchy {
		cfg.Ranks.Hierarchy[i] = os.Expand(s, expand)
	}
}
