// Package files loads the bot configuration file.
package files

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/small-frappuccino/discordmenu/pkg/errutil"
	"github.com/small-frappuccino/discordmenu/pkg/log"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
	"github.com/small-frappuccino/discordmenu/pkg/util"
)

// ## Defaults

const (
	DefaultTokenEnv             = "DISCORDMENU_TOKEN"
	DefaultEmojiRefreshSchedule = "@every 1h"
	DefaultCloseEmoji           = "❌"
	DefaultUnsupportedEmoji     = "🚫"
	DefaultUnsupportedDelay     = 3 * time.Second
	DefaultReactionRate         = 5
	DefaultReactionBurst        = 5
	DefaultDemoTrigger          = "!menu"
)

// ## Config Types

// Config is the bot configuration file.
type Config struct {
	TokenEnv string `yaml:"token_env"`

	// EmojiGuildIDs are the guilds whose custom emoji buttons may use.
	EmojiGuildIDs        []string `yaml:"emoji_guild_ids"`
	EmojiRefreshSchedule string   `yaml:"emoji_refresh_schedule"`

	CloseEmoji string `yaml:"close_emoji"`
	// UnsupportedEmoji set to "" disables the unsupported indicator.
	UnsupportedEmoji *string       `yaml:"unsupported_emoji"`
	UnsupportedDelay time.Duration `yaml:"unsupported_delay"`
	ReactionOrder    string        `yaml:"reaction_order"`

	ReactionRatePerSecond float64 `yaml:"reaction_rate_per_second"`
	ReactionBurst         int     `yaml:"reaction_burst"`

	// Friends maps an owner ID to the users allowed to drive their menus.
	Friends map[string][]string `yaml:"friends"`

	DemoTrigger string `yaml:"demo_trigger"`
	MetricsAddr string `yaml:"metrics_addr"`
	StorePath   string `yaml:"store_path"`

	Log log.Config `yaml:"log"`
}

// Unsupported returns the indicator emoji and whether it is enabled.
func (c *Config) Unsupported() (string, bool) {
	if c.UnsupportedEmoji == nil {
		return DefaultUnsupportedEmoji, true
	}
	v := strings.TrimSpace(*c.UnsupportedEmoji)
	return v, v != ""
}

// FriendsOf returns the friends configured for ownerID.
func (c *Config) FriendsOf(ownerID string) []string {
	return c.Friends[ownerID]
}

// ## Loading

// envPattern matches ${VAR} and ${VAR:-default}.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadConfig reads path, expands environment references, applies defaults
// and validates the result. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errutil.HandleConfigError("read", path, func() error { return err })
	default:
		expanded, expErr := expandEnv(raw)
		if expErr != nil {
			return nil, errutil.HandleConfigError("expand", path, func() error { return expErr })
		}
		if err := errutil.HandleConfigError("parse", path, func() error { return yaml.Unmarshal(expanded, cfg) }); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandEnv(raw []byte) ([]byte, error) {
	var errs []error
	out := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		if subs[2] != nil {
			return subs[2]
		}
		errs = append(errs, fmt.Errorf("unresolved variable: %s", name))
		return match
	})
	return out, errors.Join(errs...)
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.TokenEnv == "" {
		c.TokenEnv = DefaultTokenEnv
	}
	if c.EmojiRefreshSchedule == "" {
		c.EmojiRefreshSchedule = DefaultEmojiRefreshSchedule
	}
	if c.CloseEmoji == "" {
		c.CloseEmoji = DefaultCloseEmoji
	}
	if c.UnsupportedDelay == 0 {
		c.UnsupportedDelay = DefaultUnsupportedDelay
	}
	if c.ReactionOrder == "" {
		c.ReactionOrder = menu.RemoveFirst.String()
	}
	if c.ReactionRatePerSecond == 0 {
		c.ReactionRatePerSecond = DefaultReactionRate
	}
	if c.ReactionBurst == 0 {
		c.ReactionBurst = DefaultReactionBurst
	}
	if c.DemoTrigger == "" {
		c.DemoTrigger = DefaultDemoTrigger
	}
	if c.StorePath == "" {
		c.StorePath = util.StoreFilePath()
	}
	if c.Log.File == "" {
		c.Log.File = util.LogFilePath()
	}
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if _, err := menu.ParseReactionOrder(c.ReactionOrder); err != nil {
		errs = append(errs, err)
	}
	if c.UnsupportedDelay < 0 {
		errs = append(errs, fmt.Errorf("unsupported_delay must not be negative, got %s", c.UnsupportedDelay))
	}
	if c.ReactionRatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("reaction_rate_per_second must not be negative, got %v", c.ReactionRatePerSecond))
	}
	if c.ReactionBurst < 0 {
		errs = append(errs, fmt.Errorf("reaction_burst must not be negative, got %d", c.ReactionBurst))
	}
	if _, err := cron.ParseStandard(c.EmojiRefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("emoji_refresh_schedule %q: %w", c.EmojiRefreshSchedule, err))
	}
	for _, id := range c.EmojiGuildIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("emoji_guild_ids must not contain blank ids"))
			break
		}
	}
	return errors.Join(errs...)
}
