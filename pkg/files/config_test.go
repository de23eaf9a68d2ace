package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DISCORDMENU_DATA_DIR", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TokenEnv != DefaultTokenEnv || cfg.CloseEmoji != DefaultCloseEmoji {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.UnsupportedDelay != DefaultUnsupportedDelay || cfg.ReactionOrder != "remove-first" {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if e, ok := cfg.Unsupported(); !ok || e != DefaultUnsupportedEmoji {
		t.Fatalf("unsupported indicator should default on, got %q %v", e, ok)
	}
	if cfg.StorePath == "" || cfg.Log.File == "" {
		t.Fatalf("paths should default: %+v", cfg)
	}
}

func TestLoadConfigParsesFile(t *testing.T) {
	t.Setenv("MENU_GUILD", "123")
	path := writeConfig(t, `
token_env: MY_TOKEN
emoji_guild_ids: ["${MENU_GUILD}", "${OTHER_GUILD:-456}"]
emoji_refresh_schedule: "*/30 * * * *"
unsupported_emoji: ""
unsupported_delay: 1500ms
reaction_order: add-first
reaction_rate_per_second: 2.5
reaction_burst: 3
friends:
  "42": ["43", "44"]
store_path: /tmp/menus.db
log:
  level: debug
  file: /tmp/menu.log
  max_size_mb: 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if strings.Join(cfg.EmojiGuildIDs, ",") != "123,456" {
		t.Fatalf("env expansion failed: %v", cfg.EmojiGuildIDs)
	}
	if _, ok := cfg.Unsupported(); ok {
		t.Fatalf("empty unsupported_emoji should disable the indicator")
	}
	if cfg.UnsupportedDelay != 1500*time.Millisecond || cfg.ReactionOrder != "add-first" {
		t.Fatalf("unexpected engine fields: %+v", cfg)
	}
	if cfg.ReactionRatePerSecond != 2.5 || cfg.ReactionBurst != 3 {
		t.Fatalf("unexpected rate fields: %+v", cfg)
	}
	if got := cfg.FriendsOf("42"); len(got) != 2 || got[1] != "44" {
		t.Fatalf("FriendsOf = %v", got)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSizeMB != 5 || cfg.TokenEnv != "MY_TOKEN" {
		t.Fatalf("unexpected log block: %+v", cfg.Log)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "reaction order", body: "reaction_order: sideways\n", want: "reaction order"},
		{name: "negative delay", body: "unsupported_delay: -1s\n", want: "unsupported_delay"},
		{name: "negative burst", body: "reaction_burst: -2\n", want: "reaction_burst"},
		{name: "bad schedule", body: "emoji_refresh_schedule: nonsense\n", want: "emoji_refresh_schedule"},
		{name: "blank guild", body: "emoji_guild_ids: [\"\"]\n", want: "blank ids"},
		{name: "unresolved variable", body: "store_path: ${DISCORDMENU_UNSET_VAR}\n", want: "unresolved variable"},
		{name: "bad yaml", body: "friends: [\n", want: "config parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
}
