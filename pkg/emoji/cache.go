package emoji

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Resolver turns logical references into addressable platform emoji.
type Resolver interface {
	Resolve(ref Ref) *discordgo.Emoji
}

// Cache holds the custom emoji of a set of guilds. Reads are lock-free; the
// periodic refresh swaps the whole list atomically.
type Cache struct {
	mu       sync.Mutex
	guildIDs []string
	emojis   atomic.Pointer[[]*discordgo.Emoji]
}

// NewCache creates an empty cache scoped to guildIDs.
func NewCache(guildIDs ...string) *Cache {
	c := &Cache{guildIDs: append([]string(nil), guildIDs...)}
	empty := []*discordgo.Emoji{}
	c.emojis.Store(&empty)
	return c
}

// SetGuildIDs changes which guilds RefreshFromSession reads.
func (c *Cache) SetGuildIDs(guildIDs []string) {
	c.mu.Lock()
	c.guildIDs = append([]string(nil), guildIDs...)
	c.mu.Unlock()
}

// GuildIDs returns the configured guild scope.
func (c *Cache) GuildIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.guildIDs...)
}

// RefreshFromEmojis replaces the cached emoji list.
func (c *Cache) RefreshFromEmojis(list []*discordgo.Emoji) {
	cp := make([]*discordgo.Emoji, 0, len(list))
	for _, e := range list {
		if e != nil {
			cp = append(cp, e)
		}
	}
	c.emojis.Store(&cp)
}

// RefreshFromSession reloads custom emoji for the configured guilds, using
// the state cache when populated and the REST API otherwise.
func (c *Cache) RefreshFromSession(s *discordgo.Session) error {
	if s == nil {
		return fmt.Errorf("refresh emoji cache: nil discord session")
	}

	var all []*discordgo.Emoji
	for _, guildID := range c.GuildIDs() {
		if s.State != nil {
			if g, err := s.State.Guild(guildID); err == nil && g != nil && len(g.Emojis) > 0 {
				all = append(all, g.Emojis...)
				continue
			}
		}
		list, err := s.GuildEmojis(guildID)
		if err != nil {
			return fmt.Errorf("refresh emoji cache: guild %s: %w", guildID, err)
		}
		all = append(all, list...)
	}

	c.RefreshFromEmojis(all)
	slog.Info("Emoji cache refreshed", "guilds", len(c.GuildIDs()), "emojis", len(all))
	return nil
}

// Len returns the number of cached custom emoji.
func (c *Cache) Len() int {
	return len(*c.emojis.Load())
}

// ByName returns the cached custom emoji named name.
func (c *Cache) ByName(name string) (*discordgo.Emoji, bool) {
	for _, e := range *c.emojis.Load() {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Resolve returns the first fallback name found in the cache, or the
// reference's default as a unicode emoji.
func (c *Cache) Resolve(ref Ref) *discordgo.Emoji {
	for _, name := range ref.names {
		if e, ok := c.ByName(name); ok {
			return e
		}
	}
	return &discordgo.Emoji{Name: ref.Default()}
}

// Markdown renders name for message text: <:name:id> for custom emoji,
// a lone non-ASCII character verbatim, and :name: otherwise.
func (c *Cache) Markdown(name string) string {
	if e, ok := c.ByName(name); ok {
		return e.MessageFormat()
	}
	if utf8.RuneCountInString(name) == 1 && !isASCII(name) {
		return name
	}
	return ":" + name + ":"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
