package client

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/menu/listener"
)

// Bot implements listener.Bot over a session and a module table.
type Bot struct {
	session *discordgo.Session

	mu      sync.RWMutex
	modules map[string]any
}

var _ listener.Bot = (*Bot)(nil)

// NewBot wraps s.
func NewBot(s *discordgo.Session) *Bot {
	return &Bot{session: s, modules: make(map[string]any)}
}

// UserID returns the bot's user ID once the session is ready.
func (b *Bot) UserID() string {
	if b.session == nil || b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.ID
}

// Message fetches the message over REST. The state cache does not track
// reactions, so it cannot serve menu dispatch.
func (b *Bot) Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	m, err := b.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch message", err)
	}
	return m, nil
}

// LoadModule makes module available to the menus registered under name.
func (b *Bot) LoadModule(name string, module any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modules[name] = module
}

// UnloadModule removes a module; its menus stop responding.
func (b *Bot) UnloadModule(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.modules, name)
}

func (b *Bot) Module(name string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.modules[name]
	return m, ok
}
