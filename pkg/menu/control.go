package menu

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/emoji"
)

// MaxButtons is the number of distinct reactions a message can hold.
const MaxButtons = 20

// BotUser addresses the bot's own reaction in RemoveReaction.
const BotUser = "@me"

// Control is one rendered state of a menu: the view and the buttons under it.
type Control struct {
	View    *embed.View
	Buttons []emoji.Ref
	// Content replaces the message text when View is nil.
	Content string
}

// Validate checks that the control can be rendered.
func (c *Control) Validate() error {
	if c == nil || (c.View == nil && c.Content == "") {
		return ErrNoView
	}
	return nil
}

// ControlFromMessage restores the control currently displayed by m.
func ControlFromMessage(m *discordgo.Message) *Control {
	if m == nil {
		return nil
	}
	c := &Control{Content: m.Content}
	if len(m.Embeds) > 0 {
		c.View = embed.FromEmbed(m.Embeds[0])
	}
	for _, e := range emoji.Reactions(m) {
		c.Buttons = append(c.Buttons, emoji.Named(e.Name))
	}
	return c
}

// Transport is the message API the engine drives. Implementations return
// errors wrapping ErrNotFound or ErrForbidden where those apply.
type Transport interface {
	Send(ctx context.Context, channelID string, e *discordgo.MessageEmbed) (*discordgo.Message, error)
	Edit(ctx context.Context, msg *discordgo.Message, e *discordgo.MessageEmbed) error
	EditContent(ctx context.Context, msg *discordgo.Message, content string) error
	Delete(ctx context.Context, msg *discordgo.Message) error
	AddReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji) error
	// RemoveReaction removes userID's reaction; BotUser targets the bot.
	RemoveReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji, userID string) error
	// ClearReaction removes every user's reaction with e. It needs guild
	// permissions and is never called for DMs.
	ClearReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji) error
}
