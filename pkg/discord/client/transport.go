// Package client adapts a discordgo session to the menu engine and listener.
package client

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// Options configures a Transport.
type Options struct {
	// ReactionRatePerSecond and ReactionBurst bound reaction calls per
	// channel, on top of discordgo's own bucket handling.
	ReactionRatePerSecond float64
	ReactionBurst         int
	Logger                *slog.Logger
}

// Transport implements menu.Transport over REST calls on a session.
type Transport struct {
	session  *discordgo.Session
	limiters *limiterPool
	logger   *slog.Logger
}

var _ menu.Transport = (*Transport)(nil)

// NewTransport wraps s.
func NewTransport(s *discordgo.Session, opts Options) *Transport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		session:  s,
		limiters: newLimiterPool(opts.ReactionRatePerSecond, opts.ReactionBurst),
		logger:   logger,
	}
}

func (t *Transport) Send(ctx context.Context, channelID string, e *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := t.session.ChannelMessageSendEmbed(channelID, e, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("send message", err)
	}
	return msg, nil
}

func (t *Transport) Edit(ctx context.Context, msg *discordgo.Message, e *discordgo.MessageEmbed) error {
	_, err := t.session.ChannelMessageEditEmbed(msg.ChannelID, msg.ID, e, discordgo.WithContext(ctx))
	return classify("edit message", err)
}

func (t *Transport) EditContent(ctx context.Context, msg *discordgo.Message, content string) error {
	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.ID).SetContent(content)
	_, err := t.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return classify("edit message content", err)
}

func (t *Transport) Delete(ctx context.Context, msg *discordgo.Message) error {
	return classify("delete message", t.session.ChannelMessageDelete(msg.ChannelID, msg.ID, discordgo.WithContext(ctx)))
}

func (t *Transport) AddReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji) error {
	if err := t.wait(ctx, msg.ChannelID); err != nil {
		return err
	}
	err := t.session.MessageReactionAdd(msg.ChannelID, msg.ID, emoji.APIName(e), discordgo.WithContext(ctx))
	return classify("add reaction", err)
}

func (t *Transport) RemoveReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji, userID string) error {
	if err := t.wait(ctx, msg.ChannelID); err != nil {
		return err
	}
	err := t.session.MessageReactionRemove(msg.ChannelID, msg.ID, emoji.APIName(e), userID, discordgo.WithContext(ctx))
	return classify("remove reaction", err)
}

func (t *Transport) ClearReaction(ctx context.Context, msg *discordgo.Message, e *discordgo.Emoji) error {
	if err := t.wait(ctx, msg.ChannelID); err != nil {
		return err
	}
	err := t.session.MessageReactionsRemoveEmoji(msg.ChannelID, msg.ID, emoji.APIName(e), discordgo.WithContext(ctx))
	return classify("clear reaction", err)
}

func (t *Transport) wait(ctx context.Context, channelID string) error {
	if t.limiters.Reserved(channelID) {
		t.logger.Debug("Reaction call throttled", "channelID", channelID)
	}
	return t.limiters.Wait(ctx, channelID)
}
