package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/errutil"
)

// Error messages
const (
	ErrSessionCreationFailed   = "failed to create Discord session: %w"
	ErrSessionConnectionFailed = "failed to connect to Discord: %w"
)

// Intents covers the events a menu bot reacts to.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentGuildMessageReactions |
	discordgo.IntentDirectMessages |
	discordgo.IntentDirectMessageReactions |
	discordgo.IntentGuildEmojis |
	discordgo.IntentMessageContent

var (
	newSession   = func(token string) (*discordgo.Session, error) { return discordgo.New("Bot " + token) }
	openSession  = func(s *discordgo.Session) error { return s.Open() }
	closeSession = func(s *discordgo.Session) error { return s.Close() }
)

// NewDiscordSession creates a session with the menu intents and connects it.
func NewDiscordSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("discord bot token is empty")
	}

	var s *discordgo.Session
	if err := errutil.HandleDiscordError("create_session", func() error {
		var err error
		s, err = newSession(token)
		return err
	}); err != nil {
		return nil, fmt.Errorf(ErrSessionCreationFailed, err)
	}
	s.Identify.Intents = Intents
	s.StateEnabled = true

	slog.Info("Connecting to Discord")
	if err := errutil.HandleDiscordError("connect", func() error { return openSession(s) }); err != nil {
		if cerr := closeSession(s); cerr != nil {
			slog.Warn("Failed to close session after connect error", "error", cerr)
		}
		return nil, fmt.Errorf(ErrSessionConnectionFailed, err)
	}
	slog.Info("Connected to Discord")
	return s, nil
}
