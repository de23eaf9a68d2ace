// Package listener dispatches raw reaction events to registered menus and
// forwards clicks to child messages.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/discord/perf"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// MaxCascade bounds how many child messages one click may reach.
const MaxCascade = 10

// ReactionKey is the Data key holding the clicked emoji name.
const ReactionKey = "reaction"

// Bot is what the listener needs from the running bot.
type Bot interface {
	UserID() string
	// Message returns the message with its current reactions.
	Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	// Module returns a loaded module by name.
	Module(name string) (any, bool)
}

// ContextProvider is implemented by modules that pass data to their menus.
type ContextProvider interface {
	MenuContext(ctx context.Context, state ims.State) (menu.Data, error)
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTimer reports slow reaction handlers through t.
func WithTimer(t *perf.Timer) Option {
	return func(l *Listener) { l.timer = t }
}

// WithFilters appends filters after the base chain.
func WithFilters(filters ...menu.Filter) Option {
	return func(l *Listener) { l.extra = append(l.extra, filters...) }
}

// WithOwnerFilter replaces the owner check of the base chain.
func WithOwnerFilter(f menu.Filter) Option {
	return func(l *Listener) {
		if f != nil {
			l.owner = f
		}
	}
}

// Listener routes reactions on menu messages to the engine.
type Listener struct {
	bot      Bot
	engine   *menu.Engine
	registry *Registry
	logger   *slog.Logger
	timer    *perf.Timer
	extra    []menu.Filter
	owner    menu.Filter
	reserved map[string]struct{}

	mu             sync.Mutex
	handlerCancels []func()
}

// New creates a listener.
func New(bot Bot, engine *menu.Engine, registry *Registry, opts ...Option) *Listener {
	l := &Listener{
		bot:      bot,
		engine:   engine,
		registry: registry,
		logger:   slog.Default(),
		owner:    menu.MessageOwnerFilter(),
		reserved: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, n := range engine.ReservedNames() {
		l.reserved[n] = struct{}{}
	}
	return l
}

// Start subscribes the listener to the session's reaction events.
func (l *Listener) Start(s *discordgo.Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.handlerCancels) > 0 {
		return fmt.Errorf("menu listener is already running")
	}
	l.handlerCancels = append(l.handlerCancels,
		s.AddHandler(l.OnReactionAdd),
		s.AddHandler(l.OnReactionRemove),
	)
	slog.Info("Menu listener started", "menuTypes", len(l.registry.Types()))
	return nil
}

// Stop unsubscribes the listener.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.handlerCancels) == 0 {
		return fmt.Errorf("menu listener is not running")
	}
	for _, cancel := range l.handlerCancels {
		if cancel != nil {
			cancel()
		}
	}
	l.handlerCancels = nil
	slog.Info("Menu listener stopped")
	return nil
}

// OnReactionAdd is a discordgo handler for MessageReactionAdd.
func (l *Listener) OnReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r == nil || r.MessageReaction == nil {
		return
	}
	ev := eventFrom(r.MessageReaction, false)
	ev.Member = r.Member
	l.dispatch(ev)
}

// OnReactionRemove is a discordgo handler for MessageReactionRemove.
func (l *Listener) OnReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r == nil || r.MessageReaction == nil {
		return
	}
	l.dispatch(eventFrom(r.MessageReaction, true))
}

func eventFrom(r *discordgo.MessageReaction, removed bool) menu.ReactionEvent {
	return menu.ReactionEvent{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Emoji:     r.Emoji,
		Removed:   removed,
	}
}

func (l *Listener) dispatch(ev menu.ReactionEvent) {
	event := "message_reaction_add"
	if ev.Removed {
		event = "message_reaction_remove"
	}
	defer l.timer.Start(event, slog.String("messageID", ev.MessageID), slog.String("emoji", ev.Emoji.Name))()
	if err := l.Handle(context.Background(), ev); err != nil {
		l.logger.Error("Menu dispatch failed",
			"messageID", ev.MessageID,
			"channelID", ev.ChannelID,
			"userID", ev.UserID,
			"emoji", ev.Emoji.Name,
			"err", err)
	}
}

// Handle processes one reaction event. Irrelevant events return nil.
func (l *Listener) Handle(ctx context.Context, ev menu.ReactionEvent) error {
	name := ev.Emoji.Name
	if !l.relevant(name) {
		return nil
	}
	if ev.Removed && ev.InGuild() {
		return nil
	}

	msg, err := l.bot.Message(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		if errors.Is(err, menu.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetch menu message: %w", err)
	}
	if msg == nil || msg.Author == nil || msg.Author.ID != l.bot.UserID() {
		return nil
	}
	if !hasReaction(msg, ev.Emoji) {
		return nil
	}

	state := ims.FromMessage(msg)
	if len(state) == 0 {
		return nil
	}
	entry, err := l.registry.Lookup(state)
	if err != nil {
		return err
	}

	if !l.filters(entry).Allow(msg, menu.ViewStateOf(state), ev) {
		return nil
	}

	data, ok := l.menuContext(ctx, entry, state)
	if !ok {
		return nil
	}
	data[ReactionKey] = name

	click := ev.Click()
	if _, err := l.engine.Transition(ctx, msg, entry.Menuable.Menu(), state.Clone(), click, data); err != nil {
		return err
	}
	return l.cascade(ctx, ev.ChannelID, state.Clone(), click)
}

// cascade forwards the click through child messages until no child is
// declared, a child is gone, or MaxCascade steps were taken.
func (l *Listener) cascade(ctx context.Context, channelID string, state ims.State, click menu.Click) error {
	clicked := click.Name()
	for step := 0; step < MaxCascade; step++ {
		childID := menu.ViewStateOf(state).ChildMessageID
		if childID == "" {
			return nil
		}
		entry, err := l.registry.Lookup(state)
		if err != nil {
			return fmt.Errorf("cascade: %w", err)
		}
		childFn := entry.transitions().Child(clicked)
		if childFn == nil {
			return nil
		}
		data, ok := l.menuContext(ctx, entry, state)
		if !ok {
			return nil
		}
		forward, err := childFn(ctx, state, clicked, data)
		if err != nil {
			return fmt.Errorf("cascade: child data: %w", err)
		}
		if forward.Emoji == "" {
			return nil
		}

		child, err := l.bot.Message(ctx, channelID, childID.String())
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("cascade: fetch child: %w", err)
		}
		childState := ims.FromMessage(child)
		childState.Update(forward.State)
		childEntry, err := l.registry.Lookup(childState)
		if err != nil {
			return fmt.Errorf("cascade: %w", err)
		}

		sim := click
		sim.Emoji = discordgo.Emoji{Name: forward.Emoji}
		sim.Simulated = true
		data[ReactionKey] = forward.Emoji
		if _, err := l.engine.Transition(ctx, child, childEntry.Menuable.Menu(), childState.Clone(), sim, data); err != nil {
			return fmt.Errorf("cascade: %w", err)
		}
		state = childState
	}
	l.logger.Debug("Cascade stopped at step limit", "limit", MaxCascade)
	return nil
}

func (l *Listener) relevant(name string) bool {
	if _, ok := l.reserved[name]; ok {
		return true
	}
	return l.registry.Knows(name)
}

func (l *Listener) filters(entry Entry) menu.Filter {
	names := entry.transitions().Names()
	if m := entry.Menuable.Menu(); m != nil {
		names = append(names, m.Transitions.Names()...)
	}
	for n := range l.reserved {
		names = append(names, n)
	}
	botID := l.bot.UserID()
	base := []menu.Filter{
		menu.ValidEmojiFilter(names),
		menu.NotPosterFilter(botID),
		menu.BotAuthoredFilter(botID),
		l.owner,
	}
	return menu.Chain(append(base, l.extra...)...)
}

// menuContext fetches the owning module's data. ok is false when the module
// is unloaded, which aborts the dispatch.
func (l *Listener) menuContext(ctx context.Context, entry Entry, state ims.State) (menu.Data, bool) {
	data := menu.Data{}
	if entry.Module == "" {
		return data, true
	}
	module, loaded := l.bot.Module(entry.Module)
	if !loaded {
		l.logger.Info("Menu module is not loaded; ignoring reaction",
			"module", entry.Module,
			"err", ErrModuleNotLoaded)
		return nil, false
	}
	provider, ok := module.(ContextProvider)
	if !ok {
		return data, true
	}
	extra, err := provider.MenuContext(ctx, state)
	if err != nil {
		l.logger.Warn("Menu module failed to provide context", "module", entry.Module, "err", err)
		return nil, false
	}
	for k, v := range extra {
		data[k] = v
	}
	return data, true
}

func hasReaction(msg *discordgo.Message, e discordgo.Emoji) bool {
	for _, r := range msg.Reactions {
		if r == nil || r.Emoji == nil {
			continue
		}
		if e.ID != "" {
			if r.Emoji.ID == e.ID {
				return true
			}
			continue
		}
		if r.Emoji.Name == e.Name {
			return true
		}
	}
	return false
}
