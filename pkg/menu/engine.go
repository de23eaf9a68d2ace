package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/task"
)

// DefaultUnsupportedDelay is how long the unsupported indicator stays up.
const DefaultUnsupportedDelay = 3 * time.Second

// Outcome is the state a menu message ends up in after an engine call.
type Outcome int

const (
	Created Outcome = iota
	Transitioning
	Idle
	Closed
	Unsupported
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Transitioning:
		return "transitioning"
	case Idle:
		return "idle"
	case Closed:
		return "closed"
	case Unsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ReactionOrder selects which reaction batch goes first during a transition.
type ReactionOrder int

const (
	RemoveFirst ReactionOrder = iota
	AddFirst
)

// ParseReactionOrder accepts "remove-first" and "add-first". Empty means RemoveFirst.
func ParseReactionOrder(s string) (ReactionOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remove-first":
		return RemoveFirst, nil
	case "add-first":
		return AddFirst, nil
	default:
		return RemoveFirst, fmt.Errorf("unknown reaction order %q", s)
	}
}

func (o ReactionOrder) String() string {
	if o == AddFirst {
		return "add-first"
	}
	return "remove-first"
}

// Recorder observes engine outcomes.
type Recorder interface {
	RecordTransition(menuType, emojiName string, outcome Outcome)
}

// Recorders fans an outcome out to several recorders.
type Recorders []Recorder

func (rs Recorders) RecordTransition(menuType, emojiName string, outcome Outcome) {
	for _, r := range rs {
		if r != nil {
			r.RecordTransition(menuType, emojiName, outcome)
		}
	}
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	CloseEmoji emoji.Ref
	// UnsupportedEmoji is flashed on unsupported clicks. Set
	// DisableUnsupported to turn the indicator off.
	UnsupportedEmoji   emoji.Ref
	DisableUnsupported bool
	UnsupportedDelay   time.Duration
	Order              ReactionOrder
	Logger             *slog.Logger
	Recorder           Recorder
	// Runner hosts the indicator removal. The engine creates one when nil.
	Runner *task.Runner
}

// Engine runs the create, transition and close life cycle of menus.
type Engine struct {
	transport Transport
	resolver  emoji.Resolver
	opts      Options
	logger    *slog.Logger
	runner    *task.Runner
}

// NewEngine creates an engine. A nil resolver resolves every reference to
// its unicode default.
func NewEngine(transport Transport, resolver emoji.Resolver, opts Options) *Engine {
	if resolver == nil {
		resolver = emoji.NewCache()
	}
	if opts.CloseEmoji.IsZero() {
		opts.CloseEmoji = emoji.Named(emoji.DeleteMessage)
	}
	if opts.UnsupportedEmoji.IsZero() && !opts.DisableUnsupported {
		opts.UnsupportedEmoji = emoji.Named(emoji.UnsupportedTransition)
	}
	if opts.UnsupportedDelay <= 0 {
		opts.UnsupportedDelay = DefaultUnsupportedDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = task.NewRunner(logger)
	}
	return &Engine{
		transport: transport,
		resolver:  resolver,
		opts:      opts,
		logger:    logger,
		runner:    runner,
	}
}

// CloseEmoji is the reserved close button.
func (e *Engine) CloseEmoji() emoji.Ref { return e.opts.CloseEmoji }

// ReservedNames lists the emoji names the engine handles for every menu.
func (e *Engine) ReservedNames() []string {
	names := e.opts.CloseEmoji.Names()
	if !e.opts.DisableUnsupported {
		names = append(names, e.opts.UnsupportedEmoji.Names()...)
	}
	return names
}

// Wait blocks until detached indicator removals have finished.
func (e *Engine) Wait() { e.runner.Wait() }

// Create sends ctrl to channelID and attaches its buttons in declared order,
// with the close button first unless the caller already declared it.
func (e *Engine) Create(ctx context.Context, channelID string, ctrl *Control) (*discordgo.Message, error) {
	if err := ctrl.Validate(); err != nil {
		return nil, err
	}
	if ctrl.View == nil {
		return nil, fmt.Errorf("create menu: %w", ErrNoView)
	}
	buttons := e.withClose(ctrl.Buttons)
	if len(buttons) > MaxButtons {
		return nil, fmt.Errorf("create menu: %d buttons: %w", len(buttons), ErrTooManyButtons)
	}

	rendered, err := ctrl.View.Embed()
	if err != nil {
		return nil, fmt.Errorf("create menu: %w", err)
	}
	msg, err := e.transport.Send(ctx, channelID, rendered)
	if err != nil {
		return nil, fmt.Errorf("create menu: send: %w", err)
	}

	for _, ref := range buttons {
		if err := e.transport.AddReaction(ctx, msg, e.resolver.Resolve(ref)); err != nil {
			if IsTransient(err) {
				e.logger.Debug("Menu message gone while adding buttons", "messageID", msg.ID, "err", err)
				break
			}
			return msg, fmt.Errorf("create menu: add %s: %w", ref, err)
		}
	}

	e.record(ims.Extract(rendered).String("menu_type"), "", Created)
	return msg, nil
}

// CreateFrom renders the initial control of a menuable and sends it.
func (e *Engine) CreateFrom(ctx context.Context, channelID string, m Menuable, state any) (*discordgo.Message, error) {
	ctrl, err := m.Embed(state)
	if err != nil {
		return nil, fmt.Errorf("create menu: render: %w", err)
	}
	return e.Create(ctx, channelID, ctrl)
}

// Transition applies click to msg, whose decoded state is state.
func (e *Engine) Transition(ctx context.Context, msg *discordgo.Message, m *Menu, state ims.State, click Click, data Data) (Outcome, error) {
	menuType := state.String("menu_type")
	outcome, err := e.transition(ctx, msg, m, state, click, data)
	e.record(menuType, click.Name(), outcome)
	return outcome, err
}

func (e *Engine) transition(ctx context.Context, msg *discordgo.Message, m *Menu, state ims.State, click Click, data Data) (Outcome, error) {
	if m == nil {
		m = &Menu{}
	}

	if t, ok := m.Transitions.Lookup(click.Name()); ok {
		ctrl, err := t.Func(ctx, msg, state, click, data)
		if err != nil {
			e.resetClick(ctx, msg, click)
			return Transitioning, fmt.Errorf("transition %s: %w", click.Name(), err)
		}
		if ctrl == nil {
			e.flashUnsupported(ctx, msg)
			e.resetClick(ctx, msg, click)
			return Unsupported, nil
		}
		err = e.apply(ctx, msg, ctrl, click.InGuild())
		e.resetClick(ctx, msg, click)
		if err != nil {
			return Transitioning, err
		}
		return Idle, nil
	}

	if e.opts.CloseEmoji.Matches(click.Name()) {
		return e.close(ctx, msg, m, state, click, data)
	}

	e.flashUnsupported(ctx, msg)
	e.resetClick(ctx, msg, click)
	return Unsupported, nil
}

func (e *Engine) close(ctx context.Context, msg *discordgo.Message, m *Menu, state ims.State, click Click, data Data) (Outcome, error) {
	if m.Close == nil {
		if err := e.transport.Delete(ctx, msg); err != nil && !IsTransient(err) {
			return Closed, fmt.Errorf("close menu: %w", err)
		}
		return Closed, nil
	}

	ctrl, err := m.Close(ctx, msg, state, click, data)
	if err != nil {
		return Transitioning, fmt.Errorf("close menu: %w", err)
	}
	if ctrl != nil {
		if err := e.apply(ctx, msg, ctrl, click.InGuild()); err != nil {
			return Transitioning, err
		}
		e.resetClick(ctx, msg, click)
		return Idle, nil
	}
	e.resetClick(ctx, msg, click)
	return Closed, nil
}

// apply reconciles the message's buttons with ctrl and renders it.
func (e *Engine) apply(ctx context.Context, msg *discordgo.Message, ctrl *Control, inGuild bool) error {
	if err := ctrl.Validate(); err != nil {
		return err
	}
	desired := e.withClose(ctrl.Buttons)
	if len(desired) > MaxButtons {
		return fmt.Errorf("apply control: %d buttons: %w", len(desired), ErrTooManyButtons)
	}
	diff := emoji.ComputeDiff(emoji.Reactions(msg), desired)

	removeBatch := func() error {
		g, gctx := errgroup.WithContext(ctx)
		for _, stale := range diff.Remove {
			g.Go(func() error {
				var err error
				if inGuild {
					err = e.transport.ClearReaction(gctx, msg, stale)
				} else {
					err = e.transport.RemoveReaction(gctx, msg, stale, BotUser)
				}
				return e.swallow("remove button", msg, err)
			})
		}
		return g.Wait()
	}
	// Adds stay sequential: Discord shows reactions in the order they arrive.
	addBatch := func() error {
		for _, ref := range diff.Add {
			err := e.transport.AddReaction(ctx, msg, e.resolver.Resolve(ref))
			if err = e.swallow("add button", msg, err); err != nil {
				return err
			}
		}
		return nil
	}

	first, second := removeBatch, addBatch
	if e.opts.Order == AddFirst {
		first, second = addBatch, removeBatch
	}
	if err := first(); err != nil {
		return fmt.Errorf("apply control: %w", err)
	}
	if err := second(); err != nil {
		return fmt.Errorf("apply control: %w", err)
	}

	var err error
	if ctrl.View != nil {
		rendered, rerr := ctrl.View.Embed()
		if rerr != nil {
			return fmt.Errorf("apply control: %w", rerr)
		}
		err = e.transport.Edit(ctx, msg, rendered)
	} else {
		err = e.transport.EditContent(ctx, msg, ctrl.Content)
	}
	if err = e.swallow("edit message", msg, err); err != nil {
		return fmt.Errorf("apply control: %w", err)
	}
	return nil
}

// flashUnsupported shows the indicator and removes it in the background.
func (e *Engine) flashUnsupported(ctx context.Context, msg *discordgo.Message) {
	if e.opts.DisableUnsupported || e.opts.UnsupportedEmoji.IsZero() {
		return
	}
	indicator := e.resolver.Resolve(e.opts.UnsupportedEmoji)
	if err := e.transport.AddReaction(ctx, msg, indicator); err != nil {
		e.logger.Debug("Could not add unsupported indicator", "messageID", msg.ID, "err", err)
		return
	}
	e.runner.After("unsupported-indicator", e.opts.UnsupportedDelay, func(ctx context.Context) error {
		return e.swallow("remove unsupported indicator", msg,
			e.transport.RemoveReaction(ctx, msg, indicator, BotUser))
	})
}

// resetClick removes the user's own reaction so the button looks unclicked.
// Bots cannot remove other users' reactions in DMs.
func (e *Engine) resetClick(ctx context.Context, msg *discordgo.Message, click Click) {
	if !click.InGuild() || click.UserID == "" || click.Simulated {
		return
	}
	clicked := click.Emoji
	if err := e.transport.RemoveReaction(ctx, msg, &clicked, click.UserID); err != nil {
		e.logger.Debug("Could not reset clicked reaction",
			"messageID", msg.ID,
			"userID", click.UserID,
			"emoji", clicked.Name,
			"err", err)
	}
}

func (e *Engine) withClose(buttons []emoji.Ref) []emoji.Ref {
	for _, b := range buttons {
		for _, name := range b.Names() {
			if e.opts.CloseEmoji.Matches(name) {
				return buttons
			}
		}
	}
	out := make([]emoji.Ref, 0, len(buttons)+1)
	out = append(out, e.opts.CloseEmoji)
	return append(out, buttons...)
}

func (e *Engine) swallow(op string, msg *discordgo.Message, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		e.logger.Debug("Ignoring failed menu operation", "op", op, "messageID", msg.ID, "err", err)
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Engine) record(menuType, emojiName string, outcome Outcome) {
	if e.opts.Recorder == nil {
		return
	}
	e.opts.Recorder.RecordTransition(menuType, emojiName, outcome)
}
