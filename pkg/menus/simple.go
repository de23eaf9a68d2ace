package menus

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// SimpleTextState shows one message.
type SimpleTextState struct {
	menu.ViewState
	Message string `json:"message"`
}

// NewSimpleTextState builds the state of a simple text menu.
func NewSimpleTextState(ownerID, message string) SimpleTextState {
	return SimpleTextState{
		ViewState: menu.ViewState{OriginalAuthorID: menu.Snowflake(ownerID), MenuType: SimpleTextMenuType},
		Message:   message,
	}
}

// SimpleText displays a message; the home button re-renders it.
type SimpleText struct{}

var _ menu.Menuable = SimpleText{}

func (s SimpleText) Menu() *menu.Menu {
	return menu.New(menu.Transition{Emoji: emoji.Named(emoji.Home), Func: s.home})
}

func (s SimpleText) home(ctx context.Context, msg *discordgo.Message, state ims.State, _ menu.Click, data menu.Data) (*menu.Control, error) {
	return s.FromMessage(ctx, msg, state, data)
}

func (s SimpleText) FromMessage(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Data) (*menu.Control, error) {
	var st SimpleTextState
	if err := decode(state, SimpleTextMenuType, &st); err != nil {
		return nil, err
	}
	return s.Embed(st)
}

func (SimpleText) Embed(state any) (*menu.Control, error) {
	st, ok := state.(SimpleTextState)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}
	view := &embed.View{Main: embed.Main{Description: embed.Text(st.Message)}}
	return control(view, st, nil)
}

// SimpleTabbedTextState switches between up to nine messages.
type SimpleTabbedTextState struct {
	menu.ViewState
	Messages     []string `json:"messages"`
	CurrentIndex int      `json:"current_index"`
}

// NewSimpleTabbedTextState builds the state of a tabbed text menu.
func NewSimpleTabbedTextState(ownerID string, messages ...string) (SimpleTabbedTextState, error) {
	if len(messages) > MaxTabs {
		return SimpleTabbedTextState{}, fmt.Errorf("%d tabs: %w (max %d)", len(messages), ErrTooManyTabs, MaxTabs)
	}
	return SimpleTabbedTextState{
		ViewState: menu.ViewState{OriginalAuthorID: menu.Snowflake(ownerID), MenuType: SimpleTabbedTextMenuType},
		Messages:  messages,
	}, nil
}

// SimpleTabbedText shows one keycap button per message.
type SimpleTabbedText struct{}

var _ menu.Menuable = SimpleTabbedText{}

func (s SimpleTabbedText) Menu() *menu.Menu {
	m := menu.New()
	for i, ref := range tabButtons {
		m.Transitions = append(m.Transitions, menu.Transition{Emoji: ref, Func: s.tab(i)})
	}
	return m
}

func (s SimpleTabbedText) tab(idx int) menu.TransitionFunc {
	return func(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Click, _ menu.Data) (*menu.Control, error) {
		var st SimpleTabbedTextState
		if err := decode(state, SimpleTabbedTextMenuType, &st); err != nil {
			return nil, err
		}
		if idx >= len(st.Messages) {
			return nil, nil
		}
		st.CurrentIndex = idx
		return s.Embed(st)
	}
}

func (s SimpleTabbedText) FromMessage(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Data) (*menu.Control, error) {
	var st SimpleTabbedTextState
	if err := decode(state, SimpleTabbedTextMenuType, &st); err != nil {
		return nil, err
	}
	return s.Embed(st)
}

func (SimpleTabbedText) Embed(state any) (*menu.Control, error) {
	st, ok := state.(SimpleTabbedTextState)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}
	n := len(st.Messages)
	if n > MaxTabs {
		return nil, fmt.Errorf("%d tabs: %w (max %d)", n, ErrTooManyTabs, MaxTabs)
	}
	if st.CurrentIndex < 0 || st.CurrentIndex >= n {
		return nil, fmt.Errorf("tab %d of %d: %w", st.CurrentIndex, n, ErrInvalidState)
	}
	view := &embed.View{Main: embed.Main{Description: embed.Text(st.Messages[st.CurrentIndex])}}
	return control(view, st, tabButtons[:n])
}
