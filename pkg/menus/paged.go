package menus

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// TabbedState selects a pane of a registered tabbed menu.
type TabbedState struct {
	menu.ViewState
	MenuID       string `json:"menu_id"`
	CurrentIndex int    `json:"current_index"`
}

// NewTabbedState builds the state of a tabbed menu on its first pane.
func NewTabbedState(ownerID, rawQuery, menuID string) TabbedState {
	return TabbedState{
		ViewState: menu.ViewState{OriginalAuthorID: menu.Snowflake(ownerID), MenuType: TabbedMenuType, RawQuery: rawQuery},
		MenuID:    menuID,
	}
}

// Tabbed renders panes from Views, one keycap button per pane.
type Tabbed struct {
	Views *Views[TabbedState]
}

var _ menu.Menuable = Tabbed{}

func (t Tabbed) Menu() *menu.Menu {
	m := menu.New()
	for i, ref := range tabButtons {
		m.Transitions = append(m.Transitions, menu.Transition{Emoji: ref, Func: t.tab(i)})
	}
	return m
}

func (t Tabbed) tab(idx int) menu.TransitionFunc {
	return func(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Click, _ menu.Data) (*menu.Control, error) {
		var st TabbedState
		if err := decode(state, TabbedMenuType, &st); err != nil {
			return nil, err
		}
		if idx >= t.Views.Count(st.MenuID) {
			return nil, nil
		}
		st.CurrentIndex = idx
		return t.Embed(st)
	}
}

func (t Tabbed) FromMessage(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Data) (*menu.Control, error) {
	var st TabbedState
	if err := decode(state, TabbedMenuType, &st); err != nil {
		return nil, err
	}
	return t.Embed(st)
}

func (t Tabbed) Embed(state any) (*menu.Control, error) {
	st, ok := state.(TabbedState)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}
	n := t.Views.Count(st.MenuID)
	if n > MaxTabs {
		return nil, fmt.Errorf("menu %s has %d panes: %w (max %d)", st.MenuID, n, ErrTooManyTabs, MaxTabs)
	}
	render, err := t.Views.View(st.MenuID, st.CurrentIndex)
	if err != nil {
		return nil, err
	}
	view, err := render(st)
	if err != nil {
		return nil, fmt.Errorf("render menu %s pane %d: %w", st.MenuID, st.CurrentIndex, err)
	}
	return control(view, st, tabButtons[:n])
}

// ScrollableState pages through a registered scrollable menu.
type ScrollableState struct {
	menu.ViewState
	MenuID         string `json:"menu_id"`
	PrevPaneNum    int    `json:"prev_pane_num"`
	CurrentPaneNum int    `json:"current_pane_num"`
	NumPages       int    `json:"num_pages"`
}

// NewScrollableState builds the state of a scrollable menu on its first page.
func NewScrollableState(ownerID, rawQuery, menuID string, numPages int) ScrollableState {
	return ScrollableState{
		ViewState: menu.ViewState{OriginalAuthorID: menu.Snowflake(ownerID), MenuType: ScrollableMenuType, RawQuery: rawQuery},
		MenuID:    menuID,
		NumPages:  numPages,
	}
}

var (
	scrollLeft  = emoji.Named(emoji.LeftArrow)
	scrollRight = emoji.Named(emoji.RightArrow)
)

// Scrollable pages through Views with left and right arrows, wrapping around.
type Scrollable struct {
	Views *Views[ScrollableState]
}

var _ menu.Menuable = Scrollable{}

func (s Scrollable) Menu() *menu.Menu {
	return menu.New(
		menu.Transition{Emoji: scrollLeft, Func: s.scroll(-1)},
		menu.Transition{Emoji: scrollRight, Func: s.scroll(1)},
	)
}

func (s Scrollable) scroll(delta int) menu.TransitionFunc {
	return func(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Click, _ menu.Data) (*menu.Control, error) {
		var st ScrollableState
		if err := decode(state, ScrollableMenuType, &st); err != nil {
			return nil, err
		}
		if st.NumPages <= 0 {
			return nil, nil
		}
		st.PrevPaneNum = st.CurrentPaneNum
		st.CurrentPaneNum = ((st.CurrentPaneNum+delta)%st.NumPages + st.NumPages) % st.NumPages
		return s.Embed(st)
	}
}

func (s Scrollable) FromMessage(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Data) (*menu.Control, error) {
	var st ScrollableState
	if err := decode(state, ScrollableMenuType, &st); err != nil {
		return nil, err
	}
	return s.Embed(st)
}

func (s Scrollable) Embed(state any) (*menu.Control, error) {
	st, ok := state.(ScrollableState)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}
	if st.NumPages <= 0 {
		st.NumPages = s.Views.Count(st.MenuID)
	}
	render, err := s.Views.View(st.MenuID, st.CurrentPaneNum)
	if err != nil {
		return nil, err
	}
	view, err := render(st)
	if err != nil {
		return nil, fmt.Errorf("render menu %s page %d: %w", st.MenuID, st.CurrentPaneNum, err)
	}
	var buttons []emoji.Ref
	if st.NumPages > 1 {
		buttons = []emoji.Ref{scrollLeft, scrollRight}
	}
	return control(view, st, buttons)
}
