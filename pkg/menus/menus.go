// Package menus holds ready-made menu types built on pkg/menu.
package menus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// Menu type discriminators.
const (
	SimpleTextMenuType       = "SimpleTextMenu"
	SimpleTabbedTextMenuType = "SimpleTabbedTextMenu"
	TabbedMenuType           = "TabbedMenu"
	ScrollableMenuType       = "ScrollableMenu"
	ClosableMenuType         = "ClosableMenu"
)

// MaxTabs is the number of keycap buttons a tabbed menu can show.
const MaxTabs = 9

var (
	ErrTooManyTabs     = errors.New("menus: too many tabs")
	ErrUnknownMenuID   = errors.New("menus: unknown menu id")
	ErrUnknownViewType = errors.New("menus: unknown view type")
	ErrInvalidState    = errors.New("menus: state does not belong to this menu")
)

// tabButtons are the keycaps 1 to 9.
var tabButtons = func() []emoji.Ref {
	out := make([]emoji.Ref, 0, MaxTabs)
	for i := 1; i <= MaxTabs; i++ {
		out = append(out, emoji.Named(emoji.MustKeycap(i)))
	}
	return out
}()

// ViewFunc renders one pane of a menu from its state.
type ViewFunc[S any] func(state S) (*embed.View, error)

// Views maps menu ids to their ordered panes. Populate it at startup; reads
// are safe from concurrent dispatches.
type Views[S any] struct {
	mu   sync.RWMutex
	data map[string][]ViewFunc[S]
}

// NewViews creates an empty registry.
func NewViews[S any]() *Views[S] {
	return &Views[S]{data: make(map[string][]ViewFunc[S])}
}

// Set replaces the panes of menuID.
func (v *Views[S]) Set(menuID string, views ...ViewFunc[S]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[menuID] = append([]ViewFunc[S](nil), views...)
}

// View returns pane idx of menuID.
func (v *Views[S]) View(menuID string, idx int) (ViewFunc[S], error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	views, ok := v.data[menuID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMenuID, menuID)
	}
	if idx < 0 || idx >= len(views) {
		return nil, fmt.Errorf("menu %s: pane %d of %d", menuID, idx, len(views))
	}
	return views[idx], nil
}

// Count returns the number of panes of menuID.
func (v *Views[S]) Count(menuID string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.data[menuID])
}

// attachState stores state on the footer of view, adding the default footer
// when the view has none.
func attachState(view *embed.View, state any) error {
	if view.Footer == nil {
		footer, err := menu.FooterWithState(state, "", "")
		if err != nil {
			return err
		}
		view.Footer = footer
		return nil
	}
	icon := view.Footer.IconURL
	if icon == "" {
		icon = menu.DefaultFooterIconURL
	}
	u, err := ims.Serialize(icon, state, ims.KeyFooter)
	if err != nil {
		return err
	}
	view.Footer.IconURL = u
	return nil
}

// decode reads a typed state and checks its discriminator.
func decode(state ims.State, menuType string, out any) error {
	if got := state.String("menu_type"); got != menuType {
		return fmt.Errorf("%w: %q is not %q", ErrInvalidState, got, menuType)
	}
	return state.Decode(out)
}

// control renders state with view and buttons.
func control(view *embed.View, state any, buttons []emoji.Ref) (*menu.Control, error) {
	if view == nil {
		return nil, menu.ErrNoView
	}
	if err := attachState(view, state); err != nil {
		return nil, err
	}
	return &menu.Control{View: view, Buttons: buttons}, nil
}
