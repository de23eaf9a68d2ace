package menu

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/ims"
)

// Menu is a menu definition: its buttons and an optional close override.
type Menu struct {
	Transitions Transitions
	// Close replaces the default delete-on-close behavior. It may return a
	// control to display instead, or nil to leave the message as it is.
	Close TransitionFunc
}

// New builds a menu from its transitions.
func New(transitions ...Transition) *Menu {
	return &Menu{Transitions: transitions}
}

// WithClose sets a custom close handler.
func (m *Menu) WithClose(fn TransitionFunc) *Menu {
	m.Close = fn
	return m
}

// Menuable is implemented by every registered menu type.
type Menuable interface {
	// Menu returns the definition used for transitions.
	Menu() *Menu
	// FromMessage renders the control for a state decoded from msg.
	FromMessage(ctx context.Context, msg *discordgo.Message, state ims.State, data Data) (*Control, error)
	// Embed renders the initial control for a freshly built state.
	Embed(state any) (*Control, error)
}
