package menu

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
)

// Click is the reaction that triggered a transition.
type Click struct {
	Emoji   discordgo.Emoji
	UserID  string
	GuildID string
	Member  *discordgo.Member
	// Simulated marks a click forwarded by cascade; no user reaction exists.
	Simulated bool
}

// Name is the clicked emoji's logical name.
func (c Click) Name() string { return c.Emoji.Name }

// InGuild reports whether the click happened outside a DM.
func (c Click) InGuild() bool { return c.GuildID != "" }

// TransitionFunc renders the next control. A nil control with a nil error
// means the click is unsupported in the current state.
type TransitionFunc func(ctx context.Context, msg *discordgo.Message, state ims.State, click Click, data Data) (*Control, error)

// ChildClick is the click a parent menu forwards to its child message.
type ChildClick struct {
	// Emoji is the simulated click. Empty stops the cascade.
	Emoji string
	// State is written over the child's decoded state before it transitions.
	State ims.State
}

// ChildFunc computes the click to forward to a child message.
type ChildFunc func(ctx context.Context, state ims.State, clicked string, data Data) (ChildClick, error)

// Transition binds a button to its behavior.
type Transition struct {
	Emoji emoji.Ref
	Func  TransitionFunc
	// Child, when set, forwards the click to the child message.
	Child ChildFunc
	// PaneType names the view the transition leads to.
	PaneType string
}

// Transitions is a menu's transition table, in button order.
type Transitions []Transition

// EmojiRefs returns the declared buttons in order.
func (ts Transitions) EmojiRefs() []emoji.Ref {
	out := make([]emoji.Ref, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Emoji)
	}
	return out
}

// Names returns every emoji name the table reacts to, fallbacks included.
func (ts Transitions) Names() []string {
	var out []string
	for _, t := range ts {
		out = append(out, t.Emoji.Names()...)
	}
	return out
}

// Lookup finds the transition bound to name.
func (ts Transitions) Lookup(name string) (Transition, bool) {
	for _, t := range ts {
		if t.Func != nil && t.Emoji.Matches(name) {
			return t, true
		}
	}
	return Transition{}, false
}

// Child returns the child function bound to name, or nil.
func (ts Transitions) Child(name string) ChildFunc {
	for _, t := range ts {
		if t.Child != nil && t.Emoji.Matches(name) {
			return t.Child
		}
	}
	return nil
}

// PaneTypes lists the distinct pane types in declaration order.
func (ts Transitions) PaneTypes() []string {
	seen := make(map[string]struct{}, len(ts))
	var out []string
	for _, t := range ts {
		if t.PaneType == "" {
			continue
		}
		if _, ok := seen[t.PaneType]; ok {
			continue
		}
		seen[t.PaneType] = struct{}{}
		out = append(out, t.PaneType)
	}
	return out
}
