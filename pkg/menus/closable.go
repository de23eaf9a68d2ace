package menus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// ClosableState renders one registered view type. SubProps is passed to the
// view untouched.
type ClosableState struct {
	menu.ViewState
	ViewType string          `json:"view_type"`
	SubProps json.RawMessage `json:"sub_props,omitempty"`
}

// NewClosableState builds a closable state, encoding props as its sub props.
func NewClosableState(ownerID, rawQuery, viewType string, props any) (ClosableState, error) {
	st := ClosableState{
		ViewState: menu.ViewState{OriginalAuthorID: menu.Snowflake(ownerID), MenuType: ClosableMenuType, RawQuery: rawQuery},
		ViewType:  viewType,
	}
	if props != nil {
		raw, err := json.Marshal(props)
		if err != nil {
			return ClosableState{}, fmt.Errorf("closable sub props: %w", err)
		}
		st.SubProps = raw
	}
	return st, nil
}

// Closable shows independent views whose only button is close.
type Closable struct {
	mu        sync.RWMutex
	viewTypes map[string]ViewFunc[ClosableState]
}

var _ menu.Menuable = (*Closable)(nil)

// NewClosable creates an empty closable menu.
func NewClosable() *Closable {
	return &Closable{viewTypes: make(map[string]ViewFunc[ClosableState])}
}

// SetViewType registers the renderer for viewType.
func (c *Closable) SetViewType(viewType string, fn ViewFunc[ClosableState]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewTypes[viewType] = fn
}

func (c *Closable) Menu() *menu.Menu { return menu.New() }

// FromMessage returns the control already on the message; closable menus
// never re-render.
func (c *Closable) FromMessage(_ context.Context, msg *discordgo.Message, _ ims.State, _ menu.Data) (*menu.Control, error) {
	ctrl := menu.ControlFromMessage(msg)
	if ctrl == nil {
		return nil, fmt.Errorf("closable menu: %w", menu.ErrNoView)
	}
	return ctrl, nil
}

func (c *Closable) Embed(state any) (*menu.Control, error) {
	st, ok := state.(ClosableState)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidState, state)
	}
	c.mu.RLock()
	fn, ok := c.viewTypes[st.ViewType]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownViewType, st.ViewType)
	}
	view, err := fn(st)
	if err != nil {
		return nil, fmt.Errorf("render closable view %s: %w", st.ViewType, err)
	}
	return control(view, st, nil)
}

// TextView is a ViewFunc that shows sub props decoded as {"message": "..."}.
func TextView(st ClosableState) (*embed.View, error) {
	var props struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if len(st.SubProps) > 0 {
		if err := json.Unmarshal(st.SubProps, &props); err != nil {
			return nil, fmt.Errorf("text view props: %w", err)
		}
	}
	return &embed.View{Main: embed.Main{Title: props.Title, Description: embed.Text(props.Message)}}, nil
}
