package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
	"github.com/small-frappuccino/discordmenu/pkg/menu/listener"
	"github.com/small-frappuccino/discordmenu/pkg/menus"
)

// DemoModule is the module name the demo menus are registered under.
const DemoModule = "demo"

const (
	aboutMenuID = "about"
	pagesMenuID = "pages"
	pageCount   = 5
)

// ErrUnknownCommand is returned for a trigger followed by an unknown word.
var ErrUnknownCommand = errors.New("unknown menu command")

// Demo answers "<trigger> <command>" messages with the stock menus.
type Demo struct {
	engine   *menu.Engine
	trigger  string
	started  time.Time
	closable *menus.Closable
	tabbed   menus.Tabbed
	scroll   menus.Scrollable
}

var _ listener.ContextProvider = (*Demo)(nil)

// NewDemo builds the demo module and its views.
func NewDemo(engine *menu.Engine, trigger string) *Demo {
	d := &Demo{
		engine:   engine,
		trigger:  trigger,
		started:  time.Now(),
		closable: menus.NewClosable(),
		tabbed:   menus.Tabbed{Views: menus.NewViews[menus.TabbedState]()},
		scroll:   menus.Scrollable{Views: menus.NewViews[menus.ScrollableState]()},
	}
	d.closable.SetViewType("text", menus.TextView)
	d.tabbed.Views.Set(aboutMenuID, aboutOverview, aboutButtons, aboutState)

	pages := make([]menus.ViewFunc[menus.ScrollableState], 0, pageCount)
	for i := 0; i < pageCount; i++ {
		pages = append(pages, pageView)
	}
	d.scroll.Views.Set(pagesMenuID, pages...)
	return d
}

// Register adds every demo menu type to r.
func (d *Demo) Register(r *listener.Registry) error {
	entries := map[string]menu.Menuable{
		menus.SimpleTextMenuType:       menus.SimpleText{},
		menus.SimpleTabbedTextMenuType: menus.SimpleTabbedText{},
		menus.TabbedMenuType:           d.tabbed,
		menus.ScrollableMenuType:       d.scroll,
		menus.ClosableMenuType:         d.closable,
	}
	for menuType, m := range entries {
		if err := r.Register(menuType, listener.Entry{Menuable: m, Module: DemoModule}); err != nil {
			return err
		}
	}
	return nil
}

// MenuContext hands the demo uptime to transitions.
func (d *Demo) MenuContext(_ context.Context, _ ims.State) (menu.Data, error) {
	return menu.Data{"uptime": time.Since(d.started).Round(time.Second).String()}, nil
}

// Matches reports whether content is addressed to the demo.
func (d *Demo) Matches(content string) bool {
	content = strings.TrimSpace(content)
	return content == d.trigger || strings.HasPrefix(content, d.trigger+" ")
}

// HandleCommand creates the menu named by content in channelID, owned by authorID.
func (d *Demo) HandleCommand(ctx context.Context, channelID, authorID, content string) (*discordgo.Message, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), d.trigger))
	command, args, _ := strings.Cut(rest, " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(command) {
	case "", "help":
		st := menus.NewSimpleTextState(authorID, helpText(d.trigger))
		return d.engine.CreateFrom(ctx, channelID, menus.SimpleText{}, st)
	case "tabs":
		var tabs []string
		for _, part := range strings.Split(args, "|") {
			if part = strings.TrimSpace(part); part != "" {
				tabs = append(tabs, part)
			}
		}
		if len(tabs) == 0 {
			return nil, fmt.Errorf("tabs: no messages given")
		}
		st, err := menus.NewSimpleTabbedTextState(authorID, tabs...)
		if err != nil {
			return nil, err
		}
		return d.engine.CreateFrom(ctx, channelID, menus.SimpleTabbedText{}, st)
	case "about":
		return d.engine.CreateFrom(ctx, channelID, d.tabbed, menus.NewTabbedState(authorID, args, aboutMenuID))
	case "pages":
		return d.engine.CreateFrom(ctx, channelID, d.scroll, menus.NewScrollableState(authorID, args, pagesMenuID, pageCount))
	case "note":
		st, err := menus.NewClosableState(authorID, args, "text", map[string]string{"title": "Note", "message": args})
		if err != nil {
			return nil, err
		}
		return d.engine.CreateFrom(ctx, channelID, d.closable, st)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// OnMessageCreate is a discordgo handler for demo commands.
func (d *Demo) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot || !d.Matches(m.Content) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := d.HandleCommand(ctx, m.ChannelID, m.Author.ID, m.Content); err != nil {
		slog.Warn("Demo menu command failed", "channelID", m.ChannelID, "userID", m.Author.ID, "error", err)
	}
}

func helpText(trigger string) string {
	return strings.Join([]string{
		"**Reaction menus**",
		fmt.Sprintf("`%s tabs a | b | c` tabbed text", trigger),
		fmt.Sprintf("`%s about` tabbed panes", trigger),
		fmt.Sprintf("`%s pages` scrolling pages", trigger),
		fmt.Sprintf("`%s note <text>` closable note", trigger),
	}, "\n")
}

func aboutOverview(menus.TabbedState) (*embed.View, error) {
	return &embed.View{
		Main: embed.Main{Title: "About", Description: embed.Text("Menus keep their whole state on the message itself.")},
	}, nil
}

func aboutButtons(menus.TabbedState) (*embed.View, error) {
	return &embed.View{
		Main: embed.Main{Title: "Buttons", Description: embed.NewBox(
			embed.Label("❌", "closes the menu"),
			embed.Label("1⃣ 2⃣ 3⃣", "switch panes"),
		)},
	}, nil
}

func aboutState(st menus.TabbedState) (*embed.View, error) {
	return &embed.View{
		Main: embed.Main{Title: "State", Description: embed.NewBox(
			embed.Label("Owner", string(st.OriginalAuthorID)),
			embed.Label("Pane", fmt.Sprint(st.CurrentIndex+1)),
		)},
	}, nil
}

func pageView(st menus.ScrollableState) (*embed.View, error) {
	desc := fmt.Sprintf("Page %d of %d", st.CurrentPaneNum+1, st.NumPages)
	if st.RawQuery != "" {
		desc += " for " + st.RawQuery
	}
	return &embed.View{Main: embed.Main{Title: "Pages", Description: embed.Text(desc)}}, nil
}
