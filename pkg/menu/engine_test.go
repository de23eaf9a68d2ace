package menu_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/emoji"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
	"github.com/small-frappuccino/discordmenu/pkg/menu"
	"github.com/small-frappuccino/discordmenu/pkg/menu/menutest"
)

const (
	botID   = "900"
	ownerID = "42"
	guildID = "7"
)

var (
	tab1 = emoji.MustKeycap(1)
	tab2 = emoji.MustKeycap(2)
)

type tabState struct {
	menu.ViewState
	CurrentIndex int      `json:"current_index"`
	Messages     []string `json:"messages"`
}

func renderTabs(t *testing.T, s tabState) *menu.Control {
	t.Helper()
	footer, err := menu.FooterWithState(s, "", "")
	if err != nil {
		t.Fatalf("FooterWithState returned error: %v", err)
	}
	return &menu.Control{
		View: &embed.View{
			Main:   embed.Main{Title: "tabs", Description: embed.Text(s.Messages[s.CurrentIndex])},
			Footer: footer,
		},
		Buttons: []emoji.Ref{emoji.Named(tab1), emoji.Named(tab2)},
	}
}

func twoTabMenu(t *testing.T) *menu.Menu {
	t.Helper()
	tabTo := func(idx int) menu.TransitionFunc {
		return func(_ context.Context, _ *discordgo.Message, state ims.State, _ menu.Click, _ menu.Data) (*menu.Control, error) {
			var s tabState
			if err := state.Decode(&s); err != nil {
				return nil, err
			}
			s.CurrentIndex = idx
			return renderTabs(t, s), nil
		}
	}
	return menu.New(
		menu.Transition{Emoji: emoji.Named(tab1), Func: tabTo(0)},
		menu.Transition{Emoji: emoji.Named(tab2), Func: tabTo(1)},
	)
}

func initialTabs() tabState {
	return tabState{
		ViewState: menu.ViewState{OriginalAuthorID: ownerID, MenuType: "TwoTabs"},
		Messages:  []string{"A", "B"},
	}
}

func newEngine(fake *menutest.Fake, opts menu.Options) *menu.Engine {
	if opts.UnsupportedDelay == 0 {
		opts.UnsupportedDelay = 5 * time.Millisecond
	}
	return menu.NewEngine(fake, nil, opts)
}

func click(name, guild string) menu.Click {
	return menu.Click{Emoji: discordgo.Emoji{Name: name}, UserID: ownerID, GuildID: guild}
}

func sorted(in ...string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func fetch(t *testing.T, fake *menutest.Fake, id string) (*discordgo.Message, ims.State) {
	t.Helper()
	msg, ok := fake.Get(id)
	if !ok {
		t.Fatalf("message %s not found", id)
	}
	return msg, ims.FromMessage(msg)
}

func TestCreateAddsCloseButtonFirst(t *testing.T) {
	t.Parallel()

	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	msg, err := engine.Create(context.Background(), "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := []string{emoji.DeleteMessage, tab1, tab2}
	if got := fake.ReactionNames(msg.ID); !reflect.DeepEqual(got, want) {
		t.Fatalf("reactions = %v, want %v", got, want)
	}
}

func TestCreateDoesNotDuplicateCloseButton(t *testing.T) {
	t.Parallel()

	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	ctrl := renderTabs(t, initialTabs())
	ctrl.Buttons = []emoji.Ref{emoji.Named(tab1), emoji.Named(emoji.DeleteMessage)}

	msg, err := engine.Create(context.Background(), "c1", ctrl)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	want := []string{tab1, emoji.DeleteMessage}
	if got := fake.ReactionNames(msg.ID); !reflect.DeepEqual(got, want) {
		t.Fatalf("reactions = %v, want %v", got, want)
	}
	if n := len(fake.CallsOf(menutest.OpAddReaction)); n != 2 {
		t.Fatalf("expected 2 reaction adds, got %d", n)
	}
}

func TestCreateRejectsTooManyButtons(t *testing.T) {
	t.Parallel()

	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	ctrl := renderTabs(t, initialTabs())
	ctrl.Buttons = nil
	for i := 0; i < menu.MaxButtons; i++ {
		ctrl.Buttons = append(ctrl.Buttons, emoji.Named(string(rune('a'+i))))
	}

	if _, err := engine.Create(context.Background(), "c1", ctrl); !errors.Is(err, menu.ErrTooManyButtons) {
		t.Fatalf("want ErrTooManyButtons, got %v", err)
	}
	if len(fake.CallsOf(menutest.OpSend)) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestTwoTabMenuEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})
	m := twoTabMenu(t)

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	before := fake.SortedReactionNames(created.ID)

	fake.React(created.ID, ownerID, discordgo.Emoji{Name: tab2})
	fake.ResetCalls()

	msg, state := fetch(t, fake, created.ID)
	outcome, err := engine.Transition(ctx, msg, m, state, click(tab2, guildID), nil)
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if outcome != menu.Idle {
		t.Fatalf("outcome = %v, want idle", outcome)
	}

	msg, state = fetch(t, fake, created.ID)
	var got tabState
	if err := state.Decode(&got); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got.CurrentIndex != 1 || got.MenuType != "TwoTabs" || got.OriginalAuthorID != ownerID {
		t.Fatalf("unexpected state after transition: %+v", got)
	}
	if msg.Embeds[0].Description != "B" {
		t.Fatalf("description = %q, want B", msg.Embeds[0].Description)
	}
	if after := fake.SortedReactionNames(created.ID); !reflect.DeepEqual(after, before) {
		t.Fatalf("reaction set changed: %v -> %v", before, after)
	}
	if n := len(fake.CallsOf(menutest.OpAddReaction)) + len(fake.CallsOf(menutest.OpClearReaction)); n != 0 {
		t.Fatalf("expected no button changes, got %d", n)
	}
	resets := fake.CallsOf(menutest.OpRemoveReaction)
	if len(resets) != 1 || resets[0].UserID != ownerID || resets[0].Emoji != tab2 {
		t.Fatalf("expected the click to be reset, got %+v", resets)
	}

	outcome, err = engine.Transition(ctx, msg, m, state, click(emoji.DeleteMessage, guildID), nil)
	if err != nil || outcome != menu.Closed {
		t.Fatalf("close: outcome=%v err=%v", outcome, err)
	}
	if fake.Exists(created.ID) {
		t.Fatalf("close without handler should delete the message")
	}
}

func TestTransitionReconcilesButtons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		guild     string
		order     menu.ReactionOrder
		wantOps   []string
		wantClear bool
	}{
		{name: "guild remove first", guild: guildID, order: menu.RemoveFirst, wantOps: []string{menutest.OpClearReaction, menutest.OpAddReaction}, wantClear: true},
		{name: "guild add first", guild: guildID, order: menu.AddFirst, wantOps: []string{menutest.OpAddReaction, menutest.OpClearReaction}, wantClear: true},
		{name: "dm", guild: "", order: menu.RemoveFirst, wantOps: []string{menutest.OpRemoveReaction, menutest.OpAddReaction}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			fake := menutest.New(botID)
			engine := newEngine(fake, menu.Options{Order: tt.order})

			created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
			if err != nil {
				t.Fatalf("Create returned error: %v", err)
			}
			swap := menu.New(menu.Transition{
				Emoji: emoji.Named(tab1),
				Func: func(context.Context, *discordgo.Message, ims.State, menu.Click, menu.Data) (*menu.Control, error) {
					return &menu.Control{Content: "swapped", Buttons: []emoji.Ref{emoji.Named(tab1), emoji.Named("new")}}, nil
				},
			})
			fake.ResetCalls()

			msg, state := fetch(t, fake, created.ID)
			if _, err := engine.Transition(ctx, msg, swap, state, click(tab1, tt.guild), nil); err != nil {
				t.Fatalf("Transition returned error: %v", err)
			}

			var ops []string
			for _, c := range fake.Calls() {
				if c.Emoji == tab2 || c.Emoji == "new" {
					ops = append(ops, c.Op)
				}
			}
			if !reflect.DeepEqual(ops, tt.wantOps) {
				t.Fatalf("button ops = %v, want %v", ops, tt.wantOps)
			}
			if got, want := fake.SortedReactionNames(created.ID), sorted(emoji.DeleteMessage, tab1, "new"); !reflect.DeepEqual(got, want) {
				t.Fatalf("reactions = %v, want %v", got, want)
			}
			if msg, _ := fake.Get(created.ID); msg.Content != "swapped" {
				t.Fatalf("content edit not applied: %q", msg.Content)
			}
			for _, c := range fake.CallsOf(menutest.OpRemoveReaction) {
				if tt.guild == "" && c.UserID != botID {
					t.Fatalf("DM removal must only target the bot, got %+v", c)
				}
			}
		})
	}
}

func TestUnsupportedClickFlashesIndicator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	fake.React(created.ID, ownerID, discordgo.Emoji{Name: "wave"})

	msg, state := fetch(t, fake, created.ID)
	outcome, err := engine.Transition(ctx, msg, twoTabMenu(t), state, click("wave", guildID), nil)
	if err != nil || outcome != menu.Unsupported {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}

	found := false
	for _, c := range fake.CallsOf(menutest.OpAddReaction) {
		if c.Emoji == emoji.UnsupportedTransition {
			found = true
		}
	}
	if !found {
		t.Fatalf("unsupported indicator was not added")
	}

	engine.Wait()
	for _, name := range fake.ReactionNames(created.ID) {
		if name == emoji.UnsupportedTransition || name == "wave" {
			t.Fatalf("%s should have been removed, reactions=%v", name, fake.ReactionNames(created.ID))
		}
	}
}

func TestUnsupportedIndicatorCanBeDisabled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{DisableUnsupported: true})

	nilTransition := menu.New(menu.Transition{
		Emoji: emoji.Named(tab1),
		Func: func(context.Context, *discordgo.Message, ims.State, menu.Click, menu.Data) (*menu.Control, error) {
			return nil, nil
		},
	})
	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	fake.ResetCalls()

	msg, state := fetch(t, fake, created.ID)
	outcome, err := engine.Transition(ctx, msg, nilTransition, state, click(tab1, ""), nil)
	if err != nil || outcome != menu.Unsupported {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}
	engine.Wait()
	if calls := fake.Calls(); len(calls) != 0 {
		t.Fatalf("DM unsupported click with indicator disabled should make no calls, got %+v", calls)
	}
}

func TestTransitionSwallowsVanishedMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	msg, state := fetch(t, fake, created.ID)
	if err := fake.Delete(ctx, msg); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	outcome, err := engine.Transition(ctx, msg, twoTabMenu(t), state, click(tab2, guildID), nil)
	if err != nil {
		t.Fatalf("vanished message should be swallowed, got %v", err)
	}
	if outcome != menu.Idle {
		t.Fatalf("outcome = %v, want idle", outcome)
	}

	outcome, err = engine.Transition(ctx, msg, twoTabMenu(t), state, click(emoji.DeleteMessage, guildID), nil)
	if err != nil || outcome != menu.Closed {
		t.Fatalf("closing a vanished message: outcome=%v err=%v", outcome, err)
	}
}

func TestTransitionSurfacesHardFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	boom := errors.New("boom")
	fake.Fail(menutest.OpEdit, boom)

	msg, state := fetch(t, fake, created.ID)
	if _, err := engine.Transition(ctx, msg, twoTabMenu(t), state, click(tab2, guildID), nil); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	fake.Fail(menutest.OpEdit, nil)
	fake.Fail(menutest.OpRemoveReaction, menu.ErrForbidden)
	if _, err := engine.Transition(ctx, msg, twoTabMenu(t), state, click(tab2, guildID), nil); err != nil {
		t.Fatalf("forbidden reset should be swallowed, got %v", err)
	}
}

func TestCustomCloseHandler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	engine := newEngine(fake, menu.Options{})

	var seen menu.Click
	m := twoTabMenu(t).WithClose(func(_ context.Context, _ *discordgo.Message, _ ims.State, c menu.Click, _ menu.Data) (*menu.Control, error) {
		seen = c
		return &menu.Control{Content: "are you sure?"}, nil
	})

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	fake.React(created.ID, ownerID, discordgo.Emoji{Name: emoji.DeleteMessage})

	msg, state := fetch(t, fake, created.ID)
	outcome, err := engine.Transition(ctx, msg, m, state, click(emoji.DeleteMessage, guildID), nil)
	if err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if outcome != menu.Idle || seen.UserID != ownerID {
		t.Fatalf("outcome=%v seen=%+v", outcome, seen)
	}
	msg, _ = fetch(t, fake, created.ID)
	if msg.Content != "are you sure?" {
		t.Fatalf("custom close content not applied: %q", msg.Content)
	}
	resets := fake.CallsOf(menutest.OpRemoveReaction)
	if len(resets) == 0 || resets[len(resets)-1].UserID != ownerID {
		t.Fatalf("clicker's close reaction should be removed, got %+v", resets)
	}
}

type recorder struct {
	outcomes []menu.Outcome
	types    []string
}

func (r *recorder) RecordTransition(menuType, _ string, o menu.Outcome) {
	r.types = append(r.types, menuType)
	r.outcomes = append(r.outcomes, o)
}

func TestEngineRecordsOutcomes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := menutest.New(botID)
	rec := &recorder{}
	engine := newEngine(fake, menu.Options{Recorder: rec, DisableUnsupported: true})

	created, err := engine.Create(ctx, "c1", renderTabs(t, initialTabs()))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	msg, state := fetch(t, fake, created.ID)
	if _, err := engine.Transition(ctx, msg, twoTabMenu(t), state, click(tab2, ""), nil); err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}

	wantOutcomes := []menu.Outcome{menu.Created, menu.Idle}
	if !reflect.DeepEqual(rec.outcomes, wantOutcomes) {
		t.Fatalf("outcomes = %v, want %v", rec.outcomes, wantOutcomes)
	}
	if !reflect.DeepEqual(rec.types, []string{"TwoTabs", "TwoTabs"}) {
		t.Fatalf("menu types = %v", rec.types)
	}
}

func TestParseReactionOrder(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]menu.ReactionOrder{"": menu.RemoveFirst, "remove-first": menu.RemoveFirst, "ADD-FIRST": menu.AddFirst} {
		got, err := menu.ParseReactionOrder(in)
		if err != nil || got != want {
			t.Fatalf("ParseReactionOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := menu.ParseReactionOrder("sideways"); err == nil {
		t.Fatalf("expected an error for an unknown order")
	}
}
