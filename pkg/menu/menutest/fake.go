// Package menutest provides an in-memory Discord stand-in for menu tests.
package menutest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

// Operation names recorded by Fake.
const (
	OpSend           = "send"
	OpEdit           = "edit"
	OpEditContent    = "edit_content"
	OpDelete         = "delete"
	OpAddReaction    = "add_reaction"
	OpRemoveReaction = "remove_reaction"
	OpClearReaction  = "clear_reaction"
	OpFetch          = "fetch"
)

// Call is one recorded transport call.
type Call struct {
	Op        string
	MessageID string
	Emoji     string
	UserID    string
}

type reaction struct {
	emoji discordgo.Emoji
	users []string
}

type stored struct {
	msg       discordgo.Message
	reactions []*reaction
}

// Fake implements menu.Transport and the listener's bot collaborator
// against an in-memory message store.
type Fake struct {
	mu       sync.Mutex
	botID    string
	nextID   int
	messages map[string]*stored
	calls    []Call
	errs     map[string]error
	modules  map[string]any
}

var _ menu.Transport = (*Fake)(nil)

// New creates a fake whose bot user is botID.
func New(botID string) *Fake {
	return &Fake{
		botID:    botID,
		messages: make(map[string]*stored),
		errs:     make(map[string]error),
		modules:  make(map[string]any),
	}
}

// Fail makes every later call of op return err. A nil err clears it.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// SetModule registers a module under name.
func (f *Fake) SetModule(name string, module any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modules[name] = module
}

// UnloadModule removes a module.
func (f *Fake) UnloadModule(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.modules, name)
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsOf returns the recorded calls of op.
func (f *Fake) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Put stores a copy of msg, replacing its reactions with bot-owned ones.
func (f *Fake) Put(msg *discordgo.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &stored{msg: *msg}
	for _, r := range msg.Reactions {
		if r != nil && r.Emoji != nil {
			s.reactions = append(s.reactions, &reaction{emoji: *r.Emoji, users: []string{f.botID}})
		}
	}
	s.msg.Reactions = nil
	f.messages[msg.ID] = s
}

// Exists reports whether the message is still stored.
func (f *Fake) Exists(messageID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.messages[messageID]
	return ok
}

// Get returns a snapshot of a stored message.
func (f *Fake) Get(messageID string) (*discordgo.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.messages[messageID]
	if !ok {
		return nil, false
	}
	return s.snapshot(), true
}

// ReactionNames lists the emoji names on a message, in attach order.
func (f *Fake) ReactionNames(messageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.messages[messageID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s.reactions))
	for _, r := range s.reactions {
		out = append(out, r.emoji.Name)
	}
	return out
}

// SortedReactionNames is ReactionNames in lexical order, for comparing sets.
func (f *Fake) SortedReactionNames(messageID string) []string {
	out := f.ReactionNames(messageID)
	sort.Strings(out)
	return out
}

// React adds userID's reaction, as a user clicking the button would.
func (f *Fake) React(messageID, userID string, e discordgo.Emoji) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.messages[messageID]; ok {
		s.add(e, userID)
	}
}

// UserID implements the listener's bot collaborator.
func (f *Fake) UserID() string { return f.botID }

// Message implements the listener's bot collaborator.
func (f *Fake) Message(_ context.Context, _ string, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: OpFetch, MessageID: messageID})
	if err := f.errs[OpFetch]; err != nil {
		return nil, err
	}
	s, ok := f.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", messageID, menu.ErrNotFound)
	}
	return s.snapshot(), nil
}

// Module implements the listener's bot collaborator.
func (f *Fake) Module(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.modules[name]
	return m, ok
}

func (f *Fake) Send(_ context.Context, channelID string, e *discordgo.MessageEmbed) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := strconv.Itoa(1000 + f.nextID)
	f.calls = append(f.calls, Call{Op: OpSend, MessageID: id})
	if err := f.errs[OpSend]; err != nil {
		return nil, err
	}
	s := &stored{msg: discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		Author:    &discordgo.User{ID: f.botID, Bot: true},
		Embeds:    []*discordgo.MessageEmbed{e},
	}}
	f.messages[id] = s
	return s.snapshot(), nil
}

func (f *Fake) Edit(_ context.Context, msg *discordgo.Message, e *discordgo.MessageEmbed) error {
	return f.mutate(Call{Op: OpEdit, MessageID: msg.ID}, func(s *stored) {
		s.msg.Embeds = []*discordgo.MessageEmbed{e}
	})
}

func (f *Fake) EditContent(_ context.Context, msg *discordgo.Message, content string) error {
	return f.mutate(Call{Op: OpEditContent, MessageID: msg.ID}, func(s *stored) {
		s.msg.Content = content
	})
}

func (f *Fake) Delete(_ context.Context, msg *discordgo.Message) error {
	return f.mutate(Call{Op: OpDelete, MessageID: msg.ID}, func(s *stored) {
		delete(f.messages, msg.ID)
	})
}

func (f *Fake) AddReaction(_ context.Context, msg *discordgo.Message, e *discordgo.Emoji) error {
	return f.mutate(Call{Op: OpAddReaction, MessageID: msg.ID, Emoji: e.Name, UserID: f.botID}, func(s *stored) {
		s.add(*e, f.botID)
	})
}

func (f *Fake) RemoveReaction(_ context.Context, msg *discordgo.Message, e *discordgo.Emoji, userID string) error {
	if userID == menu.BotUser {
		userID = f.botID
	}
	return f.mutate(Call{Op: OpRemoveReaction, MessageID: msg.ID, Emoji: e.Name, UserID: userID}, func(s *stored) {
		s.remove(e.Name, userID)
	})
}

func (f *Fake) ClearReaction(_ context.Context, msg *discordgo.Message, e *discordgo.Emoji) error {
	return f.mutate(Call{Op: OpClearReaction, MessageID: msg.ID, Emoji: e.Name}, func(s *stored) {
		s.clear(e.Name)
	})
}

func (f *Fake) mutate(c Call, apply func(s *stored)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err := f.errs[c.Op]; err != nil {
		return err
	}
	s, ok := f.messages[c.MessageID]
	if !ok {
		return fmt.Errorf("%s %s: %w", c.Op, c.MessageID, menu.ErrNotFound)
	}
	apply(s)
	return nil
}

func (s *stored) snapshot() *discordgo.Message {
	m := s.msg
	m.Embeds = append([]*discordgo.MessageEmbed(nil), s.msg.Embeds...)
	m.Reactions = make([]*discordgo.MessageReactions, 0, len(s.reactions))
	for _, r := range s.reactions {
		e := r.emoji
		m.Reactions = append(m.Reactions, &discordgo.MessageReactions{Count: len(r.users), Emoji: &e})
	}
	return &m
}

func (s *stored) find(name string) int {
	for i, r := range s.reactions {
		if r.emoji.Name == name {
			return i
		}
	}
	return -1
}

func (s *stored) add(e discordgo.Emoji, userID string) {
	i := s.find(e.Name)
	if i < 0 {
		s.reactions = append(s.reactions, &reaction{emoji: e, users: []string{userID}})
		return
	}
	for _, u := range s.reactions[i].users {
		if u == userID {
			return
		}
	}
	s.reactions[i].users = append(s.reactions[i].users, userID)
}

func (s *stored) remove(name, userID string) {
	i := s.find(name)
	if i < 0 {
		return
	}
	users := s.reactions[i].users[:0]
	for _, u := range s.reactions[i].users {
		if u != userID {
			users = append(users, u)
		}
	}
	s.reactions[i].users = users
	if len(users) == 0 {
		s.clear(name)
	}
}

func (s *stored) clear(name string) {
	i := s.find(name)
	if i < 0 {
		return
	}
	s.reactions = append(s.reactions[:i], s.reactions[i+1:]...)
}
