package menu

import "github.com/bwmarrin/discordgo"

// ReactionEvent is a raw reaction add or remove.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Emoji     discordgo.Emoji
	Member    *discordgo.Member
	Removed   bool
}

// InGuild reports whether the reaction happened outside a DM.
func (ev ReactionEvent) InGuild() bool { return ev.GuildID != "" }

// Click converts the event into the click handed to transitions.
func (ev ReactionEvent) Click() Click {
	return Click{Emoji: ev.Emoji, UserID: ev.UserID, GuildID: ev.GuildID, Member: ev.Member}
}

// Filter decides whether a reaction may trigger a transition.
type Filter interface {
	Allow(msg *discordgo.Message, state ViewState, ev ReactionEvent) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(msg *discordgo.Message, state ViewState, ev ReactionEvent) bool

func (f FilterFunc) Allow(msg *discordgo.Message, state ViewState, ev ReactionEvent) bool {
	return f(msg, state, ev)
}

// Chained allows an event only when f and inner both allow it.
type Chained struct {
	Filter Filter
	Inner  Filter
}

func (c Chained) Allow(msg *discordgo.Message, state ViewState, ev ReactionEvent) bool {
	if c.Filter != nil && !c.Filter.Allow(msg, state, ev) {
		return false
	}
	if c.Inner != nil && !c.Inner.Allow(msg, state, ev) {
		return false
	}
	return true
}

// Chain nests filters so each wraps the next. An empty chain allows everything.
func Chain(filters ...Filter) Filter {
	var inner Filter
	for i := len(filters) - 1; i >= 0; i-- {
		inner = Chained{Filter: filters[i], Inner: inner}
	}
	if inner == nil {
		return FilterFunc(func(*discordgo.Message, ViewState, ReactionEvent) bool { return true })
	}
	return inner
}

// ValidEmojiFilter allows emoji in names.
func ValidEmojiFilter(names []string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return FilterFunc(func(_ *discordgo.Message, _ ViewState, ev ReactionEvent) bool {
		_, ok := set[ev.Emoji.Name]
		return ok
	})
}

// NotPosterFilter rejects the message author reacting to its own message.
// Guild events are filtered by botID instead, since a member is attached.
func NotPosterFilter(botID string) Filter {
	return FilterFunc(func(msg *discordgo.Message, _ ViewState, ev ReactionEvent) bool {
		if ev.InGuild() {
			return ev.UserID != botID
		}
		return msg == nil || msg.Author == nil || msg.Author.ID != ev.UserID
	})
}

// BotAuthoredFilter allows only messages sent by botID.
func BotAuthoredFilter(botID string) Filter {
	return FilterFunc(func(msg *discordgo.Message, _ ViewState, _ ReactionEvent) bool {
		return msg != nil && msg.Author != nil && msg.Author.ID == botID
	})
}

// MessageOwnerFilter allows only the user who opened the menu. In DMs the
// only other participant is the owner, so every reaction is allowed.
func MessageOwnerFilter() Filter {
	return FilterFunc(func(_ *discordgo.Message, state ViewState, ev ReactionEvent) bool {
		if !ev.InGuild() {
			return true
		}
		return state.OriginalAuthorID.String() == ev.UserID
	})
}

// FriendFilter allows the owner and the co-viewers friends returns for them.
// It stands in for MessageOwnerFilter in a listener's base chain.
func FriendFilter(friends func(ownerID string) []string) Filter {
	return FilterFunc(func(_ *discordgo.Message, state ViewState, ev ReactionEvent) bool {
		if !ev.InGuild() {
			return true
		}
		owner := state.OriginalAuthorID.String()
		if ev.UserID == owner {
			return true
		}
		if friends == nil {
			return false
		}
		for _, id := range friends(owner) {
			if id == ev.UserID {
				return true
			}
		}
		return false
	})
}
