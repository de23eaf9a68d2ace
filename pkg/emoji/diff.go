package emoji

import "github.com/bwmarrin/discordgo"

// Diff is the set of reaction mutations that turns the current buttons into
// the desired ones.
type Diff struct {
	// Add keeps the desired order; duplicates collapse to their first occurrence.
	Add []Ref
	// Remove holds current reactions no desired reference matches.
	Remove []*discordgo.Emoji
}

// Empty reports whether no mutation is needed.
func (d Diff) Empty() bool { return len(d.Add) == 0 && len(d.Remove) == 0 }

// ComputeDiff compares by name: a fallback reference is present when any of
// its names is on the message.
func ComputeDiff(current []*discordgo.Emoji, desired []Ref) Diff {
	var d Diff

	seen := make(map[string]struct{}, len(desired))
	for _, ref := range desired {
		if ref.IsZero() {
			continue
		}
		if _, dup := seen[ref.Key()]; dup {
			continue
		}
		seen[ref.Key()] = struct{}{}
		if !containsRef(current, ref) {
			d.Add = append(d.Add, ref)
		}
	}

	removed := make(map[string]struct{}, len(current))
	for _, e := range current {
		if e == nil {
			continue
		}
		if _, dup := removed[e.Name]; dup {
			continue
		}
		if !matchesAny(desired, e) {
			removed[e.Name] = struct{}{}
			d.Remove = append(d.Remove, e)
		}
	}
	return d
}

// Reactions lists the emoji currently attached to m.
func Reactions(m *discordgo.Message) []*discordgo.Emoji {
	if m == nil {
		return nil
	}
	out := make([]*discordgo.Emoji, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		if r != nil && r.Emoji != nil {
			out = append(out, r.Emoji)
		}
	}
	return out
}

func containsRef(current []*discordgo.Emoji, ref Ref) bool {
	for _, e := range current {
		if ref.MatchesEmoji(e) {
			return true
		}
	}
	return false
}

func matchesAny(refs []Ref, e *discordgo.Emoji) bool {
	for _, ref := range refs {
		if ref.MatchesEmoji(e) {
			return true
		}
	}
	return false
}
