package emoji

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Default emoji used by every menu.
const (
	DeleteMessage         = "\u274c"     // cross mark
	UnsupportedTransition = "\U0001f6ab" // no entry sign
	Home                  = "\U0001f3e0" // house building
	LeftArrow             = "\u23ea"
	RightArrow            = "\u23e9"

	combiningKeycap = "\u20e3"
)

// ErrEmptyFallback is returned when a fallback list has no names.
var ErrEmptyFallback = errors.New("emoji fallback list is empty")

// Ref is a logical emoji reference: a single name, or an ordered list of
// fallback names where the first name found in the custom emoji cache wins
// and the last entry is a universal (unicode) default.
type Ref struct {
	names []string
}

// Named builds a single-name reference.
func Named(name string) Ref {
	return Ref{names: []string{name}}
}

// Fallback builds a reference that tries names in order.
func Fallback(names ...string) (Ref, error) {
	if len(names) == 0 {
		return Ref{}, ErrEmptyFallback
	}
	return Ref{names: append([]string(nil), names...)}, nil
}

// MustFallback is Fallback for package-level declarations.
func MustFallback(names ...string) Ref {
	r, err := Fallback(names...)
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns every name of the reference, in fallback order.
func (r Ref) Names() []string {
	return append([]string(nil), r.names...)
}

// Default is the universal last-resort name.
func (r Ref) Default() string {
	if len(r.names) == 0 {
		return ""
	}
	return r.names[len(r.names)-1]
}

// IsZero reports whether the reference carries no names.
func (r Ref) IsZero() bool { return len(r.names) == 0 }

// Matches reports whether any name of the reference equals name.
func (r Ref) Matches(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// MatchesEmoji compares by name, since custom emoji objects are not stable across fetches.
func (r Ref) MatchesEmoji(e *discordgo.Emoji) bool {
	if e == nil {
		return false
	}
	return r.Matches(e.Name)
}

// Key identifies the reference for de-duplication.
func (r Ref) Key() string {
	return strings.Join(r.names, "\x00")
}

func (r Ref) String() string {
	if len(r.names) == 1 {
		return r.names[0]
	}
	return "[" + strings.Join(r.names, ", ") + "]"
}

// Keycap returns the keycap emoji for digits 0 to 9.
func Keycap(n int) (string, error) {
	if n < 0 || n > 9 {
		return "", fmt.Errorf("keycap %d: must be between 0 and 9", n)
	}
	return fmt.Sprintf("%d%s", n, combiningKeycap), nil
}

// MustKeycap is Keycap for package-level tables.
func MustKeycap(n int) string {
	k, err := Keycap(n)
	if err != nil {
		panic(err)
	}
	return k
}

// NameOf returns the logical name of a platform emoji.
func NameOf(e *discordgo.Emoji) string {
	if e == nil {
		return ""
	}
	return e.Name
}

// APIName formats e the way the reaction endpoints expect it: name:id for
// custom emoji, the bare unicode sequence otherwise.
func APIName(e *discordgo.Emoji) string {
	if e == nil {
		return ""
	}
	if e.ID != "" && e.Name != "" {
		return e.Name + ":" + e.ID
	}
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}
