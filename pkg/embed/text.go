package embed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Node is one piece of rendered field/description markup.
// Empty nodes are skipped when a Box renders its children.
type Node interface {
	Markdown() string
	Empty() bool
}

// ErrHighlightOutOfRange is returned when a highlighted link index is not a valid link.
var ErrHighlightOutOfRange = errors.New("highlighted link out of range")

// Text is a plain markdown leaf.
type Text string

func (t Text) Markdown() string { return string(t) }
func (t Text) Empty() bool      { return t == "" }

// Box joins its non-empty children with Delimiter. A box holding exactly one
// renderable child returns that child verbatim.
type Box struct {
	Children  []Node
	Delimiter string
}

// NewBox builds a newline-delimited Box.
func NewBox(children ...Node) *Box {
	return &Box{Children: children, Delimiter: "\n"}
}

// Join builds a Box with a custom delimiter.
func Join(delimiter string, children ...Node) *Box {
	return &Box{Children: children, Delimiter: delimiter}
}

func (b *Box) Markdown() string {
	if b == nil {
		return ""
	}
	parts := make([]string, 0, len(b.Children))
	for _, c := range b.Children {
		if isEmpty(c) {
			continue
		}
		parts = append(parts, c.Markdown())
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts, b.Delimiter)
}

func (b *Box) Empty() bool {
	if b == nil {
		return true
	}
	for _, c := range b.Children {
		if !isEmpty(c) {
			return false
		}
	}
	return true
}

// Bold renders **inner**.
type Bold struct{ Inner Node }

func (b Bold) Markdown() string { return "**" + render(b.Inner) + "**" }
func (b Bold) Empty() bool      { return isEmpty(b.Inner) }

// Inline renders `inner`.
type Inline struct{ Inner Node }

func (i Inline) Markdown() string { return "`" + render(i.Inner) + "`" }
func (i Inline) Empty() bool      { return isEmpty(i.Inner) }

// Block renders a fenced code block.
type Block struct{ Inner Node }

func (b Block) Markdown() string { return "```\n" + render(b.Inner) + "\n```" }
func (b Block) Empty() bool      { return isEmpty(b.Inner) }

// Link renders [name](url).
type Link struct {
	Name Node
	URL  string
}

func (l Link) Markdown() string { return fmt.Sprintf("[%s](%s)", render(l.Name), l.URL) }
func (l Link) Empty() bool      { return isEmpty(l.Name) }

// Labeled renders a bold label followed by a value, dropping whichever side is empty.
type Labeled struct {
	Label Node
	Value Node
}

// Label is shorthand for a Labeled with plain text on both sides.
func Label(label, value string) Labeled {
	return Labeled{Label: Text(label), Value: Text(value)}
}

func (l Labeled) Markdown() string {
	name := Bold{Inner: l.Label}
	switch {
	case name.Empty():
		return render(l.Value)
	case isEmpty(l.Value):
		return name.Markdown()
	}
	return name.Markdown() + " " + render(l.Value)
}

func (l Labeled) Empty() bool { return isEmpty(l.Label) && isEmpty(l.Value) }

// HighlightableLinks renders a list of links where the highlighted one is shown
// in bold instead of as a link.
type HighlightableLinks struct {
	Links       []Link
	Highlighted int
	Delimiter   string
}

// NewHighlightableLinks validates the highlighted index up front.
func NewHighlightableLinks(links []Link, highlighted int) (*HighlightableLinks, error) {
	if highlighted < 0 || highlighted >= len(links) {
		return nil, fmt.Errorf("highlight %d of %d links: %w", highlighted, len(links), ErrHighlightOutOfRange)
	}
	return &HighlightableLinks{Links: links, Highlighted: highlighted, Delimiter: ", "}, nil
}

func (h *HighlightableLinks) Markdown() string {
	parts := make([]string, 0, len(h.Links))
	for i, l := range h.Links {
		if i == h.Highlighted {
			parts = append(parts, Bold{Inner: l.Name}.Markdown())
			continue
		}
		parts = append(parts, l.Markdown())
	}
	return strings.Join(parts, h.Delimiter)
}

func (h *HighlightableLinks) Empty() bool {
	for _, l := range h.Links {
		if !l.Empty() {
			return false
		}
	}
	return true
}

// CustomEmoji renders a guild emoji inline, e.g. <a:name:id>.
type CustomEmoji struct{ Emoji *discordgo.Emoji }

func (c CustomEmoji) Markdown() string {
	if c.Emoji == nil {
		return ""
	}
	animated := ""
	if c.Emoji.Animated {
		animated = "a"
	}
	return fmt.Sprintf("<%s:%s:%s>", animated, c.Emoji.Name, c.Emoji.ID)
}

func (c CustomEmoji) Empty() bool { return false }

func isEmpty(n Node) bool {
	return n == nil || n.Empty()
}

func render(n Node) string {
	if n == nil {
		return ""
	}
	return n.Markdown()
}
