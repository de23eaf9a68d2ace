package embed

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	// MaxFieldValueLength is Discord's per-field value limit, in characters.
	MaxFieldValueLength = 1024

	// HiddenChar names continuation fields that have no title of their own.
	HiddenChar = "\u200b"

	defaultChunkDelimiter = "\n"
)

// ErrNoDelimiter is returned when a field chunk window contains no delimiter to cut at.
var ErrNoDelimiter = errors.New("could not chunk field by delimiter")

// Main is the top block of an embed.
type Main struct {
	Title       string
	URL         string
	Color       int
	Description Node
}

// Author is the optional author block. IconURL doubles as a state carrier.
type Author struct {
	Name    string
	URL     string
	IconURL string
}

// Footer is the optional footer block. IconURL doubles as a state carrier.
type Footer struct {
	Text    Node
	IconURL string
}

// Field is one logical field. Long values are split into several Discord
// fields at Delimiter (default "\n"); chunks after the first are titled
// ContinuationTitle, or HiddenChar when it is empty.
type Field struct {
	Name              Node
	Value             Node
	Inline            bool
	ContinuationTitle string
	Delimiter         string
}

// View describes one rendered panel.
type View struct {
	Main         Main
	Author       *Author
	ThumbnailURL string
	ImageURL     string
	Fields       []Field
	Footer       *Footer
}

// Embed renders the view into a discordgo embed, chunking fields to MaxFieldValueLength.
func (v *View) Embed() (*discordgo.MessageEmbed, error) {
	return v.EmbedWithChunkSize(MaxFieldValueLength)
}

// EmbedWithChunkSize renders the view using a custom per-field budget.
func (v *View) EmbedWithChunkSize(chunkSize int) (*discordgo.MessageEmbed, error) {
	fields, err := ChunkFields(v.Fields, chunkSize)
	if err != nil {
		return nil, err
	}

	e := &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       v.Main.Title,
		URL:         v.Main.URL,
		Color:       v.Main.Color,
		Description: render(v.Main.Description),
		Fields:      fields,
	}
	if v.Author != nil {
		e.Author = &discordgo.MessageEmbedAuthor{Name: v.Author.Name, URL: v.Author.URL, IconURL: v.Author.IconURL}
	}
	if v.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: v.ThumbnailURL}
	}
	if v.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: v.ImageURL}
	}
	if v.Footer != nil {
		e.Footer = &discordgo.MessageEmbedFooter{Text: render(v.Footer.Text), IconURL: v.Footer.IconURL}
	}
	return e, nil
}

// ChunkFields splits every field so no emitted value exceeds chunkSize
// characters. Each cut happens at the rightmost delimiter inside the window and
// consumes that delimiter.
func ChunkFields(fields []Field, chunkSize int) ([]*discordgo.MessageEmbedField, error) {
	if chunkSize <= 0 {
		chunkSize = MaxFieldValueLength
	}

	var out []*discordgo.MessageEmbedField
	for _, f := range fields {
		delim := f.Delimiter
		if delim == "" {
			delim = defaultChunkDelimiter
		}
		delimRunes := []rune(delim)

		remaining := []rune(render(f.Value))
		first := true
		for len(remaining) > 0 {
			name := fieldName(f, first)
			if len(remaining) <= chunkSize {
				out = append(out, &discordgo.MessageEmbedField{Name: name, Value: string(remaining), Inline: f.Inline})
				break
			}

			window := remaining[:chunkSize]
			idx := lastIndexRunes(window, delimRunes)
			if idx < 0 {
				return nil, fmt.Errorf("field %q: %w", render(f.Name), ErrNoDelimiter)
			}

			out = append(out, &discordgo.MessageEmbedField{Name: name, Value: string(window[:idx]), Inline: f.Inline})
			first = false
			remaining = remaining[idx+len(delimRunes):]
		}
	}
	return out, nil
}

func fieldName(f Field, first bool) string {
	if first {
		return render(f.Name)
	}
	if f.ContinuationTitle != "" {
		return f.ContinuationTitle
	}
	return HiddenChar
}

// lastIndexRunes finds the start of the last complete occurrence of sep in s.
func lastIndexRunes(s, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(s) {
		return -1
	}
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// FromEmbed rebuilds a View from an embed already rendered on a message.
// Field values come back as plain Text; chunked fields are not re-joined.
func FromEmbed(e *discordgo.MessageEmbed) *View {
	if e == nil {
		return &View{}
	}
	v := &View{
		Main: Main{
			Title:       e.Title,
			URL:         e.URL,
			Color:       e.Color,
			Description: Text(e.Description),
		},
	}
	if e.Author != nil {
		v.Author = &Author{Name: e.Author.Name, URL: e.Author.URL, IconURL: e.Author.IconURL}
	}
	if e.Thumbnail != nil {
		v.ThumbnailURL = e.Thumbnail.URL
	}
	if e.Image != nil {
		v.ImageURL = e.Image.URL
	}
	if e.Footer != nil {
		v.Footer = &Footer{Text: Text(e.Footer.Text), IconURL: e.Footer.IconURL}
	}
	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		v.Fields = append(v.Fields, Field{Name: Text(f.Name), Value: Text(f.Value), Inline: f.Inline})
	}
	return v
}
