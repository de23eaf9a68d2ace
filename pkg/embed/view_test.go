package embed

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestChunkFields(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("a", MaxFieldValueLength)
	fields, err := ChunkFields([]Field{{Name: Text("Title"), Value: Text(exact)}}, MaxFieldValueLength)
	if err != nil {
		t.Fatalf("exact budget: unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "Title" || fields[0].Value != exact {
		t.Fatalf("exact budget: want one chunk titled %q, got %d chunks", "Title", len(fields))
	}

	over := strings.Repeat("a", MaxFieldValueLength+1)
	if _, err := ChunkFields([]Field{{Name: Text("Title"), Value: Text(over)}}, MaxFieldValueLength); !errors.Is(err, ErrNoDelimiter) {
		t.Fatalf("over budget without delimiter: want ErrNoDelimiter, got %v", err)
	}
}

func TestChunkFields_Reconstructs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		delimiter string
		size      int
	}{
		{name: "newline", delimiter: "\n", size: 50},
		{name: "multi-rune delimiter", delimiter: " | ", size: 37},
		{name: "default budget", size: MaxFieldValueLength},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			delim := tt.delimiter
			if delim == "" {
				delim = "\n"
			}
			lines := make([]string, 0, 200)
			for i := 0; i < 200; i++ {
				lines = append(lines, strings.Repeat("x", i%13+1))
			}
			original := strings.Join(lines, delim)

			chunks, err := ChunkFields([]Field{{
				Name:              Text("Body"),
				Value:             Text(original),
				Delimiter:         tt.delimiter,
				ContinuationTitle: "Body (cont.)",
			}}, tt.size)
			if err != nil {
				t.Fatalf("ChunkFields returned error: %v", err)
			}
			if len(chunks) < 2 {
				t.Fatalf("expected multiple chunks, got %d", len(chunks))
			}

			values := make([]string, 0, len(chunks))
			for i, c := range chunks {
				if n := len([]rune(c.Value)); n > tt.size {
					t.Fatalf("chunk %d has %d chars, budget %d", i, n, tt.size)
				}
				wantName := "Body (cont.)"
				if i == 0 {
					wantName = "Body"
				}
				if c.Name != wantName {
					t.Fatalf("chunk %d name: got %q want %q", i, c.Name, wantName)
				}
				values = append(values, c.Value)
			}
			if got := strings.Join(values, delim); got != original {
				t.Fatalf("rejoined chunks do not reconstruct the original text")
			}
		})
	}
}

func TestChunkFields_HiddenContinuationTitle(t *testing.T) {
	t.Parallel()

	value := strings.Repeat("word\n", 10)
	chunks, err := ChunkFields([]Field{{Name: Text("T"), Value: Text(value)}}, 12)
	if err != nil {
		t.Fatalf("ChunkFields returned error: %v", err)
	}
	for _, c := range chunks[1:] {
		if c.Name != HiddenChar {
			t.Fatalf("continuation chunk name: got %q want hidden char", c.Name)
		}
	}
}

func TestViewEmbed_RoundTrip(t *testing.T) {
	t.Parallel()

	v := &View{
		Main:         Main{Title: "t", URL: "https://discord.com", Color: 0x0035e4, Description: Text("desc")},
		Author:       &Author{Name: "author", IconURL: "https://example.com/a.png"},
		ThumbnailURL: "https://example.com/t.png",
		ImageURL:     "https://example.com/i.png",
		Fields:       []Field{{Name: Text("KeyA"), Value: Label("KeyA", "one"), Inline: true}},
		Footer:       &Footer{Text: Text("footer"), IconURL: "https://example.com/f.png"},
	}
	e, err := v.Embed()
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if e.Footer == nil || e.Footer.IconURL != "https://example.com/f.png" {
		t.Fatalf("footer not rendered: %+v", e.Footer)
	}
	if len(e.Fields) != 1 || e.Fields[0].Value != "**KeyA** one" || !e.Fields[0].Inline {
		t.Fatalf("unexpected fields: %+v", e.Fields)
	}

	restored := FromEmbed(e)
	if restored.Main.Title != "t" || restored.Main.Description.Markdown() != "desc" {
		t.Fatalf("main block not restored: %+v", restored.Main)
	}
	if restored.Author == nil || restored.Author.IconURL != v.Author.IconURL {
		t.Fatalf("author not restored: %+v", restored.Author)
	}
	if restored.ThumbnailURL != v.ThumbnailURL || restored.ImageURL != v.ImageURL {
		t.Fatalf("images not restored: thumb=%q image=%q", restored.ThumbnailURL, restored.ImageURL)
	}
}

func TestFromEmbed_Nil(t *testing.T) {
	t.Parallel()

	v := FromEmbed(nil)
	if v == nil || v.Footer != nil {
		t.Fatalf("expected an empty view, got %+v", v)
	}
	e, err := v.Embed()
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if e.Type != discordgo.EmbedTypeRich {
		t.Fatalf("unexpected embed type: %q", e.Type)
	}
}
