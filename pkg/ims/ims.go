// Package ims implements intra-message state: view state round-tripped
// through hidden query parameters on the image URLs of a rendered embed.
//
// Wire format: the state is JSON-encoded, base64-encoded (standard alphabet,
// padded) and stored as a query parameter on one of four carrier URLs. The
// parameter names are fixed: imsa (author icon), imsi (body image), imsf
// (footer icon) and imst (thumbnail).
package ims

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/bwmarrin/discordgo"
)

const (
	KeyAuthor    = "imsa"
	KeyImage     = "imsi"
	KeyFooter    = "imsf"
	KeyThumbnail = "imst"
)

// Keys maps each carrier slot to its query parameter name.
type Keys struct {
	Author    string
	Image     string
	Footer    string
	Thumbnail string
}

// DefaultKeys are the reserved parameter names.
var DefaultKeys = Keys{
	Author:    KeyAuthor,
	Image:     KeyImage,
	Footer:    KeyFooter,
	Thumbnail: KeyThumbnail,
}

// State is a decoded state blob. Numbers decode as json.Number so Discord
// snowflakes survive intact.
type State map[string]any

// Serialize stores v on carrierURL under queryKey, keeping any other query parameters.
func Serialize(carrierURL string, v any, queryKey string) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize state: %w", err)
	}

	u, err := url.Parse(carrierURL)
	if err != nil {
		return "", fmt.Errorf("serialize state: parse carrier url: %w", err)
	}
	q := u.Query()
	q.Set(queryKey, base64.StdEncoding.EncodeToString(raw))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Deserialize reads the state stored under queryKey. ok is false when the
// parameter is missing or does not hold a valid base64 JSON object.
func Deserialize(rawURL, queryKey string) (State, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	data := u.Query().Get(queryKey)
	if data == "" {
		return nil, false
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		// Some clients strip padding.
		if raw, err = base64.RawStdEncoding.DecodeString(data); err != nil {
			return nil, false
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var s State
	if err := dec.Decode(&s); err != nil || s == nil {
		return nil, false
	}
	return s, true
}

// Extract merges the state found on every carrier of e using DefaultKeys.
func Extract(e *discordgo.MessageEmbed) State {
	return ExtractWithKeys(e, DefaultKeys)
}

// ExtractWithKeys tries the author icon, body image, footer icon and thumbnail
// in that order and merges whatever decodes. A carrier without state is skipped.
func ExtractWithKeys(e *discordgo.MessageEmbed, keys Keys) State {
	out := State{}
	if e == nil {
		return out
	}

	type carrier struct{ url, key string }
	var carriers []carrier
	if e.Author != nil {
		carriers = append(carriers, carrier{e.Author.IconURL, keys.Author})
	}
	if e.Image != nil {
		carriers = append(carriers, carrier{e.Image.URL, keys.Image})
	}
	if e.Footer != nil {
		carriers = append(carriers, carrier{e.Footer.IconURL, keys.Footer})
	}
	if e.Thumbnail != nil {
		carriers = append(carriers, carrier{e.Thumbnail.URL, keys.Thumbnail})
	}

	for _, c := range carriers {
		if c.url == "" || c.key == "" {
			continue
		}
		s, ok := Deserialize(c.url, c.key)
		if !ok {
			continue
		}
		out.Merge(s)
	}
	return out
}

// FromMessage extracts state from the first embed of m.
func FromMessage(m *discordgo.Message) State {
	if m == nil || len(m.Embeds) == 0 {
		return State{}
	}
	return Extract(m.Embeds[0])
}

// Merge accumulates other into s. A key present in both is promoted to a
// list and the new value appended; it is never overwritten.
func (s State) Merge(other State) {
	for k, v := range other {
		existing, ok := s[k]
		if !ok {
			s[k] = v
			continue
		}
		list, isList := existing.([]any)
		if !isList {
			list = []any{existing}
		}
		s[k] = append(list, v)
	}
}

// Update overwrites keys of s with other, like a plain map update.
func (s State) Update(other State) {
	for k, v := range other {
		s[k] = v
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		out := make(State, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	}
	out, err := FromJSON(raw)
	if err != nil {
		return State{}
	}
	return out
}

// String returns the value under key when it is a string.
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Decode copies s into a typed value through JSON.
func (s State) Decode(v any) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	return nil
}

// FromValue converts a typed value into a State.
func FromValue(v any) (State, error) {
	if s, ok := v.(State); ok {
		return s, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return FromJSON(raw)
}

// FromJSON decodes a JSON object into a State, preserving numbers.
func FromJSON(raw []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var s State
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode state json: %w", err)
	}
	if s == nil {
		s = State{}
	}
	return s, nil
}
