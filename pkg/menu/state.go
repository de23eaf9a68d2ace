package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/small-frappuccino/discordmenu/pkg/embed"
	"github.com/small-frappuccino/discordmenu/pkg/ims"
)

// Footer defaults for the state carrier.
const (
	DefaultFooterIconURL = "https://discord.com/assets/f9bb9c4af2b9c32a2c5ee0014661546d.png"
	DefaultFooterText    = "Click the reactions below to interact"
)

// Snowflake is a Discord ID. It is written as a JSON number, matching what
// older menus stored, and read from either a number or a string.
type Snowflake string

func (s Snowflake) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	if isDigits(string(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Snowflake(str)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("snowflake: %w", err)
		}
		*s = Snowflake(n.String())
	}
	return nil
}

func (s Snowflake) String() string { return string(s) }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ViewState is the minimum every menu carries in its message. Concrete menus
// embed it and add their own fields.
type ViewState struct {
	OriginalAuthorID Snowflake `json:"original_author_id"`
	MenuType         string    `json:"menu_type"`
	RawQuery         string    `json:"raw_query"`
	// ChildMessageID links this message to a dependent one driven by cascade.
	ChildMessageID Snowflake `json:"child_message_id,omitempty"`
}

// ViewStateOf reads the common fields out of a decoded state. Fields written
// by more than one carrier are merged into lists and read as empty here.
func ViewStateOf(s ims.State) ViewState {
	var vs ViewState
	vs.MenuType = s.String("menu_type")
	vs.RawQuery = s.String("raw_query")
	vs.OriginalAuthorID = snowflakeValue(s["original_author_id"])
	vs.ChildMessageID = snowflakeValue(s["child_message_id"])
	return vs
}

func snowflakeValue(v any) Snowflake {
	switch t := v.(type) {
	case json.Number:
		return Snowflake(t.String())
	case string:
		return Snowflake(t)
	case float64:
		return Snowflake(fmt.Sprintf("%.0f", t))
	case int:
		return Snowflake(fmt.Sprint(t))
	case int64:
		return Snowflake(fmt.Sprint(t))
	default:
		return ""
	}
}

// Data is per-dispatch contextual data handed to transition functions.
type Data map[string]any

// FooterWithState builds a footer whose icon carries state. Empty iconURL
// and text fall back to the defaults.
func FooterWithState(state any, iconURL, text string) (*embed.Footer, error) {
	if strings.TrimSpace(iconURL) == "" {
		iconURL = DefaultFooterIconURL
	}
	if text == "" {
		text = DefaultFooterText
	}
	u, err := ims.Serialize(iconURL, state, ims.KeyFooter)
	if err != nil {
		return nil, err
	}
	return &embed.Footer{Text: embed.Text(text), IconURL: u}, nil
}
