// Package session reduces provider market-state tags to the four sessions the
// menu knows how to draw, and holds the per-session display attributes.
package session

import (
	"github.com/fatih/color"

	"stockbar/internal/models"
)

// Session is the effective market session.
type Session int

const (
	Closed Session = iota
	Pre
	Regular
	Post
)

// String returns the provider tag for s.
func (s Session) String() string {
	switch s {
	case Pre:
		return "PRE"
	case Regular:
		return "REGULAR"
	case Post:
		return "POST"
	default:
		return "CLOSED"
	}
}

// Resolve maps a provider tag to a Session. Only the exact tags PRE, REGULAR
// and POST survive; PREPRE, POSTPOST and anything else are Closed, since
// providers carry no price fields for those windows.
func Resolve(tag string) Session {
	switch tag {
	case "PRE":
		return Pre
	case "REGULAR":
		return Regular
	case "POST":
		return Post
	default:
		return Closed
	}
}

// Icons are the configurable glyphs used in the main line.
type Icons struct {
	Pre     string
	Regular string
	Post    string
	Closed  string
	Up      string
	Down    string
}

// DefaultIcons returns the stock glyph set.
func DefaultIcons() Icons {
	return Icons{
		Pre:     "🌅",
		Regular: "",
		Post:    "🌛",
		Closed:  "💤",
		Up:      "▲",
		Down:    "▼",
	}
}

// Arrow is a direction glyph and the color it is drawn in.
type Arrow struct {
	Glyph string
	Color *color.Color
}

// Render draws the arrow followed by text. A colored arrow ends with a reset.
func (a Arrow) Render(text string) string {
	if a.Color == nil {
		return a.Glyph + text
	}
	return a.Color.Sprint(a.Glyph + text)
}

// Attributes is the fixed display record for one session.
type Attributes struct {
	DisplayName string
	Icon        string
	UpArrow     Arrow
	FlatArrow   Arrow
	DownArrow   Arrow
	// ChangeField names the quote change-percent shown for the session.
	ChangeField string
	// OffHoursField names the price that must be present for PRE/POST to be
	// drawn as such. Empty for sessions that need no off-hours price.
	OffHoursField string
}

// ArrowFor picks the arrow for a change value.
func (a Attributes) ArrowFor(change float64) Arrow {
	switch {
	case change > 0:
		return a.UpArrow
	case change < 0:
		return a.DownArrow
	default:
		return a.FlatArrow
	}
}

// ANSI colors are always emitted: the host app parses them even though
// stdout is not a terminal.
var (
	green = forced(color.FgGreen, color.Bold)
	red   = forced(color.FgRed, color.Bold)
	gray  = forced(color.FgBlack, color.Bold)
)

func forced(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

// For returns the attribute record for s.
func For(s Session, icons Icons) Attributes {
	switch s {
	case Pre:
		return Attributes{
			DisplayName:   "PRE",
			Icon:          icons.Pre,
			UpArrow:       Arrow{Glyph: icons.Up, Color: green},
			FlatArrow:     Arrow{Glyph: " "},
			DownArrow:     Arrow{Glyph: icons.Down, Color: red},
			ChangeField:   "preMarketChangePercent",
			OffHoursField: "preMarketPrice",
		}
	case Regular:
		return Attributes{
			DisplayName: "OPEN",
			Icon:        icons.Regular,
			UpArrow:     Arrow{Glyph: icons.Up, Color: green},
			FlatArrow:   Arrow{Glyph: " "},
			DownArrow:   Arrow{Glyph: icons.Down, Color: red},
			ChangeField: "regularMarketChangePercent",
		}
	case Post:
		return Attributes{
			DisplayName:   "POST",
			Icon:          icons.Post,
			UpArrow:       Arrow{Glyph: icons.Up, Color: green},
			FlatArrow:     Arrow{Glyph: " "},
			DownArrow:     Arrow{Glyph: icons.Down, Color: red},
			ChangeField:   "postMarketChangePercent",
			OffHoursField: "postMarketPrice",
		}
	default:
		return Attributes{
			DisplayName: "CLOSED",
			Icon:        icons.Closed,
			UpArrow:     Arrow{Glyph: icons.Up, Color: gray},
			FlatArrow:   Arrow{Glyph: " ", Color: gray},
			DownArrow:   Arrow{Glyph: icons.Down, Color: gray},
			ChangeField: "regularMarketChangePercent",
		}
	}
}

// Effective is the session q is drawn in. PRE and POST fall back to Closed
// when the quote has no off-hours price for them.
func Effective(q models.Quote) Session {
	s := Resolve(q.MarketState)
	field := For(s, Icons{}).OffHoursField
	if field == "" {
		return s
	}
	if p, ok := q.PriceField(field); !ok || p.Raw <= 0 {
		return Closed
	}
	return s
}

// Display returns the effective session of q and its attributes.
func Display(q models.Quote, icons Icons) (Session, Attributes) {
	s := Effective(q)
	return s, For(s, icons)
}

// ChangePercent returns the change-percent of q that applies in s.
func ChangePercent(q models.Quote, s Session) models.Price {
	p, _ := q.PriceField(For(s, Icons{}).ChangeField)
	return p
}
