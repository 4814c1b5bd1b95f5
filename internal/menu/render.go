package menu

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"stockbar/internal/config"
	"stockbar/internal/models"
	"stockbar/internal/session"
	"stockbar/pkg/treefmt"
	"stockbar/pkg/utils"
)

// dots pad submenu labels; the label column truncates them to width.
const dots = "........................."

// fallbackTitle keeps the menu bar clickable when every title glyph is off.
const fallbackTitle = "Stocks"

// IndexQuote is one entry of the menu-bar ticker.
type IndexQuote struct {
	Label string
	Quote models.Quote
}

// Menu is everything one render prints.
type Menu struct {
	Groups []Group
	// Indices replace the menu-bar icon when the ticker is enabled.
	Indices []IndexQuote
	// Alarms are the raw alarm file records.
	Alarms []string
	Recent []models.FiredAlarm
}

// Renderer writes the xbar text protocol.
type Renderer struct {
	cfg        *config.Config
	icons      session.Icons
	executable string
	loc        *time.Location
	tree       treefmt.Options
}

// NewRenderer creates a renderer. executable is the command menu actions
// re-run; quote times print in the local timezone.
func NewRenderer(cfg *config.Config, executable string) *Renderer {
	tree := treefmt.DefaultOptions()
	tree.WrapWidth = cfg.DebugWrapWidth
	tree.ValueOnNextLine = true

	return &Renderer{
		cfg:        cfg,
		icons:      cfg.SessionIcons(),
		executable: executable,
		loc:        time.Local,
		tree:       tree,
	}
}

// lineWriter keeps the first write error and drops later writes.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) println(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = io.WriteString(lw.w, s+"\n")
}

func (lw *lineWriter) printf(format string, args ...interface{}) {
	lw.println(fmt.Sprintf(format, args...))
}

func (r *Renderer) font() string {
	return fmt.Sprintf("| font=%s size=%d", r.cfg.Font.MainFamily, r.cfg.Font.MainSize)
}

func (r *Renderer) noteFont() string {
	return fmt.Sprintf("| font=%s size=%d", r.cfg.Font.NoteFamily, r.cfg.Font.NoteSize)
}

// params is the click action suffix that re-runs the executable.
func (r *Renderer) params() string {
	return r.font() + " refresh=true terminal='false' bash='" + r.executable + "'"
}

// Render writes the whole plugin output for m.
func (r *Renderer) Render(w io.Writer, m Menu) error {
	lw := &lineWriter{w: w}

	r.renderTitle(lw, m)
	lw.println("---")

	for _, g := range m.Groups {
		lw.println(g.Category.Name + r.font())
		for _, q := range Sort(g.Quotes, SortMode(r.cfg.SortBy)) {
			r.renderQuote(lw, q, g.Note(q.Symbol))
		}
	}

	r.renderLimits(lw, m.Alarms)
	r.renderRecent(lw, m.Recent)

	return lw.err
}

// Title returns the plain menu-bar title for groups.
func (r *Renderer) Title(groups []Group) string {
	var title string
	if r.cfg.ShowMenuIcon {
		title = r.cfg.MenuIcon
	}
	if r.cfg.ShowSessionIcon {
		// the first symbol of the first category decides; it should trade in
		// all three sessions or the PRE/POST icon never shows
		if len(groups) > 0 && len(groups[0].Quotes) > 0 {
			_, attrs := session.Display(groups[0].Quotes[0], r.icons)
			title += attrs.Icon
		}
	}
	if strings.TrimSpace(title) == "" {
		return fallbackTitle
	}
	return title
}

func (r *Renderer) renderTitle(lw *lineWriter, m Menu) {
	if r.cfg.ShowIndices && len(m.Indices) > 0 {
		for _, idx := range m.Indices {
			label := idx.Label
			if label == "" {
				label = idx.Quote.Symbol
			}
			lw.println(label + " " + r.coloredChange(idx.Quote) + " | dropdown=false")
		}
		return
	}
	lw.println(r.Title(m.Groups))
}

// coloredChange is the session icon followed by the arrow and change percent.
func (r *Renderer) coloredChange(q models.Quote) string {
	s, attrs := session.Display(q, r.icons)
	pct := session.ChangePercent(q, s)
	return attrs.Icon + " " + attrs.ArrowFor(pct.Raw).Render("("+pct.Fmt+")")
}

func (r *Renderer) notesIcon(note string) string {
	if marker := r.cfg.NoteAlertMarker; marker != "" && strings.HasPrefix(note, marker) {
		return r.cfg.Icons.AlertNotes
	}
	return r.cfg.Icons.Notes
}

func (r *Renderer) submenu(lw *lineWriter, label, value string) {
	lw.printf("%-20.20s %-17s%s", label+dots, value, r.font())
}

func (r *Renderer) renderQuote(lw *lineWriter, q models.Quote, note string) {
	font := r.font()
	s, attrs := session.Display(q, r.icons)

	main := fmt.Sprintf("%-5s %10s %-10s", utils.StripExchangeSuffix(q.Symbol), q.CurrentPrice.Fmt, r.coloredChange(q))
	if note != "" {
		main += " " + r.notesIcon(note)
	}
	lw.println(main + font)

	quoteTime := utils.NotAvailable
	if !q.RegularMarketTime.IsZero() {
		quoteTime = q.RegularMarketTime.In(r.loc).Format("15:04:05")
	}

	lw.println("--" + q.ShortName + font)
	lw.println("--" + q.LongName + " - Currency in " + q.Currency + font)
	lw.println("--" + quoteTime + " - Market is " + attrs.DisplayName + font)
	lw.println("-----")
	r.submenu(lw, "--Previous Close:", q.RegularMarketPreviousClose.Fmt)
	r.submenu(lw, "--Open:", q.RegularMarketOpen.Fmt)
	if s != session.Regular {
		r.submenu(lw, "--Regular Close:", q.RegularMarketPrice.Fmt+" ("+q.RegularMarketChangePercent.Fmt+")")
	}
	r.submenu(lw, "--Bid:", q.Bid.Fmt)
	r.submenu(lw, "--Ask:", q.Ask.Fmt)
	r.submenu(lw, "--Day's Range:", utils.FormatPrice(q.DayHigh.Raw-q.DayLow.Raw))
	r.submenu(lw, "--52 Week Range:", utils.FormatPrice(q.FiftyTwoWeekHigh.Raw-q.FiftyTwoWeekLow.Raw))
	lw.println("-----")

	if note != "" {
		text := r.notesIcon(note) + " Notes: " + note
		width := r.cfg.NoteWidth
		if width > 2 {
			width -= 2
		}
		for _, line := range utils.Wrap(text, width) {
			lw.println("--" + line + r.noteFont())
		}
		lw.println("-----")
	}

	if r.cfg.ShowDebug {
		r.renderDebug(lw, q)
	}
}

func (r *Renderer) renderDebug(lw *lineWriter, q models.Quote) {
	lw.println("--DEBUG")
	lw.printf("%-20.20s %-17s%s", "----postMarketPrice", strconv.FormatFloat(q.PostMarketPrice.Raw, 'f', -1, 64), r.font())
	lw.println("----raw provider info")
	for _, line := range treefmt.Format(q.Raw, r.tree) {
		lw.println(line)
	}
	lw.println("----script variables")
	for _, line := range treefmt.Format(q.Fields(), r.tree) {
		lw.println(line)
	}
}

func (r *Renderer) renderLimits(lw *lineWriter, records []string) {
	params := r.params()

	lw.println("---")
	lw.println("Price Limits" + r.font())
	for _, record := range records {
		a, err := models.ParseAlarm(record)
		if err != nil {
			continue
		}
		lw.printf("%-6s %-4s %-10s", "--"+string(a.Kind), a.Symbol,
			a.Price+params+" param1='remove' param2='"+record+"'")
	}
	lw.println("-----")
	lw.println("--To remove a limit, click on it." + r.font())
	lw.println("Set new Price Limit..." + params + " param1='set'")
	lw.println("Clear all Price Limits..." + params + " param1='clear'")
}

func (r *Renderer) renderRecent(lw *lineWriter, recent []models.FiredAlarm) {
	if len(recent) == 0 {
		return
	}
	lw.println("---")
	lw.println("Recent Alarms" + r.font())
	for _, f := range recent {
		lw.printf("--%s %s %s @%s (limit %s)%s",
			f.FiredAt.In(r.loc).Format("Jan 02 15:04"), f.Kind, f.Symbol,
			utils.FormatPrice(f.Price), f.Threshold, r.font())
	}
}
