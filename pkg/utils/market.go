package utils

import (
	"time"
)

// NewYorkLocation is the timezone for US equity sessions.
var NewYorkLocation *time.Location

func init() {
	var err error
	NewYorkLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to EST; DST is lost but sessions stay roughly right
		NewYorkLocation = time.FixedZone("EST", -5*60*60)
	}
}

// Session tags as reported by Yahoo Finance.
const (
	SessionPre     = "PRE"
	SessionRegular = "REGULAR"
	SessionPost    = "POST"
	SessionClosed  = "CLOSED"
)

// Minutes after midnight, exchange time.
const (
	preOpenMinutes  = 4 * 60    // 04:00
	openMinutes     = 9*60 + 30 // 09:30
	closeMinutes    = 16 * 60   // 16:00
	postCloseMinute = 20 * 60   // 20:00
)

// USMarketSession returns the session tag for t on a US exchange.
// Holidays are not known here and report as regular days.
func USMarketSession(t time.Time) string {
	now := t.In(NewYorkLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return SessionClosed
	}

	m := now.Hour()*60 + now.Minute()
	switch {
	case m >= preOpenMinutes && m < openMinutes:
		return SessionPre
	case m >= openMinutes && m < closeMinutes:
		return SessionRegular
	case m >= closeMinutes && m < postCloseMinute:
		return SessionPost
	default:
		return SessionClosed
	}
}

// InRegularHours reports whether t falls within 09:30-16:00 (both inclusive)
// in loc.
func InRegularHours(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = NewYorkLocation
	}
	local := t.In(loc)
	m := local.Hour()*60 + local.Minute()
	if m < openMinutes || m > closeMinutes {
		return false
	}
	if m == closeMinutes && (local.Second() > 0 || local.Nanosecond() > 0) {
		return false
	}
	return true
}

// SameDay reports whether a and b share a calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = NewYorkLocation
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// LoadLocation loads name, falling back to New York on error or empty name.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return NewYorkLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return NewYorkLocation
	}
	return loc
}
