// Package models provides domain models for the watchlist.
package models

import (
	"time"

	"stockbar/pkg/utils"
)

// Price pairs a numeric value with its display string.
type Price struct {
	Raw float64
	Fmt string
}

// NewPrice formats v with two decimals.
func NewPrice(v float64) Price {
	return Price{Raw: v, Fmt: utils.FormatPrice(v)}
}

// NewPercent formats v with two decimals and a % suffix.
func NewPercent(v float64) Price {
	return Price{Raw: v, Fmt: utils.FormatPercent(v)}
}

// NewQuotePrice is NewPrice for bid/ask, which read N/A when zero.
func NewQuotePrice(v float64) Price {
	return Price{Raw: v, Fmt: utils.FormatQuotePrice(v)}
}

// Quote is one symbol's normalized snapshot for a single run.
type Quote struct {
	Symbol    string
	ShortName string
	LongName  string
	Currency  string

	// MarketState is the provider's session tag as reported.
	MarketState       string
	RegularMarketTime time.Time

	CurrentPrice               Price
	RegularMarketPrice         Price
	RegularMarketPreviousClose Price
	RegularMarketOpen          Price
	RegularMarketChange        Price
	RegularMarketChangePercent Price

	PreMarketPrice         Price
	PreMarketChangePercent Price

	PostMarketPrice         Price
	PostMarketChangePercent Price
	// PostMarketChangeSinceClose is measured against the regular close
	// instead of the previous close.
	PostMarketChangeSinceClose Price

	DayHigh          Price
	DayLow           Price
	FiftyTwoWeekHigh Price
	FiftyTwoWeekLow  Price
	Bid              Price
	Ask              Price

	Raw map[string]any
}

// PriceField returns the session-dependent price named by its provider key,
// and false for names it does not carry.
func (q Quote) PriceField(name string) (Price, bool) {
	switch name {
	case "regularMarketPrice":
		return q.RegularMarketPrice, true
	case "regularMarketChangePercent":
		return q.RegularMarketChangePercent, true
	case "preMarketPrice":
		return q.PreMarketPrice, true
	case "preMarketChangePercent":
		return q.PreMarketChangePercent, true
	case "postMarketPrice":
		return q.PostMarketPrice, true
	case "postMarketChangePercent":
		return q.PostMarketChangePercent, true
	default:
		return Price{}, false
	}
}

// Fields returns the normalized record as nested maps for debug output.
func (q Quote) Fields() map[string]any {
	p := func(v Price) map[string]any {
		return map[string]any{"raw": v.Raw, "fmt": v.Fmt}
	}

	var marketTime any
	if !q.RegularMarketTime.IsZero() {
		marketTime = q.RegularMarketTime.Unix()
	}

	return map[string]any{
		"price": map[string]any{
			"symbol":                     q.Symbol,
			"shortName":                  q.ShortName,
			"longName":                   q.LongName,
			"currency":                   q.Currency,
			"marketState":                q.MarketState,
			"regularMarketTime":          marketTime,
			"currentPrice":               p(q.CurrentPrice),
			"regularMarketPrice":         p(q.RegularMarketPrice),
			"regularMarketChange":        p(q.RegularMarketChange),
			"regularMarketChangePercent": p(q.RegularMarketChangePercent),
			"preMarketPrice":             p(q.PreMarketPrice),
			"preMarketChangePercent":     p(q.PreMarketChangePercent),
			"postMarketPrice":            p(q.PostMarketPrice),
			"postMarketChangePercent":    p(q.PostMarketChangePercent),
			"postMarketChangeSinceClose": p(q.PostMarketChangeSinceClose),
		},
		"summaryDetail": map[string]any{
			"regularMarketPreviousClose": p(q.RegularMarketPreviousClose),
			"regularMarketOpen":          p(q.RegularMarketOpen),
			"dayHigh":                    p(q.DayHigh),
			"dayLow":                     p(q.DayLow),
			"fiftyTwoWeekHigh":           p(q.FiftyTwoWeekHigh),
			"fiftyTwoWeekLow":            p(q.FiftyTwoWeekLow),
			"bid":                        p(q.Bid),
			"ask":                        p(q.Ask),
		},
	}
}

// Bar represents OHLCV data for a time period.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// WatchSymbol is a configured symbol and its free-text note.
type WatchSymbol struct {
	Symbol string `mapstructure:"symbol" yaml:"symbol" validate:"required"`
	Note   string `mapstructure:"note" yaml:"note,omitempty"`
}

// Category is a named group of symbols in config order.
type Category struct {
	Name    string        `mapstructure:"name" yaml:"name" validate:"required"`
	Symbols []WatchSymbol `mapstructure:"symbols" yaml:"symbols" validate:"dive"`
}
