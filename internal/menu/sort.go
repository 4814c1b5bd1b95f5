// Package menu renders the watchlist as xbar/SwiftBar plugin output.
package menu

import (
	"math"
	"sort"

	"stockbar/internal/models"
)

// SortMode orders quotes inside a category.
type SortMode string

const (
	SortName       SortMode = "name"
	SortSymbol     SortMode = "symbol"
	SortWinners    SortMode = "market_change_winners"
	SortLosers     SortMode = "market_change_losers"
	SortVolatility SortMode = "market_change_volatility"
	// SortConfig and any unknown mode keep config order.
	SortConfig SortMode = ""
)

// Sort returns a sorted copy of quotes. Sorting is stable, so equal keys keep
// config order. Change-based modes use the regular-session change percent.
func Sort(quotes []models.Quote, mode SortMode) []models.Quote {
	sorted := make([]models.Quote, len(quotes))
	copy(sorted, quotes)

	change := func(i int) float64 { return sorted[i].RegularMarketChangePercent.Raw }

	var less func(i, j int) bool
	switch mode {
	case SortName:
		less = func(i, j int) bool { return sorted[i].ShortName < sorted[j].ShortName }
	case SortSymbol:
		less = func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol }
	case SortWinners:
		less = func(i, j int) bool { return change(i) > change(j) }
	case SortLosers:
		less = func(i, j int) bool { return change(i) < change(j) }
	case SortVolatility:
		less = func(i, j int) bool { return math.Abs(change(i)) > math.Abs(change(j)) }
	default:
		return sorted
	}

	sort.SliceStable(sorted, less)
	return sorted
}

// Group is one category with its fetched quotes in config order.
type Group struct {
	Category models.Category
	Quotes   []models.Quote
}

// Note returns the configured note for symbol in the group.
func (g Group) Note(symbol string) string {
	for _, s := range g.Category.Symbols {
		if s.Symbol == symbol {
			return s.Note
		}
	}
	return ""
}

// Groups pairs each category with its quotes. Symbols without a quote are
// left out.
func Groups(categories []models.Category, quotes map[string]models.Quote) []Group {
	groups := make([]Group, 0, len(categories))
	for _, cat := range categories {
		g := Group{Category: cat}
		for _, s := range cat.Symbols {
			if q, ok := quotes[s.Symbol]; ok {
				g.Quotes = append(g.Quotes, q)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
