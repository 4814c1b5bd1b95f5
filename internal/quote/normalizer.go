// Package quote turns provider payloads into normalized quotes.
package quote

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	apperrors "stockbar/internal/errors"
	"stockbar/internal/logging"
	"stockbar/internal/models"
	"stockbar/internal/provider"
	"stockbar/pkg/utils"
)

const (
	// two calendar days cover the latest session even right after midnight
	intradayLookback = 48 * time.Hour
	dailyLookback    = 10 * 24 * time.Hour
)

// Normalizer fetches and normalizes quotes.
type Normalizer struct {
	provider provider.Provider
	loc      *time.Location
	delay    time.Duration
	logger   zerolog.Logger
	sleep    func(context.Context, time.Duration) error
}

// NewNormalizer creates a normalizer. delay is slept before every fetch in
// FetchAll; loc is the exchange timezone used to cut the regular session.
func NewNormalizer(p provider.Provider, loc *time.Location, delay time.Duration, logger zerolog.Logger) *Normalizer {
	if loc == nil {
		loc = utils.NewYorkLocation
	}
	return &Normalizer{
		provider: p,
		loc:      loc,
		delay:    delay,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch returns the normalized quote for symbol. Any provider failure is
// returned as a *errors.DataError.
func (n *Normalizer) Fetch(ctx context.Context, symbol string) (models.Quote, error) {
	logger := logging.WithSymbol(n.logger, symbol)

	info, err := n.provider.Info(ctx, symbol)
	if err != nil {
		return models.Quote{}, apperrors.NewDataError("quote", symbol, "fetching quote", err)
	}

	intraday, err := n.provider.Bars(ctx, symbol, provider.IntervalMinute, intradayLookback)
	if err != nil {
		return models.Quote{}, apperrors.NewDataError("quote", symbol, "fetching intraday bars", err)
	}

	var daily []models.Bar
	if !hasRegularBar(intraday, n.loc) {
		daily, err = n.provider.Bars(ctx, symbol, provider.IntervalDay, dailyLookback)
		if err != nil {
			return models.Quote{}, apperrors.NewDataError("quote", symbol, "fetching daily bars", err)
		}
	}

	q := Normalize(symbol, info, RegularClose(intraday, daily, n.loc))
	logger.Debug().
		Str("market_state", q.MarketState).
		Float64("current", q.CurrentPrice.Raw).
		Float64("regular_close", q.RegularMarketPrice.Raw).
		Msg("Quote normalized")
	return q, nil
}

// FetchAll fetches symbols in order, sleeping the configured delay before
// each one. The first failure aborts the whole run.
func (n *Normalizer) FetchAll(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	quotes := make(map[string]models.Quote, len(symbols))
	for _, symbol := range symbols {
		if _, ok := quotes[symbol]; ok {
			continue
		}
		if err := n.sleep(ctx, n.delay); err != nil {
			return nil, err
		}
		q, err := n.Fetch(ctx, symbol)
		if err != nil {
			return nil, err
		}
		quotes[symbol] = q
	}
	return quotes, nil
}

// Normalize builds a Quote from a provider payload and the derived regular
// session close.
func Normalize(symbol string, info provider.Info, regularClose float64) models.Quote {
	prevClose := info.FirstFloat("regularMarketPreviousClose", "previousClose")
	pre := info.Float("preMarketPrice")
	post := info.Float("postMarketPrice")
	state := info.StringOr("marketState", "CLOSED")

	current := regularClose
	switch {
	case state == "PRE" && pre > 0:
		current = pre
	case state == "POST" && post > 0:
		current = post
	}

	var regularPct, prePct, postPct, postSinceClose float64
	if prevClose > 0 {
		regularPct = utils.ChangePercent(regularClose, prevClose)
		if pre > 0 {
			prePct = utils.ChangePercent(pre, prevClose)
		}
		if post > 0 {
			postPct = utils.ChangePercent(post, prevClose)
			postSinceClose = utils.ChangePercent(post, regularClose)
		}
	}

	shortName := info.StringOr("shortName", symbol)
	q := models.Quote{
		Symbol:      symbol,
		ShortName:   shortName,
		LongName:    info.StringOr("longName", shortName),
		Currency:    info.StringOr("currency", "USD"),
		MarketState: state,

		CurrentPrice:               models.NewPrice(current),
		RegularMarketPrice:         models.NewPrice(regularClose),
		RegularMarketPreviousClose: models.NewPrice(prevClose),
		RegularMarketOpen:          models.NewPrice(info.Float("regularMarketOpen")),
		RegularMarketChange:        models.NewPrice(regularClose - prevClose),
		RegularMarketChangePercent: models.NewPercent(regularPct),

		PreMarketPrice:             models.NewPrice(pre),
		PreMarketChangePercent:     models.NewPercent(prePct),
		PostMarketPrice:            models.NewPrice(post),
		PostMarketChangePercent:    models.NewPercent(postPct),
		PostMarketChangeSinceClose: models.NewPercent(postSinceClose),

		DayHigh:          models.NewPrice(info.FirstFloat("dayHigh", "regularMarketDayHigh")),
		DayLow:           models.NewPrice(info.FirstFloat("dayLow", "regularMarketDayLow")),
		FiftyTwoWeekHigh: models.NewPrice(info.Float("fiftyTwoWeekHigh")),
		FiftyTwoWeekLow:  models.NewPrice(info.Float("fiftyTwoWeekLow")),
		Bid:              models.NewQuotePrice(info.Float("bid")),
		Ask:              models.NewQuotePrice(info.Float("ask")),

		Raw: info,
	}
	if ts := info.Int("regularMarketTime"); ts > 0 {
		q.RegularMarketTime = time.Unix(ts, 0)
	}
	return q
}

// RegularClose returns the last regular-session close of the most recent
// trading day in intraday, falling back to the last daily close, then 0.
func RegularClose(intraday, daily []models.Bar, loc *time.Location) float64 {
	if c, ok := lastRegularClose(intraday, loc); ok {
		return c
	}
	if len(daily) == 0 {
		return 0
	}
	sorted := sortedBars(daily)
	return sorted[len(sorted)-1].Close
}

func hasRegularBar(intraday []models.Bar, loc *time.Location) bool {
	_, ok := lastRegularClose(intraday, loc)
	return ok
}

func lastRegularClose(intraday []models.Bar, loc *time.Location) (float64, bool) {
	if len(intraday) == 0 {
		return 0, false
	}
	if loc == nil {
		loc = utils.NewYorkLocation
	}

	sorted := sortedBars(intraday)
	lastDay := sorted[len(sorted)-1].Timestamp

	for i := len(sorted) - 1; i >= 0; i-- {
		b := sorted[i]
		if !utils.SameDay(b.Timestamp, lastDay, loc) {
			break
		}
		if utils.InRegularHours(b.Timestamp, loc) {
			return b.Close, true
		}
	}
	return 0, false
}

func sortedBars(bars []models.Bar) []models.Bar {
	sorted := make([]models.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
