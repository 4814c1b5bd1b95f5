package provider

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"

	apperrors "stockbar/internal/errors"
	"stockbar/internal/logging"
	"stockbar/internal/models"
	"stockbar/pkg/utils"
)

// AlpacaConfig holds Alpaca market-data settings.
type AlpacaConfig struct {
	KeyID     string
	SecretKey string
	BaseURL   string
	Feed      string
}

// AlpacaProvider implements Provider with the Alpaca market-data API. Alpaca
// has no company names or 52-week figures; those read as the symbol and 0.
type AlpacaProvider struct {
	client *marketdata.Client
	feed   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewAlpacaProvider creates a new Alpaca provider.
func NewAlpacaProvider(cfg AlpacaConfig, logger zerolog.Logger) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.KeyID,
		APISecret: cfg.SecretKey,
	}
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}

	feed := cfg.Feed
	if feed == "" {
		feed = "iex"
	}

	return &AlpacaProvider{
		client: marketdata.NewClient(opts),
		feed:   feed,
		logger: logger.With().Str("provider", "alpaca").Logger(),
		now:    time.Now,
	}
}

// Name returns the provider name.
func (p *AlpacaProvider) Name() string {
	return "alpaca"
}

// Info implements Provider. The snapshot is reshaped into Yahoo field names;
// the latest trade doubles as the pre/post price in those windows.
func (p *AlpacaProvider) Info(ctx context.Context, symbol string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	snap, err := p.client.GetSnapshot(symbol, marketdata.GetSnapshotRequest{Feed: p.feed})
	logging.LogAPICall(p.logger, "GET", "/v2/stocks/snapshot", time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewProviderError("alpaca", "snapshot", 0, err)
	}
	if snap == nil {
		return nil, apperrors.ErrSymbolNotFound
	}

	state := utils.USMarketSession(p.now())
	info := Info{
		"symbol":      symbol,
		"shortName":   symbol,
		"currency":    "USD",
		"marketState": state,
	}

	if snap.DailyBar != nil {
		info["regularMarketOpen"] = snap.DailyBar.Open
		info["dayHigh"] = snap.DailyBar.High
		info["dayLow"] = snap.DailyBar.Low
		info["regularMarketPrice"] = snap.DailyBar.Close
		info["regularMarketVolume"] = float64(snap.DailyBar.Volume)
	}
	if snap.PrevDailyBar != nil {
		info["regularMarketPreviousClose"] = snap.PrevDailyBar.Close
	}
	if snap.LatestQuote != nil {
		info["bid"] = snap.LatestQuote.BidPrice
		info["ask"] = snap.LatestQuote.AskPrice
	}
	if snap.LatestTrade != nil {
		info["regularMarketTime"] = float64(snap.LatestTrade.Timestamp.Unix())
		switch state {
		case utils.SessionPre:
			info["preMarketPrice"] = snap.LatestTrade.Price
		case utils.SessionPost:
			info["postMarketPrice"] = snap.LatestTrade.Price
		case utils.SessionRegular:
			info["currentPrice"] = snap.LatestTrade.Price
		}
	}

	return info, nil
}

// Bars implements Provider.
func (p *AlpacaProvider) Bars(ctx context.Context, symbol string, interval Interval, lookback time.Duration) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tf := marketdata.OneMin
	if interval == IntervalDay {
		tf = marketdata.OneDay
	}

	end := p.now()
	start := time.Now()
	abars, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     end.Add(-lookback),
		End:       end,
		Feed:      p.feed,
	})
	logging.LogAPICall(p.logger, "GET", "/v2/stocks/bars", time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewProviderError("alpaca", "bars", 0, err)
	}

	bars := make([]models.Bar, 0, len(abars))
	for _, ab := range abars {
		bars = append(bars, models.Bar{
			Timestamp: ab.Timestamp,
			Open:      ab.Open,
			High:      ab.High,
			Low:       ab.Low,
			Close:     ab.Close,
			Volume:    int64(ab.Volume),
		})
	}
	return bars, nil
}
