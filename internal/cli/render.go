package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"stockbar/internal/alarm"
	apperrors "stockbar/internal/errors"
	"stockbar/internal/menu"
	"stockbar/internal/models"
	"stockbar/internal/notify"
	"stockbar/internal/quote"
	"stockbar/pkg/utils"
)

// render fetches every symbol, fires the alarms that hold and prints the
// menu. Nothing is written to w unless the whole run succeeds.
func (app *App) render(ctx context.Context, w io.Writer) error {
	cfg := app.Config
	logger := app.Logger

	alarms := app.alarmStore()
	records, err := alarms.List()
	if err != nil {
		return err
	}

	normalizer, err := app.normalizer()
	if err != nil {
		return err
	}

	symbols := cfg.AllSymbols()
	if cfg.ShowIndices {
		for _, idx := range cfg.Indices {
			symbols = append(symbols, idx.Symbol)
		}
	}

	quotes, err := normalizer.FetchAll(ctx, symbols)
	if err != nil {
		app.alertFetchFailure(err)
		return err
	}

	journal, err := app.journal()
	if err != nil {
		// history is optional, alarms still fire without it
		logger.Warn().Err(err).Msg("Alarm history unavailable")
	}
	if journal != nil {
		defer journal.Close()
	}

	notifier := notify.NewMultiNotifier(cfg, app.Runner)
	logger.Debug().Strs("channels", notifier.Channels()).Msg("Alarm notifications")
	evaluator := alarm.NewEvaluator(alarms, notifier, journal, logger)

	fired := 0
	for _, symbol := range cfg.AllSymbols() {
		n, err := evaluator.Check(ctx, symbol, quotes[symbol].CurrentPrice.Raw, records)
		if err != nil {
			return err
		}
		fired += n
	}
	if fired > 0 {
		if records, err = alarms.List(); err != nil {
			return err
		}
	}

	m := menu.Menu{
		Groups: menu.Groups(cfg.Categories, quotes),
		Alarms: records,
	}
	if cfg.ShowIndices {
		for _, idx := range cfg.Indices {
			m.Indices = append(m.Indices, menu.IndexQuote{Label: idx.Label, Quote: quotes[idx.Symbol]})
		}
	}
	if journal != nil && cfg.Journal.Recent > 0 {
		recent, err := journal.RecentFired(ctx, cfg.Journal.Recent)
		if err != nil {
			logger.Warn().Err(err).Msg("Reading alarm history failed")
		}
		m.Recent = recent
	}

	var buf bytes.Buffer
	if err := menu.NewRenderer(cfg, app.Executable).Render(&buf, m); err != nil {
		return err
	}

	logger.Info().
		Int("symbols", len(quotes)).
		Int("alarms", len(records)).
		Int("fired", fired).
		Msg("Menu rendered")

	_, err = w.Write(buf.Bytes())
	return err
}

func (app *App) normalizer() (*quote.Normalizer, error) {
	p, err := app.NewProvider(app.Config, app.Logger)
	if err != nil {
		return nil, err
	}
	loc := utils.LoadLocation(app.Config.Provider.ExchangeTimezone)
	return quote.NewNormalizer(p, loc, app.Config.TickerInterval, app.Logger), nil
}

// fetchOne returns the quote for symbol without any delay.
func (app *App) fetchOne(ctx context.Context, symbol string) (models.Quote, error) {
	normalizer, err := app.normalizer()
	if err != nil {
		return models.Quote{}, err
	}
	return normalizer.Fetch(ctx, symbol)
}

func (app *App) alertFetchFailure(err error) {
	app.Logger.Error().Err(err).Msg("Fetching quotes failed")

	var derr *apperrors.DataError
	if errors.As(err, &derr) {
		cause := derr.Err
		if cause == nil {
			cause = err
		}
		app.Dialogs.Alert("Error", fmt.Sprintf("Failed to fetch data for %s: %v", derr.Symbol, cause))
		return
	}
	app.Dialogs.Alert("Error", fmt.Sprintf("Failed to fetch data: %v", err))
}
