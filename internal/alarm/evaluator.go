package alarm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stockbar/internal/logging"
	"stockbar/internal/models"
	"stockbar/internal/notify"
)

// Remover deletes one exact record from the alarm file.
type Remover interface {
	Remove(line string) error
}

// Journal records fired alarms.
type Journal interface {
	RecordFired(ctx context.Context, fired models.FiredAlarm) error
}

// Evaluator fires alarms whose condition holds for the current price.
type Evaluator struct {
	store    Remover
	notifier notify.Notifier
	journal  Journal
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEvaluator creates an evaluator. journal may be nil.
func NewEvaluator(store Remover, notifier notify.Notifier, journal Journal, logger zerolog.Logger) *Evaluator {
	if notifier == nil {
		notifier = notify.NewNoOpNotifier()
	}
	return &Evaluator{
		store:    store,
		notifier: notifier,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
	}
}

// Check evaluates records for symbol at price. A BUY record fires when price
// is below its threshold, a SELL record when price is above it. A fired record
// is removed from the store; every other record is left for the next run.
func (e *Evaluator) Check(ctx context.Context, symbol string, price float64, records []string) (int, error) {
	current := decimal.NewFromFloat(price)
	fired := 0

	for _, record := range records {
		a, err := models.ParseAlarm(record)
		if err != nil || a.Symbol != symbol {
			continue
		}

		threshold, err := a.Threshold()
		if err != nil {
			e.logger.Warn().Err(err).Str("record", record).Msg("Skipping alarm with bad price")
			continue
		}

		var hit bool
		switch a.Kind {
		case models.AlarmBuy:
			hit = current.LessThan(threshold)
		case models.AlarmSell:
			hit = current.GreaterThan(threshold)
		}
		if !hit {
			continue
		}

		if err := e.fire(ctx, a, record, price, threshold); err != nil {
			return fired, err
		}
		fired++
	}

	return fired, nil
}

func (e *Evaluator) fire(ctx context.Context, a models.Alarm, record string, price float64, threshold decimal.Decimal) error {
	limit, _ := threshold.Float64()
	logging.LogAlarm(e.logger, record, a.Symbol, limit, price)

	n := notify.Notification{
		Title:     "Price Alarm",
		Body:      fmt.Sprintf("%s current price is: %s", a.Symbol, strconv.FormatFloat(price, 'f', -1, 64)),
		Subtitle:  fmt.Sprintf("%s Limit: %s", a.Kind, a.Price),
		Symbol:    a.Symbol,
		Kind:      string(a.Kind),
		Timestamp: e.now(),
	}
	// notification errors are logged only, the record is removed regardless
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Error().Err(err).Str("record", record).Msg("Alarm notification failed")
	}

	if err := e.store.Remove(record); err != nil {
		return fmt.Errorf("removing fired alarm %q: %w", record, err)
	}

	if e.journal == nil {
		return nil
	}
	row := models.FiredAlarm{
		ID:        uuid.NewString(),
		Line:      record,
		Kind:      a.Kind,
		Symbol:    a.Symbol,
		Threshold: a.Price,
		Price:     price,
		FiredAt:   n.Timestamp,
	}
	if err := e.journal.RecordFired(ctx, row); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to journal fired alarm")
	}
	return nil
}
