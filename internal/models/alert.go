package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "stockbar/internal/errors"
)

// AlarmKind is the direction of a price limit.
type AlarmKind string

const (
	AlarmBuy  AlarmKind = "BUY"
	AlarmSell AlarmKind = "SELL"
)

// Valid reports whether k is BUY or SELL.
func (k AlarmKind) Valid() bool {
	return k == AlarmBuy || k == AlarmSell
}

// Alarm is one line of the alarm file: KIND SYMBOL PRICE.
type Alarm struct {
	Kind   AlarmKind
	Symbol string
	// Price is kept as entered so the line round-trips byte for byte.
	Price string
}

// Line returns the on-disk form of the alarm.
func (a Alarm) Line() string {
	return fmt.Sprintf("%s %s %s", a.Kind, a.Symbol, a.Price)
}

// Threshold parses Price.
func (a Alarm) Threshold() (decimal.Decimal, error) {
	return decimal.NewFromString(a.Price)
}

// ParseAlarm splits a stored line into its three fields.
func ParseAlarm(line string) (Alarm, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Alarm{}, fmt.Errorf("%w: expected KIND SYMBOL PRICE, got %q", apperrors.ErrInvalidAlarm, line)
	}
	kind := AlarmKind(fields[0])
	if !kind.Valid() {
		return Alarm{}, fmt.Errorf("%w: unknown kind %q", apperrors.ErrInvalidAlarm, fields[0])
	}
	return Alarm{Kind: kind, Symbol: fields[1], Price: fields[2]}, nil
}

// FiredAlarm is a journal row for an alarm that triggered.
type FiredAlarm struct {
	ID        string    `json:"id"`
	Line      string    `json:"line"`
	Kind      AlarmKind `json:"kind"`
	Symbol    string    `json:"symbol"`
	Threshold string    `json:"threshold"`
	Price     float64   `json:"price"`
	FiredAt   time.Time `json:"fired_at"`
}
