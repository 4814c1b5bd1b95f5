// Package provider provides quote source interfaces and implementations.
package provider

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"stockbar/internal/config"
	apperrors "stockbar/internal/errors"
	"stockbar/internal/models"
)

// Provider defines the interface for a quote source.
type Provider interface {
	// Info returns the raw quote payload for symbol.
	Info(ctx context.Context, symbol string) (Info, error)
	// Bars returns bars of the given interval covering at least lookback,
	// oldest first.
	Bars(ctx context.Context, symbol string, interval Interval, lookback time.Duration) ([]models.Bar, error)
	Name() string
}

// Interval is a bar size.
type Interval string

const (
	IntervalMinute Interval = "1m"
	IntervalDay    Interval = "1d"
)

// Info is a provider quote payload. Keys follow Yahoo Finance naming so the
// normalizer reads every provider the same way.
type Info map[string]any

// Float returns key as a float64, or 0 when absent or not numeric.
func (i Info) Float(key string) float64 {
	switch v := i[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// FirstFloat returns the first non-zero value among keys.
func (i Info) FirstFloat(keys ...string) float64 {
	for _, k := range keys {
		if f := i.Float(k); f != 0 {
			return f
		}
	}
	return 0
}

// Int returns key as an int64, or 0.
func (i Info) Int(key string) int64 {
	f := i.Float(key)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// String returns key as a string, or "" when absent.
func (i Info) String(key string) string {
	switch v := i[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns key, or fallback when the value is empty.
func (i Info) StringOr(key, fallback string) string {
	if s := i.String(key); s != "" {
		return s
	}
	return fallback
}

// New creates the provider selected in cfg.
func New(cfg *config.Config, logger zerolog.Logger) (Provider, error) {
	switch cfg.Provider.Name {
	case "yahoo", "":
		return NewYahooProvider(YahooConfig{
			BaseURL: cfg.Provider.BaseURL,
			Timeout: cfg.Provider.Timeout,
		}, logger), nil
	case "alpaca":
		return NewAlpacaProvider(AlpacaConfig{
			KeyID:     cfg.Credentials.Alpaca.KeyID,
			SecretKey: cfg.Credentials.Alpaca.SecretKey,
			BaseURL:   cfg.Provider.BaseURL,
			Feed:      cfg.Provider.Feed,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownProvider, cfg.Provider.Name)
	}
}
