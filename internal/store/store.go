// Package store provides data persistence interfaces and implementations.
//
// The alarm line file stays the only alarm state; this package only keeps a
// history of alarms that fired.
package store

import (
	"context"
	"time"

	"stockbar/internal/models"
)

// Journal records fired alarms.
type Journal interface {
	RecordFired(ctx context.Context, fired models.FiredAlarm) error
	// RecentFired returns up to limit rows, newest first.
	RecentFired(ctx context.Context, limit int) ([]models.FiredAlarm, error)
	Close() error
}

// FiredFilter narrows a history query.
type FiredFilter struct {
	Symbol string
	Since  time.Time
	Limit  int
}
