package alarm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"stockbar/internal/models"
	"stockbar/internal/notify"
)

type recordingNotifier struct {
	sent []notify.Notification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

type memoryRemover struct {
	removed []string
	err     error
}

func (m *memoryRemover) Remove(line string) error {
	m.removed = append(m.removed, line)
	return m.err
}

type memoryJournal struct {
	rows []models.FiredAlarm
}

func (m *memoryJournal) RecordFired(ctx context.Context, f models.FiredAlarm) error {
	m.rows = append(m.rows, f)
	return nil
}

func newTestEvaluator(store Remover, n notify.Notifier, j Journal) *Evaluator {
	e := NewEvaluator(store, n, j, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC) }
	return e
}

func TestEvaluator_Check(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		price   float64
		records []string
		fired   []string
	}{
		{
			name:    "buy fires below limit",
			symbol:  "AAPL",
			price:   95,
			records: []string{"BUY AAPL 100"},
			fired:   []string{"BUY AAPL 100"},
		},
		{
			name:    "buy holds above limit",
			symbol:  "AAPL",
			price:   105,
			records: []string{"BUY AAPL 100"},
		},
		{
			name:    "buy holds at limit",
			symbol:  "AAPL",
			price:   100,
			records: []string{"BUY AAPL 100.00"},
		},
		{
			name:    "sell fires above limit",
			symbol:  "GME",
			price:   17.01,
			records: []string{"SELL GME 17", "BUY GME 10"},
			fired:   []string{"SELL GME 17"},
		},
		{
			name:    "symbol match is exact",
			symbol:  "AAPL",
			price:   1,
			records: []string{"BUY AAPLX 100", "BUY XAAPL 100"},
		},
		{
			name:    "malformed records are ignored",
			symbol:  "AAPL",
			price:   1,
			records: []string{"garbage", "BUY AAPL abc", "BUY AAPL 2"},
			fired:   []string{"BUY AAPL 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryRemover{}
			n := &recordingNotifier{}
			e := newTestEvaluator(store, n, nil)

			count, err := e.Check(context.Background(), tt.symbol, tt.price, tt.records)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if count != len(tt.fired) {
				t.Errorf("Check() fired %d, want %d", count, len(tt.fired))
			}
			if !reflect.DeepEqual(store.removed, tt.fired) {
				t.Errorf("removed %q, want %q", store.removed, tt.fired)
			}
			if len(n.sent) != len(tt.fired) {
				t.Errorf("sent %d notifications, want %d", len(n.sent), len(tt.fired))
			}
		})
	}
}

func TestEvaluator_NotificationText(t *testing.T) {
	n := &recordingNotifier{}
	e := newTestEvaluator(&memoryRemover{}, n, nil)

	if _, err := e.Check(context.Background(), "AAPL", 95.5, []string{"BUY AAPL 100.00"}); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("sent %d notifications", len(n.sent))
	}
	got := n.sent[0]
	if got.Title != "Price Alarm" || got.Body != "AAPL current price is: 95.5" || got.Subtitle != "BUY Limit: 100.00" {
		t.Errorf("notification = %+v", got)
	}
}

func TestEvaluator_NotifyFailureStillRemoves(t *testing.T) {
	store := &memoryRemover{}
	e := newTestEvaluator(store, &recordingNotifier{err: errors.New("dialog failed")}, nil)

	count, err := e.Check(context.Background(), "AAPL", 1, []string{"BUY AAPL 2"})
	if err != nil || count != 1 {
		t.Fatalf("Check() = %d, %v", count, err)
	}
	if len(store.removed) != 1 {
		t.Error("record kept after notification failure")
	}
}

func TestEvaluator_RemoveFailureIsReturned(t *testing.T) {
	store := &memoryRemover{err: errors.New("read-only")}
	e := newTestEvaluator(store, &recordingNotifier{}, nil)

	if _, err := e.Check(context.Background(), "AAPL", 1, []string{"BUY AAPL 2"}); err == nil {
		t.Error("Check() error = nil, want remove failure")
	}
}

func TestEvaluator_JournalsFiredAlarm(t *testing.T) {
	j := &memoryJournal{}
	e := newTestEvaluator(&memoryRemover{}, &recordingNotifier{}, j)

	if _, err := e.Check(context.Background(), "NVDA", 151.25, []string{"SELL NVDA 150"}); err != nil {
		t.Fatal(err)
	}
	if len(j.rows) != 1 {
		t.Fatalf("journal rows = %d", len(j.rows))
	}
	row := j.rows[0]
	if row.ID == "" || row.Line != "SELL NVDA 150" || row.Kind != models.AlarmSell ||
		row.Threshold != "150" || row.Price != 151.25 || !row.FiredAt.Equal(e.now()) {
		t.Errorf("journal row = %+v", row)
	}
}

func TestEvaluator_AgainstFileStore(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(models.AlarmBuy, "AAPL", "100")
	_ = s.Add(models.AlarmSell, "AAPL", "200")

	records, _ := s.List()
	e := newTestEvaluator(s, &recordingNotifier{}, nil)
	if _, err := e.Check(context.Background(), "AAPL", 95, records); err != nil {
		t.Fatal(err)
	}

	left, _ := s.List()
	if !reflect.DeepEqual(left, []string{"SELL AAPL 200"}) {
		t.Errorf("remaining = %q", left)
	}
}

// Property: a record fires exactly when its condition holds for the price.
func TestProperty_FiresOnlyWhenConditionHolds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fired iff BUY below or SELL above", prop.ForAll(
		func(limitCents, priceCents int, sell bool) bool {
			kind := models.AlarmBuy
			if sell {
				kind = models.AlarmSell
			}
			price := float64(priceCents) / 100
			record := models.Alarm{Kind: kind, Symbol: "X", Price: fmt.Sprintf("%d.%02d", limitCents/100, limitCents%100)}.Line()

			store := &memoryRemover{}
			count, err := newTestEvaluator(store, &recordingNotifier{}, nil).
				Check(context.Background(), "X", price, []string{record})
			if err != nil {
				return false
			}

			want := priceCents < limitCents
			if sell {
				want = priceCents > limitCents
			}
			return (count == 1) == want && (len(store.removed) == 1) == want
		},
		gen.IntRange(1, 100000),
		gen.IntRange(0, 100000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
