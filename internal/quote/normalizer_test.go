package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	apperrors "stockbar/internal/errors"
	"stockbar/internal/models"
	"stockbar/internal/provider"
	"stockbar/pkg/utils"
)

type fakeProvider struct {
	infos    map[string]provider.Info
	intraday []models.Bar
	daily    []models.Bar
	err      error
	calls    []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Info(ctx context.Context, symbol string) (provider.Info, error) {
	f.calls = append(f.calls, "info:"+symbol)
	if f.err != nil {
		return nil, f.err
	}
	return f.infos[symbol], nil
}

func (f *fakeProvider) Bars(ctx context.Context, symbol string, interval provider.Interval, lookback time.Duration) ([]models.Bar, error) {
	f.calls = append(f.calls, "bars:"+string(interval))
	if interval == provider.IntervalDay {
		return f.daily, nil
	}
	return f.intraday, nil
}

func at(hour, min, sec int, day int) time.Time {
	return time.Date(2025, 6, day, hour, min, sec, 0, utils.NewYorkLocation)
}

func TestRegularClose(t *testing.T) {
	tests := []struct {
		name     string
		intraday []models.Bar
		daily    []models.Bar
		want     float64
	}{
		{
			name: "last bar inside regular hours of the latest day",
			intraday: []models.Bar{
				{Timestamp: at(15, 59, 0, 3), Close: 101},
				{Timestamp: at(10, 0, 0, 3), Close: 99},
				{Timestamp: at(16, 0, 0, 2), Close: 90},
			},
			want: 101,
		},
		{
			name: "16:00 bar counts, later bars do not",
			intraday: []models.Bar{
				{Timestamp: at(15, 59, 0, 3), Close: 101},
				{Timestamp: at(16, 0, 0, 3), Close: 102},
				{Timestamp: at(16, 1, 0, 3), Close: 103},
			},
			want: 102,
		},
		{
			name: "latest day only has pre-market bars",
			intraday: []models.Bar{
				{Timestamp: at(15, 0, 0, 2), Close: 90},
				{Timestamp: at(8, 0, 0, 3), Close: 95},
			},
			daily: []models.Bar{
				{Timestamp: at(0, 0, 0, 2), Close: 91},
				{Timestamp: at(0, 0, 0, 1), Close: 80},
			},
			want: 91,
		},
		{
			name: "nothing at all",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegularClose(tt.intraday, tt.daily, nil); got != tt.want {
				t.Errorf("RegularClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	info := provider.Info{
		"shortName":                  "Apple",
		"marketState":                "POST",
		"regularMarketPreviousClose": 100.0,
		"postMarketPrice":            110.0,
		"regularMarketOpen":          101.0,
		"dayHigh":                    106.0,
		"dayLow":                     99.5,
		"bid":                        0.0,
		"ask":                        105.25,
		"regularMarketTime":          1717185600.0,
	}

	q := Normalize("AAPL", info, 105)

	if q.CurrentPrice.Fmt != "110.00" {
		t.Errorf("current = %s, want post price", q.CurrentPrice.Fmt)
	}
	if q.RegularMarketChangePercent.Fmt != "5.00%" {
		t.Errorf("regular%% = %s", q.RegularMarketChangePercent.Fmt)
	}
	if q.PostMarketChangePercent.Fmt != "10.00%" {
		t.Errorf("post%% against previous close = %s", q.PostMarketChangePercent.Fmt)
	}
	if q.PostMarketChangeSinceClose.Fmt != "4.76%" {
		t.Errorf("post%% against regular close = %s", q.PostMarketChangeSinceClose.Fmt)
	}
	if q.RegularMarketChange.Fmt != "5.00" {
		t.Errorf("change = %s", q.RegularMarketChange.Fmt)
	}
	if q.Bid.Fmt != "N/A" || q.Ask.Fmt != "105.25" {
		t.Errorf("bid/ask = %s/%s", q.Bid.Fmt, q.Ask.Fmt)
	}
	if q.LongName != "Apple" || q.Currency != "USD" {
		t.Errorf("name defaults: long=%q currency=%q", q.LongName, q.Currency)
	}
	if q.RegularMarketTime.Unix() != 1717185600 {
		t.Errorf("market time = %v", q.RegularMarketTime)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	q := Normalize("^GSPC", provider.Info{"marketState": "PRE", "previousClose": 50.0}, 0)

	if q.ShortName != "^GSPC" || q.LongName != "^GSPC" {
		t.Errorf("names = %q/%q", q.ShortName, q.LongName)
	}
	// PRE without a pre price falls back to the regular close
	if q.CurrentPrice.Raw != 0 {
		t.Errorf("current = %v", q.CurrentPrice.Raw)
	}
	if q.RegularMarketPreviousClose.Raw != 50 {
		t.Errorf("previousClose fallback not used: %v", q.RegularMarketPreviousClose.Raw)
	}

	q = Normalize("X", provider.Info{}, 1)
	if q.MarketState != "CLOSED" {
		t.Errorf("market state default = %q", q.MarketState)
	}
}

// Property: a non-positive previous close forces every change-percent to 0.
func TestProperty_ChangeGuard(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("all change percents are zero", prop.ForAll(
		func(prev, regular, pre, post float64, state string) bool {
			info := provider.Info{
				"regularMarketPreviousClose": prev,
				"preMarketPrice":             pre,
				"postMarketPrice":            post,
				"marketState":                state,
			}
			q := Normalize("X", info, regular)
			for _, p := range []models.Price{
				q.RegularMarketChangePercent,
				q.PreMarketChangePercent,
				q.PostMarketChangePercent,
				q.PostMarketChangeSinceClose,
			} {
				if p.Raw != 0 || p.Fmt != "0.00%" {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-1000, 0),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
		gen.OneConstOf("PRE", "REGULAR", "POST", "CLOSED"),
	))

	properties.TestingRun(t)
}

func TestFetch_SkipsDailyWhenIntradayHasRegularBars(t *testing.T) {
	fp := &fakeProvider{
		infos:    map[string]provider.Info{"AAPL": {"regularMarketPreviousClose": 100.0, "marketState": "REGULAR"}},
		intraday: []models.Bar{{Timestamp: at(11, 0, 0, 3), Close: 102}},
	}
	n := NewNormalizer(fp, nil, 0, zerolog.Nop())

	q, err := n.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if q.CurrentPrice.Raw != 102 {
		t.Errorf("current = %v", q.CurrentPrice.Raw)
	}
	for _, c := range fp.calls {
		if c == "bars:1d" {
			t.Error("daily bars fetched although intraday had a regular close")
		}
	}
}

func TestFetchAll_DelayAndAbort(t *testing.T) {
	fp := &fakeProvider{infos: map[string]provider.Info{"A": {}, "B": {}}}
	n := NewNormalizer(fp, nil, time.Second, zerolog.Nop())

	var slept []time.Duration
	n.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	quotes, err := n.FetchAll(context.Background(), []string{"A", "B", "A"})
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 2 || len(slept) != 2 || slept[0] != time.Second {
		t.Errorf("quotes=%d slept=%v", len(quotes), slept)
	}

	fp.err = errors.New("connection refused")
	_, err = n.FetchAll(context.Background(), []string{"A"})
	var derr *apperrors.DataError
	if !errors.As(err, &derr) || derr.Symbol != "A" {
		t.Errorf("FetchAll() error = %v, want DataError for A", err)
	}
}
