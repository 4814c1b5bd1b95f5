package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"

	apperrors "stockbar/internal/errors"
	"stockbar/internal/logging"
	"stockbar/internal/models"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
	yahooCrumbPath = "/v1/test/getcrumb"
	// Yahoo rejects requests without a browser-like agent.
	yahooUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooConfig holds Yahoo Finance client settings.
type YahooConfig struct {
	// BaseURL replaces both the API host and the cookie host; used in tests.
	BaseURL string
	Timeout time.Duration
}

// YahooProvider implements Provider on top of finance-go. The library has no
// notion of Yahoo's session crumb, so every request it makes goes through
// crumbTransport.
type YahooProvider struct {
	quotes quote.Client
	charts chart.Client
	auth   *crumbTransport
	logger zerolog.Logger
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(cfg YahooConfig, logger zerolog.Logger) *YahooProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL, cookieURL := yahooBaseURL, yahooCookieURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
		cookieURL = baseURL
	}

	jar, _ := cookiejar.New(nil)
	auth := &crumbTransport{
		base:      http.DefaultTransport,
		baseURL:   baseURL,
		cookieURL: cookieURL,
	}
	// the session client shares the jar so the crumb request carries the cookie
	auth.session = &http.Client{Timeout: timeout, Jar: jar, Transport: uaTransport{http.DefaultTransport}}

	backend := &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        baseURL,
		HTTPClient: &http.Client{Timeout: timeout, Jar: jar, Transport: auth},
	}

	return &YahooProvider{
		quotes: quote.Client{B: backend},
		charts: chart.Client{B: backend},
		auth:   auth,
		logger: logger.With().Str("provider", "yahoo").Logger(),
	}
}

// Name returns the provider name.
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// Info implements Provider.
func (p *YahooProvider) Info(ctx context.Context, symbol string) (Info, error) {
	const endpoint = "/v7/finance/quote"
	ctx, status := withCallStatus(ctx)
	start := time.Now()

	iter := p.quotes.ListP(&quote.Params{
		Symbols: []string{symbol},
		Params:  finance.Params{Context: &ctx},
	})
	if !iter.Next() {
		err := iter.Err()
		if err == nil {
			err = fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
		} else {
			err = p.callError(endpoint, status, err)
		}
		logging.LogAPICall(p.logger, http.MethodGet, endpoint, time.Since(start), err)
		return nil, err
	}
	logging.LogAPICall(p.logger, http.MethodGet, endpoint, time.Since(start), nil)

	info, err := quoteInfo(iter.Quote())
	if err != nil {
		return nil, apperrors.NewProviderError("yahoo", endpoint, 0, err)
	}
	return info, nil
}

// quoteInfo flattens a finance.Quote into Yahoo-keyed Info. Zero values are
// dropped so that fields Yahoo did not send read as absent.
func quoteInfo(q *finance.Quote) (Info, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	info := make(Info, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			continue
		case float64:
			if x == 0 {
				continue
			}
		case string:
			if x == "" {
				continue
			}
		case bool:
			if !x {
				continue
			}
		}
		info[k] = v
	}
	return info, nil
}

// Bars implements Provider. Bars with a missing close are skipped.
func (p *YahooProvider) Bars(ctx context.Context, symbol string, interval Interval, lookback time.Duration) ([]models.Bar, error) {
	endpoint := "/v8/finance/chart/" + symbol
	ctx, status := withCallStatus(ctx)

	end := time.Now()
	begin := end.Add(-lookback)
	if lookback < 24*time.Hour {
		begin = end.Add(-24 * time.Hour)
	}

	chartInterval := datetime.OneDay
	if interval == IntervalMinute {
		chartInterval = datetime.OneMin
	}

	start := time.Now()
	iter := p.charts.Get(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&begin),
		End:      datetime.New(&end),
		Interval: chartInterval,
	})

	var bars []models.Bar
	for iter.Next() {
		b := iter.Bar()
		closePrice, _ := b.Close.Float64()
		if closePrice == 0 {
			continue
		}
		open, _ := b.Open.Float64()
		high, _ := b.High.Float64()
		low, _ := b.Low.Float64()
		bars = append(bars, models.Bar{
			Timestamp: time.Unix(int64(b.Timestamp), 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		err = p.callError(endpoint, status, err)
		logging.LogAPICall(p.logger, http.MethodGet, endpoint, time.Since(start), err)
		return nil, err
	}
	logging.LogAPICall(p.logger, http.MethodGet, endpoint, time.Since(start), nil)
	return bars, nil
}

// callError maps a failed library call to the error types the rest of the
// plugin checks for, using the HTTP status seen by the transport.
func (p *YahooProvider) callError(endpoint string, status *callStatus, err error) error {
	if authErr := p.auth.lastError(); authErr != nil {
		return authErr
	}
	code := status.get()
	if code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, endpoint)
	}
	return apperrors.NewProviderError("yahoo", endpoint, code, err)
}

type callStatusKey struct{}

// callStatus records the last HTTP status of a request made under a context.
type callStatus struct {
	mu   sync.Mutex
	code int
}

func withCallStatus(ctx context.Context) (context.Context, *callStatus) {
	s := &callStatus{}
	return context.WithValue(ctx, callStatusKey{}, s), s
}

func (s *callStatus) set(code int) {
	s.mu.Lock()
	s.code = code
	s.mu.Unlock()
}

func (s *callStatus) get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

type uaTransport struct {
	base http.RoundTripper
}

func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	return t.base.RoundTrip(req)
}

// crumbTransport signs API requests with the session crumb, fetching the
// cookie and crumb once per process on first use.
type crumbTransport struct {
	base      http.RoundTripper
	session   *http.Client
	baseURL   string
	cookieURL string

	mu      sync.Mutex
	crumb   string
	authErr error
}

func (t *crumbTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	crumb, err := t.authenticate(req.Context())
	if err != nil {
		return nil, err
	}

	req = req.Clone(req.Context())
	q := req.URL.Query()
	q.Set("crumb", crumb)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if s, ok := req.Context().Value(callStatusKey{}).(*callStatus); ok {
		s.set(resp.StatusCode)
	}
	return resp, nil
}

func (t *crumbTransport) authenticate(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.crumb != "" {
		return t.crumb, nil
	}
	t.authErr = nil

	// the cookie host answers 404 but still sets the session cookie
	if resp, err := t.get(ctx, t.cookieURL+"/"); err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	resp, err := t.get(ctx, t.baseURL+yahooCrumbPath)
	if err != nil {
		t.authErr = apperrors.NewProviderError("yahoo", yahooCrumbPath, 0, err)
		return "", t.authErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.authErr = apperrors.NewProviderError("yahoo", yahooCrumbPath, resp.StatusCode, err)
		return "", t.authErr
	}
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" {
		t.authErr = apperrors.NewProviderError("yahoo", yahooCrumbPath, resp.StatusCode, nil)
		return "", t.authErr
	}
	t.crumb = crumb
	return crumb, nil
}

func (t *crumbTransport) lastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authErr
}

func (t *crumbTransport) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return t.session.Do(req)
}
