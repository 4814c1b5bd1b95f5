package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockbar/internal/config"
	"stockbar/internal/models"
	"stockbar/internal/provider"
	"stockbar/internal/store"
	"stockbar/pkg/utils"
)

type fakeDialogs struct {
	choices  []string
	prompts  []string
	confirms []bool

	asked  []string
	alerts []string
}

func (d *fakeDialogs) Confirm(title, text string, buttons [2]string) bool {
	d.asked = append(d.asked, text)
	if len(d.confirms) == 0 {
		return false
	}
	ok := d.confirms[0]
	d.confirms = d.confirms[1:]
	return ok
}

func (d *fakeDialogs) Prompt(text string) (string, bool) {
	d.asked = append(d.asked, text)
	if len(d.prompts) == 0 {
		return "", false
	}
	p := d.prompts[0]
	d.prompts = d.prompts[1:]
	return p, true
}

func (d *fakeDialogs) Choose(text string, choices []string) (string, bool) {
	d.asked = append(d.asked, text)
	if len(d.choices) == 0 {
		return "", false
	}
	c := d.choices[0]
	d.choices = d.choices[1:]
	return c, true
}

func (d *fakeDialogs) Alert(title, text string) {
	d.alerts = append(d.alerts, title+": "+text)
}

type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.commands = append(r.commands, name)
	return nil, nil
}

type fakeProvider struct {
	prices map[string]float64
	err    error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Info(ctx context.Context, symbol string) (provider.Info, error) {
	if p.err != nil {
		return nil, p.err
	}
	return provider.Info{
		"shortName":                  symbol + " Inc.",
		"marketState":                "REGULAR",
		"regularMarketPreviousClose": 190.0,
	}, nil
}

func (p *fakeProvider) Bars(ctx context.Context, symbol string, interval provider.Interval, lookback time.Duration) ([]models.Bar, error) {
	return []models.Bar{{
		Timestamp: time.Date(2025, 6, 3, 11, 0, 0, 0, utils.NewYorkLocation),
		Close:     p.prices[symbol],
	}}, nil
}

type testEnv struct {
	app     *App
	dialogs *fakeDialogs
	runner  *fakeRunner
	prov    *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dir = dir
	cfg.TickerInterval = 0
	cfg.Alarms.File = filepath.Join(dir, "alarms.db")
	cfg.Alarms.SoundRepeat = 0
	cfg.Categories = []models.Category{{
		Name: "Tech",
		Symbols: []models.WatchSymbol{
			{Symbol: "AAPL", Note: "earnings in July"},
			{Symbol: "MSFT"},
		},
	}}

	env := &testEnv{
		dialogs: &fakeDialogs{},
		runner:  &fakeRunner{},
		prov:    &fakeProvider{prices: map[string]float64{"AAPL": 195.5, "MSFT": 410}},
	}
	env.app = &App{
		Config:     cfg,
		Logger:     zerolog.Nop(),
		Executable: "/usr/local/bin/stockbar",
		Runner:     env.runner,
		Dialogs:    env.dialogs,
		NewProvider: func(*config.Config, zerolog.Logger) (provider.Provider, error) {
			return env.prov, nil
		},
	}
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(e.app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) writeAlarms(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(e.app.Config.Alarms.File, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) readAlarms(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.app.Config.Alarms.File)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return string(data)
}

func TestRemoveCmd(t *testing.T) {
	env := newTestEnv(t)
	env.writeAlarms(t, "BUY AAPL 100\nSELL MSFT 300\nBUY AAPL 100\n")

	if _, err := env.run(t, "remove", "BUY AAPL 100"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := env.readAlarms(t); got != "SELL MSFT 300\n" {
		t.Errorf("alarm file = %q", got)
	}

	// removing again is a no-op
	if _, err := env.run(t, "remove", "BUY AAPL 100"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if got := env.readAlarms(t); got != "SELL MSFT 300\n" {
		t.Errorf("alarm file after second remove = %q", got)
	}
}

func TestRemoveCmd_RequiresLine(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run(t, "remove"); err == nil {
		t.Error("remove without a line should fail")
	}
}

func TestRenderCmd_FiresAlarmAndPrintsMenu(t *testing.T) {
	env := newTestEnv(t)
	env.writeAlarms(t, "BUY AAPL 200\nSELL AAPL 500\nSELL MSFT 400\n")

	out, err := env.run(t)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// BUY 200 and SELL 400 hold for 195.5 and 410
	if got := env.readAlarms(t); got != "SELL AAPL 500\n" {
		t.Errorf("alarm file after render = %q", got)
	}
	if len(env.runner.commands) == 0 {
		t.Error("fired alarms did not reach the dialog notifier")
	}

	lines := strings.Split(out, "\n")
	if lines[0] != "💲" || lines[1] != "---" {
		t.Errorf("header = %q", lines[:2])
	}
	for _, want := range []string{
		"Tech| font=Monaco size=12",
		"--AAPL Inc.| font=Monaco size=12",
		"Price Limits| font=Monaco size=12",
		"param1='remove' param2='SELL AAPL 500'",
		"Set new Price Limit...| font=Monaco size=12 refresh=true terminal='false' bash='/usr/local/bin/stockbar' param1='set'",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "param2='BUY AAPL 200'") {
		t.Error("fired alarm still listed")
	}
}

func TestRenderCmd_FetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.prov.err = errors.New("boom")

	out, err := env.run(t)
	if err == nil {
		t.Fatal("render should fail when a fetch fails")
	}
	if strings.Contains(out, "💲") {
		t.Errorf("partial menu printed: %q", out)
	}
	if len(env.dialogs.alerts) != 1 || env.dialogs.alerts[0] != "Error: Failed to fetch data for AAPL: boom" {
		t.Errorf("alerts = %q", env.dialogs.alerts)
	}
}

func TestSetCmd(t *testing.T) {
	env := newTestEnv(t)
	env.dialogs.choices = []string{"BUY", "AAPL", "SELL", "MSFT"}
	env.dialogs.prompts = []string{"150.25", ".5"}
	env.dialogs.confirms = []bool{true, false}

	if _, err := env.run(t, "set"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := env.readAlarms(t); got != "BUY AAPL 150.25\nSELL MSFT .5\n" {
		t.Errorf("alarm file = %q", got)
	}

	want := "Current price of AAPL is 195.5. Enter a value for your price limit."
	found := false
	for _, q := range env.dialogs.asked {
		if q == want {
			found = true
		}
	}
	if !found {
		t.Errorf("price prompt %q not shown; asked %q", want, env.dialogs.asked)
	}
}

func TestSetCmd_InvalidPrice(t *testing.T) {
	env := newTestEnv(t)
	env.dialogs.choices = []string{"SELL", "MSFT"}
	env.dialogs.prompts = []string{"12,50"}

	if _, err := env.run(t, "set"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := env.readAlarms(t); got != "" {
		t.Errorf("invalid price written: %q", got)
	}
	want := "Error: You entered an invalid value: 12,50 - valid values are decimals with up to 4 fractional digits, e.g. 25.70 or 0.0125!"
	if len(env.dialogs.alerts) != 1 || env.dialogs.alerts[0] != want {
		t.Errorf("alerts = %q", env.dialogs.alerts)
	}
}

func TestSetCmd_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	env.dialogs.choices = []string{"BUY"}

	if _, err := env.run(t, "set"); err != nil {
		t.Fatalf("cancel should not be an error: %v", err)
	}
	if got := env.readAlarms(t); got != "" {
		t.Errorf("alarm file = %q", got)
	}
}

func TestClearCmd(t *testing.T) {
	env := newTestEnv(t)
	env.writeAlarms(t, "BUY AAPL 100\n")

	env.dialogs.confirms = []bool{false}
	if _, err := env.run(t, "clear"); err != nil {
		t.Fatal(err)
	}
	if got := env.readAlarms(t); got != "BUY AAPL 100\n" {
		t.Errorf("declined clear changed the file: %q", got)
	}

	env.dialogs.confirms = []bool{true}
	if _, err := env.run(t, "clear"); err != nil {
		t.Fatal(err)
	}
	if got := env.readAlarms(t); got != "" {
		t.Errorf("alarm file after clear = %q", got)
	}
}

func TestHistoryCmd_Disabled(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("output = %q", out)
	}
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "stockbar v"+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestConfigValidateCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 categories, 2 symbols") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderCmd_JournalsFiredAlarms(t *testing.T) {
	env := newTestEnv(t)
	env.app.Config.Journal.Enabled = true
	env.app.OpenJournal = func(path string) (store.Journal, error) {
		return store.NewSQLiteJournal(path)
	}
	env.writeAlarms(t, "BUY AAPL 200\n")

	out, err := env.run(t)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Recent Alarms| font=Monaco size=12") ||
		!strings.Contains(out, " BUY AAPL @195.50 (limit 200)") {
		t.Errorf("recent alarms missing from menu:\n%s", out)
	}

	out, err = env.run(t, "history", "--symbol", "AAPL")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "195.50") {
		t.Errorf("history output = %q", out)
	}
}

func TestQuoteCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "quote", "aapl")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !strings.Contains(out, "AAPL Inc.") || !strings.Contains(out, "195.50") {
		t.Errorf("quote output = %q", out)
	}

	out, err = env.run(t, "quote", "AAPL", "--raw")
	if err != nil {
		t.Fatalf("quote --raw: %v", err)
	}
	if !strings.Contains(out, `"shortName": "AAPL Inc."`) {
		t.Errorf("raw output = %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	env := newTestEnv(t)
	env.app.Config.Journal.Enabled = true
	env.app.OpenJournal = func(path string) (store.Journal, error) {
		return store.NewSQLiteJournal(path)
	}

	out, err := env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty history = %q, want []", out)
	}

	env.writeAlarms(t, "BUY AAPL 200\n")
	if _, err := env.run(t); err != nil {
		t.Fatalf("render: %v", err)
	}

	out, err = env.run(t, "history", "--json")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var fired []models.FiredAlarm
	if err := json.Unmarshal([]byte(out), &fired); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(fired) != 1 || fired[0].Symbol != "AAPL" || fired[0].Kind != models.AlarmBuy || fired[0].Price != 195.5 {
		t.Errorf("fired = %+v", fired)
	}

	out, err = env.run(t, "config", "path", "--json")
	if err != nil {
		t.Fatalf("config path --json: %v", err)
	}
	var paths map[string]string
	if err := json.Unmarshal([]byte(out), &paths); err != nil {
		t.Fatalf("config path output is not JSON: %v\n%s", err, out)
	}
	if paths["alarms"] != env.app.Config.Alarms.File {
		t.Errorf("paths = %v", paths)
	}

	out, err = env.run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"version": "`+Version+`"`) {
		t.Errorf("version output = %q", out)
	}
}
