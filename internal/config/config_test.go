package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "stockbar/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STOCKBAR_PROVIDER", "STOCKBAR_SORT_BY", "STOCKBAR_DEBUG",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_WritesAndLoadsTemplate(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config template not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "credentials.toml")); err != nil {
		t.Errorf("credentials template not written: %v", err)
	}

	if cfg.MenuIcon != "💲" {
		t.Errorf("MenuIcon = %q", cfg.MenuIcon)
	}
	if cfg.SortBy != "market_change_winners" {
		t.Errorf("SortBy = %q", cfg.SortBy)
	}
	if cfg.TickerInterval != time.Second {
		t.Errorf("TickerInterval = %v", cfg.TickerInterval)
	}
	if cfg.Provider.Timeout != 15*time.Second {
		t.Errorf("Provider.Timeout = %v", cfg.Provider.Timeout)
	}

	if len(cfg.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(cfg.Categories))
	}
	if cfg.Categories[0].Name != "Indices" || cfg.Categories[1].Name != "Holdings" {
		t.Errorf("categories out of order: %+v", cfg.Categories)
	}
	if got := cfg.AllSymbols(); strings.Join(got, ",") != "^GSPC,^VIX,AAPL,NVDA" {
		t.Errorf("AllSymbols() = %v", got)
	}
	if len(cfg.Indices) != 3 || cfg.Indices[0].Symbol != "^GSPC" {
		t.Errorf("Indices = %+v", cfg.Indices)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
show_menu_icon = false
note_width = 40

[icons]
pre = ""

[[categories]]
name = "Watch"
symbols = [{ symbol = "GME", note = "!buy under 17" }]
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ShowMenuIcon {
		t.Error("explicit show_menu_icon = false was overridden")
	}
	if cfg.NoteWidth != 40 {
		t.Errorf("NoteWidth = %d, want 40", cfg.NoteWidth)
	}
	if cfg.Icons.Pre != "" {
		t.Errorf("Icons.Pre = %q, want empty", cfg.Icons.Pre)
	}
	if cfg.Icons.Post != "🌛" {
		t.Errorf("Icons.Post = %q, want default", cfg.Icons.Post)
	}
	if cfg.Categories[0].Symbols[0].Note != "!buy under 17" {
		t.Errorf("note = %q", cfg.Categories[0].Symbols[0].Note)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOCKBAR_SORT_BY", "symbol")
	t.Setenv("STOCKBAR_DEBUG", "true")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SortBy != "symbol" {
		t.Errorf("SortBy = %q, want symbol", cfg.SortBy)
	}
	if !cfg.ShowDebug {
		t.Error("STOCKBAR_DEBUG not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider.Name = "bloomberg" }, true},
		{"alpaca without keys", func(c *Config) { c.Provider.Name = "alpaca" }, true},
		{"alpaca with keys", func(c *Config) {
			c.Provider.Name = "alpaca"
			c.Credentials.Alpaca = AlpacaCredentials{KeyID: "id", SecretKey: "secret"}
		}, false},
		{"webhook without url", func(c *Config) { c.Notifications.Webhook.Enabled = true }, true},
		{"negative note width", func(c *Config) { c.NoteWidth = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("error %v does not wrap ErrConfigInvalid", err)
			}
		})
	}
}

func TestAlarmFilePath(t *testing.T) {
	cfg := Default()
	dir := t.TempDir()
	exe := filepath.Join(dir, "stocks.5m.cgo")

	want := filepath.Join(dir, ".stocks.5m.cgo.db")
	if got := cfg.AlarmFilePath(exe); got != want {
		t.Errorf("AlarmFilePath() = %q, want %q", got, want)
	}

	cfg.Alarms.File = "/tmp/alarms.db"
	if got := cfg.AlarmFilePath(exe); got != "/tmp/alarms.db" {
		t.Errorf("AlarmFilePath() = %q with explicit file", got)
	}
}

func TestYAML_MasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Notifications.Telegram.BotToken = "12345:secret"

	out, err := cfg.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "12345:secret") {
		t.Error("bot token leaked into YAML output")
	}
	if !strings.Contains(string(out), "sort_by: market_change_winners") {
		t.Errorf("unexpected YAML:\n%s", out)
	}
}
