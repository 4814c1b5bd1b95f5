// Package config provides configuration management for the watchlist plugin.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"stockbar/internal/models"
	"stockbar/internal/session"
)

// Config holds all application configuration. It is loaded once per run and
// passed down by pointer; nothing mutates it after Load returns.
type Config struct {
	MenuIcon        string        `mapstructure:"menu_icon" yaml:"menu_icon" default:"💲"`
	SortBy          string        `mapstructure:"sort_by" yaml:"sort_by" default:"market_change_winners"`
	ShowDebug       bool          `mapstructure:"show_debug" yaml:"show_debug"`
	ShowMenuIcon    bool          `mapstructure:"show_menu_icon" yaml:"show_menu_icon" default:"true"`
	ShowSessionIcon bool          `mapstructure:"show_session_icon" yaml:"show_session_icon"`
	ShowIndices     bool          `mapstructure:"show_indices" yaml:"show_indices"`
	TickerInterval  time.Duration `mapstructure:"ticker_interval" yaml:"ticker_interval" default:"1s" validate:"gte=0"`
	NoteAlertMarker string        `mapstructure:"note_alert_marker" yaml:"note_alert_marker" default:"!"`
	NoteWidth       int           `mapstructure:"note_width" yaml:"note_width" default:"60" validate:"gte=0"`
	DebugWrapWidth  int           `mapstructure:"debug_wrap_width" yaml:"debug_wrap_width" default:"60" validate:"gte=0"`

	Font          FontConfig         `mapstructure:"font" yaml:"font"`
	Icons         IconConfig         `mapstructure:"icons" yaml:"icons"`
	Provider      ProviderConfig     `mapstructure:"provider" yaml:"provider"`
	Alarms        AlarmConfig        `mapstructure:"alarms" yaml:"alarms"`
	Journal       JournalConfig      `mapstructure:"journal" yaml:"journal"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`

	Indices    []IndexSymbol     `mapstructure:"indices" yaml:"indices" validate:"dive"`
	Categories []models.Category `mapstructure:"categories" yaml:"categories" validate:"dive"`

	Credentials Credentials `mapstructure:"-" yaml:"-"` // Loaded separately
	Dir         string      `mapstructure:"-" yaml:"-"`
}

// FontConfig holds the font suffix used on menu lines.
type FontConfig struct {
	MainFamily string `mapstructure:"main_family" yaml:"main_family" default:"Monaco"`
	MainSize   int    `mapstructure:"main_size" yaml:"main_size" default:"12" validate:"gt=0"`
	NoteFamily string `mapstructure:"note_family" yaml:"note_family" default:"Monaco"`
	NoteSize   int    `mapstructure:"note_size" yaml:"note_size" default:"12" validate:"gt=0"`
}

// IconConfig holds menu glyphs.
type IconConfig struct {
	Notes      string `mapstructure:"notes" yaml:"notes" default:"📝"`
	AlertNotes string `mapstructure:"alert_notes" yaml:"alert_notes" default:"❗"`
	Pre        string `mapstructure:"pre" yaml:"pre" default:"🌅"`
	Regular    string `mapstructure:"regular" yaml:"regular"`
	Post       string `mapstructure:"post" yaml:"post" default:"🌛"`
	Closed     string `mapstructure:"closed" yaml:"closed" default:"💤"`
	Up         string `mapstructure:"up" yaml:"up" default:"▲"`
	Down       string `mapstructure:"down" yaml:"down" default:"▼"`
}

// ProviderConfig selects and tunes the quote source.
type ProviderConfig struct {
	Name             string        `mapstructure:"name" yaml:"name" default:"yahoo" validate:"oneof=yahoo alpaca"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" default:"15s" validate:"gt=0"`
	ExchangeTimezone string        `mapstructure:"exchange_timezone" yaml:"exchange_timezone" default:"America/New_York"`
	// BaseURL overrides the provider endpoint; empty uses the public one.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// Feed is the Alpaca data feed (iex or sip).
	Feed string `mapstructure:"feed" yaml:"feed" default:"iex" validate:"omitempty,oneof=iex sip"`
}

// AlarmConfig holds price-limit settings.
type AlarmConfig struct {
	// File is the alarm line file. Empty places it next to the executable.
	File          string        `mapstructure:"file" yaml:"file"`
	Sound         string        `mapstructure:"sound" yaml:"sound" default:"Glass"`
	SoundRepeat   int           `mapstructure:"sound_repeat" yaml:"sound_repeat" default:"5" validate:"gte=0"`
	SoundInterval time.Duration `mapstructure:"sound_interval" yaml:"sound_interval" default:"300ms" validate:"gte=0"`
}

// JournalConfig holds the fired-alarm history settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
	Recent  int    `mapstructure:"recent" yaml:"recent" default:"5" validate:"gte=0"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Dialog   bool           `mapstructure:"dialog" yaml:"dialog" default:"true"`
	Webhook  WebhookConfig  `mapstructure:"webhook" yaml:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url" validate:"required_if=Enabled true,omitempty,url"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token" validate:"required_if=Enabled true"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id" validate:"required_if=Enabled true"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" yaml:"file"`
}

// IndexSymbol is one entry of the menu-bar indices ticker.
type IndexSymbol struct {
	Symbol string `mapstructure:"symbol" yaml:"symbol" validate:"required"`
	Label  string `mapstructure:"label" yaml:"label"`
}

// Credentials holds API credentials.
type Credentials struct {
	Alpaca AlpacaCredentials `mapstructure:"alpaca" yaml:"alpaca"`
}

// AlpacaCredentials holds Alpaca market-data API keys.
type AlpacaCredentials struct {
	KeyID     string `mapstructure:"key_id" yaml:"key_id"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// DefaultIndices is the menu-bar ticker used when none are configured.
func DefaultIndices() []IndexSymbol {
	return []IndexSymbol{
		{Symbol: "^GSPC", Label: "🇺🇸 S&P 500"},
		{Symbol: "^DJI", Label: "🇺🇸 DOW 30"},
		{Symbol: "^IXIC", Label: "🇺🇸 NASDAQ"},
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockbar"
	}
	return filepath.Join(home, ".config", "stockbar")
}

// Default returns a configuration with every default applied and no
// categories.
func Default() *Config {
	cfg := withTagDefaults()
	cfg.Indices = DefaultIndices()
	return cfg
}

func withTagDefaults() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// tags are static, a failure here is a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the template and then loaded.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional and never overrides the real environment
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := withTagDefaults()
	cfg.Dir = configDir

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}
	if len(cfg.Indices) == 0 {
		cfg.Indices = DefaultIndices()
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	// Alpaca credentials, same names as the Alpaca SDK
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Credentials.Alpaca.KeyID = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Credentials.Alpaca.SecretKey = v
	}

	if v := os.Getenv("STOCKBAR_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("STOCKBAR_SORT_BY"); v != "" {
		cfg.SortBy = v
	}
	if v := os.Getenv("STOCKBAR_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ShowDebug = b
		}
	}
}

// SessionIcons returns the glyphs the session table draws with.
func (c *Config) SessionIcons() session.Icons {
	return session.Icons{
		Pre:     c.Icons.Pre,
		Regular: c.Icons.Regular,
		Post:    c.Icons.Post,
		Closed:  c.Icons.Closed,
		Up:      c.Icons.Up,
		Down:    c.Icons.Down,
	}
}

// AllSymbols returns every configured symbol once, in config order.
func (c *Config) AllSymbols() []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, cat := range c.Categories {
		for _, s := range cat.Symbols {
			if seen[s.Symbol] {
				continue
			}
			seen[s.Symbol] = true
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols
}

// AlarmFilePath resolves the alarm line file. Without an explicit path the
// file is ".<exe name>.db" next to the executable.
func (c *Config) AlarmFilePath(executable string) string {
	if c.Alarms.File != "" {
		return expandHome(c.Alarms.File)
	}
	exe := executable
	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "."+filepath.Base(exe)+".db")
}

// JournalPath returns the SQLite history path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return expandHome(c.Journal.Path)
	}
	return filepath.Join(c.dir(), "history.db")
}

// LogPath returns the log file path.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	return filepath.Join(c.dir(), "logs", "stockbar.log")
}

func (c *Config) dir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return DefaultConfigDir()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// YAML renders the effective configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	view := *c
	if view.Notifications.Telegram.BotToken != "" {
		view.Notifications.Telegram.BotToken = "********"
	}
	return yaml.Marshal(&view)
}
