package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# stockbar configuration

# Menu bar glyph
menu_icon = "💲"
# Sort order inside each category:
#   name, symbol, market_change_winners, market_change_losers,
#   market_change_volatility, or "" to keep the order below
sort_by = "market_change_winners"
# Show the DEBUG submenu under every symbol
show_debug = false
show_menu_icon = true
# Append the session icon of the first symbol of the first category to the
# menu bar. That symbol must trade in every session for the PRE/POST icon to
# ever show.
show_session_icon = false
# Show the indices below in the menu bar instead of the icon
show_indices = false
# Delay before each quote request
ticker_interval = "1s"
# A note starting with this marker uses the alert notes icon
note_alert_marker = "!"
note_width = 60
debug_wrap_width = 60

[font]
main_family = "Monaco"
main_size = 12
note_family = "Monaco"
note_size = 12

[icons]
notes = "📝"
alert_notes = "❗"
pre = "🌅"
regular = ""
post = "🌛"
closed = "💤"
up = "▲"
down = "▼"

[provider]
# yahoo or alpaca (alpaca reads keys from credentials.toml or APCA_API_* env)
name = "yahoo"
timeout = "15s"
exchange_timezone = "America/New_York"

[alarms]
# Alarm file; empty keeps it next to the executable
file = ""
sound = "Glass"
sound_repeat = 5

[journal]
# Keep a SQLite history of fired alarms
enabled = false
path = ""
recent = 5

[notifications]
dialog = true

[notifications.webhook]
enabled = false
url = ""

[notifications.telegram]
enabled = false
bot_token = ""
chat_id = ""

[[indices]]
symbol = "^GSPC"
label = "🇺🇸 S&P 500"

[[indices]]
symbol = "^DJI"
label = "🇺🇸 DOW 30"

[[indices]]
symbol = "^IXIC"
label = "🇺🇸 NASDAQ"

[[categories]]
name = "Indices"
symbols = [
  { symbol = "^GSPC", note = "" },
  { symbol = "^VIX", note = "" },
]

[[categories]]
name = "Holdings"
symbols = [
  { symbol = "AAPL", note = "" },
  { symbol = "NVDA", note = "" },
]
`

const credentialsTemplate = `# stockbar credentials
# WARNING: Keep this file secure! Do not commit to version control.

[alpaca]
key_id = ""
secret_key = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
