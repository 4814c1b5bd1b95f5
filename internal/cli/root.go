// Package cli provides the command-line interface of the menu-bar plugin.
//
// Run without arguments the binary prints the xbar/SwiftBar menu. The menu
// items re-run it with param1/param2, which land on the set, clear and
// remove subcommands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stockbar/internal/alarm"
	"stockbar/internal/config"
	"stockbar/internal/logging"
	"stockbar/internal/notify"
	"stockbar/internal/provider"
	"stockbar/internal/store"
)

// Version information
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies. Zero fields are filled in before
// each command runs; tests set them up front.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// Executable is the path menu actions re-run.
	Executable string

	Runner  notify.Runner
	Dialogs notify.Dialogs

	// NewProvider builds the quote source.
	NewProvider func(cfg *config.Config, logger zerolog.Logger) (provider.Provider, error)
	// OpenJournal opens the fired-alarm history.
	OpenJournal func(path string) (store.Journal, error)
}

// NewApp returns an App wired to the real providers, dialogs and journal.
func NewApp() *App {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return &App{
		Executable:  exe,
		NewProvider: provider.New,
		OpenJournal: func(path string) (store.Journal, error) {
			return store.NewSQLiteJournal(path)
		},
	}
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stockbar",
		Short: "Stock watchlist for the macOS menu bar",
		Long: `stockbar renders a stock watchlist as an xbar/SwiftBar plugin.

Symbols are grouped in categories from config.toml and may carry notes.
BUY/SELL price limits are kept in a line file next to the executable and
fire a notification once the price crosses them.

Run without arguments to print the menu.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.render(cmd.Context(), cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stockbar)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().Bool("json", false, "print command output as JSON (history, quote, config path, version)")

	rootCmd.AddCommand(newSetCmd(app))
	rootCmd.AddCommand(newClearCmd(app))
	rootCmd.AddCommand(newRemoveCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads the configuration and builds the logger unless they were
// provided.
func (app *App) setup(cmd *cobra.Command) error {
	debug, _ := cmd.Flags().GetBool("debug")

	if app.Config == nil {
		configDir, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}
		app.Config = cfg

		logCfg := logging.DefaultLogConfig()
		logCfg.Level = cfg.Log.Level
		logCfg.FilePath = cfg.LogPath()
		logCfg.Console = debug
		app.Logger = logging.NewLoggerWithConfig(logCfg)
	}

	if debug {
		logging.SetDebugLevel()
		app.Logger = app.Logger.Level(zerolog.DebugLevel)
	}

	if app.Runner == nil {
		app.Runner = notify.ExecRunner{}
	}
	if app.Dialogs == nil {
		app.Dialogs = notify.NewOSAScriptDialogs(cmd.Context(), app.Runner)
	}
	if app.NewProvider == nil {
		app.NewProvider = provider.New
	}

	app.Logger = logging.WithOperation(app.Logger, cmd.Name())
	app.Logger.Debug().
		Str("provider", app.Config.Provider.Name).
		Msg("Command starting")
	return nil
}

func (app *App) alarmStore() *alarm.FileStore {
	return alarm.NewFileStore(app.Config.AlarmFilePath(app.Executable), app.Logger)
}

// journal opens the history when it is enabled. A nil journal with a nil
// error means history is off.
func (app *App) journal() (store.Journal, error) {
	if !app.Config.Journal.Enabled || app.OpenJournal == nil {
		return nil, nil
	}
	j, err := app.OpenJournal(app.Config.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("opening alarm history: %w", err)
	}
	return j, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"version": Version, "build_date": BuildDate})
			}
			output.Printf("stockbar v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and check the plugin configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := app.Config.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration and data file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir := app.Config.Dir
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			paths := struct {
				Config  string `json:"config"`
				Alarms  string `json:"alarms"`
				History string `json:"history"`
				Log     string `json:"log"`
			}{dir, app.alarmStore().Path(), app.Config.JournalPath(), app.Config.LogPath()}

			if output.IsJSON() {
				return output.JSON(paths)
			}
			output.Printf("Config:  %s\n", paths.Config)
			output.Printf("Alarms:  %s\n", paths.Alarms)
			output.Printf("History: %s\n", paths.History)
			output.Printf("Log:     %s\n", paths.Log)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("✗ %v", err)
				return err
			}
			output.Success("✓ Configuration is valid (%d categories, %d symbols)",
				len(app.Config.Categories), len(app.Config.AllSymbols()))
			return nil
		},
	})

	return cmd
}
