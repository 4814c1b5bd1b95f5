package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"stockbar/internal/models"
	"stockbar/internal/store"
	"stockbar/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		limit  int
		symbol string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show alarms that fired",
		Long:  "List fired price alarms from the history database, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			journal, err := app.journal()
			if err != nil {
				return err
			}
			if journal == nil {
				output.Warning("Alarm history is disabled. Set [journal] enabled = true in config.toml.")
				return nil
			}
			defer journal.Close()

			filter := store.FiredFilter{Symbol: symbol, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			fired, err := queryFired(cmd, journal, filter)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if fired == nil {
					fired = []models.FiredAlarm{}
				}
				return output.JSON(fired)
			}

			if len(fired) == 0 {
				output.Info("No alarms fired yet.")
				return nil
			}

			table := NewTable(output, "Time", "Kind", "Symbol", "Limit", "Price")
			for _, f := range fired {
				table.AddRow(
					f.FiredAt.Local().Format("2006-01-02 15:04:05"),
					output.Kind(string(f.Kind)),
					f.Symbol,
					f.Threshold,
					utils.FormatPrice(f.Price),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of rows")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "only show this symbol")
	cmd.Flags().DurationVar(&since, "since", 0, "only show alarms newer than this, e.g. 72h")

	return cmd
}

// filteredJournal is implemented by journals that support filtered queries.
type filteredJournal interface {
	Fired(ctx context.Context, filter store.FiredFilter) ([]models.FiredAlarm, error)
}

func queryFired(cmd *cobra.Command, journal store.Journal, filter store.FiredFilter) ([]models.FiredAlarm, error) {
	if fj, ok := journal.(filteredJournal); ok {
		return fj.Fired(cmd.Context(), filter)
	}
	return journal.RecentFired(cmd.Context(), filter.Limit)
}
