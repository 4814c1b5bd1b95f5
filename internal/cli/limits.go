package cli

import (
	"context"
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"stockbar/internal/alarm"
	apperrors "stockbar/internal/errors"
	"stockbar/internal/models"
)

const (
	kindPrompt   = "Select the type of your limit: BUY (SELL) limits are triggered, when the price is lower (higher) than the limit."
	symbolPrompt = "Select stock symbol:"
)

func newSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Set new price limits through dialogs",
		Long: `Ask for a limit type, a symbol and a price, then append the limit to
the alarm file. Repeats until the "add another" question is declined.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.setLimits(cmd.Context())
			if apperrors.Is(err, apperrors.ErrCancelled) {
				app.Logger.Debug().Msg("Set cancelled")
				return nil
			}
			return err
		},
	}
}

// setLimits runs the dialog loop. It returns ErrCancelled when any dialog is
// dismissed, and stops without error after an invalid price was reported.
func (app *App) setLimits(ctx context.Context) error {
	store := app.alarmStore()

	for {
		kind, ok := app.Dialogs.Choose(kindPrompt, []string{string(models.AlarmBuy), string(models.AlarmSell)})
		if !ok {
			return apperrors.ErrCancelled
		}

		symbol, ok := app.Dialogs.Choose(symbolPrompt, app.Config.AllSymbols())
		if !ok {
			return apperrors.ErrCancelled
		}

		q, err := app.fetchOne(ctx, symbol)
		if err != nil {
			app.alertFetchFailure(err)
			return err
		}

		current := strconv.FormatFloat(q.CurrentPrice.Raw, 'f', -1, 64)
		price, ok := app.Dialogs.Prompt("Current price of " + symbol + " is " + current + ". Enter a value for your price limit.")
		if !ok {
			return apperrors.ErrCancelled
		}

		if err := alarm.ValidatePrice(price); err != nil {
			app.Logger.Warn().Err(err).Msg("Rejected price limit")
			rule := err.Error()
			var verr *apperrors.ValidationError
			if errors.As(err, &verr) {
				rule = verr.Message
			}
			app.Dialogs.Alert("Error", "You entered an invalid value: "+price+" - "+rule+"!")
			return nil
		}

		if err := store.Add(models.AlarmKind(kind), symbol, price); err != nil {
			return err
		}
		app.Logger.Info().
			Str("kind", kind).
			Str("symbol", symbol).
			Str("price", price).
			Msg("Price limit added")

		if !app.Dialogs.Confirm("Question", "Do you want to add another price limit?", [2]string{"No", "Yes"}) {
			return nil
		}
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all price limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Dialogs.Confirm("Warning", "This will clear your price limits! Do you want to continue?", [2]string{"Cancel", "OK"}) {
				return nil
			}
			if err := app.alarmStore().Clear(); err != nil {
				return err
			}
			app.Logger.Info().Msg("Price limits cleared")
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <line>",
		Short: "Remove a price limit",
		Long: `Remove every limit whose record equals <line> exactly, e.g.

  stockbar remove "BUY AAPL 150.00"

Removing a limit that is not there is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.alarmStore().Remove(args[0]); err != nil {
				return err
			}
			app.Logger.Info().Str("record", args[0]).Msg("Price limit removed")
			return nil
		},
	}
}
