package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"stockbar/internal/session"
	"stockbar/pkg/treefmt"
)

func newQuoteCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Fetch and show one quote",
		Long: `Fetch a single symbol the same way the menu does and print it.

With --raw the provider payload is printed as JSON. Otherwise the normalized
quote is shown as the debug tree used in the menu, or as JSON with --json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := strings.ToUpper(args[0])

			q, err := app.fetchOne(cmd.Context(), symbol)
			if err != nil {
				return err
			}

			if raw {
				data, err := json.Marshal(q.Raw)
				if err != nil {
					return err
				}
				return output.RawJSON(data)
			}
			if output.IsJSON() {
				return output.JSON(q.Fields())
			}

			s := session.Effective(q)
			output.Bold("%s  %s", q.Symbol, q.ShortName)
			output.Printf("%s %s (%s)  market %s\n",
				q.CurrentPrice.Fmt, q.Currency, session.ChangePercent(q, s).Fmt, s)
			output.Println()

			opts := treefmt.DefaultOptions()
			opts.Base = ""
			opts.Step = "  "
			output.Println(treefmt.String(q.Fields(), opts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the provider payload as JSON")
	return cmd
}
