package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		accountID int64
		source    string
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import broker executions as trades",
		Long: `Import an execution CSV. Fills are matched per symbol with average cost;
flat round trips become closed trades and remaining positions open trades.
Every imported trade is tagged "Imported". Use "-" to read stdin.

Required columns: executed_at, symbol, side, quantity, price.
Optional columns: commission, asset_name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			svc, err := app.Service()
			if err != nil {
				return err
			}
			res, err := svc.Import(cmd.Context(), accountID, r, source)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("Imported %d trades (%d closed, %d open) in batch %s",
				res.Imported(), res.Closed, res.Open, res.BatchID)
			if res.Skipped > 0 {
				output.Warning("Skipped %d rows:", res.Skipped)
				for _, w := range res.Warnings {
					output.Dim("  %s", w)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&accountID, "account", "a", 0, "account ID (required)")
	cmd.Flags().StringVar(&source, "source", "csv", "name of the broker or file source")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		accountID int64
		out       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an account's trades as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Service()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			n, err := svc.Export(cmd.Context(), accountID, w)
			if err != nil {
				return err
			}
			if out != "" && out != "-" {
				app.Logger.Info().Int("trades", n).Str("file", out).Msg("Export written")
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d trades to %s\n", n, out)
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&accountID, "account", "a", 0, "account ID (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
