package cli

import (
	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			workflows := []struct {
				title string
				lines []string
			}{
				{
					title: "Record a trade and close it later",
					lines: []string{
						"journal trades add INFY long 10 1500 -a 1 --stop 1480 --tags breakout",
						"journal trades list -a 1 --open",
						"journal trades close 42 1550 --reason target --mae 1490 --mfe 1560",
					},
				},
				{
					title: "Import a broker file and review the statistics",
					lines: []string{
						"journal import executions.csv -a 1 --source zerodha",
						"journal stats -a 1 --capital 100000",
						"journal stats -a 1 --format yaml",
					},
				},
				{
					title: "Back up an account",
					lines: []string{
						"journal export -a 1 -o trades.csv",
					},
				},
				{
					title: "Run the HTTP API",
					lines: []string{
						"journal serve --addr :8080",
						"curl 'localhost:8080/stats?account_id=1'",
					},
				},
			}

			for _, w := range workflows {
				output.Bold(w.title)
				for _, l := range w.lines {
					output.Printf("  $ %s\n", l)
				}
				output.Println()
			}
			output.Dim("Configuration lives in %s", "~/.config/trade-journal/config.toml")
			return nil
		},
	}
}
