package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/models"
)

func newStatsCmd(app *App) *cobra.Command {
	var (
		accountID int64
		capital   float64
		curve     bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the statistics panel for an account",
		Long: `Compute optimal f, SQN, Z-score, profit factor, R expectancy, recovery
factor, AHPR, MAE/MFE analysis, tag statistics and the equity curve from
the closed trades of an account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.Service()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var startingCapital *float64
			if cmd.Flags().Changed("capital") {
				startingCapital = &capital
			}
			snap, err := svc.Snapshot(ctx, accountID, startingCapital)
			if err != nil {
				return err
			}

			if output.IsStructured() {
				return output.Structured(snap)
			}
			renderSnapshot(output, snap, curve)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&accountID, "account", "a", 0, "account ID (required)")
	cmd.Flags().Float64Var(&capital, "capital", 0, "starting capital for the equity curve")
	cmd.Flags().BoolVar(&curve, "curve", false, "print every equity curve point")
	cmd.Flags().String("format", FormatText, "output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func renderSnapshot(output *Output, s *models.StatsSnapshot, curve bool) {
	output.Bold("Account %d", s.AccountID)
	output.Dim("Computed %s", FormatDateTime(s.ComputedAt))
	output.Println()

	output.Bold("Summary")
	output.Printf("  Closed trades:    %d (%d open)\n", s.TotalTrades, s.OpenTrades)
	output.Printf("  Win rate:         %s (%d winners)\n", FormatPercent(s.WinRate), s.ProfitableTrades)
	output.Printf("  Total P&L:        %s\n", output.FormatPnL(s.TotalPnL))
	output.Printf("  Max drawdown:     %s\n", FormatAmount(s.MaxDrawdown))
	output.Println()

	flag := func(metric string) models.MetricFlag { return s.Flags[metric] }

	output.Bold("Position sizing")
	output.Printf("  Optimal f:        %s\n", output.Flagged(FormatRatio(s.OptimalF), flag(models.MetricOptimalF)))
	if s.OptimalFDetail.Flag == "" {
		output.Printf("  Geometric mean:   %s\n", FormatRatio(s.OptimalFDetail.GeometricMean))
		output.Printf("  TWR:              %s\n", FormatRatio(s.OptimalFDetail.TWR))
	}
	output.Println()

	output.Bold("System quality")
	sqn := FormatRatio(s.SQN.SQN)
	if s.SQN.Flag == "" {
		sqn += " " + output.DimText(s.SQN.Rating)
	}
	output.Printf("  SQN:              %s\n", output.Flagged(sqn, flag(models.MetricSQN)))
	z := FormatRatio(s.ZScore.ZScore)
	if s.ZScore.Flag == "" {
		z += " " + output.DimText(s.ZScore.Verdict)
	}
	output.Printf("  Z-score:          %s\n", output.Flagged(z, flag(models.MetricZScore)))
	output.Printf("  Profit factor:    %s\n", output.Flagged(FormatRatio(s.ProfitFactor), flag(models.MetricProfitFactor)))
	output.Printf("  R expectancy:     %s\n", output.Flagged(FormatRatio(s.RExpectancy), flag(models.MetricRExpectancy)))
	output.Printf("  Recovery factor:  %s\n", output.Flagged(FormatRatio(s.RecoveryFactor), flag(models.MetricRecoveryFactor)))
	output.Printf("  AHPR:             %s\n", output.Flagged(fmt.Sprintf("%.4f", s.AHPR), flag(models.MetricAHPR)))
	output.Println()

	output.Bold("Excursions")
	ex := s.MAEMFEAnalysis
	output.Printf("  Avg MAE / risk:   %s\n", output.Flagged(FormatRatio(ex.AvgMAERatio), flag(models.MetricMAEMFE)))
	output.Printf("  Avg MFE / risk:   %s\n", output.Flagged(FormatRatio(ex.AvgMFERatio), flag(models.MetricMAEMFE)))
	output.Println()

	if len(s.TagStats) > 0 {
		output.Bold("Tags")
		table := NewTable(output, "Tag", "Trades", "Win rate", "P&L")
		for _, ts := range s.TagStats {
			table.AddRow(
				TruncateString(ts.Tag, 24),
				fmt.Sprintf("%d", ts.Count),
				FormatPercent(ts.WinRate),
				output.FormatPnL(ts.PnL),
			)
		}
		table.Render()
		output.Println()
	}

	if len(s.EquityCurve) > 0 {
		output.Bold("Equity curve")
		last := s.EquityCurve[len(s.EquityCurve)-1]
		if curve {
			table := NewTable(output, "Date", "Balance")
			for _, p := range s.EquityCurve {
				table.AddRow(FormatDate(p.Date), FormatAmount(p.Balance))
			}
			table.Render()
		} else {
			output.Printf("  %d points, final balance %s on %s\n",
				len(s.EquityCurve), FormatAmount(last.Balance), FormatDate(last.Date))
		}
		output.Println()
	}

	if len(s.Recommendations) > 0 {
		output.Bold("Recommendations")
		for _, r := range s.Recommendations {
			output.Printf("  - %s\n", strings.TrimSpace(r))
		}
	}
}
