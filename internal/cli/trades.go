package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

var flagTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeFlag accepts RFC3339 or a local date with optional minutes.
func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range flagTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use YYYY-MM-DD[ HH:MM] or RFC3339)", s)
}

func optionalFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func optionalTime(cmd *cobra.Command, name string) (*time.Time, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(name)
	t, err := parseTimeFlag(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trades",
		Aliases: []string{"trade", "t"},
		Short:   "Record and review trades",
	}

	cmd.AddCommand(newTradesListCmd(app))
	cmd.AddCommand(newTradesShowCmd(app))
	cmd.AddCommand(newTradesAddCmd(app))
	cmd.AddCommand(newTradesCloseCmd(app))
	return cmd
}

func newTradesListCmd(app *App) *cobra.Command {
	var filter store.TradeFilter
	var open, closed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			svc, err := app.Service()
			if err != nil {
				return err
			}
			if open && closed {
				return fmt.Errorf("--open and --closed are mutually exclusive")
			}
			filter.OpenOnly = open
			filter.ClosedOnly = closed

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			trades, err := svc.ListTrades(ctx, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades found.")
				return nil
			}
			renderTrades(output, trades)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&filter.AccountID, "account", "a", 0, "account ID (0 = all)")
	cmd.Flags().StringVarP(&filter.Symbol, "symbol", "s", "", "filter by symbol")
	cmd.Flags().BoolVar(&open, "open", false, "only open trades")
	cmd.Flags().BoolVar(&closed, "closed", false, "only closed trades")
	cmd.Flags().IntVar(&filter.Offset, "skip", 0, "number of trades to skip")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "maximum number of trades (0 = all)")
	return cmd
}

func renderTrades(output *Output, trades []models.TradeRecord) {
	table := NewTable(output, "ID", "Acct", "Entry", "Symbol", "Side", "Qty", "Entry Px", "Exit Px", "P&L", "Tags")
	for _, t := range trades {
		pnl := output.DimText("open")
		if t.PnL != nil {
			pnl = output.FormatPnL(*t.PnL)
		}
		table.AddRow(
			strconv.FormatInt(t.ID, 10),
			strconv.FormatInt(t.AccountID, 10),
			FormatDateTime(t.EntryAt),
			t.Symbol,
			strings.ToUpper(string(t.Direction)),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			FormatPrice(t.EntryPrice),
			FormatOptionalPrice(t.ExitPrice),
			pnl,
			TruncateString(strings.Join(t.Tags, ","), 24),
		)
	}
	table.Render()
}

func renderTrade(output *Output, t *models.TradeRecord) {
	output.Bold("Trade #%d  %s %s", t.ID, strings.ToUpper(string(t.Direction)), t.Symbol)
	output.Printf("  Account:     %d\n", t.AccountID)
	output.Printf("  Entry:       %s @ %s\n", FormatPrice(t.EntryPrice), FormatDateTime(t.EntryAt))
	output.Printf("  Quantity:    %s (leverage %s)\n",
		strconv.FormatFloat(t.Quantity, 'f', -1, 64), strconv.FormatFloat(t.Leverage, 'f', -1, 64))
	output.Printf("  Stop/Target: %s / %s\n", FormatOptionalPrice(t.StopLoss), FormatOptionalPrice(t.TakeProfit))
	if t.IsClosed() {
		output.Printf("  Exit:        %s @ %s", FormatOptionalPrice(t.ExitPrice), FormatDateTime(*t.ExitAt))
		if t.ExitReason != "" {
			output.Printf(" (%s)", t.ExitReason)
		}
		output.Println()
		output.Printf("  P&L:         %s\n", output.FormatPnL(t.RealizedPnL()))
	} else {
		output.Printf("  Status:      %s\n", output.Yellow("open"))
	}
	if t.SetupName != "" || t.Timeframe != "" {
		output.Printf("  Setup:       %s %s\n", t.SetupName, t.Timeframe)
	}
	if len(t.Tags) > 0 {
		output.Printf("  Tags:        %s\n", strings.Join(t.Tags, ", "))
	}
	if t.Notes != "" {
		output.Printf("  Notes:       %s\n", t.Notes)
	}
}

func newTradesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trade id %q", args[0])
			}
			svc, err := app.Service()
			if err != nil {
				return err
			}
			trade, err := svc.GetTrade(cmd.Context(), id)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}
			renderTrade(output, trade)
			return nil
		},
	}
}

func newTradesAddCmd(app *App) *cobra.Command {
	var (
		in        journal.TradeInput
		tags      []string
		exitPrice float64
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "add <symbol> <long|short> <quantity> <entry-price>",
		Short: "Record a new trade",
		Long: `Record a new trade. Pass --exit to record a trade that is already closed.

Examples:
  journal trades add INFY long 10 1500 -a 1 --stop 1480 --tags breakout
  journal trades add TCS short 5 3500 -a 1 --at "2024-05-02 09:30" --exit 3450`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			in.Symbol = args[0]
			in.Direction = models.Direction(args[1])
			var err error
			if in.Quantity, err = strconv.ParseFloat(args[2], 64); err != nil {
				return fmt.Errorf("invalid quantity %q", args[2])
			}
			if in.EntryPrice, err = strconv.ParseFloat(args[3], 64); err != nil {
				return fmt.Errorf("invalid entry price %q", args[3])
			}
			in.StopLoss = optionalFloat(cmd, "stop")
			in.TakeProfit = optionalFloat(cmd, "target")
			in.RiskAmount = optionalFloat(cmd, "risk")
			in.Tags = tags
			if in.EntryAt, err = optionalTime(cmd, "at"); err != nil {
				return err
			}

			if cmd.Flags().Changed("exit") {
				exitAt, err := optionalTime(cmd, "exit-at")
				if err != nil {
					return err
				}
				in.Exit = &journal.CloseInput{
					ExitPrice:  exitPrice,
					ExitAt:     exitAt,
					ExitReason: reason,
					MAEPrice:   optionalFloat(cmd, "mae"),
					MFEPrice:   optionalFloat(cmd, "mfe"),
				}
			}

			svc, err := app.Service()
			if err != nil {
				return err
			}
			trade, err := svc.CreateTrade(cmd.Context(), in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Recorded trade #%d", trade.ID)
			renderTrade(output, trade)
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64VarP(&in.AccountID, "account", "a", 0, "account ID (required)")
	f.Float64Var(&in.Leverage, "leverage", 1, "leverage multiplier")
	f.Float64Var(&in.Commission, "commission", 0, "total commission for the round trip")
	f.Float64("stop", 0, "stop-loss price")
	f.Float64("target", 0, "take-profit price")
	f.Float64("risk", 0, "explicit risk amount")
	f.String("at", "", "entry time (default: now)")
	f.StringVar(&in.AssetName, "name", "", "asset name")
	f.StringVar(&in.AssetType, "type", "", "asset type")
	f.StringVar(&in.SetupName, "setup", "", "setup name")
	f.StringVar(&in.Timeframe, "timeframe", "", "chart timeframe")
	f.StringVar(&in.Notes, "notes", "", "free-form notes")
	f.StringSliceVar(&tags, "tags", nil, "comma separated tags")
	f.Float64Var(&exitPrice, "exit", 0, "exit price, records the trade as closed")
	f.String("exit-at", "", "exit time (default: now)")
	f.StringVar(&reason, "reason", "", "exit reason")
	f.Float64("mae", 0, "worst price reached while open")
	f.Float64("mfe", 0, "best price reached while open")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newTradesCloseCmd(app *App) *cobra.Command {
	var in journal.CloseInput

	cmd := &cobra.Command{
		Use:   "close <id> <exit-price>",
		Short: "Close an open trade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid trade id %q", args[0])
			}
			if in.ExitPrice, err = strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("invalid exit price %q", args[1])
			}
			if in.ExitAt, err = optionalTime(cmd, "at"); err != nil {
				return err
			}
			in.MAEPrice = optionalFloat(cmd, "mae")
			in.MFEPrice = optionalFloat(cmd, "mfe")

			svc, err := app.Service()
			if err != nil {
				return err
			}
			trade, err := svc.CloseTrade(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Closed trade #%d: %s", trade.ID, output.FormatPnL(trade.RealizedPnL()))
			return nil
		},
	}

	cmd.Flags().String("at", "", "exit time (default: now)")
	cmd.Flags().StringVar(&in.ExitReason, "reason", "", "exit reason")
	cmd.Flags().Float64("mae", 0, "worst price reached while open")
	cmd.Flags().Float64("mfe", 0, "best price reached while open")
	return cmd
}
