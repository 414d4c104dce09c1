package journal

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"trade-journal/internal/models"
)

// exportRow is the flat CSV form of a trade. Optional values are blank
// when absent.
type exportRow struct {
	ID         int64  `csv:"id"`
	AccountID  int64  `csv:"account_id"`
	Symbol     string `csv:"symbol"`
	AssetName  string `csv:"asset_name"`
	Direction  string `csv:"direction"`
	EntryAt    string `csv:"entry_at"`
	ExitAt     string `csv:"exit_at"`
	EntryPrice string `csv:"entry_price"`
	ExitPrice  string `csv:"exit_price"`
	Quantity   string `csv:"quantity"`
	Leverage   string `csv:"leverage"`
	Commission string `csv:"commission"`
	StopLoss   string `csv:"stop_loss"`
	TakeProfit string `csv:"take_profit"`
	RiskAmount string `csv:"risk_amount"`
	PnL        string `csv:"pnl"`
	MAEPrice   string `csv:"mae_price"`
	MFEPrice   string `csv:"mfe_price"`
	SetupName  string `csv:"setup_name"`
	Timeframe  string `csv:"timeframe"`
	ExitReason string `csv:"exit_reason"`
	Tags       string `csv:"tags"`
	Notes      string `csv:"notes"`
}

// WriteTradesCSV writes trades as CSV with a header row. Tags are joined
// with semicolons.
func WriteTradesCSV(w io.Writer, trades []models.TradeRecord) error {
	rows := make([]*exportRow, 0, len(trades))
	for i := range trades {
		t := &trades[i]
		rows = append(rows, &exportRow{
			ID:         t.ID,
			AccountID:  t.AccountID,
			Symbol:     t.Symbol,
			AssetName:  t.AssetName,
			Direction:  string(t.Direction),
			EntryAt:    t.EntryAt.UTC().Format(time.RFC3339),
			ExitAt:     optTime(t.ExitAt),
			EntryPrice: num(t.EntryPrice),
			ExitPrice:  optNum(t.ExitPrice),
			Quantity:   num(t.Quantity),
			Leverage:   num(t.Leverage),
			Commission: num(t.Commission),
			StopLoss:   optNum(t.StopLoss),
			TakeProfit: optNum(t.TakeProfit),
			RiskAmount: optNum(t.RiskAmount),
			PnL:        optNum(t.PnL),
			MAEPrice:   optNum(t.MAEPrice),
			MFEPrice:   optNum(t.MFEPrice),
			SetupName:  t.SetupName,
			Timeframe:  t.Timeframe,
			ExitReason: t.ExitReason,
			Tags:       strings.Join(t.Tags, ";"),
			Notes:      t.Notes,
		})
	}
	return gocsv.Marshal(&rows, w)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
