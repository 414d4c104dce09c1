package journal

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// ImportedTag marks every trade created from an execution file.
const ImportedTag = "Imported"

var requiredColumns = []string{"executed_at", "symbol", "side", "quantity", "price"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04:05",
}

// executionRow is one fill in a broker execution export.
type executionRow struct {
	ExecutedAt string `csv:"executed_at"`
	Symbol     string `csv:"symbol"`
	Side       string `csv:"side"`
	Quantity   string `csv:"quantity"`
	Price      string `csv:"price"`
	Commission string `csv:"commission"`
	AssetName  string `csv:"asset_name"`
}

// Execution is a parsed fill.
type Execution struct {
	Line       int
	ExecutedAt time.Time
	Symbol     string
	Buy        bool
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	AssetName  string
}

// ImportResult summarizes a conversion of executions into trades.
type ImportResult struct {
	BatchID  string               `json:"batch_id"`
	Source   string               `json:"source"`
	Closed   int                  `json:"closed"`
	Open     int                  `json:"open"`
	Skipped  int                  `json:"skipped"`
	Warnings []string             `json:"warnings"`
	Trades   []models.TradeRecord `json:"trades"`
}

// Imported returns the number of trades produced.
func (r *ImportResult) Imported() int {
	return r.Closed + r.Open
}

// ParseExecutions reads an execution CSV. Rows with an unrecognized side or
// unparseable values are skipped and reported as warnings; a missing
// required column fails the whole file with ErrImportFormat.
func ParseExecutions(r io.Reader, source string) ([]Execution, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, apperrors.NewImportError(source, 0, "reading input", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, apperrors.NewImportError(source, 0, "empty file", apperrors.ErrImportFormat)
	}
	if err := checkHeader(data, source); err != nil {
		return nil, nil, err
	}

	var rows []*executionRow
	if err := gocsv.Unmarshal(bytes.NewReader(data), &rows); err != nil {
		return nil, nil, apperrors.NewImportError(source, 0, err.Error(), apperrors.ErrImportFormat)
	}

	execs := make([]Execution, 0, len(rows))
	var warnings []string
	for i, row := range rows {
		line := i + 2 // header is line 1
		exec, err := parseRow(row, line)
		if err != nil {
			warnings = append(warnings, apperrors.NewImportError(source, line, err.Error(), nil).Error())
			continue
		}
		execs = append(execs, exec)
	}
	return execs, warnings, nil
}

func checkHeader(data []byte, source string) error {
	header, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	cols := make(map[string]bool)
	for _, c := range strings.Split(strings.TrimSpace(header), ",") {
		cols[strings.ToLower(strings.Trim(strings.TrimSpace(c), `"`))] = true
	}
	for _, req := range requiredColumns {
		if !cols[req] {
			return apperrors.NewImportError(source, 1, "missing column "+req, apperrors.ErrImportFormat)
		}
	}
	return nil
}

func parseRow(row *executionRow, line int) (Execution, error) {
	exec := Execution{
		Line:      line,
		Symbol:    strings.ToUpper(strings.TrimSpace(row.Symbol)),
		AssetName: strings.TrimSpace(row.AssetName),
	}
	if exec.Symbol == "" {
		return exec, fmt.Errorf("missing symbol")
	}

	side := strings.ToLower(strings.TrimSpace(row.Side))
	switch {
	case strings.Contains(side, "buy") || strings.Contains(side, "long"):
		exec.Buy = true
	case strings.Contains(side, "sell") || strings.Contains(side, "short"):
		exec.Buy = false
	default:
		return exec, fmt.Errorf("unrecognized side %q", row.Side)
	}

	ts, err := parseTime(row.ExecutedAt)
	if err != nil {
		return exec, err
	}
	exec.ExecutedAt = ts

	if exec.Quantity, err = parseDecimal("quantity", row.Quantity); err != nil {
		return exec, err
	}
	exec.Quantity = exec.Quantity.Abs()
	if exec.Quantity.IsZero() {
		return exec, fmt.Errorf("zero quantity")
	}
	if exec.Price, err = parseDecimal("price", row.Price); err != nil {
		return exec, err
	}
	if !exec.Price.IsPositive() {
		return exec, fmt.Errorf("price must be positive")
	}
	exec.Commission = decimal.Zero
	if strings.TrimSpace(row.Commission) != "" {
		if exec.Commission, err = parseDecimal("commission", row.Commission); err != nil {
			return exec, err
		}
		exec.Commission = exec.Commission.Abs()
	}
	return exec, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, raw)
	}
	return d, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid executed_at %q", raw)
}

// position is the running inventory of one symbol. qty is signed:
// positive long, negative short.
type position struct {
	qty      decimal.Decimal
	avgPrice decimal.Decimal
	openedAt time.Time
	asset    string

	// commission paid by the opening fills still held, charged pro rata
	// as the position is closed.
	commission decimal.Decimal
}

// MatchExecutions converts fills into trades using average-cost matching.
// Fills are processed in time order. Adding to a position re-averages its
// entry price; an opposite fill closes up to the position size and yields a
// closed trade, and any remainder opens a position the other way. Whatever
// is still held at the end becomes an open trade.
func MatchExecutions(accountID int64, execs []Execution, source string) []models.TradeRecord {
	sorted := make([]Execution, len(execs))
	copy(sorted, execs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExecutedAt.Before(sorted[j].ExecutedAt)
	})

	tags := NormalizeTags([]string{ImportedTag, source})
	positions := make(map[string]*position)
	var trades []models.TradeRecord

	for _, ex := range sorted {
		pos, ok := positions[ex.Symbol]
		if !ok {
			pos = &position{qty: decimal.Zero, avgPrice: decimal.Zero, commission: decimal.Zero}
			positions[ex.Symbol] = pos
		}
		if ex.AssetName != "" {
			pos.asset = ex.AssetName
		}

		signed := ex.Quantity
		if !ex.Buy {
			signed = signed.Neg()
		}

		if pos.qty.IsZero() || pos.qty.Sign() == signed.Sign() {
			if pos.qty.IsZero() {
				pos.openedAt = ex.ExecutedAt
			}
			held := pos.qty.Abs()
			pos.avgPrice = held.Mul(pos.avgPrice).
				Add(ex.Quantity.Mul(ex.Price)).
				Div(held.Add(ex.Quantity))
			pos.qty = pos.qty.Add(signed)
			pos.commission = pos.commission.Add(ex.Commission)
			continue
		}

		held := pos.qty.Abs()
		closeQty := decimal.Min(held, ex.Quantity)
		exitCommission := ex.Commission.Mul(closeQty).Div(ex.Quantity)
		entryCommission := pos.commission.Mul(closeQty).Div(held)
		pos.commission = pos.commission.Sub(entryCommission)
		commission := entryCommission.Add(exitCommission)
		direction := models.DirectionLong
		gross := ex.Price.Sub(pos.avgPrice).Mul(closeQty)
		if pos.qty.IsNegative() {
			direction = models.DirectionShort
			gross = gross.Neg()
		}
		pnl := gross.Sub(commission).InexactFloat64()
		exitAt := ex.ExecutedAt

		trades = append(trades, models.TradeRecord{
			AccountID:  accountID,
			Symbol:     ex.Symbol,
			AssetName:  pos.asset,
			Direction:  direction,
			EntryPrice: pos.avgPrice.InexactFloat64(),
			ExitPrice:  models.Float(ex.Price.InexactFloat64()),
			Quantity:   closeQty.InexactFloat64(),
			Leverage:   1,
			Commission: commission.InexactFloat64(),
			EntryAt:    pos.openedAt,
			ExitAt:     &exitAt,
			PnL:        &pnl,
			Tags:       append([]string(nil), tags...),
		})

		if pos.qty.IsPositive() {
			pos.qty = pos.qty.Sub(closeQty)
		} else {
			pos.qty = pos.qty.Add(closeQty)
		}
		if pos.qty.IsZero() {
			pos.commission = decimal.Zero
		}

		if remainder := ex.Quantity.Sub(closeQty); remainder.IsPositive() {
			pos.qty = remainder
			if !ex.Buy {
				pos.qty = remainder.Neg()
			}
			pos.avgPrice = ex.Price
			pos.openedAt = ex.ExecutedAt
			pos.commission = ex.Commission.Sub(exitCommission)
		}
	}

	symbols := make([]string, 0, len(positions))
	for sym, pos := range positions {
		if !pos.qty.IsZero() {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		pos := positions[sym]
		direction := models.DirectionLong
		if pos.qty.IsNegative() {
			direction = models.DirectionShort
		}
		trades = append(trades, models.TradeRecord{
			AccountID:  accountID,
			Symbol:     sym,
			AssetName:  pos.asset,
			Direction:  direction,
			EntryPrice: pos.avgPrice.InexactFloat64(),
			Quantity:   pos.qty.Abs().InexactFloat64(),
			Leverage:   1,
			Commission: pos.commission.InexactFloat64(),
			EntryAt:    pos.openedAt,
			Tags:       append([]string(nil), tags...),
		})
	}
	return trades
}
