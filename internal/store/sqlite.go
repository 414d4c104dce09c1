package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based trade store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		asset_name TEXT NOT NULL DEFAULT '',
		asset_type TEXT NOT NULL DEFAULT '',
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL,
		exit_reason TEXT NOT NULL DEFAULT '',
		quantity REAL NOT NULL,
		leverage REAL NOT NULL DEFAULT 1,
		commission REAL NOT NULL DEFAULT 0,
		stop_loss REAL,
		take_profit REAL,
		risk_amount REAL,
		entry_at TEXT NOT NULL,
		exit_at TEXT,
		pnl REAL,
		mae_price REAL,
		mfe_price REAL,
		setup_name TEXT NOT NULL DEFAULT '',
		timeframe TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id, entry_at);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const tradeColumns = `id, account_id, symbol, asset_name, asset_type, direction, entry_price, exit_price,
	exit_reason, quantity, leverage, commission, stop_loss, take_profit, risk_amount, entry_at, exit_at,
	pnl, mae_price, mfe_price, setup_name, timeframe, notes, tags`

const insertTrade = `
	INSERT INTO trades (account_id, symbol, asset_name, asset_type, direction, entry_price, exit_price,
		exit_reason, quantity, leverage, commission, stop_loss, take_profit, risk_amount, entry_at, exit_at,
		pnl, mae_price, mfe_price, setup_name, timeframe, notes, tags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CreateTrade saves a new trade and sets its ID.
func (s *SQLiteStore) CreateTrade(ctx context.Context, trade *models.TradeRecord) error {
	return insert(ctx, s.db, trade)
}

// CreateTrades saves a batch of trades atomically.
func (s *SQLiteStore) CreateTrades(ctx context.Context, trades []*models.TradeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError("create_batch", 0, err)
	}
	for _, t := range trades {
		if err := insert(ctx, tx, t); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return dbError("create_batch", 0, err)
	}
	return nil
}

func insert(ctx context.Context, db execer, t *models.TradeRecord) error {
	tags, err := json.Marshal(normalizeTags(t.Tags))
	if err != nil {
		return dbError("create", 0, err)
	}

	res, err := db.ExecContext(ctx, insertTrade,
		t.AccountID, t.Symbol, t.AssetName, t.AssetType, string(t.Direction), t.EntryPrice, nullFloat(t.ExitPrice),
		t.ExitReason, t.Quantity, t.Leverage, t.Commission, nullFloat(t.StopLoss), nullFloat(t.TakeProfit),
		nullFloat(t.RiskAmount), formatTime(t.EntryAt), nullTime(t.ExitAt),
		nullFloat(t.PnL), nullFloat(t.MAEPrice), nullFloat(t.MFEPrice), t.SetupName, t.Timeframe, t.Notes, string(tags))
	if err != nil {
		return dbError("create", 0, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return dbError("create", 0, err)
	}
	t.ID = id
	return nil
}

// GetTrade retrieves a trade by ID.
func (s *SQLiteStore) GetTrade(ctx context.Context, id int64) (*models.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tradeColumns+" FROM trades WHERE id = ?", id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDataError("get", id, "no such trade", apperrors.ErrTradeNotFound)
	}
	if err != nil {
		return nil, dbError("get", id, err)
	}
	return t, nil
}

// CloseTrade writes the exit fields of an open trade.
func (s *SQLiteStore) CloseTrade(ctx context.Context, t *models.TradeRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, exit_at = ?, pnl = ?, exit_reason = ?, mae_price = ?, mfe_price = ?
		WHERE id = ? AND exit_at IS NULL
	`, nullFloat(t.ExitPrice), nullTime(t.ExitAt), nullFloat(t.PnL), t.ExitReason,
		nullFloat(t.MAEPrice), nullFloat(t.MFEPrice), t.ID)
	if err != nil {
		return dbError("close", t.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return dbError("close", t.ID, err)
	}
	if affected == 0 {
		// Distinguish a missing trade from a closed one.
		if _, err := s.GetTrade(ctx, t.ID); err != nil {
			return err
		}
		return apperrors.NewDataError("close", t.ID, "trade is not open", apperrors.ErrTradeAlreadyClosed)
	}
	return nil
}

// ListTrades retrieves trades matching the filter, newest entry first.
func (s *SQLiteStore) ListTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.AccountID != 0 {
		query += " AND account_id = ?"
		args = append(args, filter.AccountID)
	}
	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	if filter.ClosedOnly {
		query += " AND exit_at IS NOT NULL"
	}
	if filter.OpenOnly {
		query += " AND exit_at IS NULL"
	}

	query += " ORDER BY entry_at DESC, id DESC"
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("list", 0, err)
	}
	defer rows.Close()

	trades := make([]models.TradeRecord, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, dbError("list", 0, err)
		}
		trades = append(trades, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list", 0, err)
	}
	return trades, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row scanner) (*models.TradeRecord, error) {
	var (
		t                                     models.TradeRecord
		direction, entryAt, tagsJSON          string
		exitAt                                sql.NullString
		exitPrice, stopLoss, takeProfit, risk sql.NullFloat64
		pnl, mae, mfe                         sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.Symbol, &t.AssetName, &t.AssetType, &direction, &t.EntryPrice, &exitPrice,
		&t.ExitReason, &t.Quantity, &t.Leverage, &t.Commission, &stopLoss, &takeProfit, &risk, &entryAt, &exitAt,
		&pnl, &mae, &mfe, &t.SetupName, &t.Timeframe, &t.Notes, &tagsJSON)
	if err != nil {
		return nil, err
	}

	t.Direction = models.Direction(direction)
	if t.EntryAt, err = time.Parse(timeLayout, entryAt); err != nil {
		return nil, fmt.Errorf("parsing entry_at: %w", err)
	}
	if exitAt.Valid {
		ts, err := time.Parse(timeLayout, exitAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing exit_at: %w", err)
		}
		t.ExitAt = &ts
	}
	t.ExitPrice = floatPtr(exitPrice)
	t.StopLoss = floatPtr(stopLoss)
	t.TakeProfit = floatPtr(takeProfit)
	t.RiskAmount = floatPtr(risk)
	t.PnL = floatPtr(pnl)
	t.MAEPrice = floatPtr(mae)
	t.MFEPrice = floatPtr(mfe)

	t.Tags = []string{}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &t, nil
}

func dbError(op string, id int64, err error) error {
	return apperrors.NewDataError(op, id, err.Error(), apperrors.ErrDatabaseError)
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
