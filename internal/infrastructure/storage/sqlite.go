package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/edbennett/daytrader/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS models (
			model_id TEXT PRIMARY KEY,
			symbols TEXT NOT NULL,
			threshold_pct REAL NOT NULL,
			feature_order TEXT NOT NULL,
			accuracy REAL NOT NULL,
			balanced_accuracy REAL NOT NULL,
			precision REAL NOT NULL,
			training_set_rows INTEGER NOT NULL,
			artifact_object TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_models_created_at ON models(created_at);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			order_type TEXT NOT NULL,
			entry_price REAL NOT NULL,
			exit_price REAL NOT NULL,
			currency TEXT NOT NULL,
			quantity REAL NOT NULL,
			exchange TEXT,
			broker TEXT NOT NULL,
			paper BOOLEAN NOT NULL,
			live BOOLEAN NOT NULL,
			backtest BOOLEAN NOT NULL DEFAULT 0,
			model_id TEXT,
			placed_at DATETIME NOT NULL,
			accepted_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_bars (
			symbol TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume REAL NOT NULL,
			vwap REAL NOT NULL,
			transactions INTEGER NOT NULL,
			PRIMARY KEY (symbol, timestamp)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// ModelRepository implementation

func (s *SQLiteStore) ActiveModels(ctx context.Context, since time.Time) ([]*domain.ModelRecord, error) {
	query := `SELECT model_id, symbols, threshold_pct, feature_order, accuracy, balanced_accuracy, precision, training_set_rows, artifact_object, created_at
			  FROM models WHERE created_at >= ?`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ModelRecord
	for rows.Next() {
		var r domain.ModelRecord
		var symbols, featureOrder string
		if err := rows.Scan(&r.ModelID, &symbols, &r.ThresholdPct, &featureOrder, &r.Accuracy,
			&r.BalancedAccuracy, &r.Precision, &r.TrainingSetRows, &r.ArtifactObject, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(symbols), &r.Symbols); err != nil {
			return nil, fmt.Errorf("model %s: bad symbols: %w", r.ModelID, err)
		}
		if err := json.Unmarshal([]byte(featureOrder), &r.FeatureOrder); err != nil {
			return nil, fmt.Errorf("model %s: bad feature order: %w", r.ModelID, err)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) UpsertModels(ctx context.Context, records []*domain.ModelRecord) error {
	query := `INSERT INTO models (model_id, symbols, threshold_pct, feature_order, accuracy, balanced_accuracy, precision, training_set_rows, artifact_object, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(model_id) DO UPDATE SET
			  symbols=excluded.symbols,
			  threshold_pct=excluded.threshold_pct,
			  feature_order=excluded.feature_order,
			  accuracy=excluded.accuracy,
			  balanced_accuracy=excluded.balanced_accuracy,
			  precision=excluded.precision,
			  training_set_rows=excluded.training_set_rows,
			  artifact_object=excluded.artifact_object,
			  created_at=excluded.created_at`
	for _, r := range records {
		symbols, err := json.Marshal(r.Symbols)
		if err != nil {
			return err
		}
		featureOrder, err := json.Marshal(r.FeatureOrder)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, query,
			r.ModelID, string(symbols), r.ThresholdPct, string(featureOrder), r.Accuracy,
			r.BalancedAccuracy, r.Precision, r.TrainingSetRows, r.ArtifactObject, r.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// TransactionRepository implementation

func (s *SQLiteStore) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	query := `INSERT INTO transactions (transaction_id, description, ticker, side, order_type, entry_price, exit_price, currency, quantity, exchange, broker, paper, live, backtest, model_id, placed_at, accepted_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, t := range txs {
		var modelID sql.NullString
		if t.ModelID != nil {
			modelID = sql.NullString{String: *t.ModelID, Valid: true}
		}
		if _, err := s.db.ExecContext(ctx, query,
			t.TransactionID, t.Description, t.Ticker, string(t.Side), string(t.OrderType),
			t.EntryPrice, t.ExitPrice, t.Currency, t.Quantity, t.Exchange, t.Broker,
			t.Paper, t.Live, t.Backtest, modelID, t.PlacedAt, t.AcceptedAt, t.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

// BarRepository implementation

func (s *SQLiteStore) UpsertBars(ctx context.Context, bars []domain.Bar) error {
	query := `INSERT INTO daily_bars (symbol, timestamp, open, high, low, close, volume, vwap, transactions)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(symbol, timestamp) DO UPDATE SET
			  open=excluded.open,
			  high=excluded.high,
			  low=excluded.low,
			  close=excluded.close,
			  volume=excluded.volume,
			  vwap=excluded.vwap,
			  transactions=excluded.transactions`

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, b := range bars {
		if _, err := tx.ExecContext(ctx, query,
			b.Symbol, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP, b.Transactions); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) BarsBetween(ctx context.Context, symbols []string, from, to time.Time) ([]domain.Bar, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	query := `SELECT symbol, timestamp, open, high, low, close, volume, vwap, transactions
			  FROM daily_bars WHERE timestamp >= ? AND timestamp <= ? AND symbol IN (?` +
		repeatPlaceholder(len(symbols)-1) + `) ORDER BY symbol, timestamp ASC`

	args := make([]interface{}, 0, len(symbols)+2)
	args = append(args, from, to)
	for _, sym := range symbols {
		args = append(args, sym)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Symbol, &b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close,
			&b.Volume, &b.VWAP, &b.Transactions); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
