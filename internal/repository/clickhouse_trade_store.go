package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	ch "TraderMind/pkg/clickhouse"
	"TraderMind/pkg/logger"
)

// ClickHouseTradeStore persists trade records in ClickHouse. Records are
// append-only; rows are never mutated after insert.
type ClickHouseTradeStore struct {
	client *ch.Client
	logger *logger.Logger
	db     string
}

// NewClickHouseTradeStore creates a trade store on an existing client.
func NewClickHouseTradeStore(client *ch.Client, lgr *logger.Logger, database string) *ClickHouseTradeStore {
	if database == "" {
		database = "tradermind"
	}
	return &ClickHouseTradeStore{client: client, logger: lgr, db: database}
}

var _ drepo.TradeStore = (*ClickHouseTradeStore)(nil)

// Init ensures the database and trade_records table exist.
func (s *ClickHouseTradeStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trade_records (
			id String,
			session_id String,
			created_at DateTime64(3),
			status String,
			result String,
			profit Float64,
			metadata String
		) ENGINE = MergeTree
		ORDER BY (session_id, created_at, id)`, s.db),
	}
	return s.client.InitSchema(ctx, stmts)
}

// Append writes one trade record.
func (s *ClickHouseTradeStore) Append(ctx context.Context, rec *models.TradeRecord) error {
	meta := rec.Metadata
	if meta == nil {
		meta = json.RawMessage("{}")
	}
	q := fmt.Sprintf(`INSERT INTO %s.trade_records
		(id, session_id, created_at, status, result, profit, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.db)
	if _, err := s.client.DB().ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.CreatedAt, rec.Status, rec.Result, rec.Profit, string(meta),
	); err != nil {
		return fmt.Errorf("append trade record: %w", err)
	}
	return nil
}

// ListBySession returns all trade records for a session in insertion
// order as stored. Callers needing chronological order sort themselves.
func (s *ClickHouseTradeStore) ListBySession(ctx context.Context, sessionID string) ([]models.TradeRecord, error) {
	q := fmt.Sprintf(`SELECT id, session_id, created_at, status, result, profit, metadata
		FROM %s.trade_records WHERE session_id = ?`, s.db)
	rows, err := s.client.DB().QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list trade records: %w", err)
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var rec models.TradeRecord
		var meta string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.CreatedAt, &rec.Status, &rec.Result, &rec.Profit, &meta); err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		rec.Metadata = json.RawMessage(meta)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return out, nil
}

// Health reports store availability.
func (s *ClickHouseTradeStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close closes the underlying client.
func (s *ClickHouseTradeStore) Close() error {
	return s.client.Close()
}
