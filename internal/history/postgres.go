package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("history: pool not configured")

const (
	createSchemaSQL = `CREATE TABLE IF NOT EXISTS conversion_records (
        id               UUID PRIMARY KEY,
        original_price   TEXT NOT NULL,
        converted_amount TEXT NOT NULL,
        foreign_currency TEXT NOT NULL,
        local_currency   TEXT NOT NULL,
        exchange_rate    TEXT NOT NULL,
        recorded_at      TIMESTAMPTZ NOT NULL
    );`

	insertRecordSQL = `INSERT INTO conversion_records (
        id,
        original_price,
        converted_amount,
        foreign_currency,
        local_currency,
        exchange_rate,
        recorded_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7);`

	pruneRecordsSQL = `DELETE FROM conversion_records
    WHERE id NOT IN (
        SELECT id FROM conversion_records
        ORDER BY recorded_at DESC
        LIMIT $1
    );`

	listRecordsSQL = `SELECT
        id,
        original_price,
        converted_amount,
        foreign_currency,
        local_currency,
        exchange_rate,
        recorded_at
    FROM conversion_records
    ORDER BY recorded_at DESC
    LIMIT $1;`

	clearRecordsSQL = `DELETE FROM conversion_records;`
)

// PoolOptions configure PostgreSQL connectivity.
type PoolOptions struct {
	DSN             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.ConnMaxLifetime
	}

	return pgxpool.NewWithConfig(ctx, poolConfig)
}

// PostgresStore keeps conversion history in PostgreSQL under the same
// contract as FileStore. Meant for shared deployments where several
// scanners report into one history.
type PostgresStore struct {
	pool       *pgxpool.Pool
	maxRecords int
	logger     zerolog.Logger
}

// NewPostgresStore wires a pgx pool into a store and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, maxRecords int, logger zerolog.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}
	if maxRecords <= 0 {
		maxRecords = MaxRecords
	}

	if _, err := pool.Exec(ctx, createSchemaSQL); err != nil {
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return &PostgresStore{
		pool:       pool,
		maxRecords: maxRecords,
		logger:     logger.With().Str("component", "history_postgres").Logger(),
	}, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// AddRecord inserts a record and prunes past the retention cap in a single
// transaction, so concurrent writers never observe an interleaved state.
func (s *PostgresStore) AddRecord(ctx context.Context, record ConversionRecord) error {
	if s.pool == nil {
		return ErrNotConfigured
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertRecordSQL,
		record.ID,
		record.OriginalPrice.String(),
		record.ConvertedAmount.String(),
		record.ForeignCurrency,
		record.LocalCurrency,
		record.ExchangeRate.String(),
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert conversion record: %w", err)
	}

	if _, err := tx.Exec(ctx, pruneRecordsSQL, s.maxRecords); err != nil {
		return fmt.Errorf("prune conversion records: %w", err)
	}

	return tx.Commit(ctx)
}

// LoadHistory lists the retained records, newest first.
func (s *PostgresStore) LoadHistory(ctx context.Context) ([]ConversionRecord, error) {
	if s.pool == nil {
		return nil, ErrNotConfigured
	}

	rows, err := s.pool.Query(ctx, listRecordsSQL, s.maxRecords)
	if err != nil {
		return nil, fmt.Errorf("list conversion records: %w", err)
	}
	defer rows.Close()

	records := make([]ConversionRecord, 0, s.maxRecords)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// ClearHistory removes every record.
func (s *PostgresStore) ClearHistory(ctx context.Context) error {
	if s.pool == nil {
		return ErrNotConfigured
	}
	if _, err := s.pool.Exec(ctx, clearRecordsSQL); err != nil {
		return fmt.Errorf("clear conversion records: %w", err)
	}
	return nil
}

func scanRecord(rows pgx.Rows) (ConversionRecord, error) {
	var (
		id          uuid.UUID
		originalStr string
		amountStr   string
		foreign     string
		local       string
		rateStr     string
		recordedAt  time.Time
	)

	if err := rows.Scan(&id, &originalStr, &amountStr, &foreign, &local, &rateStr, &recordedAt); err != nil {
		return ConversionRecord{}, err
	}

	original, err := decimal.NewFromString(originalStr)
	if err != nil {
		return ConversionRecord{}, fmt.Errorf("parse original price: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return ConversionRecord{}, fmt.Errorf("parse converted amount: %w", err)
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return ConversionRecord{}, fmt.Errorf("parse exchange rate: %w", err)
	}

	return ConversionRecord{
		ID:              id,
		OriginalPrice:   original,
		ConvertedAmount: amount,
		ForeignCurrency: foreign,
		LocalCurrency:   local,
		ExchangeRate:    rate,
		Timestamp:       recordedAt,
	}, nil
}

var _ Store = (*PostgresStore)(nil)
