// internal/storage/strategy/postgres.go
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/newthinker/ats/internal/core"
)

// Schema creates the strategies table.
const Schema = `
CREATE TABLE IF NOT EXISTS strategies (
	id            SERIAL PRIMARY KEY,
	symbol        TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL DEFAULT '',
	description   TEXT,
	instrument    TEXT NOT NULL,
	exchange      TEXT NOT NULL DEFAULT '',
	currency      TEXT NOT NULL DEFAULT '',
	target_weight NUMERIC NOT NULL,
	min_weight    NUMERIC NOT NULL,
	max_weight    NUMERIC NOT NULL,
	created_at    TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
)`

const selectColumns = `
	symbol, name, COALESCE(description, ''), instrument, exchange, currency,
	target_weight, min_weight, max_weight`

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore implements Store on the strategies table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a store on an open pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the strategies table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create strategies table: %w", err)
	}
	return nil
}

func scanConfig(row pgx.Row) (core.StrategyConfig, error) {
	var cfg core.StrategyConfig
	err := row.Scan(
		&cfg.StrategySymbol,
		&cfg.Name,
		&cfg.Description,
		&cfg.InstrumentSymbol,
		&cfg.Exchange,
		&cfg.Currency,
		&cfg.TargetWeight,
		&cfg.MinWeight,
		&cfg.MaxWeight,
	)
	return cfg, err
}

// Get retrieves a configuration by strategy symbol.
func (s *PostgresStore) Get(ctx context.Context, strategySymbol string) (core.StrategyConfig, error) {
	query := `SELECT` + selectColumns + ` FROM strategies WHERE symbol = $1`

	cfg, err := scanConfig(s.db.QueryRow(ctx, query, strategySymbol))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.StrategyConfig{}, core.WrapError(core.ErrConfigNotFound,
				fmt.Errorf("strategy %s", strategySymbol))
		}
		return core.StrategyConfig{}, fmt.Errorf("query strategy: %w", err)
	}
	return cfg, nil
}

// List returns all configurations sorted by strategy symbol.
func (s *PostgresStore) List(ctx context.Context) ([]core.StrategyConfig, error) {
	query := `SELECT` + selectColumns + ` FROM strategies ORDER BY symbol`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query strategies: %w", err)
	}
	defer rows.Close()

	var configs []core.StrategyConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return configs, nil
}

// Put inserts or replaces a configuration.
func (s *PostgresStore) Put(ctx context.Context, cfg core.StrategyConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO strategies (
			symbol, name, description, instrument, exchange, currency,
			target_weight, min_weight, max_weight
		) VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			instrument = EXCLUDED.instrument,
			exchange = EXCLUDED.exchange,
			currency = EXCLUDED.currency,
			target_weight = EXCLUDED.target_weight,
			min_weight = EXCLUDED.min_weight,
			max_weight = EXCLUDED.max_weight,
			updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.Exec(ctx, query,
		cfg.StrategySymbol,
		cfg.Name,
		cfg.Description,
		cfg.InstrumentSymbol,
		cfg.Exchange,
		cfg.Currency,
		cfg.TargetWeight,
		cfg.MinWeight,
		cfg.MaxWeight,
	)
	if err != nil {
		return fmt.Errorf("upsert strategy %s: %w", cfg.StrategySymbol, err)
	}
	return nil
}

// Delete removes a configuration.
func (s *PostgresStore) Delete(ctx context.Context, strategySymbol string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM strategies WHERE symbol = $1`, strategySymbol)
	if err != nil {
		return fmt.Errorf("delete strategy %s: %w", strategySymbol, err)
	}
	if tag.RowsAffected() == 0 {
		return core.WrapError(core.ErrConfigNotFound, fmt.Errorf("strategy %s", strategySymbol))
	}
	return nil
}
