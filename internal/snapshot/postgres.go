package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// Querier is the subset of *pgxpool.Pool used by PostgresSource
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the snapshot table written by the ingestion side
const Schema = `
	CREATE SCHEMA IF NOT EXISTS data;
	CREATE TABLE IF NOT EXISTS data.analysis_snapshots (
		stock_code  TEXT        NOT NULL,
		as_of       DATE        NOT NULL,
		payload     JSONB       NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (stock_code, as_of)
	)
`

// PostgresSource loads snapshots stored as JSONB
// ⭐ SSOT: 스냅샷 저장소는 여기서만
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a new Postgres-backed source
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// EnsureSchema creates the snapshot table when missing
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// Load returns the latest snapshot on or before asOf (latest overall when asOf is zero)
func (s *PostgresSource) Load(ctx context.Context, code string, asOf time.Time) (*contracts.AnalysisSnapshot, error) {
	query := `
		SELECT payload
		FROM data.analysis_snapshots
		WHERE stock_code = $1 AND ($2::date IS NULL OR as_of <= $2::date)
		ORDER BY as_of DESC
		LIMIT 1
	`

	var dateArg any
	if !asOf.IsZero() {
		dateArg = asOf
	}

	var payload []byte
	err := s.db.QueryRow(ctx, query, code, dateArg).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", code, err)
	}

	var snap contracts.AnalysisSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", code, err)
	}
	if err := Check(&snap); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", code, err)
	}
	return &snap, nil
}

// Save upserts a snapshot keyed by (code, as_of)
func (s *PostgresSource) Save(ctx context.Context, snap *contracts.AnalysisSnapshot) error {
	if err := Check(snap); err != nil {
		return err
	}
	if snap.AsOf.IsZero() {
		return fmt.Errorf("%w: as_of required to store snapshot %s", ErrInvalid, snap.Code)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO data.analysis_snapshots (stock_code, as_of, payload, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (stock_code, as_of) DO UPDATE SET
			payload = EXCLUDED.payload,
			created_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, snap.Code, snap.AsOf, payload); err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.Code, err)
	}
	return nil
}
