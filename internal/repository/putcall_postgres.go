package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/postgres"
)

// PostgresPutCallStore persists put/call readings in PostgreSQL.
type PostgresPutCallStore struct {
	db      *sql.DB
	migrate func(*sql.DB) error
}

func NewPostgresPutCallStore(db *sql.DB) *PostgresPutCallStore {
	return &PostgresPutCallStore{db: db, migrate: postgres.Migrate}
}

var _ domrepo.PutCallStore = (*PostgresPutCallStore)(nil)

// Init applies the embedded migrations.
func (s *PostgresPutCallStore) Init(context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(s.db)
}

func (s *PostgresPutCallStore) UpsertSpxRatios(ctx context.Context, rows []models.PutCallRatio) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO spx_putcall_ratios (date, ratio, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET
			ratio = EXCLUDED.ratio,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Date, r.Ratio, stamp(r.UpdatedAt)); err != nil {
			return fmt.Errorf("failed to upsert spx ratio %s: %w", r.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresPutCallStore) SpxRatios(ctx context.Context) ([]models.PutCallRatio, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), ratio, updated_at
		FROM spx_putcall_ratios
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spx ratios: %w", err)
	}
	defer rows.Close()

	var out []models.PutCallRatio
	for rows.Next() {
		var r models.PutCallRatio
		if err := rows.Scan(&r.Date, &r.Ratio, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan spx ratio: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresPutCallStore) UpsertDailyVolume(ctx context.Context, row models.PutCallVolume) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO putcall_daily (date, ratio, call_volume, put_volume, total_volume, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date) DO UPDATE SET
			ratio = EXCLUDED.ratio,
			call_volume = EXCLUDED.call_volume,
			put_volume = EXCLUDED.put_volume,
			total_volume = EXCLUDED.total_volume
	`, row.Date, row.Ratio, row.CallVolume, row.PutVolume, row.TotalVolume, stamp(row.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert daily volume %s: %w", row.Date, err)
	}
	return nil
}

func (s *PostgresPutCallStore) DailyVolumes(ctx context.Context, from, to string) ([]models.PutCallVolume, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), ratio, call_volume, put_volume, total_volume, created_at
		FROM putcall_daily
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily volumes: %w", err)
	}
	defer rows.Close()

	var out []models.PutCallVolume
	for rows.Next() {
		var v models.PutCallVolume
		if err := rows.Scan(&v.Date, &v.Ratio, &v.CallVolume, &v.PutVolume, &v.TotalVolume, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily volume: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresPutCallStore) Close() error {
	return s.db.Close()
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
