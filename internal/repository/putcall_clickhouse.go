package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	pkgch "RiskPulse/pkg/clickhouse"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

// ClickHouse keeps every version of a row; ReplacingMergeTree plus FINAL
// reads give upsert-by-date semantics.
var clickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS spx_putcall_ratios (
		date       Date,
		ratio      Float64,
		updated_at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY date`,
	`CREATE TABLE IF NOT EXISTS putcall_daily (
		date         Date,
		ratio        Float64,
		call_volume  Int64,
		put_volume   Int64,
		total_volume Int64,
		created_at   DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(created_at)
	ORDER BY date`,
}

// ClickHousePutCallStore persists put/call readings in ClickHouse.
type ClickHousePutCallStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewClickHousePutCallStore(ch *pkgch.Client, l *applogger.Logger) *ClickHousePutCallStore {
	if l == nil {
		l = applogger.Get()
	}
	return &ClickHousePutCallStore{ch: ch, db: ch.DB(), l: l}
}

var _ domrepo.PutCallStore = (*ClickHousePutCallStore)(nil)

func (s *ClickHousePutCallStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, clickHouseSchema)
}

func (s *ClickHousePutCallStore) UpsertSpxRatios(ctx context.Context, rows []models.PutCallRatio) error {
	// multi-row VALUES in chunks to keep round-trips low
	const chunkSize = 1000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, r := range rows[start:end] {
			day, ok := util.ParseDate(r.Date)
			if !ok {
				s.l.Warn("clickhouse skip spx ratio with bad date", applogger.String("date", r.Date))
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, day, r.Ratio, stamp(r.UpdatedAt))
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO spx_putcall_ratios (date, ratio, updated_at) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert spx ratios failed", applogger.Int("rows", len(values)), applogger.Error(err))
			return fmt.Errorf("insert spx ratios: %w", err)
		}
	}
	return nil
}

func (s *ClickHousePutCallStore) SpxRatios(ctx context.Context) ([]models.PutCallRatio, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT toString(date), ratio, updated_at
		FROM spx_putcall_ratios FINAL
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query spx ratios: %w", err)
	}
	defer rows.Close()

	out := make([]models.PutCallRatio, 0, 1024)
	for rows.Next() {
		var r models.PutCallRatio
		if err := rows.Scan(&r.Date, &r.Ratio, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan spx ratio: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHousePutCallStore) UpsertDailyVolume(ctx context.Context, row models.PutCallVolume) error {
	day, ok := util.ParseDate(row.Date)
	if !ok {
		return fmt.Errorf("daily volume: bad date %q", row.Date)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO putcall_daily (date, ratio, call_volume, put_volume, total_volume, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		day, row.Ratio, row.CallVolume, row.PutVolume, row.TotalVolume, stamp(row.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert daily volume %s: %w", row.Date, err)
	}
	return nil
}

func (s *ClickHousePutCallStore) DailyVolumes(ctx context.Context, from, to string) ([]models.PutCallVolume, error) {
	fromDay, ok1 := util.ParseDate(from)
	toDay, ok2 := util.ParseDate(to)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("daily volumes: bad range %q..%q", from, to)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT toString(date), ratio, call_volume, put_volume, total_volume, created_at
		FROM putcall_daily FINAL
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("query daily volumes: %w", err)
	}
	defer rows.Close()

	var out []models.PutCallVolume
	for rows.Next() {
		var v models.PutCallVolume
		var created time.Time
		if err := rows.Scan(&v.Date, &v.Ratio, &v.CallVolume, &v.PutVolume, &v.TotalVolume, &created); err != nil {
			return nil, fmt.Errorf("scan daily volume: %w", err)
		}
		v.CreatedAt = created
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *ClickHousePutCallStore) Close() error {
	return s.ch.Close()
}
