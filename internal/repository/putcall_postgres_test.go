package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/postgres"
)

func newMockPostgresStore(t *testing.T) (*PostgresPutCallStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewPostgresPutCallStore(db)
	s.migrate = nil
	return s, mock
}

func TestPostgresUpsertSpxRatios(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO spx_putcall_ratios")
	prep.ExpectExec().WithArgs("2024-03-13", 0.88, now).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2024-03-14", 1.02, now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.UpsertSpxRatios(context.Background(), []models.PutCallRatio{
		{Date: "2024-03-13", Ratio: 0.88, UpdatedAt: now},
		{Date: "2024-03-14", Ratio: 1.02, UpdatedAt: now},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertSpxRatiosRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO spx_putcall_ratios").
		ExpectExec().WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := s.UpsertSpxRatios(context.Background(), []models.PutCallRatio{{Date: "2024-03-13", Ratio: 0.88}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-03-13")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSpxRatios(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM spx_putcall_ratios").
		WillReturnRows(sqlmock.NewRows([]string{"date", "ratio", "updated_at"}).
			AddRow("2024-03-13", 0.88, now).
			AddRow("2024-03-14", 1.02, now))

	rows, err := s.SpxRatios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.PutCallRatio{
		{Date: "2024-03-13", Ratio: 0.88, UpdatedAt: now},
		{Date: "2024-03-14", Ratio: 1.02, UpdatedAt: now},
	}, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDailyVolumes(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO putcall_daily").
		WithArgs("2024-03-14", 0.98, int64(100), int64(98), int64(198), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM putcall_daily").
		WithArgs("2024-03-07", "2024-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"date", "ratio", "call_volume", "put_volume", "total_volume", "created_at"}).
			AddRow("2024-03-14", 0.98, 100, 98, 198, now))

	ctx := context.Background()
	require.NoError(t, s.UpsertDailyVolume(ctx, models.PutCallVolume{
		Date: "2024-03-14", Ratio: 0.98, CallVolume: 100, PutVolume: 98, TotalVolume: 198, CreatedAt: now,
	}))
	rows, err := s.DailyVolumes(ctx, "2024-03-07", "2024-03-14")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(198), rows[0].TotalVolume)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Runs against a real PostgreSQL when RISKPULSE_INTEGRATION=1.
func TestPostgresStoreIntegration(t *testing.T) {
	if os.Getenv("RISKPULSE_INTEGRATION") != "1" {
		t.Skip("set RISKPULSE_INTEGRATION=1 to run")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("riskpulse"),
		tcpostgres.WithUsername("riskpulse"),
		tcpostgres.WithPassword("riskpulse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	var db *sql.DB
	db, err = postgres.Open(ctx, dsn, 4)
	require.NoError(t, err)

	s := NewPostgresPutCallStore(db)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.UpsertSpxRatios(ctx, []models.PutCallRatio{{Date: "2024-03-14", Ratio: 1.02}}))
	require.NoError(t, s.UpsertSpxRatios(ctx, []models.PutCallRatio{{Date: "2024-03-14", Ratio: 1.10}}))
	ratios, err := s.SpxRatios(ctx)
	require.NoError(t, err)
	require.Len(t, ratios, 1)
	assert.Equal(t, 1.10, ratios[0].Ratio)

	require.NoError(t, s.UpsertDailyVolume(ctx, models.PutCallVolume{Date: "2024-03-14", Ratio: 0.98, TotalVolume: 5}))
	vols, err := s.DailyVolumes(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, vols, 1)
	assert.Equal(t, "2024-03-14", vols[0].Date)
}
