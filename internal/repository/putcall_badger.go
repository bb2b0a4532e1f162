package repository

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"RiskPulse/internal/domain/models"
	domrepo "RiskPulse/internal/domain/repository"
	pkgbadger "RiskPulse/pkg/badger"
)

// BadgerPutCallStore keeps put/call readings in the embedded badger store,
// keyed by date.
type BadgerPutCallStore struct {
	db *pkgbadger.DB
}

func NewBadgerPutCallStore(db *pkgbadger.DB) *BadgerPutCallStore {
	return &BadgerPutCallStore{db: db}
}

var _ domrepo.PutCallStore = (*BadgerPutCallStore)(nil)

func (s *BadgerPutCallStore) Init(context.Context) error { return nil }

func (s *BadgerPutCallStore) UpsertSpxRatios(_ context.Context, rows []models.PutCallRatio) error {
	for _, r := range rows {
		if err := s.db.Store().Upsert(r.Date, &r); err != nil {
			return fmt.Errorf("upsert spx ratio %s: %w", r.Date, err)
		}
	}
	return nil
}

func (s *BadgerPutCallStore) SpxRatios(context.Context) ([]models.PutCallRatio, error) {
	var rows []models.PutCallRatio
	if err := s.db.Store().Find(&rows, badgerhold.Where("Date").Ne("").SortBy("Date")); err != nil {
		return nil, fmt.Errorf("find spx ratios: %w", err)
	}
	return rows, nil
}

func (s *BadgerPutCallStore) UpsertDailyVolume(_ context.Context, row models.PutCallVolume) error {
	if err := s.db.Store().Upsert(row.Date, &row); err != nil {
		return fmt.Errorf("upsert daily volume %s: %w", row.Date, err)
	}
	return nil
}

func (s *BadgerPutCallStore) DailyVolumes(_ context.Context, from, to string) ([]models.PutCallVolume, error) {
	var rows []models.PutCallVolume
	q := badgerhold.Where("Date").Ge(from).And("Date").Le(to).SortBy("Date")
	if err := s.db.Store().Find(&rows, q); err != nil {
		return nil, fmt.Errorf("find daily volumes: %w", err)
	}
	return rows, nil
}

func (s *BadgerPutCallStore) Close() error {
	return s.db.Close()
}
