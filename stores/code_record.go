package stores

import (
	"context"
	"errors"

	"github.com/lodgekey/lodgekey/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore is the idempotency-store contract. Best-effort: callers
// must not assume durability, and a missing record means "state
// unknown", not "nothing was ever provisioned".
type RecordStore interface {
	// Get returns (nil, nil) when no record exists.
	Get(ctx context.Context, bookingID string) (*models.CodeRecord, error)
	Put(ctx context.Context, record *models.CodeRecord) error
	Delete(ctx context.Context, bookingID string) error
}

// CodeRecordStore keeps idempotency records in Postgres.
type CodeRecordStore struct {
	BaseStore
}

func NewCodeRecordStore(db *gorm.DB) *CodeRecordStore {
	return &CodeRecordStore{BaseStore: BaseStore{db: db}}
}

func (s *CodeRecordStore) Get(ctx context.Context, bookingID string) (*models.CodeRecord, error) {
	var record models.CodeRecord
	err := s.GetDB(ctx).Where("booking_id = ?", bookingID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *CodeRecordStore) Put(ctx context.Context, record *models.CodeRecord) error {
	return s.GetDB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}

func (s *CodeRecordStore) Delete(ctx context.Context, bookingID string) error {
	return s.GetDB(ctx).
		Where("booking_id = ?", bookingID).
		Delete(&models.CodeRecord{}).Error
}
