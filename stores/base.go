package stores

import (
	"context"

	"gorm.io/gorm"
)

type BaseStore struct {
	db *gorm.DB
}

func (s *BaseStore) GetDB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
