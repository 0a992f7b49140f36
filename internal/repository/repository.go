package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn picks the caller's transaction when one is supplied.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
