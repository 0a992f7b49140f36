package repository

import (
	"context"
	"time"

	"print-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Upsert(ctx context.Context, item *model.CartItem) error
	ListByUser(ctx context.Context, userID int64) ([]*model.CartItem, error)
	Delete(ctx context.Context, userID int64, itemID uint) (bool, error)
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

// Upsert adds item to the user's cart, accumulating quantity when the
// (user, image, print size) line already exists.
func (r *cartRepoImpl) Upsert(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "image_id"}, {Name: "print_size_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error
}

func (r *cartRepoImpl) ListByUser(ctx context.Context, userID int64) ([]*model.CartItem, error) {
	var items []*model.CartItem

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *cartRepoImpl) Delete(ctx context.Context, userID int64, itemID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&model.CartItem{})

	return result.RowsAffected > 0, result.Error
}
