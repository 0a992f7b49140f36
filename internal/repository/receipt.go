package repository

import (
	"context"
	"time"

	"print-store/internal/model"

	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, receipt *model.ReceiptDelivery) error
	// Claim takes the delivery for orderID if it is pending, failed, or held by
	// a sender whose lease started before staleBefore, and has attempts left.
	Claim(ctx context.Context, orderID uint, staleBefore time.Time, maxAttempts int) (bool, error)
	MarkSent(ctx context.Context, orderID uint) error
	MarkFailed(ctx context.Context, orderID uint, cause string) error
	ListRetryable(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*model.ReceiptDelivery, error)
	FindByOrderID(ctx context.Context, orderID uint) (*model.ReceiptDelivery, error)
}

type receiptRepoImpl struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepoImpl{
		db: db,
	}
}

func (r *receiptRepoImpl) Create(ctx context.Context, tx *gorm.DB, receipt *model.ReceiptDelivery) error {
	return conn(ctx, r.db, tx).Create(receipt).Error
}

func (r *receiptRepoImpl) claimable(query *gorm.DB, staleBefore time.Time, maxAttempts int) *gorm.DB {
	return query.
		Where("(status IN ? OR (status = ? AND claimed_at < ?))",
			[]model.ReceiptStatus{model.ReceiptStatusPending, model.ReceiptStatusFailed},
			model.ReceiptStatusSending, staleBefore,
		).
		Where("attempts < ?", maxAttempts)
}

func (r *receiptRepoImpl) Claim(ctx context.Context, orderID uint, staleBefore time.Time, maxAttempts int) (bool, error) {
	now := time.Now()
	query := r.db.WithContext(ctx).Model(&model.ReceiptDelivery{}).Where("order_id = ?", orderID)
	result := r.claimable(query, staleBefore, maxAttempts).
		Updates(map[string]interface{}{
			"status":     model.ReceiptStatusSending,
			"claimed_at": now,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": now,
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *receiptRepoImpl) MarkSent(ctx context.Context, orderID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.ReceiptDelivery{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     model.ReceiptStatusSent,
			"sent_at":    now,
			"last_error": "",
			"updated_at": now,
		}).Error
}

func (r *receiptRepoImpl) MarkFailed(ctx context.Context, orderID uint, cause string) error {
	if len(cause) > 1024 {
		cause = cause[:1024]
	}
	return r.db.WithContext(ctx).Model(&model.ReceiptDelivery{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     model.ReceiptStatusFailed,
			"last_error": cause,
			"updated_at": time.Now(),
		}).Error
}

func (r *receiptRepoImpl) ListRetryable(ctx context.Context, staleBefore time.Time, maxAttempts, limit int) ([]*model.ReceiptDelivery, error) {
	var receipts []*model.ReceiptDelivery
	err := r.claimable(r.db.WithContext(ctx), staleBefore, maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&receipts).Error

	if err != nil {
		return nil, err
	}

	return receipts, nil
}

func (r *receiptRepoImpl) FindByOrderID(ctx context.Context, orderID uint) (*model.ReceiptDelivery, error) {
	var receipt model.ReceiptDelivery
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&receipt).Error

	if err != nil {
		return nil, err
	}

	return &receipt, nil
}
