package repository

import (
	"context"
	"time"

	"print-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error)
	FindBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]model.OrderItem, error)
	// TransitionStatus moves the order from one status to another only if it
	// is still in from, reporting whether this call performed the change.
	TransitionStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.OrderStatus) (bool, error)
	ListForCustomer(ctx context.Context, userID *int64, email string) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListItemRows(ctx context.Context, orderIDs []uint) ([]OrderItemRow, error)
}

// OrderItemRow is an order item LEFT JOINed with its catalog image and print size.
type OrderItemRow struct {
	ID              uint
	OrderID         uint
	ImageID         uint
	PrintSizeID     *uint
	Quantity        int
	PriceAtPurchase decimal.Decimal
	ItemName        string
	SnapshotLabel   string
	Title           *string
	Filename        *string
	PrintSizeLabel  *string
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(ctx, r.db, tx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return conn(ctx, r.db, tx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID uint) (*model.Order, error) {
	var order model.Order
	err := conn(ctx, r.db, tx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) (*model.Order, error) {
	var order model.Order
	err := conn(ctx, r.db, tx).
		Where("payment_session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := conn(ctx, r.db, tx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, orderID uint, from, to model.OrderStatus) (bool, error) {
	result := conn(ctx, r.db, tx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) ListForCustomer(ctx context.Context, userID *int64, email string) ([]model.Order, error) {
	query := r.db.WithContext(ctx)
	switch {
	case userID != nil && email != "":
		query = query.Where("user_id = ? OR customer_email = ?", *userID, email)
	case userID != nil:
		query = query.Where("user_id = ?", *userID)
	default:
		query = query.Where("customer_email = ?", email)
	}

	var orders []model.Order
	err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListItemRows(ctx context.Context, orderIDs []uint) ([]OrderItemRow, error) {
	var rows []OrderItemRow
	if len(orderIDs) == 0 {
		return rows, nil
	}

	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.id, oi.order_id, oi.image_id, oi.print_size_id, oi.quantity,
			oi.price_at_purchase, oi.item_name, oi.print_size_label AS snapshot_label,
			img.title AS title, img.filename AS filename, ps.label AS print_size_label`).
		Joins("LEFT JOIN images AS img ON img.id = oi.image_id").
		Joins("LEFT JOIN print_sizes AS ps ON ps.id = oi.print_size_id").
		Where("oi.order_id IN ?", orderIDs).
		Order("oi.id ASC").
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}
