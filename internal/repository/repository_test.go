package repository_test

import (
	"context"
	"testing"
	"time"

	"print-store/internal/model"
	"print-store/internal/repository"
	"print-store/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrder(sessionID string) *model.Order {
	return &model.Order{
		CustomerName:     "Ada Lovelace",
		CustomerEmail:    "ada@example.com",
		Subtotal:         decimal.RequireFromString("25.00"),
		TaxAmount:        decimal.RequireFromString("3.25"),
		ShippingAmount:   decimal.Zero,
		TotalAmount:      decimal.RequireFromString("28.25"),
		Currency:         "usd",
		PaymentSessionID: sessionID,
		Status:           model.OrderStatusPending,
	}
}

func TestOrderRepository_TransitionStatusIsCompareAndSet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	order := newOrder("cs_1")
	require.NoError(t, repo.Create(ctx, nil, order))

	ok, err := repo.TransitionStatus(ctx, nil, order.ID, model.OrderStatusPending, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, nil, order.ID, model.OrderStatusPending, model.OrderStatusCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.TransitionStatus(ctx, nil, order.ID, model.OrderStatusPending, model.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)
	assert.Equal(t, "28.25", stored.TotalAmount.StringFixed(2))
}

func TestOrderRepository_SessionIDIsUnique(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, newOrder("cs_1")))
	assert.Error(t, repo.Create(ctx, nil, newOrder("cs_1")))
}

func TestOrderRepository_CreateRollsBackWithTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		order := newOrder("cs_tx")
		if err := repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, tx, []*model.OrderItem{
			{OrderID: order.ID, ImageID: 1, Quantity: 1, PriceAtPurchase: decimal.NewFromInt(25), ItemName: "x"},
			{OrderID: order.ID, ImageID: 1, Quantity: 1, PriceAtPurchase: decimal.NewFromInt(25)},
		})
	})
	require.NoError(t, err)

	_, err = repo.FindBySessionID(ctx, nil, "cs_missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, newOrder("cs_rollback")); err != nil {
			return err
		}
		return repo.Create(ctx, tx, newOrder("cs_tx"))
	})
	require.Error(t, err)

	_, err = repo.FindBySessionID(ctx, nil, "cs_rollback")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReceiptRepository_ClaimOnce(t *testing.T) {
	db := testutil.NewDB(t)
	orders := repository.NewOrderRepository(db)
	receipts := repository.NewReceiptRepository(db)
	ctx := context.Background()

	order := newOrder("cs_1")
	require.NoError(t, orders.Create(ctx, nil, order))
	require.NoError(t, receipts.Create(ctx, nil, &model.ReceiptDelivery{OrderID: order.ID, Status: model.ReceiptStatusPending}))

	staleBefore := time.Now().Add(-time.Minute)
	ok, err := receipts.Claim(ctx, order.ID, staleBefore, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = receipts.Claim(ctx, order.ID, staleBefore, 3)
	require.NoError(t, err)
	assert.False(t, ok, "a fresh lease must not be claimable")

	ok, err = receipts.Claim(ctx, order.ID, time.Now().Add(time.Minute), 3)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease is claimable")

	require.NoError(t, receipts.MarkFailed(ctx, order.ID, "smtp down"))
	retryable, err := receipts.ListRetryable(ctx, staleBefore, 3, 10)
	require.NoError(t, err)
	require.Len(t, retryable, 1)
	assert.Equal(t, 2, retryable[0].Attempts)

	ok, err = receipts.Claim(ctx, order.ID, staleBefore, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, receipts.MarkFailed(ctx, order.ID, "smtp down"))

	ok, err = receipts.Claim(ctx, order.ID, staleBefore, 3)
	require.NoError(t, err)
	assert.False(t, ok, "attempts exhausted")

	retryable, err = receipts.ListRetryable(ctx, staleBefore, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, retryable)
}

func TestReceiptRepository_OnePerOrder(t *testing.T) {
	db := testutil.NewDB(t)
	receipts := repository.NewReceiptRepository(db)
	ctx := context.Background()

	require.NoError(t, receipts.Create(ctx, nil, &model.ReceiptDelivery{OrderID: 1, Status: model.ReceiptStatusPending}))
	assert.Error(t, receipts.Create(ctx, nil, &model.ReceiptDelivery{OrderID: 1, Status: model.ReceiptStatusPending}))
}

func TestWebhookEventRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewWebhookEventRepository(db)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, nil, "evt_1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.MarkProcessed(ctx, nil, "evt_1", "checkout.session.completed"))
	require.NoError(t, repo.MarkProcessed(ctx, nil, "evt_1", "checkout.session.completed"))

	exists, err = repo.Exists(ctx, nil, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCartRepository_UpsertAccumulates(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCartRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.CartItem{UserID: 1, ImageID: 1, PrintSizeID: 1, Quantity: 1}))
	require.NoError(t, repo.Upsert(ctx, &model.CartItem{UserID: 1, ImageID: 1, PrintSizeID: 1, Quantity: 4}))
	require.NoError(t, repo.Upsert(ctx, &model.CartItem{UserID: 1, ImageID: 1, PrintSizeID: 2, Quantity: 1}))

	items, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)

	deleted, err := repo.Delete(ctx, 2, items[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCatalogRepository_SeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCatalogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Seed(ctx))
	require.NoError(t, repo.Seed(ctx))

	sizes, err := repo.ListPrintSizes(ctx)
	require.NoError(t, err)
	assert.Len(t, sizes, 4)

	_, err = repo.FindImage(ctx, nil, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
