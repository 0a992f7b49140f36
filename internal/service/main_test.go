package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"print-store/internal/config"
	"print-store/internal/dto"
	"print-store/internal/invoice"
	"print-store/internal/model"
	"print-store/internal/repository"
	"print-store/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	mediaBaseURL = "https://media.test/prints"
	ownerEmail   = "studio@shop.test"
)

type countingRenderer struct {
	calls atomic.Int32
	gen   *invoice.Generator
}

func (r *countingRenderer) Render(order *model.Order, items []model.OrderItem) ([]byte, error) {
	r.calls.Add(1)
	return r.gen.Render(order, items)
}

type testEnv struct {
	db       *gorm.DB
	sessions *testutil.SessionAPI
	mailer   *testutil.Mailer
	invoices *countingRenderer

	catalogRepo      repository.CatalogRepository
	cartRepo         repository.CartRepository
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	receiptRepo      repository.ReceiptRepository

	checkout    CheckoutService
	fulfillment FulfillmentService
	receipts    ReceiptService
	orders      OrderService
	cart        CartService
	catalog     CatalogService
	contact     ContactService
}

func testPricing() PricingPolicy {
	return NewPricingPolicy(&config.Pricing{
		TaxRate:       decimal.RequireFromString("0.13"),
		TaxLabel:      "HST",
		Currency:      "USD",
		ShippingRates: map[string]int64{"shr_standard": 500, "shr_express": 1500},
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPricing(t, testPricing())
}

func newTestEnvWithPricing(t *testing.T, pricing PricingPolicy) *testEnv {
	t.Helper()

	log := zap.NewNop()
	env := &testEnv{
		db:       testutil.NewDB(t),
		sessions: &testutil.SessionAPI{},
		mailer:   &testutil.Mailer{},
		invoices: &countingRenderer{gen: invoice.NewGenerator()},
	}
	env.catalogRepo = repository.NewCatalogRepository(env.db)
	env.cartRepo = repository.NewCartRepository(env.db)
	env.orderRepo = repository.NewOrderRepository(env.db)
	env.webhookEventRepo = repository.NewWebhookEventRepository(env.db)
	env.receiptRepo = repository.NewReceiptRepository(env.db)
	require.NoError(t, env.catalogRepo.Seed(context.Background()))

	paymentClient := testutil.NewPaymentClient(env.sessions)
	receiptCfg := config.Receipt{
		Lease:       time.Minute,
		Timeout:     5 * time.Second,
		MaxAttempts: 5,
		BatchSize:   10,
	}

	env.receipts = NewReceiptService(log, receiptCfg, env.mailer, env.invoices, env.orderRepo, env.receiptRepo)
	env.checkout = NewCheckoutService(
		env.db, log, paymentClient, pricing,
		CheckoutOptions{ClientURL: "https://shop.test", AllowedCountries: []string{"CA", "US"}},
		env.catalogRepo, env.orderRepo,
	)
	env.fulfillment = NewFulfillmentService(
		env.db, log, paymentClient, env.receipts, receiptCfg.Timeout,
		env.orderRepo, env.webhookEventRepo, env.receiptRepo,
	)
	env.orders = NewOrderService(mediaBaseURL, env.orderRepo)
	env.cart = NewCartService(env.catalogRepo, env.cartRepo)
	env.catalog = NewCatalogService(mediaBaseURL, env.catalogRepo)
	env.contact = NewContactService(log, env.mailer, ownerEmail)
	return env
}

// checkoutRequest orders two 11x14 prints of image 1 with standard shipping.
func checkoutRequest() *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		Items: []*dto.CheckoutItem{
			{ImageID: 1, PrintSizeID: 2, Quantity: 2},
		},
		Customer: &dto.Customer{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
		},
		ShippingRateID: "shr_standard",
	}
}

func (e *testEnv) createOrder(t *testing.T, identity *model.Identity, req *dto.CheckoutRequest) *model.Order {
	t.Helper()

	resp, err := e.checkout.CreateSession(context.Background(), identity, req)
	require.NoError(t, err)

	order, err := e.orderRepo.FindBySessionID(context.Background(), nil, resp.SessionID)
	require.NoError(t, err)
	return order
}

func int64Ptr(v int64) *int64 {
	return &v
}
