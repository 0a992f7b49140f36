package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"print-store/internal/client"
	"print-store/internal/dto"
	"print-store/internal/model"
	"print-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const expireSessionTimeout = 10 * time.Second

type CheckoutService interface {
	// CreateSession prices the request from the catalog, opens a payment
	// session and records a pending order bound to it.
	CreateSession(ctx context.Context, identity *model.Identity, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type CheckoutOptions struct {
	ClientURL        string
	AllowedCountries []string
}

type checkoutServiceImpl struct {
	db            *gorm.DB
	log           *zap.Logger
	paymentClient client.PaymentClient
	pricing       PricingPolicy
	opts          CheckoutOptions
	catalogRepo   repository.CatalogRepository
	orderRepo     repository.OrderRepository
}

func NewCheckoutService(
	db *gorm.DB,
	log *zap.Logger,
	paymentClient client.PaymentClient,
	pricing PricingPolicy,
	opts CheckoutOptions,
	catalogRepo repository.CatalogRepository,
	orderRepo repository.OrderRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:            db,
		log:           log,
		paymentClient: paymentClient,
		pricing:       pricing,
		opts:          opts,
		catalogRepo:   catalogRepo,
		orderRepo:     orderRepo,
	}
}

func (s *checkoutServiceImpl) CreateSession(ctx context.Context, identity *model.Identity, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if req == nil {
		return nil, newValidationError("", "request body is required")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	customerName := cleanText(req.Customer.Name)
	if customerName == "" {
		return nil, newValidationError("customer.name", "is required")
	}
	customerEmail := strings.TrimSpace(req.Customer.Email)

	shipping, err := s.pricing.ShippingCost(req.ShippingRateID)
	if err != nil {
		return nil, err
	}
	if req.ShippingCost != nil && *req.ShippingCost != minorUnits(shipping) {
		s.log.Debug("ignoring client shipping cost",
			zap.Int64("client_cents", *req.ShippingCost),
			zap.Int64("rate_cents", minorUnits(shipping)),
		)
	}

	lines, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	quote := s.pricing.Quote(lines, shipping)

	sessionReq := s.buildSessionRequest(quote, customerEmail, req.ShippingRateID, identity)
	session, err := s.paymentClient.CreateCheckoutSession(ctx, sessionReq)
	if err != nil {
		return nil, &ExternalServiceError{Service: "payment provider", Err: err}
	}

	order := &model.Order{
		CustomerName:     customerName,
		CustomerEmail:    customerEmail,
		Subtotal:         quote.Subtotal,
		TaxAmount:        quote.Tax,
		ShippingAmount:   quote.Shipping,
		TotalAmount:      quote.Total,
		Currency:         s.pricing.Currency,
		PaymentSessionID: session.ID,
		Status:           model.OrderStatusPending,
	}
	if identity != nil {
		order.UserID = identity.UserID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		items := make([]*model.OrderItem, len(quote.Lines))
		for i, line := range quote.Lines {
			sizeID := line.PrintSize.ID
			items[i] = &model.OrderItem{
				OrderID:         order.ID,
				ImageID:         line.Image.ID,
				PrintSizeID:     &sizeID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.UnitPrice,
				ItemName:        line.Name,
				PrintSizeLabel:  line.PrintSize.Label,
			}
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if err != nil {
		s.expireOrphanedSession(ctx, session.ID, err)
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.Uint("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.String("total", quote.Total.StringFixed(2)),
	)

	return &dto.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *checkoutServiceImpl) priceItems(ctx context.Context, items []*dto.CheckoutItem) ([]PricedLine, error) {
	lines := make([]PricedLine, 0, len(items))
	for _, item := range items {
		image, err := s.catalogRepo.FindImage(ctx, nil, item.ImageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFoundError("image", item.ImageID)
			}
			return nil, fmt.Errorf("find image %d: %w", item.ImageID, err)
		}

		size, err := s.catalogRepo.FindPrintSize(ctx, nil, item.PrintSizeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newNotFoundError("print size", item.PrintSizeID)
			}
			return nil, fmt.Errorf("find print size %d: %w", item.PrintSizeID, err)
		}

		lines = append(lines, s.pricing.PriceLine(image, size, item.Quantity))
	}
	return lines, nil
}

func (s *checkoutServiceImpl) buildSessionRequest(quote Quote, email, shippingRateID string, identity *model.Identity) *client.CheckoutSessionRequest {
	lineItems := make([]client.CheckoutLineItem, 0, len(quote.Lines)+1)
	for _, line := range quote.Lines {
		lineItems = append(lineItems, client.CheckoutLineItem{
			Name:       line.Name,
			UnitAmount: minorUnits(line.UnitPrice),
			Quantity:   int64(line.Quantity),
		})
	}
	if quote.Tax.IsPositive() {
		lineItems = append(lineItems, client.CheckoutLineItem{
			Name:       s.pricing.TaxLineName(),
			UnitAmount: minorUnits(quote.Tax),
			Quantity:   1,
		})
	}

	metadata := map[string]string{
		"customer_email": email,
	}
	if identity != nil && identity.UserID != nil {
		metadata["user_id"] = strconv.FormatInt(*identity.UserID, 10)
	}

	return &client.CheckoutSessionRequest{
		LineItems:        lineItems,
		Currency:         s.pricing.Currency,
		CustomerEmail:    email,
		SuccessURL:       s.opts.ClientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        s.opts.ClientURL + "/payment-cancelled",
		ShippingRateID:   shippingRateID,
		AllowedCountries: s.opts.AllowedCountries,
		Metadata:         metadata,
		IdempotencyKey:   uuid.NewString(),
	}
}

// expireOrphanedSession closes a payment session whose order could not be
// stored, so the customer cannot pay for an order that does not exist.
func (s *checkoutServiceImpl) expireOrphanedSession(ctx context.Context, sessionID string, cause error) {
	s.log.Error("order insert failed after session creation",
		zap.String("session_id", sessionID),
		zap.Error(cause),
	)

	expireCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), expireSessionTimeout)
	defer cancel()
	if err := s.paymentClient.ExpireCheckoutSession(expireCtx, sessionID); err != nil {
		s.log.Error("failed to expire orphaned session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
