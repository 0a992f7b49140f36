package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"print-store/internal/client"
	"print-store/internal/model"
	"print-store/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookResult describes what a verified webhook delivery did.
type WebhookResult struct {
	EventID   string
	EventType string
	OrderID   uint
	// Completed is true only for the delivery that moved the order out of pending.
	Completed bool
}

type FulfillmentService interface {
	// HandleWebhook verifies a payment provider notification and completes the
	// matching order exactly once, however many times the event is delivered.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type fulfillmentServiceImpl struct {
	db               *gorm.DB
	log              *zap.Logger
	paymentClient    client.PaymentClient
	receipts         ReceiptService
	receiptTimeout   time.Duration
	orderRepo        repository.OrderRepository
	webhookEventRepo repository.WebhookEventRepository
	receiptRepo      repository.ReceiptRepository
}

func NewFulfillmentService(
	db *gorm.DB,
	log *zap.Logger,
	paymentClient client.PaymentClient,
	receipts ReceiptService,
	receiptTimeout time.Duration,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	receiptRepo repository.ReceiptRepository,
) FulfillmentService {
	return &fulfillmentServiceImpl{
		db:               db,
		log:              log,
		paymentClient:    paymentClient,
		receipts:         receipts,
		receiptTimeout:   receiptTimeout,
		orderRepo:        orderRepo,
		webhookEventRepo: webhookEventRepo,
		receiptRepo:      receiptRepo,
	}
}

func (s *fulfillmentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.paymentClient.ConstructEvent(payload, signature)
	if err != nil {
		return nil, &SignatureVerificationError{Err: err}
	}

	result := &WebhookResult{EventID: event.ID, EventType: event.Type}
	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if event.Type != client.EventCheckoutSessionCompleted {
		log.Debug("ignoring webhook event")
		return result, nil
	}
	if event.SessionID == "" {
		// redelivery cannot fix a payload without a session, so acknowledge it
		log.Warn("completed event carries no session id")
		return result, nil
	}

	processed, err := s.webhookEventRepo.Exists(ctx, nil, event.ID)
	if err != nil {
		return nil, fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		log.Info("webhook event already processed")
		return result, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindBySessionID(ctx, tx, event.SessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("no order for completed session", zap.String("session_id", event.SessionID))
				return s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Type)
			}
			return fmt.Errorf("find order by session: %w", err)
		}
		result.OrderID = order.ID

		completed := false
		if order.Status.CanTransitionTo(model.OrderStatusCompleted) {
			completed, err = s.orderRepo.TransitionStatus(ctx, tx, order.ID, order.Status, model.OrderStatusCompleted)
			if err != nil {
				return fmt.Errorf("complete order %d: %w", order.ID, err)
			}
		}
		if completed {
			err = s.receiptRepo.Create(ctx, tx, &model.ReceiptDelivery{
				OrderID: order.ID,
				Status:  model.ReceiptStatusPending,
			})
			if err != nil {
				return fmt.Errorf("queue receipt for order %d: %w", order.ID, err)
			}
		} else {
			log.Info("order already left pending", zap.Uint("order_id", order.ID), zap.String("status", string(order.Status)))
		}
		result.Completed = completed

		if err := s.webhookEventRepo.MarkProcessed(ctx, tx, event.ID, event.Type); err != nil {
			return fmt.Errorf("record webhook event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		log.Info("order completed", zap.Uint("order_id", result.OrderID))
		s.sendReceipt(ctx, result.OrderID)
	}
	return result, nil
}

// sendReceipt makes the first delivery attempt inline. Failures are left for
// the retrier and never fail the webhook, since the order is already completed.
func (s *fulfillmentServiceImpl) sendReceipt(ctx context.Context, orderID uint) {
	receiptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.receiptTimeout)
	defer cancel()

	if err := s.receipts.Deliver(receiptCtx, orderID); err != nil {
		s.log.Error("receipt delivery failed, will retry",
			zap.Uint("order_id", orderID),
			zap.Error(err),
		)
	}
}
