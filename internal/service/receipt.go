package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"print-store/internal/client"
	"print-store/internal/config"
	"print-store/internal/model"
	"print-store/internal/repository"

	"go.uber.org/zap"
)

// InvoiceRenderer produces the PDF attached to a receipt.
type InvoiceRenderer interface {
	Render(order *model.Order, items []model.OrderItem) ([]byte, error)
}

type ReceiptService interface {
	// Deliver sends the receipt for a completed order unless another caller
	// holds or has finished the delivery.
	Deliver(ctx context.Context, orderID uint) error
	// RetryPending re-attempts failed and abandoned deliveries, returning how many were sent.
	RetryPending(ctx context.Context) (int, error)
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<p>Hi {{.Name}},</p>
<p>Thank you for your order #{{.OrderID}} placed on {{.Date}}.</p>
<table>
{{range .Items}}<tr><td>{{.ItemName}}</td><td>x{{.Quantity}}</td><td>{{$.Symbol}}{{.PriceAtPurchase.StringFixed 2}}</td></tr>
{{end}}</table>
<p><strong>Total: {{.Symbol}}{{.Total}}</strong></p>
<p>Your invoice is attached.</p>`))

type receiptData struct {
	Name    string
	OrderID uint
	Date    string
	Items   []model.OrderItem
	Symbol  string
	Total   string
}

type receiptServiceImpl struct {
	log         *zap.Logger
	cfg         config.Receipt
	mailer      client.Mailer
	invoices    InvoiceRenderer
	orderRepo   repository.OrderRepository
	receiptRepo repository.ReceiptRepository
}

func NewReceiptService(
	log *zap.Logger,
	cfg config.Receipt,
	mailer client.Mailer,
	invoices InvoiceRenderer,
	orderRepo repository.OrderRepository,
	receiptRepo repository.ReceiptRepository,
) ReceiptService {
	return &receiptServiceImpl{
		log:         log,
		cfg:         cfg,
		mailer:      mailer,
		invoices:    invoices,
		orderRepo:   orderRepo,
		receiptRepo: receiptRepo,
	}
}

func (s *receiptServiceImpl) Deliver(ctx context.Context, orderID uint) error {
	_, err := s.deliver(ctx, orderID)
	return err
}

func (s *receiptServiceImpl) deliver(ctx context.Context, orderID uint) (bool, error) {
	staleBefore := time.Now().Add(-s.cfg.Lease)
	claimed, err := s.receiptRepo.Claim(ctx, orderID, staleBefore, s.cfg.MaxAttempts)
	if err != nil {
		return false, fmt.Errorf("claim receipt for order %d: %w", orderID, err)
	}
	if !claimed {
		s.log.Debug("receipt not claimable, skipping", zap.Uint("order_id", orderID))
		return false, nil
	}

	if err := s.send(ctx, orderID); err != nil {
		if markErr := s.receiptRepo.MarkFailed(context.WithoutCancel(ctx), orderID, err.Error()); markErr != nil {
			s.log.Error("failed to record receipt failure", zap.Uint("order_id", orderID), zap.Error(markErr))
		}
		return false, err
	}

	if err := s.receiptRepo.MarkSent(context.WithoutCancel(ctx), orderID); err != nil {
		return true, fmt.Errorf("mark receipt sent for order %d: %w", orderID, err)
	}

	s.log.Info("receipt sent", zap.Uint("order_id", orderID))
	return true, nil
}

func (s *receiptServiceImpl) send(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return fmt.Errorf("find order %d: %w", orderID, err)
	}
	items, err := s.orderRepo.GetOrderItems(ctx, nil, orderID)
	if err != nil {
		return fmt.Errorf("get order items %d: %w", orderID, err)
	}

	pdf, err := s.invoices.Render(order, items)
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}

	var body bytes.Buffer
	err = receiptTemplate.Execute(&body, receiptData{
		Name:    order.CustomerName,
		OrderID: order.ID,
		Date:    model.FormatOrderDate(order.CreatedAt),
		Items:   items,
		Symbol:  "$",
		Total:   order.TotalAmount.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("render receipt body: %w", err)
	}

	err = s.mailer.Send(ctx, &client.MailMessage{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Your receipt for order #%d", order.ID),
		HTML:    body.String(),
		Attachments: []client.Attachment{
			{Filename: fmt.Sprintf("invoice-%d.pdf", order.ID), Content: pdf},
		},
	})
	if err != nil {
		return &ExternalServiceError{Service: "mail transport", Err: err}
	}
	return nil
}

func (s *receiptServiceImpl) RetryPending(ctx context.Context) (int, error) {
	staleBefore := time.Now().Add(-s.cfg.Lease)
	receipts, err := s.receiptRepo.ListRetryable(ctx, staleBefore, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list retryable receipts: %w", err)
	}

	sent := 0
	for _, r := range receipts {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		deliverCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		delivered, err := s.deliver(deliverCtx, r.OrderID)
		cancel()
		if err != nil {
			s.log.Warn("receipt retry failed",
				zap.Uint("order_id", r.OrderID),
				zap.Int("attempts", r.Attempts+1),
				zap.Error(err),
			)
			continue
		}
		if delivered {
			sent++
		}
	}
	return sent, nil
}
