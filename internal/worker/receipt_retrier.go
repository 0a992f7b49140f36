package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReceiptSender is the part of the receipt service the retrier drives.
type ReceiptSender interface {
	RetryPending(ctx context.Context) (int, error)
}

// ReceiptRetrier periodically re-attempts receipt emails that failed or were
// abandoned mid-send.
type ReceiptRetrier struct {
	interval time.Duration
	sender   ReceiptSender
	log      *zap.Logger
}

func NewReceiptRetrier(sender ReceiptSender, interval time.Duration, log *zap.Logger) *ReceiptRetrier {
	return &ReceiptRetrier{
		interval: interval,
		sender:   sender,
		log:      log,
	}
}

// Run blocks until ctx is cancelled.
func (r *ReceiptRetrier) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("receipt retrier started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			r.log.Info("receipt retrier stopped")
			return nil
		}
	}
}

func (r *ReceiptRetrier) tick(ctx context.Context) {
	sent, err := r.sender.RetryPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.log.Error("failed to retry receipts", zap.Error(err))
		}
		return
	}
	if sent > 0 {
		r.log.Info("receipts resent", zap.Int("count", sent))
	}
}
