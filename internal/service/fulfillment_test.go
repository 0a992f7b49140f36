package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"print-store/internal/client"
	"print-store/internal/model"
	"print-store/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutCompleted = "checkout.session.completed"

func TestHandleWebhook_CompletesOrderAndSendsReceipt(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_1", checkoutCompleted, order.PaymentSessionID)
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, order.ID, result.OrderID)

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, fmt.Sprintf("#%d", order.ID))
	assert.Contains(t, sent[0].HTML, "Ada Lovelace")
	assert.Contains(t, sent[0].HTML, "61.50")
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, fmt.Sprintf("invoice-%d.pdf", order.ID), sent[0].Attachments[0].Filename)
	assert.True(t, len(sent[0].Attachments[0].Content) > 4)
	assert.Equal(t, "%PDF", string(sent[0].Attachments[0].Content[:4]))

	receipt, err := env.receiptRepo.FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptStatusSent, receipt.Status)
	assert.Equal(t, 1, receipt.Attempts)
	assert.NotNil(t, receipt.SentAt)
}

func TestHandleWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_dup", checkoutCompleted, order.PaymentSessionID)
	first, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.True(t, first.Completed)

	second, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, second.Completed)

	assert.Len(t, env.mailer.Sent(), 1)
	assert.Equal(t, int32(1), env.invoices.calls.Load())
}

func TestHandleWebhook_NewEventForCompletedOrderIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_a", checkoutCompleted, order.PaymentSessionID)
	_, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)

	payload, sig = testutil.SignedEvent(t, "evt_b", checkoutCompleted, order.PaymentSessionID)
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, order.ID, result.OrderID)

	assert.Len(t, env.mailer.Sent(), 1)
}

func TestHandleWebhook_ConcurrentDeliveries(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_race", checkoutCompleted, order.PaymentSessionID)

	const deliveries = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		errs      []error
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if result.Completed {
				completed++
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, completed)
	assert.Len(t, env.mailer.Sent(), 1)
	assert.Equal(t, int32(1), env.invoices.calls.Load())

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, _ := testutil.SignedEvent(t, "evt_forged", checkoutCompleted, order.PaymentSessionID)

	for name, sig := range map[string]string{
		"missing header": "",
		"wrong secret":   "t=1700000000,v1=deadbeef",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
			var sigErr *SignatureVerificationError
			require.ErrorAs(t, err, &sigErr)
			assert.True(t, errors.Is(err, client.ErrInvalidSignature))
		})
	}

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
	assert.Empty(t, env.mailer.Sent())

	processed, err := env.webhookEventRepo.Exists(context.Background(), nil, "evt_forged")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestHandleWebhook_TamperedPayload(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_1", checkoutCompleted, order.PaymentSessionID)
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '

	_, err := env.fulfillment.HandleWebhook(context.Background(), tampered, sig)
	var sigErr *SignatureVerificationError
	require.ErrorAs(t, err, &sigErr)

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestHandleWebhook_UnknownSessionIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	payload, sig := testutil.SignedEvent(t, "evt_orphan", checkoutCompleted, "cs_unknown")
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Zero(t, result.OrderID)
	assert.Empty(t, env.mailer.Sent())
}

func TestHandleWebhook_MissingSessionIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_nosession", checkoutCompleted, "")
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Empty(t, env.mailer.Sent())

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestHandleWebhook_IgnoresOtherEventTypes(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())

	payload, sig := testutil.SignedEvent(t, "evt_expired", "checkout.session.expired", order.PaymentSessionID)
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.False(t, result.Completed)

	stored, err := env.orderRepo.FindByID(context.Background(), nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestHandleWebhook_MailFailureIsRetried(t *testing.T) {
	env := newTestEnv(t)
	order := env.createOrder(t, nil, checkoutRequest())
	env.mailer.SetErr(errors.New("smtp: connection refused"))

	payload, sig := testutil.SignedEvent(t, "evt_1", checkoutCompleted, order.PaymentSessionID)
	result, err := env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	assert.True(t, result.Completed)

	receipt, err := env.receiptRepo.FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptStatusFailed, receipt.Status)
	assert.Contains(t, receipt.LastError, "connection refused")

	// a redelivery of the event must not trigger a second attempt
	_, err = env.fulfillment.HandleWebhook(context.Background(), payload, sig)
	require.NoError(t, err)
	receipt, err = env.receiptRepo.FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Attempts)

	env.mailer.SetErr(nil)
	sent, err := env.receipts.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, env.mailer.Sent(), 1)

	receipt, err = env.receiptRepo.FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptStatusSent, receipt.Status)
	assert.Equal(t, 2, receipt.Attempts)

	sent, err = env.receipts.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, env.mailer.Sent(), 1)
}
