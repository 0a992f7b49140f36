// Package testutil holds fixtures shared by package tests: an in-memory
// database, a recording checkout session API and a recording mailer.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"print-store/internal/client"
	"print-store/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const WebhookSecret = "whsec_test_secret"

// NewDB opens a private, migrated in-memory sqlite database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := client.InitDBClient(&config.Database{
		Driver: "sqlite",
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SessionAPI records checkout session calls and hands out sequential ids.
type SessionAPI struct {
	mu      sync.Mutex
	seq     int
	Created []*stripe.CheckoutSessionParams
	Expired []string
	NewErr  error
}

func (s *SessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.NewErr != nil {
		return nil, s.NewErr
	}
	s.seq++
	s.Created = append(s.Created, params)
	id := fmt.Sprintf("cs_test_%d", s.seq)
	return &stripe.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/c/pay/" + id}, nil
}

func (s *SessionAPI) Expire(id string, _ *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Expired = append(s.Expired, id)
	return &stripe.CheckoutSession{ID: id}, nil
}

func (s *SessionAPI) CreatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Created)
}

// NewPaymentClient wires the real Stripe client to api and the test webhook secret.
func NewPaymentClient(api *SessionAPI) client.PaymentClient {
	return client.NewStripeClient(&config.Stripe{WebhookSecret: WebhookSecret}, zap.NewNop(), client.WithSessionAPI(api))
}

type Mailer struct {
	mu   sync.Mutex
	sent []*client.MailMessage
	err  error
}

func (m *Mailer) Send(_ context.Context, msg *client.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mailer) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mailer) Sent() []*client.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*client.MailMessage(nil), m.sent...)
}

// SignedEvent builds a webhook body for a checkout session event and signs it
// with WebhookSecret, returning the body and its Stripe-Signature header.
func SignedEvent(t testing.TB, eventID, eventType, sessionID string) ([]byte, string) {
	t.Helper()

	payload, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"created":     1700000000,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":     sessionID,
				"object": "checkout.session",
			},
		},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  WebhookSecret,
	})
	return signed.Payload, signed.Header
}
