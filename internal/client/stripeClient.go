package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"print-store/internal/config"

	"github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

const EventCheckoutSessionCompleted = string(stripe.EventTypeCheckoutSessionCompleted)

type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	// ConstructEvent verifies the signature over the raw payload bytes and decodes the event.
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// SessionAPI is the subset of the Stripe checkout session client used here.
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64 // smallest currency unit
	Quantity   int64
}

type CheckoutSessionRequest struct {
	LineItems        []CheckoutLineItem
	Currency         string
	CustomerEmail    string
	SuccessURL       string
	CancelURL        string
	ShippingRateID   string
	AllowedCountries []string
	Metadata         map[string]string
	IdempotencyKey   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type WebhookEvent struct {
	ID   string
	Type string
	// SessionID is set for checkout session events.
	SessionID string
}

type stripeClientImpl struct {
	sessions      SessionAPI
	webhookSecret string
}

type StripeOption func(*stripeClientImpl)

// WithSessionAPI replaces the Stripe-backed session client, e.g. with a test double.
func WithSessionAPI(api SessionAPI) StripeOption {
	return func(c *stripeClientImpl) {
		c.sessions = api
	}
}

func NewStripeClient(cfg *config.Stripe, log *zap.Logger, opts ...StripeOption) PaymentClient {
	c := &stripeClientImpl{
		webhookSecret: cfg.WebhookSecret,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessions == nil {
		// a duplicated create call would open a second session, so stripe-go must not retry
		backendCfg := &stripe.BackendConfig{
			HTTPClient:        &http.Client{Timeout: cfg.Timeout},
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     log.Sugar(),
		}
		sc := stripeclient.New(cfg.SecretKey, &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
		})
		c.sessions = sc.CheckoutSessions
	}

	return c
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	if len(req.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		}
	}
	if req.ShippingRateID != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(req.ShippingRateID)},
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

func (c *stripeClientImpl) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := c.sessions.Expire(sessionID, params); err != nil {
		return fmt.Errorf("stripe expire checkout session %s: %w", sessionID, err)
	}
	return nil
}

func (c *stripeClientImpl) ConstructEvent(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(result.Type, "checkout.session.") && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
		}
		result.SessionID = session.ID
	}

	return result, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
