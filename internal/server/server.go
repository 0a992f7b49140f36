package server

import (
	"context"
	"net/http"

	"print-store/internal/config"
	"print-store/internal/handler"
	"print-store/internal/middleware"
	"print-store/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const webhookBodyLimit = "64K"

type Services struct {
	Checkout    service.CheckoutService
	Fulfillment service.FulfillmentService
	Orders      service.OrderService
	Cart        service.CartService
	Catalog     service.CatalogService
	Contact     service.ContactService
}

type Server struct {
	echo            *echo.Echo
	auth            *middleware.Authenticator
	rateLimitRPS    float64
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	orderHandler    *handler.OrderHandler
	cartHandler     *handler.CartHandler
	catalogHandler  *handler.CatalogHandler
	contactHandler  *handler.ContactHandler
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewErrorHandler(log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.ClientURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		echo:            e,
		auth:            middleware.NewAuthenticator(cfg.Auth.JWTSecret),
		rateLimitRPS:    cfg.HTTP.RateLimitRPS,
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		webhookHandler:  handler.NewWebhookHandler(services.Fulfillment),
		orderHandler:    handler.NewOrderHandler(services.Orders),
		cartHandler:     handler.NewCartHandler(services.Cart),
		catalogHandler:  handler.NewCatalogHandler(services.Catalog),
		contactHandler:  handler.NewContactHandler(services.Contact),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- catalog --------
	api.GET("/gallery", s.catalogHandler.Gallery)
	api.GET("/print-sizes", s.catalogHandler.PrintSizes)

	// -------- checkout / payment provider callbacks --------
	checkoutMiddleware := append([]echo.MiddlewareFunc{s.auth.OptionalAuth()}, s.rateLimit()...)
	api.POST("/checkout", s.checkoutHandler.CreateSession, checkoutMiddleware...)
	api.POST("/webhook", s.webhookHandler.PaymentWebhook, echomw.BodyLimit(webhookBodyLimit))

	// -------- contact --------
	api.POST("/contact", s.contactHandler.Submit, s.rateLimit()...)

	// -------- orders --------
	orders := api.Group("/orders")
	orders.GET("/by-session/:sessionId", s.orderHandler.GetBySession)
	orders.GET("/mine", s.orderHandler.ListMine, s.auth.RequireAuth())
	orders.GET("", s.orderHandler.ListAll, s.auth.RequireAuth(), middleware.RequireAdmin())

	// -------- cart --------
	cart := api.Group("/cart", s.auth.RequireAuth())
	cart.GET("", s.cartHandler.List)
	cart.POST("", s.cartHandler.Add)
	cart.DELETE("/:itemId", s.cartHandler.Remove)
}

// rateLimit returns a per-IP limiter for endpoints that reach external services.
func (s *Server) rateLimit() []echo.MiddlewareFunc {
	if s.rateLimitRPS <= 0 {
		return nil
	}
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(s.rateLimitRPS))
	return []echo.MiddlewareFunc{echomw.RateLimiter(store)}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
