package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"print-store/internal/client"
	"print-store/internal/config"
	"print-store/internal/invoice"
	"print-store/internal/logger"
	"print-store/internal/repository"
	"print-store/internal/server"
	"print-store/internal/service"
	"print-store/internal/worker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := client.InitDBClient(&cfg.Database, log)
	if err != nil {
		return err
	}

	catalogRepo := repository.NewCatalogRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	if cfg.SeedCatalog {
		if err := catalogRepo.Seed(ctx); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded")
	}

	paymentClient := client.NewStripeClient(&cfg.Stripe, log)
	mailer, err := client.NewMailer(&cfg.SMTP, log)
	if err != nil {
		return err
	}

	receiptService := service.NewReceiptService(
		log,
		cfg.Receipt,
		mailer,
		invoice.NewGenerator(),
		orderRepo,
		receiptRepo,
	)

	services := server.Services{
		Checkout: service.NewCheckoutService(
			db, log, paymentClient,
			service.NewPricingPolicy(&cfg.Pricing),
			service.CheckoutOptions{
				ClientURL:        cfg.ClientURL,
				AllowedCountries: cfg.Stripe.AllowedCountries,
			},
			catalogRepo,
			orderRepo,
		),
		Fulfillment: service.NewFulfillmentService(
			db, log, paymentClient,
			receiptService, cfg.Receipt.Timeout,
			orderRepo,
			webhookEventRepo,
			receiptRepo,
		),
		Orders:  service.NewOrderService(cfg.MediaBaseURL, orderRepo),
		Cart:    service.NewCartService(catalogRepo, cartRepo),
		Catalog: service.NewCatalogService(cfg.MediaBaseURL, catalogRepo),
		Contact: service.NewContactService(log, mailer, cfg.Contact.OwnerEmail),
	}

	srv := server.NewServer(cfg, log, services)
	retrier := worker.NewReceiptRetrier(receiptService, cfg.Receipt.Interval, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", zap.String("addr", cfg.HTTP.Address()))
		if err := srv.Start(cfg.HTTP.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return retrier.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
