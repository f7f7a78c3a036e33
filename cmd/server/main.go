package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/proxynest/proxynest/internal/api"
	"github.com/proxynest/proxynest/internal/api/cron"
	v1 "github.com/proxynest/proxynest/internal/api/v1"
	"github.com/proxynest/proxynest/internal/config"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/payment"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/repository"
	"github.com/proxynest/proxynest/internal/service"
	"github.com/proxynest/proxynest/internal/validator"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewDB,
			postgres.NewClient,

			// Repositories
			repository.NewProxyRepository,
			repository.NewAllocationRepository,
			repository.NewSubscriptionRepository,
			repository.NewLedgerRepository,
			repository.NewInvoiceRepository,
			repository.NewUsageRepository,

			// Services
			service.NewServiceParams,
			service.NewProxyService,
			service.NewAllocationService,
			service.NewLedgerService,
			service.NewInvoiceService,
			service.NewSubscriptionService,
			service.NewUsageService,
			service.NewReaperService,

			// Payment provider
			payment.NewStripeService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	proxyService service.ProxyService,
	allocationService service.AllocationService,
	ledgerService service.LedgerService,
	invoiceService service.InvoiceService,
	subscriptionService service.SubscriptionService,
	usageService service.UsageService,
	reaperService service.ReaperService,
	stripeService payment.StripeService,
) api.Handlers {
	return api.Handlers{
		Proxy:        v1.NewProxyHandler(proxyService, logger),
		Allocation:   v1.NewAllocationHandler(allocationService, logger),
		Wallet:       v1.NewWalletHandler(ledgerService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, invoiceService, logger),
		Invoice:      v1.NewInvoiceHandler(invoiceService, logger),
		Usage:        v1.NewUsageHandler(usageService, logger),
		Payment:      v1.NewPaymentHandler(stripeService, logger),
		CronReaper:   cron.NewReaperHandler(reaperService, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
