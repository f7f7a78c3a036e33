package api

import (
	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/api/cron"
	v1 "github.com/proxynest/proxynest/internal/api/v1"
	"github.com/proxynest/proxynest/internal/rest/middleware"
)

type Handlers struct {
	Proxy        *v1.ProxyHandler
	Allocation   *v1.AllocationHandler
	Wallet       *v1.WalletHandler
	Subscription *v1.SubscriptionHandler
	Invoice      *v1.InvoiceHandler
	Usage        *v1.UsageHandler
	Payment      *v1.PaymentHandler
	CronReaper   *cron.ReaperHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.TenantMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	proxies := router.Group("/proxies")
	{
		proxies.POST("", handlers.Proxy.CreateProxy)
		proxies.GET("", handlers.Proxy.ListProxies)
		proxies.GET("/:id", handlers.Proxy.GetProxy)
		proxies.PUT("/:id", handlers.Proxy.UpdateProxy)
		proxies.DELETE("/:id", handlers.Proxy.DeleteProxy)
		proxies.POST("/:id/status", handlers.Proxy.SetProxyStatus)
		proxies.GET("/:id/availability", handlers.Proxy.GetAvailability)
		proxies.POST("/:id/health", handlers.Proxy.RecordHealthCheck)
	}

	allocations := router.Group("/allocations")
	{
		allocations.POST("", handlers.Allocation.Allocate)
		allocations.GET("", handlers.Allocation.ListActive)
		allocations.GET("/history", handlers.Allocation.ListHistory)
		allocations.GET("/:id", handlers.Allocation.GetAllocation)
		allocations.POST("/:id/release", handlers.Allocation.Release)
		allocations.POST("/:id/renew", handlers.Allocation.Renew)
	}

	wallet := router.Group("/wallet")
	{
		wallet.GET("/balance", handlers.Wallet.GetBalance)
		wallet.GET("/history", handlers.Wallet.History)
		wallet.POST("/topup", handlers.Wallet.Topup)
		wallet.POST("/debit", handlers.Wallet.Debit)
		wallet.POST("/topups/pending", handlers.Wallet.CreatePendingTopup)
		wallet.POST("/topups/:id/confirm", handlers.Wallet.ConfirmTopup)
		wallet.POST("/refund", handlers.Wallet.Refund)
	}

	checkout := router.Group("/checkout")
	{
		checkout.POST("/topup", handlers.Payment.CheckoutTopup)
		checkout.POST("/invoices/:id", handlers.Payment.CheckoutInvoice)
		checkout.POST("/sessions/:session_id/confirm", handlers.Payment.ConfirmCheckout)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.POST("", handlers.Subscription.Subscribe)
		subscriptions.GET("", handlers.Subscription.ListSubscriptions)
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.Cancel)
		subscriptions.POST("/:id/activate", handlers.Subscription.Activate)
		subscriptions.GET("/:id/invoices", handlers.Subscription.ListInvoices)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/summary", handlers.Invoice.Summary)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/pay", handlers.Invoice.MarkPaid)
		invoices.POST("/:id/fail", handlers.Invoice.MarkFailed)
		invoices.POST("/:id/cancel", handlers.Invoice.Cancel)
		invoices.POST("/:id/retry", handlers.Invoice.Retry)
	}

	usage := router.Group("/usage")
	{
		usage.POST("", handlers.Usage.Record)
		usage.POST("/batch", handlers.Usage.RecordBatch)
		usage.GET("/series", handlers.Usage.GetSeries)
		usage.GET("/top", handlers.Usage.TopConsumers)
		usage.GET("/totals", handlers.Usage.Totals)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	reaper := router.Group("/reaper")
	{
		reaper.POST("/allocations", handlers.CronReaper.ExpireAllocations)
		reaper.POST("/usage", handlers.CronReaper.SweepUsage)
		reaper.POST("/invoices", handlers.CronReaper.SweepInvoices)
		reaper.POST("/all", handlers.CronReaper.RunAll)
	}
}
