package service

import (
	"github.com/proxynest/proxynest/internal/config"
	"github.com/proxynest/proxynest/internal/domain/allocation"
	"github.com/proxynest/proxynest/internal/domain/invoice"
	"github.com/proxynest/proxynest/internal/domain/ledger"
	"github.com/proxynest/proxynest/internal/domain/proxy"
	"github.com/proxynest/proxynest/internal/domain/subscription"
	"github.com/proxynest/proxynest/internal/domain/usage"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	ProxyRepo        proxy.Repository
	AllocationRepo   allocation.Repository
	SubscriptionRepo subscription.Repository
	LedgerRepo       ledger.Repository
	InvoiceRepo      invoice.Repository
	UsageRepo        usage.Repository
}

// NewServiceParams wires common dependencies once so every service
// constructor takes the same bundle.
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	proxyRepo proxy.Repository,
	allocationRepo allocation.Repository,
	subscriptionRepo subscription.Repository,
	ledgerRepo ledger.Repository,
	invoiceRepo invoice.Repository,
	usageRepo usage.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		ProxyRepo:        proxyRepo,
		AllocationRepo:   allocationRepo,
		SubscriptionRepo: subscriptionRepo,
		LedgerRepo:       ledgerRepo,
		InvoiceRepo:      invoiceRepo,
		UsageRepo:        usageRepo,
	}
}
