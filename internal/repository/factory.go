package repository

import (
	"github.com/proxynest/proxynest/internal/domain/allocation"
	"github.com/proxynest/proxynest/internal/domain/invoice"
	"github.com/proxynest/proxynest/internal/domain/ledger"
	"github.com/proxynest/proxynest/internal/domain/proxy"
	"github.com/proxynest/proxynest/internal/domain/subscription"
	"github.com/proxynest/proxynest/internal/domain/usage"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	postgresRepo "github.com/proxynest/proxynest/internal/repository/postgres"
)

func NewProxyRepository(client postgres.IClient, logger *logger.Logger) proxy.Repository {
	return postgresRepo.NewProxyRepository(client, logger)
}

func NewAllocationRepository(client postgres.IClient, logger *logger.Logger) allocation.Repository {
	return postgresRepo.NewAllocationRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewLedgerRepository(client postgres.IClient, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(client, logger)
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewUsageRepository(client postgres.IClient, logger *logger.Logger) usage.Repository {
	return postgresRepo.NewUsageRepository(client, logger)
}
