package service

import (
	"testing"

	"github.com/proxynest/proxynest/internal/config"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

// testStores bundles the in-memory stores behind a ServiceParams so each
// suite can reach into the ones it needs.
type testStores struct {
	proxyRepo        *testutil.InMemoryProxyStore
	allocationRepo   *testutil.InMemoryAllocationStore
	subscriptionRepo *testutil.InMemorySubscriptionStore
	ledgerRepo       *testutil.InMemoryLedgerStore
	invoiceRepo      *testutil.InMemoryInvoiceStore
	usageRepo        *testutil.InMemoryUsageStore
}

func newTestServiceParams(t *testing.T) (ServiceParams, *testStores) {
	cfg := &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelDebug,
		},
		Retention: config.RetentionConfig{
			UsageDays:   90,
			InvoiceDays: 365,
		},
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	stores := &testStores{
		proxyRepo:        testutil.NewInMemoryProxyStore(),
		allocationRepo:   testutil.NewInMemoryAllocationStore(),
		subscriptionRepo: testutil.NewInMemorySubscriptionStore(),
		ledgerRepo:       testutil.NewInMemoryLedgerStore(),
		invoiceRepo:      testutil.NewInMemoryInvoiceStore(),
		usageRepo:        testutil.NewInMemoryUsageStore(),
	}

	params := ServiceParams{
		Logger:           log,
		Config:           cfg,
		DB:               testutil.NewMockPostgresClient(log),
		ProxyRepo:        stores.proxyRepo,
		AllocationRepo:   stores.allocationRepo,
		SubscriptionRepo: stores.subscriptionRepo,
		LedgerRepo:       stores.ledgerRepo,
		InvoiceRepo:      stores.invoiceRepo,
		UsageRepo:        stores.usageRepo,
	}
	return params, stores
}
