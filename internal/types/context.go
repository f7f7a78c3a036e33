package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxTenantID      ContextKey = "ctx_tenant_id"
	CtxDBTransaction ContextKey = "ctx_db_transaction"

	// DefaultTenantID is used by scripts and tests that run outside a request
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"

	HeaderTenantID  = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

// GetTenantID returns the tenant id resolved by the upstream auth layer.
// The core performs no credential checks; the id is treated as opaque.
func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(CtxTenantID).(string); ok {
		return tenantID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}
