package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/types"
)

// TenantMiddleware resolves the tenant for the request from the
// X-Tenant-ID header. Credential checks happen upstream of this
// service, so the id is trusted as-is. Requests without a header fall
// back to the default tenant, which keeps local development and
// smoke tests working without a gateway in front.
func TenantMiddleware(c *gin.Context) {
	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxTenantID, tenantID)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
