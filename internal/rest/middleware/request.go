package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/proxynest/proxynest/internal/types"
)

// RequestIDMiddleware tags every request with an id for log correlation.
// An inbound X-Request-ID is honoured so ids survive proxy hops.
func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUID()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
