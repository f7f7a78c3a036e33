package v1

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/proxynest/proxynest/internal/errors"
)

// ErrorResponse represents the API error response structure
type ErrorResponse struct {
	Error  string `json:"error" example:"Invalid request payload"`
	Detail string `json:"detail,omitempty" example:"proxy not found"`
}

// NewErrorResponse writes an error with an explicit status code.
func NewErrorResponse(c *gin.Context, code int, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:  message,
		Detail: detail,
	})
}

// RespondError maps the error kind to its HTTP status and writes it.
func RespondError(c *gin.Context, message string, err error) {
	NewErrorResponse(c, ierr.HTTPStatusFromErr(err), message, err)
}
