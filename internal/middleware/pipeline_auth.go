package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
)

// APIKeyHeader carries the shared secret for pipeline endpoints.
const APIKeyHeader = "X-API-Key"

// PipelineAuthMiddleware rejects requests whose X-API-Key header does not
// match apiKey. With no key configured the pipeline routes are disabled.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithAppError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithAppError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
