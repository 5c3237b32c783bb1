package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Middleware logs every request with a stable request id, echoing the id
// back to the caller. The request-scoped logger is stored on the context
// under "logger" for downstream handlers.
func Middleware(base *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header(requestIDHeader, requestID)
		}

		reqLogger := base.WithRequestID(requestID)
		if userID, ok := c.Get("userId"); ok {
			reqLogger = reqLogger.WithUserID(fmt.Sprintf("%v", userID))
		}
		c.Set("logger", reqLogger)

		start := time.Now()
		c.Next()

		reqLogger.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))

		for _, ginErr := range c.Errors {
			reqLogger.LogError(ginErr.Err, "request error",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error_type", ginErr.Type,
			)
		}
	}
}
