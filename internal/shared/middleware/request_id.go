package middleware

import (
	"github.com/gin-gonic/gin"

	"library-backend/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

// RequestID takes the caller's X-Request-ID or mints one, and stores it as
// the correlation id of the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = logger.NewCorrelationID()
		}

		c.Set("request_id", id)
		c.Request = c.Request.WithContext(logger.WithCorrelationID(c.Request.Context(), id))
		c.Header(HeaderRequestID, id)

		c.Next()
	}
}
