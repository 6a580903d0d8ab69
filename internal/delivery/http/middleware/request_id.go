package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a UUID for log correlation. A caller
// supplied ID is kept only when it parses as a UUID; anything else is
// replaced rather than echoed into the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(rid); err != nil {
			id, _ := uuid.NewV7()
			rid = id.String()
		}

		c.Set("request_id", rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}
