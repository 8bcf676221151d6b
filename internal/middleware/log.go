package middleware

import (
	"finance-tracker/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID tags the request with an id. Audit entries written while
// serving the request carry it, so a log row can be matched to the access
// log line.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(ledger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
