package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderName is the canonical request id header.
const HeaderName = "X-Request-ID"

const contextKey = "requestID"

// Middleware assigns a request id when the client did not send one and
// echoes it back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(HeaderName, id)
		c.Next()
	}
}

// Value returns the request id stored on the gin context, if any.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
