package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/katanaluca/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes bounds admin API request bodies. Corrected payloads
// resent through the failed-record endpoints stay well under this.
const DefaultMaxBodyBytes = 1 << 20

// BodyLimit rejects requests whose body exceeds maxBytes. A Content-Length
// over the limit is refused up front; chunked bodies are cut off by
// MaxBytesReader while the handler reads them.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "request body too large", c.GetString(RequestIDHeader)))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
