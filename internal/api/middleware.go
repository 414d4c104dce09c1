package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"trade-journal/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// requestID assigns every request an ID, reusing a client-supplied one,
// and stores it on the request context.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Header(RequestIDHeader, id)

		ctx := logging.WithRequestID(c.Request.Context(), id)
		ctx = logging.WithLogger(ctx, s.logger.With().Str("request_id", id).Logger())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger := logging.FromContext(c.Request.Context())
		logging.LogRequest(logger, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
