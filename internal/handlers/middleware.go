package handlers

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tuttoxa9/vahtarep10/internal/dtos"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request-id"
)

// RequestID tags the request with an id and puts a logger carrying it into
// the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		logger := log.With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

// AccessLog logs every completed request.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		begin := time.Now()
		c.Next()

		log.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(begin)).
			Str("client_ip", c.ClientIP()).
			Msg("Completed request")
	}
}

// Recovery turns a panic into a 500 with a generic body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rvr := recover(); rvr != nil {
				log.Error().
					Interface("panic", rvr).
					Str("request_id", c.GetString(requestIDKey)).
					Str("method", c.Request.Method).
					Str("url", c.Request.URL.String()).
					Str("stack_trace", string(debug.Stack())).
					Msg("Recovered from panic")

				c.AbortWithStatusJSON(http.StatusInternalServerError, dtos.ErrorResponse{
					Error:   "Internal server error",
					Details: "unexpected server error",
				})
			}
		}()
		c.Next()
	}
}
