package server

import (
	"time"

	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// StatusRecorder receives the status code of every response
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// RequestIDMiddleware propagates a caller-supplied request id or assigns a new one
func RequestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if !utils.ValidID(id) {
		id = utils.GenerateID()
	}
	c.Set(utils.RequestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":     c.Request.Method,
		"path":       c.FullPath(),
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
		"request_id": utils.RequestID(c),
		"client_ip":  c.ClientIP(),
	}
	if userID, ok := c.Get(helpers.ContextUserID); ok {
		fields["user_id"] = userID
	}
	if c.FullPath() == "" {
		fields["path"] = c.Request.URL.Path
	}

	utils.Info("HTTP Request", fields)
}

// MetricsMiddleware reports response status codes to rec
func MetricsMiddleware(rec StatusRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		rec.RecordHTTPStatus(c.Writer.Status())
	}
}
