package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sleepstars/chatproxy/internal/logger"
)

// CORS header values sent on every response
const (
	CORSAllowCredentials = "true"
	CORSAllowOrigin      = "*"
	CORSAllowMethods     = "POST, OPTIONS"
	CORSAllowHeaders     = "X-CSRF-Token, X-Requested-With, Accept, Accept-Version, Content-Length, Content-MD5, Content-Type, Date, X-Api-Version"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// CORS sets the fixed cross-origin headers before any handler runs, so
// error responses carry them too.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Credentials", CORSAllowCredentials)
		h.Set("Access-Control-Allow-Origin", CORSAllowOrigin)
		h.Set("Access-Control-Allow-Methods", CORSAllowMethods)
		h.Set("Access-Control-Allow-Headers", CORSAllowHeaders)
		c.Next()
	}
}

// RequestID reuses the caller's X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per completed request
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestLogger(c, log).Info("%s %s status=%d duration_ms=%d",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
		)
	}
}

func requestLogger(c *gin.Context, log *logger.Logger) *logger.Logger {
	if id := c.GetString(requestIDKey); id != "" {
		return log.WithRequestID(id)
	}
	return log
}
