package api

import (
	"milk-collection-service/internal/platform/metrics"
	"milk-collection-service/internal/platform/obs"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// maxBodyBytes caps request bodies; inline snapshots stay well below it.
const maxBodyBytes = 4 << 20

// bodyLimitMiddleware makes reads past limit fail with *http.MaxBytesError.
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requestIDMiddleware reuses an inbound X-Request-ID or generates one, and
// stores it in the request context so obs.Time and provider logs carry it.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(obs.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs end-to-end request duration and response size.
// Server errors log at error level, client errors at warn.
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}

		ev = ev.
			Str("req_id", obs.RequestID(c.Request.Context())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.RequestURI()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Int64("dur_ms", time.Since(start).Milliseconds())
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("http request")
	}
}

// metricsMiddleware records request counts and latency by route template,
// so path parameters do not explode label cardinality.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
