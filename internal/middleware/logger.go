package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger emits one slog line per request. The auth middleware runs before the
// handler, so the actor's subject and role are available by the time we log.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		route := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			route += "?" + q
		}

		c.Next()

		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.String("remote_ip", c.ClientIP()),
		}
		if sub := c.GetString("sub"); sub != "" {
			attrs = append(attrs,
				slog.String("sub", sub),
				slog.String("role", c.GetString("role")),
			)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		slog.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}
