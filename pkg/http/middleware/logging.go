package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "RiskPulse/pkg/logger"
)

// RequestLogging logs one line per request. 5xx responses log at error
// level and requests slower than slow at warn.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("route", c.Path()),
				applogger.String("uri", c.Request().RequestURI),
				applogger.Int("status", status),
				applogger.Duration("latency_ms", latency),
				applogger.Int64("bytes", c.Response().Size),
				applogger.String("remote_ip", c.RealIP()),
				applogger.String("request_id", RequestIDFrom(c)),
			}

			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && latency >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
