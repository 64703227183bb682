package middleware

import (
	"strconv"
	"time"

	"github.com/bazaarbd/bazaar-backend-go/metrics"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequestLogger logs each request through logrus and records the request
// metrics. Routes are labelled by their pattern, not the raw path.
func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// let the error handler write the response so the status is final
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		latency := time.Since(start)
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(route, req.Method, strconv.Itoa(res.Status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, req.Method).Observe(latency.Seconds())

		entry := log.WithFields(log.Fields{
			"request_id": res.Header().Get(echo.HeaderXRequestID),
			"method":     req.Method,
			"uri":        req.RequestURI,
			"route":      route,
			"status":     res.Status,
			"latency_ms": latency.Milliseconds(),
			"remote_ip":  c.RealIP(),
		})
		switch {
		case res.Status >= 500:
			entry.Error("request failed")
		case res.Status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
		return nil
	}
}
