package httpclient

import (
	"context"
	"time"

	"ai-chatbot-be/internal/pkg/logger"

	"resty.dev/v3"
)

type startsAt struct{}

// New builds a resty client that logs method, url, status and latency of
// every call at debug level.
func New(clientName string, timeout time.Duration, log logger.ILogger) *resty.Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	client.SetHeader("Content-Type", "application/json")

	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), startsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		started, _ := r.Request.Context().Value(startsAt{}).(time.Time)
		log.Debug("HTTP_CLIENT", "HTTP client request", map[string]interface{}{
			"client":     clientName,
			"method":     r.Request.Method,
			"url":        r.Request.URL,
			"status":     r.StatusCode(),
			"latency_ms": time.Since(started).Milliseconds(),
		})
		return nil
	})
	return client
}
