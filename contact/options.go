package contact

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// DefaultPath is the endpoint path appended to the base URL.
const DefaultPath = "/api/contact"

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer is notified after every submission attempt with the form as it
// was submitted, the result handed to the caller and the underlying error
// (nil on success).
type Observer func(ctx context.Context, form Form, res Result, err error)

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient replaces the HTTP client used for submissions.
func WithHTTPClient(client Doer) Option {
	return func(c *Controller) {
		if client != nil {
			c.client = client
		}
	}
}

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(c *Controller) {
		if path != "" {
			c.path = path
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a callback run after each Submit.
func WithObserver(fn Observer) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}
