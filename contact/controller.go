package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of the endpoint's reply is decoded.
const maxResponseBytes = 1 << 20

// Controller owns one contact form: its field values, the status of the
// last submission and the busy flag while a submission is in flight.
//
// A Controller is safe for concurrent use, but it does not serialize
// submissions: two overlapping Submit calls both reach the endpoint.
type Controller struct {
	client   Doer
	logger   *zap.Logger
	observer Observer
	status   Status
	base     *url.URL
	path     string
	form     Form

	mu         sync.Mutex
	submitting atomic.Bool
}

// New creates a controller posting to baseURL joined with DefaultPath.
func New(baseURL string, opts ...Option) (*Controller, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Controller{
		client: &http.Client{},
		logger: zap.NewNop(),
		status: Idle{},
		base:   base,
		path:   DefaultPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL submissions are posted to.
func (c *Controller) Endpoint() string {
	return c.base.JoinPath(c.path).String()
}

// Form returns a snapshot of the current field values.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Status returns the outcome of the last completed submission.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Submitting reports whether a Submit call is in progress.
func (c *Controller) Submitting() bool {
	return c.submitting.Load()
}

// SetField updates one field. Editing after a completed submission clears
// the status back to Idle so a stale banner does not linger.
func (c *Controller) SetField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	form, err := c.form.With(field, value)
	if err != nil {
		return err
	}
	c.form = form
	if !IsIdle(c.status) {
		c.status = Idle{}
	}
	return nil
}

// Reset clears every field and the status.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.form = Form{}
	c.status = Idle{}
}

// Submit validates the email address and posts the form to the endpoint.
// It never returns an error: every failure is reported through the Result
// and a Failure status, with the fields left intact for another attempt.
// On success the form is cleared.
func (c *Controller) Submit(ctx context.Context) Result {
	c.submitting.Store(true)
	defer c.submitting.Store(false)

	c.mu.Lock()
	c.status = Idle{}
	form := c.form
	c.mu.Unlock()

	msg, err := c.send(ctx, form)

	var res Result
	c.mu.Lock()
	if err != nil {
		c.status = Failure{Reason: err.Error()}
		res = Result{Success: false, Error: err.Error()}
	} else {
		c.resetLocked()
		c.status = Success{Message: msg}
		res = Result{Success: true, Message: msg}
	}
	c.mu.Unlock()

	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.logger.Info("contact form rejected", zap.String("field", string(verr.Field)))
		} else {
			c.logger.Error("contact form error", zap.String("endpoint", c.Endpoint()), zap.Error(err))
		}
	} else {
		c.logger.Info("contact form sent", zap.String("endpoint", c.Endpoint()))
	}

	if c.observer != nil {
		c.observer(ctx, form, res, err)
	}
	return res
}

type endpointReply struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Controller) send(ctx context.Context, form Form) (string, error) {
	if err := ValidateEmail(form.Email); err != nil {
		return "", err
	}

	body, err := json.Marshal(form)
	if err != nil {
		return "", newTransportError(fmt.Errorf("encode contact form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", newTransportError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", newTransportError(err)
	}
	defer resp.Body.Close()

	var reply endpointReply
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&reply)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newStatusError(resp.StatusCode, reply.Error)
	}
	if decodeErr != nil {
		err := fmt.Errorf("decode contact response: %w", decodeErr)
		return "", &SubmissionError{Err: err, Message: err.Error(), StatusCode: resp.StatusCode}
	}
	return reply.Message, nil
}
