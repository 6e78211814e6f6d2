package contact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// doerFunc adapts a function to the Doer interface.
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

var filledForm = Form{
	FirstName: "Jane",
	LastName:  "Doe",
	Email:     "jane@example.com",
	Subject:   "Hello",
	Message:   "Let's build something.",
}

func fill(t *testing.T, c *Controller, f Form) {
	t.Helper()
	for _, field := range Fields {
		require.NoError(t, c.SetField(field, f.Get(field)))
	}
}

func newRelay(t *testing.T, status int, body string, seen *Form) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newController(t *testing.T, base string, opts ...Option) *Controller {
	t.Helper()
	c, err := New(base, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "YOUR_BACKEND_URL", "ftp://example.com", "https://", "://bad"} {
		_, err := New(base)
		assert.ErrorIs(t, err, ErrInvalidBaseURL, base)
	}
}

func TestController_Endpoint(t *testing.T) {
	c := newController(t, "https://relay.example.com")
	assert.Equal(t, "https://relay.example.com/api/contact", c.Endpoint())

	c = newController(t, "https://relay.example.com/v1/", WithPath("/messages"))
	assert.Equal(t, "https://relay.example.com/v1/messages", c.Endpoint())
}

func TestController_SubmitSuccess(t *testing.T) {
	var seen Form
	srv := newRelay(t, http.StatusOK, `{"message":"OK"}`, &seen)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
	fill(t, c, filledForm)

	res := c.Submit(context.Background())

	assert.Equal(t, Result{Success: true, Message: "OK"}, res)
	if diff := cmp.Diff(filledForm, seen); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Form{}, c.Form(), "form is cleared after success")
	assert.Equal(t, Success{Message: "OK"}, c.Status())
	assert.False(t, c.Submitting())
}

func TestController_SubmitRejected(t *testing.T) {
	srv := newRelay(t, http.StatusBadRequest, `{"error":"Bad subject"}`, nil)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
	fill(t, c, filledForm)

	res := c.Submit(context.Background())

	assert.Equal(t, Result{Success: false, Error: "Bad subject"}, res)
	assert.Equal(t, filledForm, c.Form(), "fields are retained for resubmission")
	assert.Equal(t, Failure{Reason: "Bad subject"}, c.Status())
}

func TestController_SubmitRejectedWithoutErrorText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"not json", `<html>bad gateway</html>`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRelay(t, http.StatusBadGateway, tt.body, nil)
			c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
			fill(t, c, filledForm)

			var observed error
			c.observer = func(_ context.Context, _ Form, _ Result, err error) { observed = err }

			res := c.Submit(context.Background())

			assert.Equal(t, Result{Success: false, Error: DefaultFailureMessage}, res)
			var serr *SubmissionError
			require.True(t, errors.As(observed, &serr))
			assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
		})
	}
}

func TestController_SubmitUndecodableSuccess(t *testing.T) {
	srv := newRelay(t, http.StatusOK, `sent`, nil)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
	fill(t, c, filledForm)

	res := c.Submit(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "decode contact response")
	assert.Equal(t, filledForm, c.Form())
	assert.IsType(t, Failure{}, c.Status())
}

func TestController_SubmitNetworkFailure(t *testing.T) {
	boom := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	c := newController(t, "http://relay.invalid", WithHTTPClient(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))
	fill(t, c, filledForm)

	var observed error
	c.observer = func(_ context.Context, _ Form, _ Result, err error) { observed = err }

	res := c.Submit(context.Background())

	assert.Equal(t, Result{Success: false, Error: boom.Error()}, res)
	assert.Equal(t, Failure{Reason: boom.Error()}, c.Status())
	assert.ErrorIs(t, observed, boom)
	assert.Equal(t, filledForm, c.Form())
}

func TestController_SubmitInvalidEmailSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	c := newController(t, "https://relay.example.com", WithHTTPClient(doerFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("unexpected call")
	})))
	form := filledForm
	form.Email = "not-an-email"
	fill(t, c, form)

	var observed error
	c.observer = func(_ context.Context, _ Form, _ Result, err error) { observed = err }

	res := c.Submit(context.Background())

	assert.Equal(t, Result{Success: false, Error: InvalidEmailMessage}, res)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, Failure{Reason: InvalidEmailMessage}, c.Status())
	var verr *ValidationError
	assert.True(t, errors.As(observed, &verr))
}

func TestController_EmptyFieldsAreNotValidated(t *testing.T) {
	srv := newRelay(t, http.StatusOK, `{"message":"OK"}`, nil)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, c.SetField(Email, "jane@example.com"))

	res := c.Submit(context.Background())
	assert.True(t, res.Success)
}

func TestController_SetFieldClearsStatus(t *testing.T) {
	for _, prior := range []Status{Success{Message: "OK"}, Failure{Reason: "nope"}} {
		for _, field := range Fields {
			c := newController(t, "https://relay.example.com")
			c.status = prior

			require.NoError(t, c.SetField(field, "x"))
			assert.Equal(t, Idle{}, c.Status(), "editing %s after %s", field, prior)
		}
	}
}

func TestController_SetFieldUnknown(t *testing.T) {
	c := newController(t, "https://relay.example.com")
	c.status = Failure{Reason: "nope"}

	err := c.SetField(Field("phone"), "555")
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Equal(t, Failure{Reason: "nope"}, c.Status(), "rejected edits leave status alone")
	assert.True(t, c.Form().IsZero())
}

func TestController_Reset(t *testing.T) {
	c := newController(t, "https://relay.example.com")
	fill(t, c, filledForm)
	c.status = Failure{Reason: "nope"}

	c.Reset()

	assert.True(t, c.Form().IsZero())
	assert.True(t, IsIdle(c.Status()))
}

func TestController_SubmittingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	c := newController(t, "https://relay.example.com", WithHTTPClient(doerFunc(func(req *http.Request) (*http.Response, error) {
		close(entered)
		<-release
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"message":"queued"}`)),
			Request:    req,
		}, nil
	})))
	fill(t, c, filledForm)
	assert.False(t, c.Submitting())

	done := make(chan Result)
	go func() { done <- c.Submit(context.Background()) }()

	<-entered
	assert.True(t, c.Submitting())
	close(release)

	res := <-done
	assert.Equal(t, Result{Success: true, Message: "queued"}, res)
	assert.False(t, c.Submitting())
}

func TestController_SubmitCanceledContext(t *testing.T) {
	srv := newRelay(t, http.StatusOK, `{"message":"OK"}`, nil)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()))
	fill(t, c, filledForm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Submit(ctx)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, context.Canceled.Error())
	assert.Equal(t, filledForm, c.Form())
}

func TestController_ObserverSeesSubmittedForm(t *testing.T) {
	srv := newRelay(t, http.StatusOK, `{"message":"OK"}`, nil)

	var (
		gotForm Form
		gotRes  Result
		gotErr  error
	)
	c := newController(t, srv.URL, WithHTTPClient(srv.Client()), WithObserver(func(_ context.Context, f Form, r Result, err error) {
		gotForm, gotRes, gotErr = f, r, err
	}))
	fill(t, c, filledForm)

	c.Submit(context.Background())

	assert.Equal(t, filledForm, gotForm)
	assert.Equal(t, Result{Success: true, Message: "OK"}, gotRes)
	assert.NoError(t, gotErr)
}
