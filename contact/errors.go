package contact

import (
	"errors"
	"fmt"
)

const (
	// InvalidEmailMessage is shown when the email address fails validation.
	InvalidEmailMessage = "Please enter a valid email address"

	// DefaultFailureMessage is used when a failed response carries no error text.
	DefaultFailureMessage = "Failed to send message"
)

var (
	// ErrUnknownField indicates a field name outside the five form inputs.
	ErrUnknownField = errors.New("unknown contact form field")

	// ErrInvalidBaseURL indicates the endpoint base URL could not be used.
	ErrInvalidBaseURL = errors.New("invalid contact endpoint base URL")
)

// ValidationError is returned for input rejected before any network call.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmissionError is returned when the endpoint rejects the message or
// cannot be reached. StatusCode is zero for transport and decode failures.
type SubmissionError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return DefaultFailureMessage
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func newTransportError(err error) *SubmissionError {
	return &SubmissionError{Err: err, Message: err.Error()}
}

func newStatusError(code int, msg string) *SubmissionError {
	if msg == "" {
		msg = DefaultFailureMessage
	}
	return &SubmissionError{
		Err:        fmt.Errorf("contact endpoint responded %d", code),
		Message:    msg,
		StatusCode: code,
	}
}
