package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"umclient/internal/models"
)

var (
	// ErrConnectivity marks failures where no response was received at all
	// (connection refused, DNS, timeout). Never retried; surfaced to the
	// caller as a cannot-reach-server condition.
	ErrConnectivity = errors.New("cannot reach server")

	// ErrSessionTerminated marks the fatal branch of the refresh flow: the
	// refresh call itself was rejected, or no refresh token was available.
	// Match with errors.Is; the concrete value is *SessionTerminatedError.
	ErrSessionTerminated = errors.New("session terminated")
)

// SessionTerminatedError tells the application layer the session is over and
// where to send the user. RedirectTo is empty when no navigation should
// happen: either there is no browsing context, or the user is already on the
// login screen (avoiding a redirect loop). The core never navigates itself.
type SessionTerminatedError struct {
	RedirectTo string
	Cause      error
}

func (e *SessionTerminatedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session terminated: %v", e.Cause)
	}
	return "session terminated"
}

func (e *SessionTerminatedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrSessionTerminated, e.Cause}
	}
	return []error{ErrSessionTerminated}
}

// APIError is any ordinary 4xx/5xx the backend returned. It is propagated
// unchanged so each consumer can render a contextual message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error: status %d", e.Status)
}

// newAPIError drains the response and builds an APIError from the backend's
// error envelope, falling back to the raw status when the body is opaque.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var envelope models.ErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Detail != "" {
		apiErr.Message = envelope.Detail
	}
	return apiErr
}
