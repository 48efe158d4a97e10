package llmclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrEmptyCompletion is returned when a 2xx response carries no choices.
var ErrEmptyCompletion = errors.New("llm: completion has no choices")

// ConfigurationError reports a missing credential; no request was sent.
type ConfigurationError struct {
	Provider Name
	Key      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s not configured", e.Provider, e.Key)
}

// UpstreamError is a non-2xx answer from a provider or the proxy.
type UpstreamError struct {
	Provider Name
	Status   int
	Body     string
	// ErrorType is error.type from an OpenAI-style JSON error body, if any.
	ErrorType string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s: %s", e.Provider, e.Status, http.StatusText(e.Status), e.Body)
}

// AuthorizationError is a 401/403 from the membership gate in front of the proxy.
type AuthorizationError struct {
	Status int
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("membership inactive (status %d)", e.Status)
	}
	return fmt.Sprintf("membership inactive (status %d): %s", e.Status, e.Reason)
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	var ae *AuthorizationError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// IsAuthFailure reports a provider-side credential rejection: HTTP 401 or an
// authentication_error body. A gate rejection is not a provider auth failure.
func IsAuthFailure(err error) bool {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return false
	}
	return ue.Status == http.StatusUnauthorized || strings.Contains(strings.ToLower(ue.ErrorType), "authentication_error")
}
