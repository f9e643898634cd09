package litellm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error is the base error type for request validation and SDK failures.
type Error struct {
	Title   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Title == "" {
		return e.Message
	}
	return e.Title + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewInvalidArgumentError reports a bad request parameter.
func NewInvalidArgumentError(argument, message string, cause error) *Error {
	return &Error{
		Title:   "invalid argument",
		Message: fmt.Sprintf("%s: %s", argument, message),
		Cause:   cause,
	}
}

// ProviderError is a failed upstream API call with enough context for the
// router to decide whether to retry, cool down, or fall back.
type ProviderError struct {
	Title      string
	Message    string
	Cause      error
	Provider   string
	URL        string
	StatusCode int

	RequestBody     []byte
	ResponseBody    []byte
	ResponseHeaders map[string]string

	// Context-window overflow detection, filled when the provider's error
	// message reveals the limits.
	ContextTooLargeErr bool
	ContextMaxTokens   int
	ContextUsedTokens  int
}

func (e *ProviderError) Error() string {
	if e.Title == "" {
		return e.Message
	}
	return e.Title + ": " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Retryable reports whether the failure is transient. Timeouts, conflicts,
// rate limits, and server errors qualify; client errors do not.
func (e *ProviderError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusConflict,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// RetryAfter parses the Retry-After response header, supporting both
// delta-seconds and HTTP-date forms. Zero means no hint was given.
func (e *ProviderError) RetryAfter() time.Duration {
	value := ""
	for k, v := range e.ResponseHeaders {
		if strings.EqualFold(k, "Retry-After") {
			value = v
			break
		}
	}
	if value == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	for _, layout := range []string{time.RFC1123, time.RFC850} {
		if t, err := time.Parse(layout, value); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
			return 0
		}
	}
	return 0
}

// ErrorTitleForStatusCode maps an HTTP status to a short error title.
// Returns "" for statuses with no specific meaning here.
func ErrorTitleForStatusCode(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "authentication failed"
	case http.StatusForbidden:
		return "permission denied"
	case http.StatusNotFound:
		return "not found"
	case http.StatusRequestTimeout:
		return "request timeout"
	case http.StatusRequestEntityTooLarge:
		return "request too large"
	case http.StatusUnprocessableEntity:
		return "unprocessable entity"
	case http.StatusTooManyRequests:
		return "rate limited"
	case http.StatusInternalServerError:
		return "provider internal error"
	case http.StatusBadGateway:
		return "bad gateway"
	case http.StatusServiceUnavailable:
		return "provider overloaded"
	case http.StatusGatewayTimeout:
		return "gateway timeout"
	}
	if statusCode >= 500 {
		return "provider error"
	}
	return ""
}

// IsRetryable reports whether err is worth retrying on the same deployment.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// IsRateLimitError reports whether err is an upstream 429.
func IsRateLimitError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == http.StatusTooManyRequests
}

// IsAuthenticationError reports whether err is an upstream 401 or 403.
func IsAuthenticationError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden
}

// IsContextWindowExceededError reports whether err indicates the prompt
// exceeded the model's context window.
func IsContextWindowExceededError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.ContextTooLargeErr
}

// IsBadRequestError reports whether err is an upstream 4xx other than
// authentication or rate limiting.
func IsBadRequestError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return false
	}
	return pe.StatusCode >= 400 && pe.StatusCode < 500
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
