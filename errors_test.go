package litellm

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusRequestTimeout, true},
		{http.StatusConflict, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		err := &ProviderError{StatusCode: tt.status}
		require.Equal(t, tt.retryable, err.Retryable(), "status %d", tt.status)
		require.Equal(t, tt.retryable, IsRetryable(err), "status %d via IsRetryable", tt.status)
	}
}

func TestProviderErrorRetryAfterSeconds(t *testing.T) {
	err := &ProviderError{
		StatusCode:      http.StatusTooManyRequests,
		ResponseHeaders: map[string]string{"Retry-After": "2.5"},
	}
	require.Equal(t, 2500*time.Millisecond, err.RetryAfter())
}

func TestProviderErrorRetryAfterHTTPDate(t *testing.T) {
	err := &ProviderError{
		StatusCode: http.StatusTooManyRequests,
		ResponseHeaders: map[string]string{
			"retry-after": time.Now().Add(30 * time.Second).UTC().Format(time.RFC1123),
		},
	}
	got := err.RetryAfter()
	require.Greater(t, got, 20*time.Second)
	require.LessOrEqual(t, got, 30*time.Second)
}

func TestProviderErrorRetryAfterMissing(t *testing.T) {
	err := &ProviderError{StatusCode: http.StatusTooManyRequests}
	require.Zero(t, err.RetryAfter())
}

func TestErrorClassification(t *testing.T) {
	rateLimited := &ProviderError{StatusCode: http.StatusTooManyRequests}
	require.True(t, IsRateLimitError(rateLimited))
	require.False(t, IsAuthenticationError(rateLimited))
	require.False(t, IsBadRequestError(rateLimited))

	unauthorized := &ProviderError{StatusCode: http.StatusUnauthorized}
	require.True(t, IsAuthenticationError(unauthorized))
	require.False(t, IsBadRequestError(unauthorized))

	badRequest := &ProviderError{StatusCode: http.StatusBadRequest}
	require.True(t, IsBadRequestError(badRequest))

	contextTooLarge := &ProviderError{StatusCode: http.StatusBadRequest, ContextTooLargeErr: true}
	require.True(t, IsContextWindowExceededError(contextTooLarge))

	// classification sees through wrapping
	wrapped := fmt.Errorf("call failed: %w", rateLimited)
	require.True(t, IsRateLimitError(wrapped))
	require.Equal(t, http.StatusTooManyRequests, StatusCode(wrapped))
}

func TestErrorTitleForStatusCode(t *testing.T) {
	require.Equal(t, "rate limited", ErrorTitleForStatusCode(429))
	require.Equal(t, "authentication failed", ErrorTitleForStatusCode(401))
	require.Equal(t, "provider error", ErrorTitleForStatusCode(599))
	require.Empty(t, ErrorTitleForStatusCode(418))
}
