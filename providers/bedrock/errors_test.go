package bedrock

import (
	"errors"
	"net/http"
	"testing"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

func TestConvertAWSError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, convertAWSError(nil, Name))
	})

	t.Run("maps API error codes to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			code       string
			wantStatus int
		}{
			{"AccessDeniedException", http.StatusUnauthorized},
			{"ExpiredTokenException", http.StatusUnauthorized},
			{"ThrottlingException", http.StatusTooManyRequests},
			{"ValidationException", http.StatusBadRequest},
			{"ResourceNotFoundException", http.StatusNotFound},
			{"ModelTimeoutException", http.StatusRequestTimeout},
			{"ServiceUnavailableException", http.StatusServiceUnavailable},
			{"SomethingUnexpected", http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.code, func(t *testing.T) {
				t.Parallel()

				apiErr := &smithy.GenericAPIError{
					Code:    tt.code,
					Message: "upstream failed",
				}

				err := convertAWSError(apiErr, Name)
				var providerErr *litellm.ProviderError
				require.ErrorAs(t, err, &providerErr)
				require.Equal(t, tt.wantStatus, providerErr.StatusCode)
				require.Equal(t, "upstream failed", providerErr.Message)
				require.Equal(t, Name, providerErr.Provider)
			})
		}
	})

	t.Run("throttling errors are retryable", func(t *testing.T) {
		t.Parallel()

		err := convertAWSError(&smithy.GenericAPIError{Code: "ThrottlingException"}, Name)
		require.True(t, litellm.IsRetryable(err))
		require.True(t, litellm.IsRateLimitError(err))
	})

	t.Run("wraps non-API errors", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection reset")
		err := convertAWSError(cause, Name)

		var providerErr *litellm.ProviderError
		require.ErrorAs(t, err, &providerErr)
		require.Equal(t, "AWS error", providerErr.Title)
		require.ErrorIs(t, err, cause)
	})
}
