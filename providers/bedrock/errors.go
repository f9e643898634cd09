package bedrock

import (
	"errors"
	"net/http"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/aws/smithy-go"
)

// convertAWSError maps AWS SDK errors onto litellm.ProviderError so callers
// can classify them like any other backend failure.
func convertAWSError(err error, provider string) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		statusCode := statusCodeForAWSError(apiErr)
		return &litellm.ProviderError{
			Title:      litellm.ErrorTitleForStatusCode(statusCode),
			Message:    apiErr.ErrorMessage(),
			Cause:      err,
			Provider:   provider,
			StatusCode: statusCode,
		}
	}

	return &litellm.ProviderError{
		Title:    "AWS error",
		Message:  err.Error(),
		Cause:    err,
		Provider: provider,
	}
}

// statusCodeForAWSError maps AWS error codes to equivalent HTTP statuses.
func statusCodeForAWSError(apiErr smithy.APIError) int {
	switch apiErr.ErrorCode() {
	case "UnrecognizedClientException",
		"InvalidSignatureException",
		"ExpiredTokenException",
		"InvalidAccessKeyId",
		"InvalidToken",
		"AccessDeniedException":
		return http.StatusUnauthorized

	case "ThrottlingException",
		"TooManyRequestsException",
		"ProvisionedThroughputExceededException",
		"RequestLimitExceeded",
		"Throttling":
		return http.StatusTooManyRequests

	case "ValidationException",
		"InvalidParameterException",
		"InvalidRequestException",
		"MissingParameter",
		"InvalidInput",
		"BadRequestException":
		return http.StatusBadRequest

	case "ResourceNotFoundException",
		"ModelNotFoundException",
		"NotFoundException":
		return http.StatusNotFound

	case "ModelTimeoutException":
		return http.StatusRequestTimeout

	case "ServiceUnavailableException",
		"ModelNotReadyException":
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
