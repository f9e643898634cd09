package proxy

import (
	"errors"
	"net/http"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/proxy/openaiapi"
)

// apiError is an error destined for the OpenAI wire envelope.
type apiError struct {
	Status  int
	Type    string
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func (e *apiError) envelope() openaiapi.ErrorResponse {
	return openaiapi.ErrorResponse{Error: openaiapi.ErrorDetail{
		Message: e.Message,
		Type:    e.Type,
		Code:    e.Code,
	}}
}

func errUnauthorized(message string) *apiError {
	return &apiError{Status: http.StatusUnauthorized, Type: "authentication_error", Code: "invalid_api_key", Message: message}
}

func errForbidden(message string) *apiError {
	return &apiError{Status: http.StatusForbidden, Type: "permission_error", Code: "model_not_allowed", Message: message}
}

func errBudgetExceeded(message string) *apiError {
	return &apiError{Status: http.StatusTooManyRequests, Type: "budget_error", Code: "budget_exceeded", Message: message}
}

func errBadRequest(message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Type: "invalid_request_error", Message: message}
}

// toAPIError maps core errors onto the OpenAI envelope, preserving upstream
// status codes where they exist.
func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var provErr *litellm.ProviderError
	if errors.As(err, &provErr) {
		status := provErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &apiError{
			Status:  status,
			Type:    errorTypeForStatus(status),
			Code:    codeFromTitle(provErr.Title),
			Message: provErr.Message,
		}
	}

	var baseErr *litellm.Error
	if errors.As(err, &baseErr) {
		return &apiError{
			Status:  http.StatusBadRequest,
			Type:    "invalid_request_error",
			Code:    codeFromTitle(baseErr.Title),
			Message: baseErr.Message,
		}
	}

	return &apiError{
		Status:  http.StatusInternalServerError,
		Type:    "internal_error",
		Message: err.Error(),
	}
}

func errorTypeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "authentication_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit_error"
	case status == http.StatusNotFound:
		return "not_found_error"
	case status >= 400 && status < 500:
		return "invalid_request_error"
	default:
		return "api_error"
	}
}

// codeFromTitle turns an error title like "invalid argument" into a wire
// code like "invalid_argument".
func codeFromTitle(title string) string {
	code := make([]byte, 0, len(title))
	for i := 0; i < len(title); i++ {
		if title[i] == ' ' {
			code = append(code, '_')
		} else {
			code = append(code, title[i])
		}
	}
	return string(code)
}
