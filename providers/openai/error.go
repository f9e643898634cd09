package openai

import (
	"cmp"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"

	litellm "github.com/BerriAI/litellm-go"
	"github.com/openai/openai-go/v2"
)

var openaiContextPattern = regexp.MustCompile(`maximum context length is (\d+) tokens.*?(?:resulted in|requested) (\d+) tokens`)

func toProviderErr(err error, provider string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := toProviderErrMessage(apiErr)
		providerErr := &litellm.ProviderError{
			Title:           cmp.Or(litellm.ErrorTitleForStatusCode(apiErr.StatusCode), "provider request failed"),
			Message:         message,
			Cause:           apiErr,
			Provider:        provider,
			URL:             apiErr.Request.URL.String(),
			StatusCode:      apiErr.StatusCode,
			RequestBody:     apiErr.DumpRequest(true),
			ResponseHeaders: toHeaderMap(apiErr.Response.Header),
			ResponseBody:    apiErr.DumpResponse(true),
		}

		parseContextTooLargeError(message, providerErr)

		return providerErr
	}
	return err
}

func parseContextTooLargeError(message string, providerErr *litellm.ProviderError) {
	matches := openaiContextPattern.FindStringSubmatch(message)
	if matches == nil {
		return
	}
	providerErr.ContextTooLargeErr = true
	providerErr.ContextMaxTokens, _ = strconv.Atoi(matches[1])
	providerErr.ContextUsedTokens, _ = strconv.Atoi(matches[2])
}

func toProviderErrMessage(apiErr *openai.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}

	// Some OpenAI-compatible providers return error bodies the SDK cannot
	// parse. Fall back to the raw response body in those cases.
	data, _ := io.ReadAll(apiErr.Response.Body)
	return string(data)
}

func toHeaderMap(in http.Header) (out map[string]string) {
	out = make(map[string]string, len(in))
	for k, v := range in {
		if l := len(v); l > 0 {
			out[k] = v[l-1]
		}
	}
	return out
}
