package google

import (
	"cmp"
	"errors"
	"regexp"
	"strconv"

	litellm "github.com/BerriAI/litellm-go"
	"google.golang.org/genai"
)

var googleContextPattern = regexp.MustCompile(`input token count.*?(\d+).*?exceeds.*?maximum.*?(\d+)`)

func toProviderErr(err error, provider string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	providerErr := &litellm.ProviderError{
		Title:        cmp.Or(litellm.ErrorTitleForStatusCode(apiErr.Code), "provider request failed"),
		Message:      apiErr.Message,
		Cause:        err,
		Provider:     provider,
		StatusCode:   apiErr.Code,
		ResponseBody: []byte(apiErr.Message),
	}

	parseContextTooLargeError(apiErr.Message, providerErr)

	return providerErr
}

func parseContextTooLargeError(message string, providerErr *litellm.ProviderError) {
	matches := googleContextPattern.FindStringSubmatch(message)
	if matches == nil {
		return
	}
	providerErr.ContextTooLargeErr = true
	providerErr.ContextUsedTokens, _ = strconv.Atoi(matches[1])
	providerErr.ContextMaxTokens, _ = strconv.Atoi(matches[2])
}
