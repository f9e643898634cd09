package litellm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ProviderOptionsData is implemented by provider-specific option and metadata
// structs.
type ProviderOptionsData interface {
	Options()
}

// ProviderOptions carries provider-specific request options keyed by provider
// name. Providers ignore entries addressed to other providers.
type ProviderOptions map[string]ProviderOptionsData

// ProviderMetadata carries provider-specific response metadata keyed by
// provider name.
type ProviderMetadata map[string]ProviderOptionsData

// Opt creates a pointer to the given value.
func Opt[T any](v T) *T {
	return &v
}

// ParseOptions decodes a loosely typed options map into the provided struct,
// honoring json tags.
func ParseOptions[T any](options map[string]any, m *T) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  m,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

// optionsDataJSON is the serialized wrapper used by the type registry.
type optionsDataJSON struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalFunc converts raw JSON into a ProviderOptionsData implementation.
type UnmarshalFunc func([]byte) (ProviderOptionsData, error)

var (
	optionsTypeRegistry = make(map[string]UnmarshalFunc)
	optionsTypeMutex    sync.RWMutex
)

// RegisterOptionsType registers a provider options type ID with its unmarshal
// function. Type IDs must be globally unique (e.g. "openai.options").
func RegisterOptionsType(typeID string, unmarshalFn UnmarshalFunc) {
	optionsTypeMutex.Lock()
	defer optionsTypeMutex.Unlock()
	optionsTypeRegistry[typeID] = unmarshalFn
}

func unmarshalOptionsData(data []byte) (ProviderOptionsData, error) {
	var oj optionsDataJSON
	if err := json.Unmarshal(data, &oj); err != nil {
		return nil, err
	}

	optionsTypeMutex.RLock()
	unmarshalFn, exists := optionsTypeRegistry[oj.Type]
	optionsTypeMutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown provider data type: %s", oj.Type)
	}
	return unmarshalFn(oj.Data)
}

func unmarshalOptionsDataMap(data map[string]json.RawMessage) (map[string]ProviderOptionsData, error) {
	result := make(map[string]ProviderOptionsData)
	for provider, rawData := range data {
		providerData, err := unmarshalOptionsData(rawData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider data for %s: %w", provider, err)
		}
		result[provider] = providerData
	}
	return result, nil
}

// UnmarshalProviderOptions unmarshals a map of provider options by type.
func UnmarshalProviderOptions(data map[string]json.RawMessage) (ProviderOptions, error) {
	return unmarshalOptionsDataMap(data)
}

// UnmarshalProviderMetadata unmarshals a map of provider metadata by type.
func UnmarshalProviderMetadata(data map[string]json.RawMessage) (ProviderMetadata, error) {
	return unmarshalOptionsDataMap(data)
}
