package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BerriAI/litellm-go/router"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	t.Setenv("TEST_MASTER_KEY", "sk-master")

	path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
      api_key: os.environ/TEST_OPENAI_KEY
      rpm: 100
      tpm: 100000
      weight: 2
  - model_name: gpt-4o
    litellm_params:
      model: azure/gpt-4o-eu
      api_base: https://eu.example.azure.com
      api_version: 2024-10-21
  - model_name: claude
    litellm_params:
      model: anthropic/claude-sonnet-4-20250514
      thinking_budget: 2048

router_settings:
  routing_strategy: latency-based
  num_retries: 3
  timeout: 30
  cooldown_time: 45
  fallbacks:
    - gpt-4o: [claude]
  context_window_fallbacks:
    - gpt-4o: [claude]

general_settings:
  master_key: os.environ/TEST_MASTER_KEY
  port: 8000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.ModelList, 3)
	require.Equal(t, "gpt-4o", cfg.ModelList[0].ModelName)
	require.Equal(t, "sk-from-env", cfg.ModelList[0].LiteLLMParams.APIKey)
	require.EqualValues(t, 100, cfg.ModelList[0].LiteLLMParams.RPM)
	require.Equal(t, "2024-10-21", cfg.ModelList[1].LiteLLMParams.APIVersion)
	require.Equal(t, 2048, cfg.ModelList[2].LiteLLMParams.Extra["thinking_budget"])

	require.Equal(t, "sk-master", cfg.GeneralSettings.MasterKey)
	require.Equal(t, "0.0.0.0:8000", cfg.GeneralSettings.Addr())

	rc := cfg.RouterConfig()
	require.Equal(t, router.StrategyLatencyBased, rc.Strategy)
	require.Equal(t, 3, rc.NumRetries)
	require.Equal(t, 30*time.Second, rc.Timeout)
	require.Equal(t, 45*time.Second, rc.CooldownDuration)
	require.Equal(t, map[string][]string{"gpt-4o": {"claude"}}, rc.Fallbacks)

	deps := cfg.Deployments()
	require.Len(t, deps, 3)
	require.Equal(t, "gpt-4o", deps[0].ModelGroup)
	require.Equal(t, "openai/gpt-4o", deps[0].ModelID)
	require.EqualValues(t, 2, deps[0].Weight)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:4000", cfg.GeneralSettings.Addr())
	require.Equal(t, string(router.StrategySimpleShuffle), cfg.RouterSettings.RoutingStrategy)
	require.Equal(t, 2, cfg.RouterSettings.NumRetries)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
      api_key: os.environ/DEFINITELY_NOT_SET_ANYWHERE
`)

	_, err := Load(path)
	require.ErrorContains(t, err, "DEFINITELY_NOT_SET_ANYWHERE")
	require.ErrorContains(t, err, "not set")
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing model_name", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - litellm_params:
      model: openai/gpt-4o
`)
		_, err := Load(path)
		require.ErrorContains(t, err, "missing model_name")
	})

	t.Run("missing litellm_params.model", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      api_key: sk-test
`)
		_, err := Load(path)
		require.ErrorContains(t, err, "missing litellm_params.model")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
router_settings:
  routing_strategy: round-robin
`)
		_, err := Load(path)
		require.ErrorContains(t, err, "unknown routing strategy")
	})

	t.Run("fallback names unknown group", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
router_settings:
  fallbacks:
    - nonexistent: [gpt-4o]
`)
		_, err := Load(path)
		require.ErrorContains(t, err, `"nonexistent"`)
	})

	t.Run("fallback target not in model_list", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
router_settings:
  fallbacks:
    - gpt-4o: [cluade]
`)
		_, err := Load(path)
		require.ErrorContains(t, err, `"cluade"`)
	})

	t.Run("context window fallback target not in model_list", func(t *testing.T) {
		path := writeConfig(t, `
model_list:
  - model_name: gpt-4o
    litellm_params:
      model: openai/gpt-4o
router_settings:
  context_window_fallbacks:
    - gpt-4o: [big-model]
`)
		_, err := Load(path)
		require.ErrorContains(t, err, `"big-model"`)
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorContains(t, err, "unable to read config")
	})
}
