// Package config loads the gateway's YAML configuration: the model list
// mapping public model names to provider deployments, router settings, and
// general proxy settings. Secret values may be written as "os.environ/NAME"
// to be resolved from the environment at load time.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/BerriAI/litellm-go/router"
)

// Config is the root of the YAML configuration file.
type Config struct {
	ModelList       []ModelEntry    `mapstructure:"model_list"`
	RouterSettings  RouterSettings  `mapstructure:"router_settings"`
	GeneralSettings GeneralSettings `mapstructure:"general_settings"`
}

// ModelEntry binds a public model name to one deployment. Several entries
// may share a model name; the router load-balances across them.
type ModelEntry struct {
	ModelName     string `mapstructure:"model_name"`
	LiteLLMParams Params `mapstructure:"litellm_params"`
}

// Params describes how to reach one deployment.
type Params struct {
	// Model is the provider-prefixed model ID, e.g. "openai/gpt-4o".
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	APIBase    string `mapstructure:"api_base"`
	APIVersion string `mapstructure:"api_version"`
	RPM        int64  `mapstructure:"rpm"`
	TPM        int64  `mapstructure:"tpm"`
	Weight     int64  `mapstructure:"weight"`

	// Extra collects provider-specific params not modeled above; they are
	// passed through as provider options.
	Extra map[string]any `mapstructure:",remain"`
}

// RouterSettings tunes retry, fallback, and cooldown behavior.
type RouterSettings struct {
	RoutingStrategy string  `mapstructure:"routing_strategy"`
	NumRetries      int     `mapstructure:"num_retries"`
	Timeout         float64 `mapstructure:"timeout"` // seconds

	// Fallbacks and ContextWindowFallbacks use the documented YAML shape:
	// a list of single-key maps, e.g. [{"gpt-4o": ["claude-sonnet"]}].
	Fallbacks              []map[string][]string `mapstructure:"fallbacks"`
	ContextWindowFallbacks []map[string][]string `mapstructure:"context_window_fallbacks"`

	CooldownTime  float64 `mapstructure:"cooldown_time"` // seconds
	CooldownRatio float64 `mapstructure:"cooldown_ratio"`
}

// GeneralSettings configures the proxy server itself.
type GeneralSettings struct {
	MasterKey   string `mapstructure:"master_key"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	Telemetry   bool   `mapstructure:"telemetry"`
}

// Addr is the listen address for the proxy.
func (g GeneralSettings) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// Load reads the configuration file at path. A .env file next to the
// process, if present, is loaded first so "os.environ/NAME" references and
// provider SDK credentials resolve.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", path, err)
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToStringHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unable to decode config %s: %w", path, err)
	}

	if err := cfg.resolveEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.GeneralSettings.DatabaseURL != "" {
		slog.Warn("general_settings.database_url is not supported; spend is tracked in memory")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general_settings.host", "0.0.0.0")
	v.SetDefault("general_settings.port", 4000)
	v.SetDefault("router_settings.routing_strategy", string(router.StrategySimpleShuffle))
	v.SetDefault("router_settings.num_retries", 2)
}

// timeToStringHookFunc turns YAML timestamps back into strings. Unquoted
// values like `api_version: 2024-10-21` parse as timestamps, but the config
// treats API versions as opaque strings.
func timeToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from != reflect.TypeOf(time.Time{}) || to.Kind() != reflect.String {
			return data, nil
		}
		return data.(time.Time).Format("2006-01-02"), nil
	}
}

// envPrefix marks a config value as an environment variable reference.
const envPrefix = "os.environ/"

func resolveEnvValue(value string) (string, error) {
	name, ok := strings.CutPrefix(value, envPrefix)
	if !ok {
		return value, nil
	}
	resolved, found := os.LookupEnv(name)
	if !found {
		return "", fmt.Errorf("config references environment variable %s, which is not set", name)
	}
	return resolved, nil
}

func (c *Config) resolveEnv() error {
	for i := range c.ModelList {
		params := &c.ModelList[i].LiteLLMParams
		var err error
		if params.APIKey, err = resolveEnvValue(params.APIKey); err != nil {
			return fmt.Errorf("model_list[%d] (%s): %w", i, c.ModelList[i].ModelName, err)
		}
		if params.APIBase, err = resolveEnvValue(params.APIBase); err != nil {
			return fmt.Errorf("model_list[%d] (%s): %w", i, c.ModelList[i].ModelName, err)
		}
		for key, value := range params.Extra {
			str, ok := value.(string)
			if !ok {
				continue
			}
			resolved, err := resolveEnvValue(str)
			if err != nil {
				return fmt.Errorf("model_list[%d] (%s) %s: %w", i, c.ModelList[i].ModelName, key, err)
			}
			params.Extra[key] = resolved
		}
	}
	var err error
	if c.GeneralSettings.MasterKey, err = resolveEnvValue(c.GeneralSettings.MasterKey); err != nil {
		return fmt.Errorf("general_settings.master_key: %w", err)
	}
	return nil
}

// Validate checks the configuration for mistakes that would otherwise only
// surface as confusing runtime failures.
func (c *Config) Validate() error {
	for i, entry := range c.ModelList {
		if entry.ModelName == "" {
			return fmt.Errorf("model_list[%d] is missing model_name", i)
		}
		if entry.LiteLLMParams.Model == "" {
			return fmt.Errorf("model_list[%d] (%s) is missing litellm_params.model", i, entry.ModelName)
		}
		if entry.LiteLLMParams.RPM < 0 || entry.LiteLLMParams.TPM < 0 {
			return fmt.Errorf("model_list[%d] (%s): rpm and tpm must not be negative", i, entry.ModelName)
		}
	}

	strategy := router.Strategy(c.RouterSettings.RoutingStrategy)
	if _, err := router.New(nil, router.Config{Strategy: strategy}); err != nil {
		return fmt.Errorf("router_settings.routing_strategy: %w", err)
	}

	groups := make(map[string]bool, len(c.ModelList))
	for _, entry := range c.ModelList {
		groups[entry.ModelName] = true
	}
	for group, targets := range flattenFallbacks(c.RouterSettings.Fallbacks) {
		if !groups[group] {
			return fmt.Errorf("router_settings.fallbacks names %q, which is not in model_list", group)
		}
		for _, target := range targets {
			if !groups[target] {
				return fmt.Errorf("router_settings.fallbacks for %q names %q, which is not in model_list", group, target)
			}
		}
	}
	for group, targets := range flattenFallbacks(c.RouterSettings.ContextWindowFallbacks) {
		if !groups[group] {
			return fmt.Errorf("router_settings.context_window_fallbacks names %q, which is not in model_list", group)
		}
		for _, target := range targets {
			if !groups[target] {
				return fmt.Errorf("router_settings.context_window_fallbacks for %q names %q, which is not in model_list", group, target)
			}
		}
	}

	if port := c.GeneralSettings.Port; port < 0 || port > 65535 {
		return fmt.Errorf("general_settings.port %d is out of range", port)
	}
	return nil
}

func flattenFallbacks(fallbacks []map[string][]string) map[string][]string {
	if len(fallbacks) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, entry := range fallbacks {
		for group, targets := range entry {
			out[group] = append(out[group], targets...)
		}
	}
	return out
}

// RouterConfig translates the router_settings section into a router.Config.
func (c *Config) RouterConfig() router.Config {
	s := c.RouterSettings
	return router.Config{
		Strategy:               router.Strategy(s.RoutingStrategy),
		NumRetries:             s.NumRetries,
		Timeout:                time.Duration(s.Timeout * float64(time.Second)),
		Fallbacks:              flattenFallbacks(s.Fallbacks),
		ContextWindowFallbacks: flattenFallbacks(s.ContextWindowFallbacks),
		CooldownDuration:       time.Duration(s.CooldownTime * float64(time.Second)),
		CooldownRatio:          s.CooldownRatio,
	}
}

// Deployments translates the model list into router deployments.
func (c *Config) Deployments() []router.Deployment {
	out := make([]router.Deployment, 0, len(c.ModelList))
	for _, entry := range c.ModelList {
		out = append(out, router.Deployment{
			ModelGroup: entry.ModelName,
			ModelID:    entry.LiteLLMParams.Model,
			RPM:        entry.LiteLLMParams.RPM,
			TPM:        entry.LiteLLMParams.TPM,
			Weight:     entry.LiteLLMParams.Weight,
		})
	}
	return out
}
