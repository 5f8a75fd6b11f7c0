package core

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"github.com/joho/godotenv"
)

const EnvPrefix = "TALO_"

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// ResolveConfig loads configuration through provider and layers it as
// defaults < loaded < runtime.
func ResolveConfig(
	ctx context.Context,
	provider ConfigProvider,
	resolver OptionsResolver,
	runtime Config,
) (Config, error) {
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	if resolver == nil {
		resolver = GoOptionsResolver{}
	}
	defaults := DefaultConfig()
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return resolver.Resolve(defaults, loaded, runtime)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	return maps.Clone(l.Values), nil
}

// EnvRawConfigLoader reads TALO_* variables from dotenv files and the
// process environment. Process values win over file values.
type EnvRawConfigLoader struct {
	Files  []string
	Prefix string
	Lookup func(key string) (string, bool)
}

func (l EnvRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := l.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileValues := map[string]string{}
	for _, file := range l.Files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("core: read env file %q: %w", file, err)
		}
		maps.Copy(fileValues, values)
	}

	raw := map[string]any{}
	for _, key := range []string{
		"base_url", "access_token", "api_key", "client_id", "client_secret", "user_id",
	} {
		envKey := prefix + strings.ToUpper(key)
		value, ok := lookup(envKey)
		if !ok {
			value, ok = fileValues[envKey]
		}
		if ok && strings.TrimSpace(value) != "" {
			raw[key] = strings.TrimSpace(value)
		}
	}
	for _, key := range []string{"refresh_window", "token_ttl", "timeout"} {
		envKey := prefix + strings.ToUpper(key)
		value, ok := lookup(envKey)
		if !ok {
			value, ok = fileValues[envKey]
		}
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("core: %s must be a duration: %v", envKey, err))
		}
		raw[key] = parsed
	}
	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load decodes the raw values on top of defaults. Validation is deferred to
// the resolver so runtime overrides can complete a partial configuration.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = strings.TrimSpace(value)
		}
	}
	setDuration := func(key string, value time.Duration) {
		if includeZero || value > 0 {
			layer[key] = value
		}
	}

	setString("base_url", cfg.BaseURL)
	setString("access_token", cfg.AccessToken)
	setString("api_key", cfg.APIKey)
	setString("client_id", cfg.ClientID)
	setString("client_secret", cfg.ClientSecret)
	setString("user_id", cfg.UserID)
	setDuration("refresh_window", cfg.RefreshWindow)
	setDuration("token_ttl", cfg.TokenTTL)
	setDuration("timeout", cfg.Timeout)

	if includeZero || len(cfg.Headers) > 0 {
		headers := make(map[string]any, len(cfg.Headers))
		for key, value := range cfg.Headers {
			headers[key] = value
		}
		layer["headers"] = headers
	}
	return layer
}
