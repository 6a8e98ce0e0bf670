// Package config resolves process configuration once at startup.
//
// Values are layered: defaults, then an optional YAML file, then VSM_*
// environment variables. The result is validated before use and passed
// explicitly to the machines and hosts that need it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VSM_TRANSITION_MODE.
const EnvPrefix = "VSM_"

// Config holds the process-wide settings.
type Config struct {
	// TransitionMode is the policy for triggers during a timed transition.
	TransitionMode string `yaml:"transition_mode" mapstructure:"transition_mode" validate:"omitempty,oneof=default locked"`
	LogLevel       string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// TickRate is the interval between host ticks.
	TickRate  time.Duration `yaml:"tick_rate" mapstructure:"tick_rate" validate:"gt=0"`
	TimeScale float64       `yaml:"time_scale" mapstructure:"time_scale" validate:"gte=0"`

	Listen string      `yaml:"listen" mapstructure:"listen" validate:"required"`
	Redis  RedisConfig `yaml:"redis" mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, stored snapshots
	// are sealed.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key" validate:"omitempty,base64"`
}

// RedisConfig configures the optional snapshot store.
// An empty Addr disables it.
type RedisConfig struct {
	Addr   string        `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
	Prefix string        `yaml:"prefix" mapstructure:"prefix"`
	TTL    time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TransitionMode: "default",
		LogLevel:       "info",
		TickRate:       time.Second / 60,
		TimeScale:      1,
		Listen:         ":8080",
		Redis: RedisConfig{
			Prefix: "vsm:",
		},
	}
}

// Load resolves the configuration. path may be empty to skip the file layer.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(raw, os.Environ())

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envKeys = map[string][]string{
	"TRANSITION_MODE": {"transition_mode"},
	"LOG_LEVEL":       {"log_level"},
	"TICK_RATE":       {"tick_rate"},
	"TIME_SCALE":      {"time_scale"},
	"LISTEN":          {"listen"},
	"REDIS_ADDR":      {"redis", "addr"},
	"REDIS_PREFIX":    {"redis", "prefix"},
	"REDIS_TTL":       {"redis", "ttl"},
	"ENCRYPTION_KEY":  {"encryption_key"},
}

// applyEnv overlays VSM_* variables onto raw. Values stay strings;
// mapstructure converts them.
func applyEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		path, known := envKeys[strings.TrimPrefix(key, EnvPrefix)]
		if !known {
			continue
		}

		m := raw
		for _, p := range path[:len(path)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[p] = next
			}
			m = next
		}
		m[path[len(path)-1]] = value
	}
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Mode returns the parsed transition mode.
func (c Config) Mode() domain.TransitionMode {
	var mode domain.TransitionMode
	if err := mode.UnmarshalText([]byte(c.TransitionMode)); err != nil {
		return domain.TransitionModeDefault
	}
	return mode
}

// Level returns the parsed log level.
func (c Config) Level() slog.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
