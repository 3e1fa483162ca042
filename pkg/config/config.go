// Package config loads and validates the sdcgo runtime configuration:
// logging, telemetry, operator identity metadata, subscription defaults,
// periodic-report aggregation, reconnect supervision, and the local
// status/metrics HTTP listener.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the top-level sdcgo configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (SDCGO_*) (highest priority)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Environment variables are only consulted when a configuration file is
// found; without one, Load returns the defaults unchanged. No CLI flag
// other than --config feeds into the configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and Pyroscope
	// continuous profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds how long a graceful shutdown may take.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Identity carries this provider's DPWS ThisDevice/ThisModel-equivalent
	// metadata. The runtime reads only InstanceID (as the MDIB instance
	// id); the other fields are kept in the configuration file only.
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`

	// Subscription controls WS-Eventing subscription lifecycle defaults.
	Subscription SubscriptionConfig `mapstructure:"subscription" yaml:"subscription"`

	// Periodic controls the periodic-report aggregator.
	Periodic PeriodicConfig `mapstructure:"periodic" yaml:"periodic"`

	// Reconnect controls the consumer-side reconnect supervisor.
	Reconnect ReconnectConfig `mapstructure:"reconnect" yaml:"reconnect"`

	// Status configures the local operational HTTP listener
	// (/healthz, /metrics, /debug/mdib, /debug/subscriptions).
	Status StatusConfig `mapstructure:"status" yaml:"status"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level. Valid values: DEBUG, INFO, WARN,
	// ERROR (case-insensitive, normalized to uppercase).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the log output format. Valid values: text, json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection to the
	// collector.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling rate, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling controls Pyroscope continuous profiling.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes selects which profile types to collect.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// IdentityConfig carries the operator metadata this provider reports for
// its hosted device and model, the DPWS ThisDevice/ThisModel equivalent.
type IdentityConfig struct {
	// InstanceID is a stable numeric instance identifier for this
	// provider process.
	InstanceID int `mapstructure:"instance_id" yaml:"instance_id"`

	// FriendlyName is the human-readable device name (multiple locales
	// are not modeled here; a single default-locale string is carried).
	FriendlyName string `mapstructure:"friendly_name" validate:"required" yaml:"friendly_name"`

	// FirmwareVersion is reported as ThisDevice/FirmwareVersion.
	FirmwareVersion string `mapstructure:"firmware_version" yaml:"firmware_version"`

	// SerialNumber is reported as ThisDevice/SerialNumber.
	SerialNumber string `mapstructure:"serial_number" yaml:"serial_number"`

	// Manufacturer is reported as ThisModel/Manufacturer.
	Manufacturer string `mapstructure:"manufacturer" yaml:"manufacturer"`

	// ModelName is reported as ThisModel/ModelName.
	ModelName string `mapstructure:"model_name" yaml:"model_name"`

	// ModelNumber is reported as ThisModel/ModelNumber.
	ModelNumber string `mapstructure:"model_number" yaml:"model_number"`
}

// SubscriptionConfig controls WS-Eventing subscription lifecycle defaults.
type SubscriptionConfig struct {
	// MaxSubscriptionDuration bounds the expiration a subscriber may
	// request; requests above this are clamped.
	MaxSubscriptionDuration time.Duration `mapstructure:"max_subscription_duration" validate:"required,gt=0" yaml:"max_subscription_duration"`

	// MinSubscriptionDuration is the smallest expiration a subscriber may
	// request.
	MinSubscriptionDuration time.Duration `mapstructure:"min_subscription_duration" validate:"required,gt=0" yaml:"min_subscription_duration"`

	// MaxNotifyErrors is the number of consecutive notify failures at
	// which a subscription is removed by housekeeping. No SubscriptionEnd
	// is sent for a subscription removed this way.
	MaxNotifyErrors int `mapstructure:"max_notify_errors" validate:"required,gte=1" yaml:"max_notify_errors"`

	// RoundTripSamples bounds the rolling round-trip-time ring buffer
	// kept per subscription.
	RoundTripSamples int `mapstructure:"round_trip_samples" validate:"required,gte=1" yaml:"round_trip_samples"`
}

// PeriodicMode selects how the periodic-report aggregator drives its
// per-family timers.
type PeriodicMode string

const (
	// PeriodicModeRetrievability drains a queue of modified entities as
	// soon as each family's interval elapses (report only what changed).
	PeriodicModeRetrievability PeriodicMode = "retrievability"

	// PeriodicModeSnapshot emits a full state snapshot for every
	// retrievable entity on each family's interval, regardless of
	// whether it changed.
	PeriodicModeSnapshot PeriodicMode = "snapshot"
)

// PeriodicConfig controls the periodic-report aggregator.
type PeriodicConfig struct {
	// Mode selects the aggregator's drive strategy.
	Mode PeriodicMode `mapstructure:"mode" validate:"required,oneof=retrievability snapshot" yaml:"mode"`

	// DefaultPeriod is used for any report family without an explicit
	// entry in Periods.
	DefaultPeriod time.Duration `mapstructure:"default_period" validate:"required,gt=0" yaml:"default_period"`

	// Periods overrides DefaultPeriod per report family (e.g.
	// "Metric": "1s").
	Periods map[string]time.Duration `mapstructure:"periods" yaml:"periods"`
}

// ReconnectConfig controls the consumer-side reconnect supervisor.
type ReconnectConfig struct {
	// Enabled controls whether the supervisor probes for and rebinds to
	// a provider after the consumer mirror disconnects.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DiscoveryTimeout bounds each discovery probe.
	DiscoveryTimeout time.Duration `mapstructure:"discovery_timeout" validate:"required_if=Enabled true,omitempty,gt=0" yaml:"discovery_timeout"`

	// ProbeInterval is the delay between probes while disconnected.
	ProbeInterval time.Duration `mapstructure:"probe_interval" validate:"required_if=Enabled true,omitempty,gt=0" yaml:"probe_interval"`

	// CoolingOff is the delay after a successful rebind before the next
	// probe, giving the freshly reconnected mirror time to finish its
	// bootstrap sequence.
	CoolingOff time.Duration `mapstructure:"cooling_off" validate:"required_if=Enabled true,omitempty,gt=0" yaml:"cooling_off"`
}

// StatusConfig configures the local chi-based status/metrics HTTP listener.
type StatusConfig struct {
	// Enabled controls whether the listener starts.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the listener.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning an actionable error if no config
// file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"initialize one first:\n"+
				"  sdcgo init\n\n"+
				"or specify a custom config file:\n"+
				"  sdcgo <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("SDCGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook lets config files use human-readable durations like
// "30s", "5m", "1h" wherever a time.Duration field is decoded.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sdcgo")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sdcgo")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
