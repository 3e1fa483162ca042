package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills any unspecified fields of cfg with sensible defaults.
// Zero values (0, "", false, nil) are replaced; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyIdentityDefaults(&cfg.Identity)
	applySubscriptionDefaults(&cfg.Subscription)
	applyPeriodicDefaults(&cfg.Periodic)
	applyReconnectDefaults(&cfg.Reconnect)
	applyStatusDefaults(&cfg.Status)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyIdentityDefaults(cfg *IdentityConfig) {
	if cfg.FriendlyName == "" {
		cfg.FriendlyName = "sdcgo provider"
	}
	if cfg.Manufacturer == "" {
		cfg.Manufacturer = "sdcgo"
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "sdcgo-device"
	}
	if cfg.FirmwareVersion == "" {
		cfg.FirmwareVersion = "dev"
	}
}

func applySubscriptionDefaults(cfg *SubscriptionConfig) {
	if cfg.MaxSubscriptionDuration == 0 {
		cfg.MaxSubscriptionDuration = 1 * time.Hour
	}
	if cfg.MinSubscriptionDuration == 0 {
		cfg.MinSubscriptionDuration = 10 * time.Second
	}
	if cfg.MaxNotifyErrors == 0 {
		cfg.MaxNotifyErrors = 1
	}
	if cfg.RoundTripSamples == 0 {
		cfg.RoundTripSamples = 20
	}
}

func applyPeriodicDefaults(cfg *PeriodicConfig) {
	if cfg.Mode == "" {
		cfg.Mode = PeriodicModeRetrievability
	}
	if cfg.DefaultPeriod == 0 {
		cfg.DefaultPeriod = 1 * time.Second
	}
}

func applyReconnectDefaults(cfg *ReconnectConfig) {
	if !cfg.Enabled {
		return
	}
	if cfg.DiscoveryTimeout == 0 {
		cfg.DiscoveryTimeout = 5 * time.Second
	}
	if cfg.ProbeInterval == 0 {
		cfg.ProbeInterval = 5 * time.Second
	}
	if cfg.CoolingOff == 0 {
		cfg.CoolingOff = 2 * time.Second
	}
}

func applyStatusDefaults(cfg *StatusConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a complete, defaulted Config, used when no
// configuration file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
