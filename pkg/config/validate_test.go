package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "TRACE"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}

func TestValidate_RejectsBadPeriodicMode(t *testing.T) {
	cfg := validConfig()
	cfg.Periodic.Mode = "bogus"

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for invalid periodic mode")
	}
}

func TestValidate_RejectsMinExceedingMax(t *testing.T) {
	cfg := validConfig()
	cfg.Subscription.MinSubscriptionDuration = 2 * time.Hour
	cfg.Subscription.MaxSubscriptionDuration = 1 * time.Hour

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error when min exceeds max subscription duration")
	}
}

func TestValidate_RejectsNonPositivePeriod(t *testing.T) {
	cfg := validConfig()
	cfg.Periodic.Periods = map[string]time.Duration{"EpisodicMetricReport": 0}

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for non-positive periodic period")
	}
}

func TestValidate_ReconnectRequiresTimeoutsWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Reconnect.Enabled = true
	cfg.Reconnect.DiscoveryTimeout = 0
	cfg.Reconnect.ProbeInterval = 0
	cfg.Reconnect.CoolingOff = 0

	if err := Validate(cfg); err == nil {
		t.Error("expected validation error when reconnect enabled without timeouts")
	}
}
