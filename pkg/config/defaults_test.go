package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout 10s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Identity(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Identity.FriendlyName == "" {
		t.Error("expected non-empty default friendly_name")
	}
	if cfg.Identity.Manufacturer == "" {
		t.Error("expected non-empty default manufacturer")
	}
}

func TestApplyDefaults_Subscription(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Subscription.MaxSubscriptionDuration != 1*time.Hour {
		t.Errorf("expected default max_subscription_duration 1h, got %v", cfg.Subscription.MaxSubscriptionDuration)
	}
	if cfg.Subscription.MaxNotifyErrors != 1 {
		t.Errorf("expected default max_notify_errors 1, got %d", cfg.Subscription.MaxNotifyErrors)
	}
}

func TestApplyDefaults_Periodic(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Periodic.Mode != PeriodicModeRetrievability {
		t.Errorf("expected default periodic mode 'retrievability', got %q", cfg.Periodic.Mode)
	}
	if cfg.Periodic.DefaultPeriod != 1*time.Second {
		t.Errorf("expected default period 1s, got %v", cfg.Periodic.DefaultPeriod)
	}
}

func TestApplyDefaults_Reconnect_DisabledLeavesZero(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Reconnect.DiscoveryTimeout != 0 {
		t.Errorf("expected zero discovery_timeout when reconnect disabled, got %v", cfg.Reconnect.DiscoveryTimeout)
	}
}

func TestApplyDefaults_Reconnect_EnabledGetsDefaults(t *testing.T) {
	cfg := &Config{Reconnect: ReconnectConfig{Enabled: true}}
	ApplyDefaults(cfg)

	if cfg.Reconnect.DiscoveryTimeout != 5*time.Second {
		t.Errorf("expected default discovery_timeout 5s, got %v", cfg.Reconnect.DiscoveryTimeout)
	}
	if cfg.Reconnect.CoolingOff != 2*time.Second {
		t.Errorf("expected default cooling_off 2s, got %v", cfg.Reconnect.CoolingOff)
	}
}

func TestApplyDefaults_Status(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Status.Port != 9090 {
		t.Errorf("expected default status port 9090, got %d", cfg.Status.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json", Output: "stderr"},
		Subscription: SubscriptionConfig{
			MaxSubscriptionDuration: 5 * time.Minute,
			MaxNotifyErrors:         3,
		},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected explicit level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected explicit format preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Subscription.MaxSubscriptionDuration != 5*time.Minute {
		t.Errorf("expected explicit max_subscription_duration preserved, got %v", cfg.Subscription.MaxSubscriptionDuration)
	}
	if cfg.Subscription.MaxNotifyErrors != 3 {
		t.Errorf("expected explicit max_notify_errors preserved, got %d", cfg.Subscription.MaxNotifyErrors)
	}
}
