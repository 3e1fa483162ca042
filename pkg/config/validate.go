package config

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	structValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New()
	})
	return structValidator
}

// Validate checks cfg against its struct validation tags and any
// cross-field invariants ApplyDefaults cannot enforce alone.
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.Subscription.MinSubscriptionDuration > cfg.Subscription.MaxSubscriptionDuration {
		return fmt.Errorf("subscription.min_subscription_duration (%s) exceeds subscription.max_subscription_duration (%s)",
			cfg.Subscription.MinSubscriptionDuration, cfg.Subscription.MaxSubscriptionDuration)
	}

	for family, period := range cfg.Periodic.Periods {
		if period <= 0 {
			return fmt.Errorf("periodic.periods[%q] must be positive, got %s", family, period)
		}
	}

	return nil
}
