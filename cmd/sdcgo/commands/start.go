package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/internal/telemetry"
	"github.com/marmos91/sdcgo/pkg/config"
	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/store/memory"
	"github.com/marmos91/sdcgo/pkg/periodic"
	"github.com/marmos91/sdcgo/pkg/provider"
	"github.com/marmos91/sdcgo/pkg/soap"
	"github.com/marmos91/sdcgo/pkg/status"
	"github.com/marmos91/sdcgo/pkg/subscription"
	"github.com/marmos91/sdcgo/pkg/subscription/pool"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sdcgo provider runtime",
	Long: `Start the sdcgo device-side provider runtime: an MDIB, its transaction
manager, the WS-Eventing subscription table, and the periodic-report
aggregator, fronted by a local status/metrics listener.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/sdcgo/config.yaml.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "sdcgo",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "sdcgo",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("sdcgo starting", "version", Version, "commit", Commit)
	logger.Info("configuration loaded", "source", configSource(configFile))

	instanceId := uint32(cfg.Identity.InstanceID)
	m := mdib.New(memory.New(), "urn:uuid:"+uuid.NewString(), &instanceId)

	subs := subscription.NewManager(
		pool.New(unconfiguredTransport{}, 10*time.Second),
		unconfiguredCodec{},
		subscription.DispatchReferenceParam,
		fmt.Sprintf("http://localhost:%d/subscriptions", cfg.Status.Port),
		subscription.Config{
			MaxSubscriptionDuration: cfg.Subscription.MaxSubscriptionDuration,
			MinSubscriptionDuration: cfg.Subscription.MinSubscriptionDuration,
			MaxNotifyErrors:         cfg.Subscription.MaxNotifyErrors,
			RoundTripSamples:        cfg.Subscription.RoundTripSamples,
		},
	)

	periods := make(map[mdib.ReportFamily]time.Duration, len(cfg.Periodic.Periods))
	for name, d := range cfg.Periodic.Periods {
		family, ok := mdib.ParseReportFamily(name)
		if !ok {
			logger.Warn("ignoring unknown report family in periodic.periods", "family", name)
			continue
		}
		periods[family] = d
	}
	periodicCfg := periodic.Config{
		Mode:          periodicModeOf(cfg.Periodic.Mode),
		DefaultPeriod: cfg.Periodic.DefaultPeriod,
		Periods:       periods,
	}
	periodic.LogConfig(periodicCfg)
	aggregator := periodic.New(periodicCfg, subs, provider.NewSnapshotter(m), m.VersionGroup)
	aggregator.Start(ctx)
	defer aggregator.Stop()

	// runtime binds commits against m to subscriber fan-out and periodic
	// queuing; the SOAP service handlers that would call runtime.Commit
	// are out of scope for this module (§1).
	_ = provider.New(m, subs, aggregator)

	var statusServer *status.Server
	if cfg.Status.Enabled {
		statusServer = status.New(fmt.Sprintf(":%d", cfg.Status.Port), m, subs)
		statusServer.Start()
		logger.Info("status listener enabled", "port", cfg.Status.Port)
	} else {
		logger.Info("status listener disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("sdcgo is running, press Ctrl+C to stop")
	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received, initiating graceful shutdown")

	subs.EndAll(ctx, true, subscription.EndSourceShuttingDown, "provider shutting down")

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := statusServer.Stop(shutdownCtx); err != nil {
			logger.Error("status server shutdown error", logger.Err(err))
		}
	}

	logger.Info("sdcgo stopped")
	return nil
}

func configSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

func periodicModeOf(m config.PeriodicMode) periodic.Mode {
	if m == config.PeriodicModeSnapshot {
		return periodic.ModeSnapshot
	}
	return periodic.ModeRetrievability
}

// unconfiguredCodec and unconfiguredTransport satisfy soap.Codec and
// soap.ClientFactory so the runtime wires together without a concrete
// SOAP 1.2 / HTTP transport, which is out of scope for this module (§1).
// A real deployment supplies its own codec and client factory in place
// of these.
type unconfiguredCodec struct{}

func (unconfiguredCodec) Encode(soap.Message) ([]byte, error) {
	return nil, errors.New("no SOAP codec configured")
}

func (unconfiguredCodec) Decode([]byte) (soap.Message, error) {
	return soap.Message{}, errors.New("no SOAP codec configured")
}

type unconfiguredTransport struct{}

func (unconfiguredTransport) NewTransport(netloc string, _ time.Duration) (soap.Transport, error) {
	return nil, fmt.Errorf("no SOAP transport configured for %s", netloc)
}
