// Package reconnect implements the consumer-side reconnect supervisor
// (§4.9): a background loop that detects disconnected consumer mirrors,
// probes discovery for their provider's current address by EPR, and
// rebinds them, grounded on the original ReconnectAgent's poll-sleep
// design and the teacher's ticker-loop shutdown pattern.
package reconnect

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/pkg/discovery"
)

// Consumer is the subset of consumer-mirror behavior the supervisor
// needs: whether it still believes it is connected, the EPR it is bound
// to, and how to rebind it to a new transport address.
type Consumer interface {
	EPR() string
	IsConnected() bool
	Rebind(ctx context.Context, newLocation string) error
}

// Config bundles the supervisor's polling cadence, mirrored from
// pkg/config.ReconnectConfig.
type Config struct {
	DiscoveryTimeout time.Duration
	ProbeInterval    time.Duration
	CoolingOff       time.Duration
	Types            []string
	Scopes           []string
}

// Supervisor periodically checks every registered consumer's connection
// state and rebinds any that have disconnected.
type Supervisor struct {
	prober discovery.Prober
	cfg    Config

	mu        sync.Mutex
	consumers []Consumer

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

// New builds a Supervisor. It does not start probing until Start is
// called.
func New(prober discovery.Prober, cfg Config) *Supervisor {
	return &Supervisor{prober: prober, cfg: cfg}
}

// KeepConnected registers c for reconnect supervision. Registering the
// same Consumer twice is a caller error and panics, matching the
// original's raised ValueError on a duplicate.
func (s *Supervisor) KeepConnected(c Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.consumers {
		if existing == c {
			panic("reconnect: consumer already registered")
		}
	}
	s.consumers = append(s.consumers, c)
}

// Forget stops supervising c.
func (s *Supervisor) Forget(c Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.consumers {
		if existing == c {
			s.consumers = append(s.consumers[:i], s.consumers[i+1:]...)
			return
		}
	}
}

// Start launches the probe loop, supervised by an errgroup so Stop has a
// single exit to wait on.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s.ctx = gctx
	s.g = g
	s.g.Go(func() error {
		s.run()
		return nil
	})
}

// Stop cancels the probe loop and waits for it to exit.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.g != nil {
		_ = s.g.Wait()
	}
}

func (s *Supervisor) run() {
	for {
		disconnected := s.snapshotDisconnected()
		if len(disconnected) > 0 {
			s.probeAndRebind(disconnected)
			if !s.sleep(s.cfg.CoolingOff) {
				return
			}
		} else {
			if !s.sleep(s.cfg.ProbeInterval) {
				return
			}
		}
	}
}

func (s *Supervisor) sleep(d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Supervisor) snapshotDisconnected() []Consumer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Consumer
	for _, c := range s.consumers {
		if !c.IsConnected() {
			out = append(out, c)
		}
	}
	return out
}

// probeAndRebind issues one discovery probe covering every disconnected
// consumer's types/scopes and rebinds each whose EPR resolves to at least
// one transport address, using the first one listed; that address is not
// checked for reachability before Rebind (§4.9 step 3).
func (s *Supervisor) probeAndRebind(disconnected []Consumer) {
	records, err := s.prober.Probe(s.ctx, s.cfg.Types, s.cfg.Scopes, s.cfg.DiscoveryTimeout)
	if err != nil {
		logger.Warn("reconnect: discovery probe failed", logger.Err(err))
		return
	}

	byEPR := make(map[string]discovery.ServiceRecord, len(records))
	for _, r := range records {
		byEPR[r.EPR] = r
	}

	// Re-check connection state: the probe may have taken as long as
	// DiscoveryTimeout, during which a consumer could have reconnected
	// on its own.
	still := s.snapshotDisconnected()
	stillSet := make(map[Consumer]bool, len(still))
	for _, c := range still {
		stillSet[c] = true
	}

	for _, c := range disconnected {
		if !stillSet[c] {
			continue
		}
		record, ok := byEPR[c.EPR()]
		if !ok || len(record.TransportAddresses) == 0 {
			continue
		}
		location := string(record.TransportAddresses[0])
		logger.Info("reconnect: rebinding consumer", "epr", c.EPR(), "location", location)
		if err := c.Rebind(s.ctx, location); err != nil {
			logger.Warn("reconnect: rebind failed", logger.Err(err), "epr", c.EPR())
		}
	}
}
