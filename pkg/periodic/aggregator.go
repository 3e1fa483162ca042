// Package periodic implements the periodic-report aggregator (§4.6): per
// report-family timers that either drain a queue of states touched since
// the last tick (retrievability mode) or snapshot every retrievable
// state regardless of change (snapshot mode), grounded on the ticker-loop
// shape of the teacher's background flusher.
package periodic

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
)

// Mode mirrors config.PeriodicMode without importing pkg/config.
type Mode string

const (
	ModeRetrievability Mode = "retrievability"
	ModeSnapshot       Mode = "snapshot"
)

// Snapshotter supplies the current value of every state retrievable in
// snapshot mode for a given family.
type Snapshotter interface {
	RetrievableStates(family mdib.ReportFamily) []*mdib.State
}

// Sink receives a built periodic report, ready for subscription fan-out.
type Sink interface {
	SendToSubscribers(ctx context.Context, action string, r *report.Report)
}

// Config bundles the aggregator's drive strategy and per-family periods.
type Config struct {
	Mode          Mode
	DefaultPeriod time.Duration
	Periods       map[mdib.ReportFamily]time.Duration
}

// Aggregator runs one timer per report family and emits a periodic report
// whenever that family's interval elapses.
type Aggregator struct {
	cfg   Config
	sink  Sink
	snap  Snapshotter
	vg    func() mdib.MdibVersionGroup

	mu      sync.Mutex
	queues  map[mdib.ReportFamily][]report.PeriodicEntry
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

var families = []mdib.ReportFamily{
	mdib.ReportFamilyMetric, mdib.ReportFamilyAlert, mdib.ReportFamilyComponent,
	mdib.ReportFamilyContext, mdib.ReportFamilyOperational,
}

// New builds an Aggregator. vg supplies the current MdibVersionGroup for
// snapshot-mode reports; snap is unused in retrievability mode and may be
// nil there.
func New(cfg Config, sink Sink, snap Snapshotter, vg func() mdib.MdibVersionGroup) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		sink:    sink,
		snap:    snap,
		vg:      vg,
		queues:  make(map[mdib.ReportFamily][]report.PeriodicEntry),
		metrics: NewMetrics(nil),
	}
}

// OnCommit queues the states touched by a just-committed transaction for
// the next periodic drain of their family, in retrievability mode (§4.6
// step 2). Snapshot mode ignores this; it reads current state at tick
// time instead.
func (a *Aggregator) OnCommit(vg mdib.MdibVersionGroup, family mdib.ReportFamily, states []*mdib.State) {
	if a.cfg.Mode != ModeRetrievability || len(states) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queues[family] = append(a.queues[family], report.PeriodicEntry{VersionGroup: vg, States: states})
	a.metrics.setQueueDepth(family.String(), len(a.queues[family]))
}

func (a *Aggregator) periodFor(family mdib.ReportFamily) time.Duration {
	if d, ok := a.cfg.Periods[family]; ok && d > 0 {
		return d
	}
	return a.cfg.DefaultPeriod
}

// Start launches one goroutine per report family, each sleeping its own
// period and draining/snapshotting on each tick, supervised by an
// errgroup so Stop can wait on every family's exit with one call.
func (a *Aggregator) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.ctx = gctx
	a.g = g
	for _, family := range families {
		family := family
		a.g.Go(func() error {
			a.run(family)
			return nil
		})
	}
}

// Stop cancels every family timer and waits for its goroutine to exit.
func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.g != nil {
		_ = a.g.Wait()
	}
}

func (a *Aggregator) run(family mdib.ReportFamily) {
	period := a.periodFor(family)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.tick(family)
		}
	}
}

func (a *Aggregator) tick(family mdib.ReportFamily) {
	switch a.cfg.Mode {
	case ModeSnapshot:
		a.tickSnapshot(family)
	default:
		a.tickRetrievability(family)
	}
}

func (a *Aggregator) tickRetrievability(family mdib.ReportFamily) {
	a.mu.Lock()
	entries := a.queues[family]
	a.queues[family] = nil
	a.mu.Unlock()
	a.metrics.setQueueDepth(family.String(), 0)

	if len(entries) == 0 {
		return
	}
	vg := entries[len(entries)-1].VersionGroup
	r := report.BuildPeriodic(family, vg, entries)
	a.sink.SendToSubscribers(a.ctx, r.ActionName(), r)
}

func (a *Aggregator) tickSnapshot(family mdib.ReportFamily) {
	if a.snap == nil {
		return
	}
	states := a.snap.RetrievableStates(family)
	if len(states) == 0 {
		return
	}
	vg := a.vg()
	entry := report.PeriodicEntry{VersionGroup: vg, States: states}
	r := report.BuildPeriodic(family, vg, []report.PeriodicEntry{entry})
	a.sink.SendToSubscribers(a.ctx, r.ActionName(), r)
}

// LogConfig logs the aggregator's drive configuration; the sdcgo start
// command calls it once before building and starting the aggregator.
func LogConfig(cfg Config) {
	logger.Info("periodic aggregator configured", "mode", string(cfg.Mode), logger.DurationMsAttr(float64(cfg.DefaultPeriod.Milliseconds())))
}
