// Package provider binds the transaction manager, periodic aggregator,
// and subscription manager into the device-side runtime (§4.2–§4.6): every
// committed transaction's reports are fanned out to subscribers and, in
// retrievability mode, queued for their family's next periodic drain.
package provider

import (
	"context"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/transaction"
	"github.com/marmos91/sdcgo/pkg/periodic"
	"github.com/marmos91/sdcgo/pkg/subscription"
)

// Runtime is the device-side wiring that turns Mdib commits into
// delivered notifications.
type Runtime struct {
	mdib       *mdib.Mdib
	subs       *subscription.Manager
	aggregator *periodic.Aggregator
}

// New builds a Runtime over an already-constructed Mdib, subscription
// manager, and periodic aggregator (aggregator may be nil if periodic
// reporting is disabled).
func New(m *mdib.Mdib, subs *subscription.Manager, aggregator *periodic.Aggregator) *Runtime {
	return &Runtime{mdib: m, subs: subs, aggregator: aggregator}
}

// Commit runs fn inside a transaction against the bound Mdib and, on
// success, dispatches every resulting report: immediately to matching
// subscribers, and — for family reports other than waveform and
// description — queued to the periodic aggregator for its next drain.
func (r *Runtime) Commit(ctx context.Context, fn func(tx *transaction.Transaction) error) (*transaction.CommitResult, error) {
	result, err := transaction.WithTransaction(ctx, r.mdib, fn)
	if err != nil || result == nil {
		return result, err
	}

	for _, rep := range result.Reports {
		r.subs.SendToSubscribers(ctx, rep.ActionName(), rep)

		if r.aggregator != nil && len(rep.States) > 0 && rep.Family != mdib.ReportFamilyWaveform {
			r.aggregator.OnCommit(result.VersionGroup, rep.Family, rep.States)
		}
	}

	logger.DebugCtx(ctx, "commit dispatched", logger.MdibVersion(uint64(result.VersionGroup.MdibVersion)), "reports", len(result.Reports))
	return result, nil
}

// Snapshotter adapts an Mdib's entity store into periodic.Snapshotter,
// used by the aggregator's snapshot drive mode to re-read every live
// state in a report family regardless of whether it changed.
type Snapshotter struct {
	mdib *mdib.Mdib
}

// NewSnapshotter builds a Snapshotter over m.
func NewSnapshotter(m *mdib.Mdib) *Snapshotter { return &Snapshotter{mdib: m} }

// RetrievableStates returns the current state of every live entity whose
// node type belongs to family.
func (s *Snapshotter) RetrievableStates(family mdib.ReportFamily) []*mdib.State {
	entities, err := s.mdib.Store().All(context.Background())
	if err != nil {
		return nil
	}
	var states []*mdib.State
	for _, e := range entities {
		if e.State == nil {
			continue
		}
		if mdib.ReportFamilyOf(e.Descriptor.NodeType) != family {
			continue
		}
		states = append(states, e.State)
	}
	return states
}
