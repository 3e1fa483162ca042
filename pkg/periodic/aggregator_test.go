package periodic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
)

type fakeSink struct {
	mu    sync.Mutex
	calls []*report.Report
}

func (s *fakeSink) SendToSubscribers(_ context.Context, _ string, r *report.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, r)
}

func (s *fakeSink) snapshot() []*report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*report.Report, len(s.calls))
	copy(out, s.calls)
	return out
}

type fakeSnapshotter struct {
	states []*mdib.State
}

func (f *fakeSnapshotter) RetrievableStates(mdib.ReportFamily) []*mdib.State { return f.states }

func TestAggregator_RetrievabilityModeDrainsQueuedStatesOnTick(t *testing.T) {
	sink := &fakeSink{}
	a := New(Config{Mode: ModeRetrievability, DefaultPeriod: 10 * time.Millisecond}, sink, nil, func() mdib.MdibVersionGroup {
		return mdib.MdibVersionGroup{MdibVersion: 1}
	})

	state := &mdib.State{DescriptorHandle: "metric0", NodeType: mdib.NodeTypeNumericMetric}
	a.OnCommit(mdib.MdibVersionGroup{MdibVersion: 1}, mdib.ReportFamilyMetric, []*mdib.State{state})

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	defer func() { cancel(); a.Stop() }()

	require.Eventually(t, func() bool { return len(sink.snapshot()) > 0 }, time.Second, 5*time.Millisecond)
	r := sink.snapshot()[0]
	require.Len(t, r.PeriodicEntries, 1)
	assert.Equal(t, state, r.PeriodicEntries[0].States[0])
}

func TestAggregator_SnapshotModeReadsCurrentStateRegardlessOfChange(t *testing.T) {
	sink := &fakeSink{}
	state := &mdib.State{DescriptorHandle: "metric0", NodeType: mdib.NodeTypeNumericMetric}
	snap := &fakeSnapshotter{states: []*mdib.State{state}}
	a := New(Config{Mode: ModeSnapshot, DefaultPeriod: 10 * time.Millisecond}, sink, snap, func() mdib.MdibVersionGroup {
		return mdib.MdibVersionGroup{MdibVersion: 2}
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	defer func() { cancel(); a.Stop() }()

	require.Eventually(t, func() bool { return len(sink.snapshot()) > 0 }, time.Second, 5*time.Millisecond)
	r := sink.snapshot()[0]
	assert.Equal(t, mdib.Version(2), r.VersionGroup.MdibVersion)
}

func TestAggregator_RetrievabilityModeSkipsEmptyTick(t *testing.T) {
	sink := &fakeSink{}
	a := New(Config{Mode: ModeRetrievability, DefaultPeriod: 10 * time.Millisecond}, sink, nil, func() mdib.MdibVersionGroup {
		return mdib.MdibVersionGroup{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
	a.Stop()

	assert.Empty(t, sink.snapshot())
}
