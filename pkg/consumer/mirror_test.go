package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
	"github.com/marmos91/sdcgo/pkg/mdib/store/memory"
)

func newMirror() *Mirror {
	return New(mdib.New(memory.New(), "urn:uuid:seq-a", nil))
}

func TestMirror_InitDrainsBufferedReports(t *testing.T) {
	c := newMirror()
	c.Bind()

	vg := mdib.MdibVersionGroup{MdibVersion: 1, SequenceId: "urn:uuid:seq-a"}
	entity := &mdib.Entity{Descriptor: &mdib.Descriptor{Handle: "mds0", NodeType: mdib.NodeTypeMds}}

	// A report arrives before Init — it must buffer, not apply.
	buffered := report.BuildEpisodic(mdib.ReportFamilyMetric, mdib.MdibVersionGroup{MdibVersion: 2, SequenceId: "urn:uuid:seq-a"}, nil)
	c.OnReport(context.Background(), buffered)

	require.NoError(t, c.Init(context.Background(), Bootstrap{VersionGroup: vg, Entities: []*mdib.Entity{entity}}))

	got, err := c.Mdib().Store().Get(context.Background(), "mds0")
	require.NoError(t, err)
	assert.Equal(t, mdib.Handle("mds0"), got.Descriptor.Handle)
	assert.Equal(t, mdib.Version(2), c.Mdib().MdibVersion())
}

func TestMirror_SequenceChangeHaltsUntilReload(t *testing.T) {
	c := newMirror()
	c.Bind()
	require.NoError(t, c.Init(context.Background(), Bootstrap{
		VersionGroup: mdib.MdibVersionGroup{MdibVersion: 1, SequenceId: "urn:uuid:seq-a"},
	}))

	r := report.BuildEpisodic(mdib.ReportFamilyMetric, mdib.MdibVersionGroup{MdibVersion: 1, SequenceId: "urn:uuid:seq-b"}, nil)
	c.OnReport(context.Background(), r)
	assert.True(t, c.SequenceChanged())

	c.ReloadAll()
	assert.False(t, c.SequenceChanged())
}

func TestMirror_StateUpdateNormalPathBumpsVersion(t *testing.T) {
	c := newMirror()
	c.Bind()

	metric := &mdib.Entity{
		Descriptor: &mdib.Descriptor{Handle: "metric0", NodeType: mdib.NodeTypeNumericMetric},
		State:      &mdib.State{DescriptorHandle: "metric0", NodeType: mdib.NodeTypeNumericMetric, StateVersion: 0, NumericMetric: &mdib.NumericMetricStateData{}},
	}
	require.NoError(t, c.Init(context.Background(), Bootstrap{
		VersionGroup: mdib.MdibVersionGroup{MdibVersion: 1, SequenceId: "urn:uuid:seq-a"},
		Entities:     []*mdib.Entity{metric},
	}))

	v := 7.0
	next := &mdib.State{DescriptorHandle: "metric0", NodeType: mdib.NodeTypeNumericMetric, StateVersion: 1, NumericMetric: &mdib.NumericMetricStateData{Value: &v}}
	r := report.BuildEpisodic(mdib.ReportFamilyMetric, mdib.MdibVersionGroup{MdibVersion: 2, SequenceId: "urn:uuid:seq-a"}, []*mdib.State{next})
	c.OnReport(context.Background(), r)

	got, err := c.Mdib().Store().Get(context.Background(), "metric0")
	require.NoError(t, err)
	assert.Equal(t, mdib.Version(1), got.State.StateVersion)
	assert.Equal(t, 7.0, *got.State.NumericMetric.Value)
}
