package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/store/memory"
)

func newTestMdib() *mdib.Mdib {
	return mdib.New(memory.New(), "urn:uuid:test-sequence", nil)
}

func seedMds(t *testing.T, m *mdib.Mdib, handle mdib.Handle) {
	t.Helper()
	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: handle, NodeType: mdib.NodeTypeMds}, nil)
	})
	require.NoError(t, err)
}

func TestWithTransaction_AddDescriptorBumpsVersionAndReports(t *testing.T) {
	m := newTestMdib()

	result, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: "mds0", NodeType: mdib.NodeTypeMds}, nil)
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, mdib.Version(1), result.VersionGroup.MdibVersion)
	require.Len(t, result.Reports, 1)
	assert.Equal(t, "DescriptionModificationReport", result.Reports[0].ActionName())
	assert.Equal(t, mdib.ModificationCrt, result.Reports[0].DescriptionParts[0].ModificationType)

	e, err := m.Store().Get(context.Background(), "mds0")
	require.NoError(t, err)
	assert.Equal(t, mdib.Version(0), e.Descriptor.DescriptorVersion)
}

func TestWithTransaction_NoMutationIsNoOp(t *testing.T) {
	m := newTestMdib()
	seedMds(t, m, "mds0")
	before := m.MdibVersion()

	result, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		_, err := tx.ActualDescriptor("mds0")
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, before, m.MdibVersion())
}

func TestWithTransaction_FailedBodyDiscardsChanges(t *testing.T) {
	m := newTestMdib()
	seedMds(t, m, "mds0")
	before := m.MdibVersion()

	result, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		if err := tx.AddDescriptor(&mdib.Descriptor{Handle: "vmd0", ParentHandle: "mds0", NodeType: mdib.NodeTypeVmd}, nil); err != nil {
			return err
		}
		return mdiberrors.NewApiMisuse("caller aborted")
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, before, m.MdibVersion())

	_, err = m.Store().Get(context.Background(), "vmd0")
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestWithTransaction_StateUpdateBumpsStateVersionOnly(t *testing.T) {
	m := newTestMdib()
	seedMds(t, m, "mds0")
	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(
			&mdib.Descriptor{Handle: "metric0", ParentHandle: "mds0", NodeType: mdib.NodeTypeNumericMetric},
			&mdib.State{DescriptorHandle: "metric0", NodeType: mdib.NodeTypeNumericMetric,
				NumericMetric: &mdib.NumericMetricStateData{}},
		)
	})
	require.NoError(t, err)

	result, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		st, err := tx.GetState("metric0")
		if err != nil {
			return err
		}
		v := 42.0
		st.NumericMetric.Value = &v
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	e, err := m.Store().Get(context.Background(), "metric0")
	require.NoError(t, err)
	assert.Equal(t, mdib.Version(1), e.State.StateVersion)
	assert.Equal(t, 42.0, *e.State.NumericMetric.Value)

	require.Len(t, result.Reports, 1)
	assert.Equal(t, "EpisodicMetricReport", result.Reports[0].ActionName())
}

func TestWithTransaction_ContextAssociationAutoDisassociatesPrevious(t *testing.T) {
	m := newTestMdib()
	seedMds(t, m, "mds0")
	require.NoError(t, addEmptyContextDescriptor(m, "patctx0", "mds0"))

	var first mdib.Handle
	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		st, err := tx.MkContextState("patctx0")
		if err != nil {
			return err
		}
		st.ContextAssociation = mdib.ContextAssociationAssoc
		first = st.Handle
		return nil
	})
	require.NoError(t, err)

	_, err = WithTransaction(context.Background(), m, func(tx *Transaction) error {
		st, err := tx.MkContextState("patctx0")
		if err != nil {
			return err
		}
		st.ContextAssociation = mdib.ContextAssociationAssoc
		return nil
	})
	require.NoError(t, err)

	e, err := m.Store().Get(context.Background(), "patctx0")
	require.NoError(t, err)
	assert.Equal(t, mdib.ContextAssociationDis, e.States[first].ContextAssociation)

	assoc := e.AssociatedContextState()
	require.NotNil(t, assoc)
	assert.NotEqual(t, first, assoc.Handle)
}

func TestWithTransaction_RemoveDescriptorCascadesToChildren(t *testing.T) {
	m := newTestMdib()
	seedMds(t, m, "mds0")
	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: "vmd0", ParentHandle: "mds0", NodeType: mdib.NodeTypeVmd}, nil)
	})
	require.NoError(t, err)
	_, err = WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: "chan0", ParentHandle: "vmd0", NodeType: mdib.NodeTypeChannel}, nil)
	})
	require.NoError(t, err)

	result, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.RemoveDescriptor("vmd0")
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	_, err = m.Store().Get(context.Background(), "vmd0")
	assert.True(t, mdiberrors.IsNotFound(err))
	_, err = m.Store().Get(context.Background(), "chan0")
	assert.True(t, mdiberrors.IsNotFound(err))

	parts := result.Reports[0].DescriptionParts
	assert.Len(t, parts, 2)
	for _, p := range parts {
		assert.Equal(t, mdib.ModificationDel, p.ModificationType)
	}
}

func TestWithTransaction_AddDescriptorMissingParentConflicts(t *testing.T) {
	m := newTestMdib()

	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: "vmd0", ParentHandle: "nope", NodeType: mdib.NodeTypeVmd}, nil)
	})
	require.Error(t, err)
	assert.True(t, mdiberrors.IsConflict(err))
}

func addEmptyContextDescriptor(m *mdib.Mdib, handle, parent mdib.Handle) error {
	_, err := WithTransaction(context.Background(), m, func(tx *Transaction) error {
		return tx.AddDescriptor(&mdib.Descriptor{Handle: handle, ParentHandle: parent, NodeType: mdib.NodeTypePatientContext, Context: &mdib.ContextDescriptorData{}}, nil)
	})
	return err
}
