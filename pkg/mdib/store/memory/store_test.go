package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/store"
)

func mdsEntity(handle mdib.Handle) *mdib.Entity {
	return &mdib.Entity{
		Descriptor: &mdib.Descriptor{Handle: handle, NodeType: mdib.NodeTypeMds, DescriptorVersion: 0},
	}
}

func channelEntity(handle, parent mdib.Handle) *mdib.Entity {
	return &mdib.Entity{
		Descriptor: &mdib.Descriptor{Handle: handle, ParentHandle: parent, NodeType: mdib.NodeTypeChannel},
	}
}

func TestStore_AddGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))

	got, err := s.Get(ctx, "mds0")
	require.NoError(t, err)
	assert.Equal(t, mdib.Handle("mds0"), got.Descriptor.Handle)
}

func TestStore_AddDuplicateHandleConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))

	err := s.Add(ctx, mdsEntity("mds0"))
	require.Error(t, err)
	assert.True(t, mdiberrors.IsConflict(err))
}

func TestStore_GetMissingReturnsNotFound(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestStore_ChildrenOf(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))
	require.NoError(t, s.Add(ctx, channelEntity("chan1", "mds0")))
	require.NoError(t, s.Add(ctx, channelEntity("chan2", "mds0")))

	children, err := s.ChildrenOf(ctx, "mds0")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestStore_RemovePreservesLastSeenVersion(t *testing.T) {
	s := New()
	ctx := context.Background()

	e := mdsEntity("mds0")
	e.Descriptor.DescriptorVersion = 3
	require.NoError(t, s.Add(ctx, e))
	require.NoError(t, s.Remove(ctx, "mds0"))

	_, err := s.Get(ctx, "mds0")
	require.Error(t, err)

	descVersion, _, ok := s.LastVersions("mds0")
	require.True(t, ok)
	assert.Equal(t, mdib.Version(3), descVersion)
}

func TestStore_RemoveMissingReturnsNotFound(t *testing.T) {
	s := New()
	err := s.Remove(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, mdiberrors.IsNotFound(err))
}

func TestStore_UpdateReindexesOnParentChange(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))
	require.NoError(t, s.Add(ctx, mdsEntity("mds1")))
	e := channelEntity("chan1", "mds0")
	require.NoError(t, s.Add(ctx, e))

	moved := channelEntity("chan1", "mds1")
	require.NoError(t, s.Update(ctx, moved))

	childrenOfOld, err := s.ChildrenOf(ctx, "mds0")
	require.NoError(t, err)
	assert.Empty(t, childrenOfOld)

	childrenOfNew, err := s.ChildrenOf(ctx, "mds1")
	require.NoError(t, err)
	assert.Len(t, childrenOfNew, 1)
}

func TestStore_GetOneAmbiguous(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))
	require.NoError(t, s.Add(ctx, mdsEntity("mds1")))

	_, err := s.GetOne(ctx, store.IndexNodeType, mdib.NodeTypeMds.String(), false)
	require.Error(t, err)
	assert.True(t, mdiberrors.Is(err, mdiberrors.Ambiguous))
}

func TestStore_GetOneAllowNone(t *testing.T) {
	s := New()
	got, err := s.GetOne(context.Background(), store.IndexParentHandle, "nope", true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SelectByCodePath(t *testing.T) {
	s := New()
	ctx := context.Background()

	rootCoding := mdib.Coding{Code: "root"}
	childCoding := mdib.Coding{Code: "child"}

	root := mdsEntity("mds0")
	root.Descriptor.Type = &rootCoding
	require.NoError(t, s.Add(ctx, root))

	child := channelEntity("chan1", "mds0")
	child.Descriptor.Type = &childCoding
	require.NoError(t, s.Add(ctx, child))

	matches, err := s.SelectByCodePath(ctx, []mdib.Coding{rootCoding, childCoding})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, mdib.Handle("chan1"), matches[0].Descriptor.Handle)
}

func TestStore_All(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mdsEntity("mds0")))
	require.NoError(t, s.Add(ctx, channelEntity("chan1", "mds0")))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_ContextStateHandleIndex(t *testing.T) {
	s := New()
	ctx := context.Background()

	entity := &mdib.Entity{
		Descriptor: &mdib.Descriptor{Handle: "patctx0", NodeType: mdib.NodeTypePatientContext},
		States: map[mdib.Handle]*mdib.State{
			"pat1": {Handle: "pat1", DescriptorHandle: "patctx0", NodeType: mdib.NodeTypePatientContext},
		},
	}
	require.NoError(t, s.Add(ctx, entity))

	found, err := s.GetOne(ctx, store.IndexContextStateHandle, "pat1", false)
	require.NoError(t, err)
	assert.Equal(t, mdib.Handle("patctx0"), found.Descriptor.Handle)
}
