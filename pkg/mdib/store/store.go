// Package store defines the entity table contract the transaction manager
// and read-only query paths (GetMdib, GetMdDescription, GetMdState) use to
// store and look up MDIB entities.
package store

import (
	"context"

	"github.com/marmos91/sdcgo/pkg/mdib"
)

// Index is an alias of mdib.Index, kept as a store-local name so callers
// that only import this package can write store.IndexParentHandle etc.
type Index = mdib.Index

const (
	IndexParentHandle       = mdib.IndexParentHandle
	IndexNodeType           = mdib.IndexNodeType
	IndexConditionSignaled  = mdib.IndexConditionSignaled
	IndexSource             = mdib.IndexSource
	IndexContextStateHandle = mdib.IndexContextStateHandle
)

// EntityStore stores MDIB entities and provides O(1) lookups by multiple
// keys with concurrent readers and exclusive writers (§4.1).
type EntityStore interface {
	// Add inserts a new entity. Fails with a Conflict error if handle
	// collides with a live entity.
	Add(ctx context.Context, e *mdib.Entity) error

	// Remove deletes an entity from all indices, preserving its
	// last-seen descriptor/state versions for a possible later re-add.
	Remove(ctx context.Context, handle mdib.Handle) error

	// Update replaces the stored entity that has e's handle with e and
	// re-indexes it. Callers pass a modified clone, so e need not be the
	// *mdib.Entity instance previously stored.
	Update(ctx context.Context, e *mdib.Entity) error

	// Get returns the entity for handle, or a NotFound error.
	Get(ctx context.Context, handle mdib.Handle) (*mdib.Entity, error)

	// GetBy returns every entity matching key under the given
	// secondary index.
	GetBy(ctx context.Context, index Index, key string) ([]*mdib.Entity, error)

	// GetOne asserts that GetBy(index, key) returns at most one match;
	// if allowNone, zero matches returns (nil, nil) instead of a
	// NotFound error.
	GetOne(ctx context.Context, index Index, key string, allowNone bool) (*mdib.Entity, error)

	// ChildrenOf returns entities whose Descriptor.ParentHandle equals
	// handle.
	ChildrenOf(ctx context.Context, handle mdib.Handle) ([]*mdib.Entity, error)

	// SelectByCodePath descends codings level by level: it returns
	// descendants of the level-N matches whose ancestor chain matches
	// levels N-1 … 0, in the order given.
	SelectByCodePath(ctx context.Context, codings []mdib.Coding) ([]*mdib.Entity, error)

	// All returns every entity currently in the table.
	All(ctx context.Context) ([]*mdib.Entity, error)

	// LastVersions returns the last-seen descriptor and state versions
	// recorded for handle, whether or not the entity is currently live.
	// Used by the transaction manager to resume versioning on re-add.
	LastVersions(handle mdib.Handle) (descriptorVersion, stateVersion mdib.Version, ok bool)
}
