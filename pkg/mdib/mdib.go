package mdib

import (
	"context"
	"sync"
)

// Mdib is the versioned root: an entity store plus the version counters
// that identify an exact snapshot (§3). It owns the per-MDIB commit mutex
// that serializes writers (§4.2 scheduling) — only one transaction may
// commit at a time, while readers are never blocked by an in-flight commit.
type Mdib struct {
	store EntityStore

	commitMu sync.Mutex

	vmu                  sync.RWMutex
	mdibVersion          Version
	sequenceId           string
	instanceId           InstanceId
	mdStateVersion       Version
	mdDescriptionVersion Version
}

// EntityStore mirrors store.EntityStore's method set without importing
// pkg/mdib/store, which itself depends on this package for entity types;
// any store.EntityStore implementation (e.g. the in-memory one) satisfies
// this interface structurally.
type EntityStore interface {
	Add(ctx context.Context, e *Entity) error
	Remove(ctx context.Context, handle Handle) error
	Update(ctx context.Context, e *Entity) error
	Get(ctx context.Context, handle Handle) (*Entity, error)
	GetBy(ctx context.Context, index Index, key string) ([]*Entity, error)
	GetOne(ctx context.Context, index Index, key string, allowNone bool) (*Entity, error)
	ChildrenOf(ctx context.Context, handle Handle) ([]*Entity, error)
	SelectByCodePath(ctx context.Context, codings []Coding) ([]*Entity, error)
	All(ctx context.Context) ([]*Entity, error)
	LastVersions(handle Handle) (descriptorVersion, stateVersion Version, ok bool)
}

// New returns an Mdib backed by store, starting at mdib_version 0 under the
// given sequence_id (a UUID minted once per cold start).
func New(store EntityStore, sequenceId string, instanceId InstanceId) *Mdib {
	return &Mdib{store: store, sequenceId: sequenceId, instanceId: instanceId}
}

// Store returns the backing entity store.
func (m *Mdib) Store() EntityStore { return m.store }

// SequenceId returns the current sequence_id.
func (m *Mdib) SequenceId() string {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	return m.sequenceId
}

// InstanceId returns the current instance_id, if any.
func (m *Mdib) InstanceId() InstanceId {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	return m.instanceId
}

// VersionGroup returns the current MdibVersionGroup.
func (m *Mdib) VersionGroup() MdibVersionGroup {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	return MdibVersionGroup{MdibVersion: m.mdibVersion, SequenceId: m.sequenceId, InstanceId: m.instanceId}
}

// MdibVersion returns the current mdib_version.
func (m *Mdib) MdibVersion() Version {
	m.vmu.RLock()
	defer m.vmu.RUnlock()
	return m.mdibVersion
}

// Lock acquires the commit mutex, serializing writers across the whole
// MDIB. The caller must invoke the returned function exactly once to
// release it. Readers never block on this lock.
func (m *Mdib) Lock() func() {
	m.commitMu.Lock()
	return m.commitMu.Unlock
}

// BumpVersion increments mdib_version by one and returns the resulting
// VersionGroup. Must only be called while holding Lock().
func (m *Mdib) BumpVersion() MdibVersionGroup {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.mdibVersion++
	return MdibVersionGroup{MdibVersion: m.mdibVersion, SequenceId: m.sequenceId, InstanceId: m.instanceId}
}

// Reload assigns a fresh sequence_id and resets mdib_version to zero,
// modeling a cold restart (§3: "sequence_id change implies a full mirror
// reload").
func (m *Mdib) Reload(sequenceId string, instanceId InstanceId) {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.sequenceId = sequenceId
	m.instanceId = instanceId
	m.mdibVersion = 0
	m.mdStateVersion = 0
	m.mdDescriptionVersion = 0
}

// BumpMdStateVersion increments the MDIB-wide mdstate_version, returning
// the new value. Must only be called while holding Lock().
func (m *Mdib) BumpMdStateVersion() Version {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.mdStateVersion++
	return m.mdStateVersion
}

// BumpMdDescriptionVersion increments the MDIB-wide mddescription_version,
// returning the new value. Must only be called while holding Lock().
func (m *Mdib) BumpMdDescriptionVersion() Version {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.mdDescriptionVersion++
	return m.mdDescriptionVersion
}

// AdoptVersion overwrites mdib_version/sequence_id/instance_id with a
// version group received from a peer instead of computing one locally.
// Used by the consumer mirror (§4.8), which tracks a provider's version
// rather than incrementing its own.
func (m *Mdib) AdoptVersion(vg MdibVersionGroup) {
	m.vmu.Lock()
	defer m.vmu.Unlock()
	m.mdibVersion = vg.MdibVersion
	m.sequenceId = vg.SequenceId
	m.instanceId = vg.InstanceId
}
