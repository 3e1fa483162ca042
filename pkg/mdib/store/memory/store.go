// Package memory implements the MDIB entity table as an in-memory,
// multi-index, reader-writer-lock-guarded map. It is the only EntityStore
// implementation this stack ships; the MDIB is process-local by design
// (§5 — no global mutable state, one instance per provider/consumer).
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/store"
)

type lastSeen struct {
	descriptorVersion mdib.Version
	stateVersion      mdib.Version
}

// Store is the in-memory EntityStore. The zero value is not usable; use
// New.
type Store struct {
	mu sync.RWMutex

	byHandle map[mdib.Handle]*mdib.Entity

	// secondary indices: index key -> set of primary handles
	byParent             map[mdib.Handle]map[mdib.Handle]struct{}
	byNodeType           map[mdib.NodeType]map[mdib.Handle]struct{}
	byConditionSignaled  map[mdib.Handle]map[mdib.Handle]struct{}
	bySource             map[mdib.Handle]map[mdib.Handle]struct{}
	byContextStateHandle map[mdib.Handle]mdib.Handle // context state handle -> owning descriptor handle

	lastSeen map[mdib.Handle]lastSeen
}

// New returns an empty entity table.
func New() *Store {
	return &Store{
		byHandle:             make(map[mdib.Handle]*mdib.Entity),
		byParent:             make(map[mdib.Handle]map[mdib.Handle]struct{}),
		byNodeType:           make(map[mdib.NodeType]map[mdib.Handle]struct{}),
		byConditionSignaled:  make(map[mdib.Handle]map[mdib.Handle]struct{}),
		bySource:             make(map[mdib.Handle]map[mdib.Handle]struct{}),
		byContextStateHandle: make(map[mdib.Handle]mdib.Handle),
		lastSeen:             make(map[mdib.Handle]lastSeen),
	}
}

var _ store.EntityStore = (*Store)(nil)

func (s *Store) Add(_ context.Context, e *mdib.Entity) error {
	if e == nil || e.Descriptor == nil {
		return mdiberrors.NewApiMisuse("add: nil entity or descriptor")
	}
	handle := e.Descriptor.Handle

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHandle[handle]; exists {
		return mdiberrors.NewConflict(string(handle), "handle already present")
	}

	s.byHandle[handle] = e
	s.indexLocked(e)
	return nil
}

func (s *Store) Remove(_ context.Context, handle mdib.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byHandle[handle]
	if !ok {
		return mdiberrors.NewNotFound(string(handle))
	}

	s.recordLastSeenLocked(e)
	s.unindexLocked(e)
	delete(s.byHandle, handle)
	return nil
}

func (s *Store) Update(_ context.Context, e *mdib.Entity) error {
	if e == nil || e.Descriptor == nil {
		return mdiberrors.NewApiMisuse("update: nil entity or descriptor")
	}
	handle := e.Descriptor.Handle

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byHandle[handle]
	if !ok {
		return mdiberrors.NewNotFound(string(handle))
	}

	// Re-index: the parent/source/condition-signaled fields may have
	// changed since the entity was last indexed.
	s.unindexLocked(existing)
	s.byHandle[handle] = e
	s.indexLocked(e)
	return nil
}

func (s *Store) Get(_ context.Context, handle mdib.Handle) (*mdib.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byHandle[handle]
	if !ok {
		return nil, mdiberrors.NewNotFound(string(handle))
	}
	return e, nil
}

func (s *Store) GetBy(_ context.Context, index store.Index, key string) ([]*mdib.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getByLocked(index, key), nil
}

func (s *Store) getByLocked(index store.Index, key string) []*mdib.Entity {
	var handles map[mdib.Handle]struct{}
	switch index {
	case store.IndexParentHandle:
		handles = s.byParent[mdib.Handle(key)]
	case store.IndexNodeType:
		for nt, set := range s.byNodeType {
			if nt.String() == key {
				handles = set
				break
			}
		}
	case store.IndexConditionSignaled:
		handles = s.byConditionSignaled[mdib.Handle(key)]
	case store.IndexSource:
		handles = s.bySource[mdib.Handle(key)]
	case store.IndexContextStateHandle:
		if owner, ok := s.byContextStateHandle[mdib.Handle(key)]; ok {
			if e, ok := s.byHandle[owner]; ok {
				return []*mdib.Entity{e}
			}
		}
		return nil
	}

	result := make([]*mdib.Entity, 0, len(handles))
	for h := range handles {
		if e, ok := s.byHandle[h]; ok {
			result = append(result, e)
		}
	}
	return result
}

func (s *Store) GetOne(ctx context.Context, index store.Index, key string, allowNone bool) (*mdib.Entity, error) {
	matches, _ := s.GetBy(ctx, index, key)
	switch len(matches) {
	case 0:
		if allowNone {
			return nil, nil
		}
		return nil, mdiberrors.NewNotFound(key)
	case 1:
		return matches[0], nil
	default:
		return nil, mdiberrors.NewAmbiguous(key, len(matches))
	}
}

func (s *Store) ChildrenOf(ctx context.Context, handle mdib.Handle) ([]*mdib.Entity, error) {
	return s.GetBy(ctx, store.IndexParentHandle, string(handle))
}

func (s *Store) SelectByCodePath(_ context.Context, codings []mdib.Coding) ([]*mdib.Entity, error) {
	if len(codings) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Level 0: every entity whose Type matches codings[0], with no
	// ancestor constraint.
	level := make([]*mdib.Entity, 0)
	for _, e := range s.byHandle {
		if e.Descriptor.Type != nil && e.Descriptor.Type.Equal(codings[0]) {
			level = append(level, e)
		}
	}

	for _, coding := range codings[1:] {
		next := make([]*mdib.Entity, 0)
		for _, ancestor := range level {
			for childHandle := range s.byParent[ancestor.Descriptor.Handle] {
				child, ok := s.byHandle[childHandle]
				if !ok {
					continue
				}
				if child.Descriptor.Type != nil && child.Descriptor.Type.Equal(coding) {
					next = append(next, child)
				}
			}
		}
		level = next
	}

	return level, nil
}

func (s *Store) All(_ context.Context) ([]*mdib.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*mdib.Entity, 0, len(s.byHandle))
	for _, e := range s.byHandle {
		result = append(result, e)
	}
	return result, nil
}

func (s *Store) LastVersions(handle mdib.Handle) (mdib.Version, mdib.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.lastSeen[handle]
	if !ok {
		return 0, 0, false
	}
	return ls.descriptorVersion, ls.stateVersion, true
}

// ============================================================================
// Locked helpers — callers must hold s.mu for writing.
// ============================================================================

func (s *Store) indexLocked(e *mdib.Entity) {
	d := e.Descriptor
	handle := d.Handle

	if d.ParentHandle != "" {
		set := s.byParent[d.ParentHandle]
		if set == nil {
			set = make(map[mdib.Handle]struct{})
			s.byParent[d.ParentHandle] = set
		}
		set[handle] = struct{}{}
	}

	set := s.byNodeType[d.NodeType]
	if set == nil {
		set = make(map[mdib.Handle]struct{})
		s.byNodeType[d.NodeType] = set
	}
	set[handle] = struct{}{}

	if d.ConditionSignaled != nil {
		set := s.byConditionSignaled[*d.ConditionSignaled]
		if set == nil {
			set = make(map[mdib.Handle]struct{})
			s.byConditionSignaled[*d.ConditionSignaled] = set
		}
		set[handle] = struct{}{}
	}

	for _, src := range d.Source {
		set := s.bySource[src]
		if set == nil {
			set = make(map[mdib.Handle]struct{})
			s.bySource[src] = set
		}
		set[handle] = struct{}{}
	}

	for stateHandle := range e.States {
		s.byContextStateHandle[stateHandle] = handle
	}
}

func (s *Store) unindexLocked(e *mdib.Entity) {
	d := e.Descriptor
	handle := d.Handle

	if d.ParentHandle != "" {
		if set, ok := s.byParent[d.ParentHandle]; ok {
			delete(set, handle)
			if len(set) == 0 {
				delete(s.byParent, d.ParentHandle)
			}
		}
	}

	if set, ok := s.byNodeType[d.NodeType]; ok {
		delete(set, handle)
		if len(set) == 0 {
			delete(s.byNodeType, d.NodeType)
		}
	}

	if d.ConditionSignaled != nil {
		if set, ok := s.byConditionSignaled[*d.ConditionSignaled]; ok {
			delete(set, handle)
			if len(set) == 0 {
				delete(s.byConditionSignaled, *d.ConditionSignaled)
			}
		}
	}

	for _, src := range d.Source {
		if set, ok := s.bySource[src]; ok {
			delete(set, handle)
			if len(set) == 0 {
				delete(s.bySource, src)
			}
		}
	}

	for stateHandle := range e.States {
		delete(s.byContextStateHandle, stateHandle)
	}
}

func (s *Store) recordLastSeenLocked(e *mdib.Entity) {
	ls := lastSeen{descriptorVersion: e.Descriptor.DescriptorVersion}
	if e.State != nil {
		ls.stateVersion = e.State.StateVersion
	}
	s.lastSeen[e.Descriptor.Handle] = ls

	for stateHandle, st := range e.States {
		s.lastSeen[stateHandle] = lastSeen{stateVersion: st.StateVersion}
	}
}
