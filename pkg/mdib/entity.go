package mdib

// Entity is the unit of addressing in the entity table: a descriptor paired
// with its runtime state(s). Non-context descriptors carry at most one
// state; context descriptors carry zero or more, keyed by the state's own
// Handle.
type Entity struct {
	Descriptor *Descriptor

	// State is populated for single-state entities; nil for context
	// descriptors, which use States instead.
	State *State

	// States holds every context state currently bound to this context
	// descriptor, keyed by State.Handle. Populated only when
	// Descriptor.NodeType.IsContext().
	States map[Handle]*State
}

// IsContext reports whether this entity is a context descriptor addressed
// by multi-state.
func (e *Entity) IsContext() bool {
	return e.Descriptor != nil && e.Descriptor.NodeType.IsContext()
}

// Clone returns a deep-enough copy of the entity so a caller mutating the
// result cannot reach back into the entity table's stored copy.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := &Entity{Descriptor: e.Descriptor.Clone()}
	if e.State != nil {
		c.State = e.State.Clone()
	}
	if e.States != nil {
		c.States = make(map[Handle]*State, len(e.States))
		for h, s := range e.States {
			c.States[h] = s.Clone()
		}
	}
	return c
}

// AssociatedContextState returns the context state currently Associated, if
// any. Per §3's invariant, at most one may hold that association at a time.
func (e *Entity) AssociatedContextState() *State {
	for _, s := range e.States {
		if s.ContextAssociation == ContextAssociationAssoc {
			return s
		}
	}
	return nil
}
