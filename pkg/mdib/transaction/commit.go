package transaction

import (
	"fmt"

	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
)

type removedEntity struct {
	descriptor *mdib.Descriptor
	state      *mdib.State
	states     []*mdib.State
}

// commit runs the five-step algorithm of §4.2 against the entities this
// transaction touched. Called with the Mdib's commit mutex already held.
func (t *Transaction) commit() (*CommitResult, error) {
	if err := t.resolveContextAssociations(); err != nil {
		return nil, err
	}

	removed, err := t.cascadeRemovals()
	if err != nil {
		return nil, err
	}

	if len(t.working) == 0 && len(removed) == 0 {
		return nil, nil
	}

	if err := t.validate(removed); err != nil {
		return nil, err
	}

	vg := t.m.BumpVersion()

	var descriptionParts []report.DescriptionPart
	changedByFamily := make(map[mdib.ReportFamily][]*mdib.State)

	for handle, e := range t.working {
		baseline := t.baseline[handle]
		isNew := t.newEntities[handle]

		var descChanged bool
		if isNew {
			start, _, ok := t.store().LastVersions(handle)
			if ok {
				e.Descriptor.DescriptorVersion = start + 1
			} else {
				e.Descriptor.DescriptorVersion = 0
			}
			descChanged = true
		} else if descriptorChanged(baseline.Descriptor, e.Descriptor) {
			e.Descriptor.DescriptorVersion = baseline.Descriptor.DescriptorVersion + 1
			descChanged = true
		}

		if e.State != nil {
			var baselineState *mdib.State
			if baseline != nil {
				baselineState = baseline.State
			}
			if baselineState == nil {
				_, startState, ok := t.store().LastVersions(handle)
				if ok {
					e.State.StateVersion = startState + 1
				} else {
					e.State.StateVersion = 0
				}
				e.State.DescriptorVersion = e.Descriptor.DescriptorVersion
				changedByFamily[mdib.ReportFamilyOf(e.Descriptor.NodeType)] = append(changedByFamily[mdib.ReportFamilyOf(e.Descriptor.NodeType)], e.State)
			} else if stateChanged(baselineState, e.State) {
				e.State.StateVersion = baselineState.StateVersion + 1
				e.State.DescriptorVersion = e.Descriptor.DescriptorVersion
				changedByFamily[mdib.ReportFamilyOf(e.Descriptor.NodeType)] = append(changedByFamily[mdib.ReportFamilyOf(e.Descriptor.NodeType)], e.State)
			}
		}

		for stateHandle, st := range e.States {
			var baselineState *mdib.State
			if baseline != nil && baseline.States != nil {
				baselineState = baseline.States[stateHandle]
			}
			isNewState := t.newContextStates[stateHandle] || baselineState == nil
			if isNewState {
				_, startState, ok := t.store().LastVersions(stateHandle)
				if ok {
					st.StateVersion = startState + 1
				} else {
					st.StateVersion = 0
				}
				st.DescriptorVersion = e.Descriptor.DescriptorVersion
				changedByFamily[mdib.ReportFamilyContext] = append(changedByFamily[mdib.ReportFamilyContext], st)
			} else if stateChanged(baselineState, st) {
				st.StateVersion = baselineState.StateVersion + 1
				st.DescriptorVersion = e.Descriptor.DescriptorVersion
				changedByFamily[mdib.ReportFamilyContext] = append(changedByFamily[mdib.ReportFamilyContext], st)
			}
		}

		modType := mdib.ModificationUpt
		if isNew {
			modType = mdib.ModificationCrt
		}
		if descChanged {
			part := report.DescriptionPart{ModificationType: modType, Descriptor: e.Descriptor, State: e.State}
			if e.IsContext() {
				for _, st := range e.States {
					part.States = append(part.States, st)
				}
			}
			descriptionParts = append(descriptionParts, part)
		}
	}

	for _, re := range removed {
		part := report.DescriptionPart{ModificationType: mdib.ModificationDel, Descriptor: re.descriptor, State: re.state, States: re.states}
		descriptionParts = append(descriptionParts, part)
	}

	if len(descriptionParts) > 0 {
		t.m.BumpMdDescriptionVersion()
	}
	if len(changedByFamily) > 0 {
		t.m.BumpMdStateVersion()
	}

	// Step 4: apply to the entity table.
	ctx := t.ctx
	for handle, e := range t.working {
		if t.newEntities[handle] {
			if err := t.store().Add(ctx, e); err != nil {
				return nil, err
			}
		} else if err := t.store().Update(ctx, e); err != nil {
			return nil, err
		}
	}
	for handle := range removed {
		if err := t.store().Remove(ctx, handle); err != nil {
			return nil, err
		}
	}

	// Step 5: emit reports in order — description modification first,
	// then one per touched state family.
	var reports []*report.Report
	if len(descriptionParts) > 0 {
		reports = append(reports, report.BuildDescriptionModification(vg, descriptionParts))
	}
	for _, family := range []mdib.ReportFamily{
		mdib.ReportFamilyMetric, mdib.ReportFamilyAlert, mdib.ReportFamilyComponent,
		mdib.ReportFamilyContext, mdib.ReportFamilyOperational, mdib.ReportFamilyWaveform,
	} {
		states := changedByFamily[family]
		if len(states) == 0 {
			continue
		}
		if family == mdib.ReportFamilyWaveform {
			reports = append(reports, report.BuildWaveform(vg, states))
		} else {
			reports = append(reports, report.BuildEpisodic(family, vg, states))
		}
	}

	return &CommitResult{VersionGroup: vg, Reports: reports}, nil
}

// resolveContextAssociations enforces "at most one Associated context
// state per descriptor" (§3): when a transaction associates a new state
// while an old one is still Associated, the old one transitions to
// Disassociated automatically. Any other multiplicity is a Conflict.
func (t *Transaction) resolveContextAssociations() error {
	for handle, e := range t.working {
		if !e.IsContext() || len(e.States) == 0 {
			continue
		}
		var associated []mdib.Handle
		for sh, st := range e.States {
			if st.ContextAssociation == mdib.ContextAssociationAssoc {
				associated = append(associated, sh)
			}
		}
		if len(associated) <= 1 {
			continue
		}

		baseline := t.baseline[handle]
		var fresh []mdib.Handle
		for _, sh := range associated {
			wasAssociated := false
			if baseline != nil && baseline.States != nil {
				if bs, ok := baseline.States[sh]; ok {
					wasAssociated = bs.ContextAssociation == mdib.ContextAssociationAssoc
				}
			}
			if !wasAssociated {
				fresh = append(fresh, sh)
			}
		}
		if len(fresh) != 1 {
			return mdiberrors.NewConflict(string(handle), "at most one context state may be Associated")
		}
		for _, sh := range associated {
			if sh == fresh[0] {
				continue
			}
			e.States[sh].ContextAssociation = mdib.ContextAssociationDis
		}
	}
	return nil
}

// cascadeRemovals resolves every RemoveDescriptor root to its full
// descendant subtree (existing entities only; descendants added within
// this same transaction are not supported) and removes them from the
// working set so they are neither re-applied nor double-reported.
func (t *Transaction) cascadeRemovals() (map[mdib.Handle]removedEntity, error) {
	removed := make(map[mdib.Handle]removedEntity)
	for _, root := range t.removedRoots {
		if err := t.collectSubtree(root, removed); err != nil {
			return nil, err
		}
	}
	for handle := range removed {
		delete(t.working, handle)
		delete(t.newEntities, handle)
	}
	return removed, nil
}

func (t *Transaction) collectSubtree(handle mdib.Handle, into map[mdib.Handle]removedEntity) error {
	if _, done := into[handle]; done {
		return nil
	}
	e, err := t.touch(handle)
	if err != nil {
		return err
	}
	re := removedEntity{descriptor: e.Descriptor, state: e.State}
	for _, st := range e.States {
		re.states = append(re.states, st)
	}
	into[handle] = re

	children, err := t.store().ChildrenOf(t.ctx, handle)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := t.collectSubtree(child.Descriptor.Handle, into); err != nil {
			return err
		}
	}
	return nil
}

// validate re-checks the invariants of §3 that AddDescriptor/UpdateDescriptor
// could not fully verify at call time (e.g. a parent changed to something
// the removal pass just deleted).
func (t *Transaction) validate(removed map[mdib.Handle]removedEntity) error {
	for handle, e := range t.working {
		if e.Descriptor.ParentHandle == "" {
			if e.Descriptor.NodeType != mdib.NodeTypeMds {
				return mdiberrors.NewConflict(string(handle), "non-Mds descriptor requires a parent_handle")
			}
			continue
		}
		parent := e.Descriptor.ParentHandle
		if _, isRemoved := removed[parent]; isRemoved {
			return mdiberrors.NewConflict(string(handle), fmt.Sprintf("parent %q was removed in this transaction", parent))
		}
		if _, ok := t.working[parent]; ok {
			continue
		}
		if _, err := t.store().Get(t.ctx, parent); err != nil {
			return mdiberrors.NewConflict(string(handle), fmt.Sprintf("parent %q does not resolve", parent))
		}
	}
	return nil
}
