// Package transaction implements the scoped write-transaction manager
// (§4.2): a working-copy API over the entity table, and the five-step
// commit algorithm that turns a closed scope into an atomic mdib_version
// bump plus the reports describing what changed.
package transaction

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sdcgo/internal/telemetry"
	"github.com/marmos91/sdcgo/pkg/mdib"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
)

// txCounter mints the per-process transaction IDs attached to commit
// spans; it carries no protocol meaning of its own.
var txCounter atomic.Int64

// txMetrics is the package-wide commit metrics instance, registered once
// against the default registry regardless of how many Mdib instances run
// transactions in this process.
var txMetrics = NewMetrics(nil)

// Transaction is a scoped write session against an *mdib.Mdib. It exposes
// working copies of the descriptors/states it touches; those mutations
// become visible to the rest of the system only once WithTransaction
// commits them successfully.
type Transaction struct {
	m   *mdib.Mdib
	ctx context.Context
	id  int64

	// baseline holds a read-only snapshot of every entity touched this
	// transaction, as it existed in the store at first touch; nil for
	// entities that did not exist yet (AddDescriptor).
	baseline map[mdib.Handle]*mdib.Entity

	// working holds the mutable clone callers operate on.
	working map[mdib.Handle]*mdib.Entity

	newEntities  map[mdib.Handle]bool
	removedRoots []mdib.Handle

	// contextStateOwner maps a context state's own Handle to the handle
	// of the descriptor entity holding it in `working`.
	contextStateOwner map[mdib.Handle]mdib.Handle
	newContextStates  map[mdib.Handle]bool
}

// CommitResult is the outcome of a successful Commit: the resulting
// version and the reports to deliver, in emission order (§4.2 step 5).
type CommitResult struct {
	VersionGroup mdib.MdibVersionGroup
	Reports      []*report.Report
}

// begin opens a new transaction scope against m. WithTransaction is its
// only caller and either commits the returned Transaction or discards it;
// no store mutation is visible until that commit succeeds.
func begin(ctx context.Context, m *mdib.Mdib) *Transaction {
	return &Transaction{
		m:                 m,
		ctx:               ctx,
		id:                txCounter.Add(1),
		baseline:          make(map[mdib.Handle]*mdib.Entity),
		working:           make(map[mdib.Handle]*mdib.Entity),
		newEntities:       make(map[mdib.Handle]bool),
		contextStateOwner: make(map[mdib.Handle]mdib.Handle),
		newContextStates:  make(map[mdib.Handle]bool),
	}
}

// WithTransaction runs fn inside a new scoped transaction and commits its
// changes. The commit mutex is held for the whole call, matching "only one
// transaction may commit at a time" (§4.2 scheduling); this is safe
// because transaction bodies never perform blocking I/O (§5). If fn
// returns an error, every change is discarded and no version is consumed.
func WithTransaction(ctx context.Context, m *mdib.Mdib, fn func(tx *Transaction) error) (*CommitResult, error) {
	unlock := m.Lock()
	defer unlock()

	tx := begin(ctx, m)

	spanCtx, span := telemetry.StartTransactionSpan(ctx, tx.id)
	tx.ctx = spanCtx
	defer span.End()

	if err := fn(tx); err != nil {
		telemetry.RecordError(spanCtx, err)
		return nil, err
	}
	start := time.Now()
	result, err := tx.commit()
	txMetrics.observeCommit(time.Since(start), err)
	if err != nil {
		telemetry.RecordError(spanCtx, err)
		return nil, err
	}
	if result != nil {
		telemetry.SetAttributes(spanCtx, telemetry.MdibVersion(uint64(result.VersionGroup.MdibVersion)))
	}
	return result, nil
}

func (t *Transaction) store() mdib.EntityStore { return t.m.Store() }

// touch fetches handle's current entity (from the working set if already
// touched, otherwise from the store), records a baseline snapshot, and
// returns a mutable clone for the caller to edit in place.
func (t *Transaction) touch(handle mdib.Handle) (*mdib.Entity, error) {
	if e, ok := t.working[handle]; ok {
		return e, nil
	}
	e, err := t.store().Get(t.ctx, handle)
	if err != nil {
		return nil, err
	}
	t.baseline[handle] = e
	working := e.Clone()
	t.working[handle] = working
	return working, nil
}

// GetState returns a working copy of handle's single state; mutate it in
// place, the mutation commits on scope exit.
func (t *Transaction) GetState(handle mdib.Handle) (*mdib.State, error) {
	e, err := t.touch(handle)
	if err != nil {
		return nil, err
	}
	if e.State == nil {
		return nil, mdiberrors.NewConflict(string(handle), "descriptor has no single state; use GetContextState for context descriptors")
	}
	return e.State, nil
}

// GetContextState returns a working copy of the context state identified
// by its own Handle (distinct from its owning descriptor's handle).
func (t *Transaction) GetContextState(stateHandle mdib.Handle) (*mdib.State, error) {
	if owner, ok := t.contextStateOwner[stateHandle]; ok {
		e := t.working[owner]
		if st, ok := e.States[stateHandle]; ok {
			return st, nil
		}
	}

	owner, err := t.store().GetOne(t.ctx, mdib.IndexContextStateHandle, string(stateHandle), false)
	if err != nil {
		return nil, err
	}
	e, err := t.touch(owner.Descriptor.Handle)
	if err != nil {
		return nil, err
	}
	st, ok := e.States[stateHandle]
	if !ok {
		return nil, mdiberrors.NewNotFound(string(stateHandle))
	}
	t.contextStateOwner[stateHandle] = owner.Descriptor.Handle
	return st, nil
}

// MkContextState creates a new, unassociated context state under
// descriptorHandle, assigns it a fresh Handle, and returns a working copy.
func (t *Transaction) MkContextState(descriptorHandle mdib.Handle) (*mdib.State, error) {
	e, err := t.touch(descriptorHandle)
	if err != nil {
		return nil, err
	}
	if !e.IsContext() {
		return nil, mdiberrors.NewConflict(string(descriptorHandle), "MkContextState requires a context descriptor")
	}

	newHandle := mdib.Handle(uuid.NewString())
	state := &mdib.State{
		Handle:             newHandle,
		DescriptorHandle:   descriptorHandle,
		DescriptorVersion:  e.Descriptor.DescriptorVersion,
		NodeType:           e.Descriptor.NodeType,
		ContextAssociation: mdib.ContextAssociationNo,
		Context:            &mdib.ContextStateData{},
	}
	if e.States == nil {
		e.States = make(map[mdib.Handle]*mdib.State)
	}
	e.States[newHandle] = state
	t.contextStateOwner[newHandle] = descriptorHandle
	t.newContextStates[newHandle] = true
	return state, nil
}

// AddState introduces a state for an existing descriptor that has none
// yet (lazy single-state creation, or an additional context state created
// out-of-band from MkContextState with a caller-assigned Handle).
func (t *Transaction) AddState(state *mdib.State) error {
	e, err := t.touch(state.DescriptorHandle)
	if err != nil {
		return err
	}
	if e.IsContext() {
		if state.Handle == "" {
			return mdiberrors.NewApiMisuse("context state requires a Handle")
		}
		if e.States == nil {
			e.States = make(map[mdib.Handle]*mdib.State)
		}
		if _, exists := e.States[state.Handle]; !exists {
			t.newContextStates[state.Handle] = true
		}
		e.States[state.Handle] = state
		t.contextStateOwner[state.Handle] = state.DescriptorHandle
		return nil
	}
	e.State = state
	return nil
}

// AddDescriptor introduces a new descriptor (and optional initial state)
// into the tree. Fails with Conflict if the handle is already in use, or
// if its declared parent does not resolve.
func (t *Transaction) AddDescriptor(descriptor *mdib.Descriptor, state *mdib.State) error {
	if descriptor.Handle == "" {
		return mdiberrors.NewApiMisuse("descriptor requires a Handle")
	}
	if _, exists := t.working[descriptor.Handle]; exists {
		return mdiberrors.NewConflict(string(descriptor.Handle), "handle already present in this transaction")
	}
	if _, err := t.store().Get(t.ctx, descriptor.Handle); err == nil {
		return mdiberrors.NewConflict(string(descriptor.Handle), "handle already present")
	}

	if descriptor.ParentHandle != "" {
		if _, err := t.ActualDescriptor(descriptor.ParentHandle); err != nil {
			return mdiberrors.NewConflict(string(descriptor.Handle), fmt.Sprintf("parent %q does not resolve", descriptor.ParentHandle))
		}
	} else if descriptor.NodeType != mdib.NodeTypeMds {
		return mdiberrors.NewConflict(string(descriptor.Handle), "non-Mds descriptor requires a parent_handle")
	}

	entity := &mdib.Entity{Descriptor: descriptor}
	if descriptor.NodeType.IsContext() {
		entity.States = make(map[mdib.Handle]*mdib.State)
		if state != nil {
			entity.States[state.Handle] = state
			t.contextStateOwner[state.Handle] = descriptor.Handle
			t.newContextStates[state.Handle] = true
		}
	} else if state != nil {
		entity.State = state
	}

	t.working[descriptor.Handle] = entity
	t.newEntities[descriptor.Handle] = true
	return nil
}

// UpdateDescriptor replaces the descriptor fields of an existing entity,
// preserving its state(s).
func (t *Transaction) UpdateDescriptor(descriptor *mdib.Descriptor) error {
	e, err := t.touch(descriptor.Handle)
	if err != nil {
		return err
	}
	e.Descriptor = descriptor
	return nil
}

// RemoveDescriptor marks handle (and, at commit, its entire descendant
// subtree) for deletion.
func (t *Transaction) RemoveDescriptor(handle mdib.Handle) error {
	if _, err := t.touch(handle); err != nil {
		return err
	}
	t.removedRoots = append(t.removedRoots, handle)
	return nil
}

// ActualDescriptor returns a read-through view of handle's descriptor,
// reflecting any pending change within this transaction.
func (t *Transaction) ActualDescriptor(handle mdib.Handle) (*mdib.Descriptor, error) {
	if e, ok := t.working[handle]; ok {
		return e.Descriptor, nil
	}
	e, err := t.store().Get(t.ctx, handle)
	if err != nil {
		return nil, err
	}
	return e.Descriptor, nil
}
