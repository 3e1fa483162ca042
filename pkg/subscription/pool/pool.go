// Package pool implements the SOAP client pool (§4.5): one Transport per
// peer network location, reference-counted by the callers interested in
// it (subscriptions, one-shot requests), each registered under the EPR
// they represent. A netloc's Transport is created lazily on first Get and
// torn down once its last registered EPR is forgotten or the netloc is
// reported unreachable.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/sdcgo/internal/logger"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/soap"
)

// UnreachableFunc is invoked when the netloc or EPR it was registered
// under is reported unreachable.
type UnreachableFunc func()

type callback struct {
	id string
	fn UnreachableFunc
}

type entry struct {
	transport soap.Transport
	// callbacks is keyed by EPR; each EPR may have more than one
	// registered callback (distinct callers sharing the same peer).
	callbacks map[string][]callback
}

func (e *entry) hasCallback(id string) bool {
	for _, list := range e.callbacks {
		for _, cb := range list {
			if cb.id == id {
				return true
			}
		}
	}
	return false
}

func (e *entry) removeCallback(id string) {
	for epr, list := range e.callbacks {
		for i, cb := range list {
			if cb.id == id {
				e.callbacks[epr] = append(list[:i], list[i+1:]...)
				if len(e.callbacks[epr]) == 0 {
					delete(e.callbacks, epr)
				}
				return
			}
		}
	}
}

func (e *entry) closeIfEmpty() {
	if len(e.callbacks) == 0 && e.transport != nil {
		_ = e.transport.Close()
		e.transport = nil
	}
}

// Pool is the netloc-keyed SOAP client pool. The zero value is not usable;
// use New.
type Pool struct {
	mu      sync.Mutex
	factory soap.ClientFactory
	timeout time.Duration
	entries map[string]*entry
}

// New returns an empty pool backed by factory. timeout bounds the
// underlying Transport's connection setup, not individual requests.
func New(factory soap.ClientFactory, timeout time.Duration) *Pool {
	return &Pool{factory: factory, timeout: timeout, entries: make(map[string]*entry)}
}

// Register reserves a slot for (netloc, epr) and associates cb, identified
// by id, to be invoked if netloc or epr is later reported unreachable. It
// does not open the connection; Get does that lazily.
func (p *Pool) Register(netloc, epr, id string, cb UnreachableFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[netloc]
	if !ok {
		e = &entry{callbacks: make(map[string][]callback)}
		p.entries[netloc] = e
	}
	if e.hasCallback(id) {
		return
	}
	e.callbacks[epr] = append(e.callbacks[epr], callback{id: id, fn: cb})
	logger.Debug("pool: registered", logger.Netloc(netloc), "epr", epr)
}

// Get returns the Transport for netloc, creating it on first call. Fails
// with NotFound if netloc was never Register-ed.
func (p *Pool) Get(_ context.Context, netloc string, acceptedEncodings []string) (soap.Transport, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[netloc]
	if !ok {
		return nil, mdiberrors.NewNotFound(netloc)
	}
	if e.transport == nil {
		t, err := p.factory.NewTransport(netloc, p.timeout)
		if err != nil {
			return nil, mdiberrors.NewTransportError(netloc, err)
		}
		e.transport = t
	}
	return e.transport, nil
}

// ForgetCallback removes id's registration wherever it is found, closing
// the netloc's transport if it was the last registration.
func (p *Pool) ForgetCallback(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for netloc, e := range p.entries {
		if !e.hasCallback(id) {
			continue
		}
		e.removeCallback(id)
		e.closeIfEmpty()
		if len(e.callbacks) == 0 {
			delete(p.entries, netloc)
		}
		return nil
	}
	return mdiberrors.NewNotFound(id)
}

// ForgetEPR drops every callback registered under (netloc, epr) without
// invoking them: ordinary teardown (Unsubscribe-style), not an
// unreachability notification. If no registrations remain for netloc, its
// transport is closed and the entry removed.
func (p *Pool) ForgetEPR(netloc, epr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[netloc]
	if !ok {
		return mdiberrors.NewNotFound(netloc)
	}
	delete(e.callbacks, epr)
	e.closeIfEmpty()
	if len(e.callbacks) == 0 {
		delete(p.entries, netloc)
	}
	return nil
}

// ReportUnreachableNetloc invokes every callback registered for netloc,
// then closes its transport and drops the entry entirely. After this
// call, Get(netloc) fails until a new Register.
func (p *Pool) ReportUnreachableNetloc(netloc string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[netloc]
	if !ok {
		return mdiberrors.NewNotFound(netloc)
	}
	for _, list := range e.callbacks {
		for _, cb := range list {
			cb.fn()
		}
	}
	if e.transport != nil {
		_ = e.transport.Close()
	}
	delete(p.entries, netloc)
	logger.Warn("pool: netloc reported unreachable", logger.Netloc(netloc))
	return nil
}

// ReportUnreachableEPR invokes every callback registered for (netloc, epr)
// to notify dependents of an unreachable peer, then drops the
// registration; the transport is closed only if netloc becomes empty as a
// result.
func (p *Pool) ReportUnreachableEPR(netloc, epr string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[netloc]
	if !ok {
		return mdiberrors.NewNotFound(netloc)
	}
	for _, cb := range e.callbacks[epr] {
		cb.fn()
	}
	delete(e.callbacks, epr)
	e.closeIfEmpty()
	if len(e.callbacks) == 0 {
		delete(p.entries, netloc)
	}
	return nil
}

// CloseAll invokes every registered callback and closes every transport,
// leaving the pool empty.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for netloc, e := range p.entries {
		for _, list := range e.callbacks {
			for _, cb := range list {
				cb.fn()
			}
		}
		if e.transport != nil {
			_ = e.transport.Close()
		}
		delete(p.entries, netloc)
	}
}
