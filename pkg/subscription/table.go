package subscription

import "sync"

// dispatchKey is the dual dispatch-identity key (§9): a request resolves
// to a subscription by matching either its reference-parameter text or
// its URL path suffix, never both at once.
type dispatchKey struct {
	refParamText string
	pathSuffix   string
}

func keyFor(s *Subscription) dispatchKey {
	return dispatchKey{refParamText: s.DispatchRefParamText, pathSuffix: s.DispatchPathSuffix}
}

// table indexes the live subscription set by dispatch identity, by
// identifier, and by notify-to network location, mirroring the three
// indices the original multikey lookup maintains.
type table struct {
	mu sync.RWMutex

	byDispatch map[dispatchKey]*Subscription
	byID       map[string]*Subscription
	byNetloc   map[string][]*Subscription
}

func newTable() *table {
	return &table{
		byDispatch: make(map[dispatchKey]*Subscription),
		byID:       make(map[string]*Subscription),
		byNetloc:   make(map[string][]*Subscription),
	}
}

func (t *table) add(s *Subscription, netloc string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byDispatch[keyFor(s)] = s
	t.byID[s.Identifier.String()] = s
	t.byNetloc[netloc] = append(t.byNetloc[netloc], s)
}

func (t *table) remove(s *Subscription, netloc string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byDispatch, keyFor(s))
	delete(t.byID, s.Identifier.String())
	list := t.byNetloc[netloc]
	for i, cand := range list {
		if cand == s {
			t.byNetloc[netloc] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(t.byNetloc[netloc]) == 0 {
		delete(t.byNetloc, netloc)
	}
}

func (t *table) getByDispatch(key dispatchKey) (*Subscription, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byDispatch[key]
	return s, ok
}

func (t *table) netlocCount(netloc string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byNetloc[netloc])
}

func (t *table) byNetlocSnapshot(netloc string) []*Subscription {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Subscription, len(t.byNetloc[netloc]))
	copy(out, t.byNetloc[netloc])
	return out
}

func (t *table) all() []*Subscription {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Subscription, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	return out
}

func (t *table) clear() []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Subscription, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	t.byDispatch = make(map[dispatchKey]*Subscription)
	t.byID = make(map[string]*Subscription)
	t.byNetloc = make(map[string][]*Subscription)
	return out
}
