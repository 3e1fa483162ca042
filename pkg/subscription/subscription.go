// Package subscription implements the WS-Eventing subscription table and
// manager (§4.4): Subscribe/Renew/GetStatus/Unsubscribe, per-report
// fan-out delivery, and housekeeping of expired or unreachable peers.
package subscription

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/sdcgo/pkg/soap"
)

// Mode is the WS-Eventing delivery mode of a subscription. Only push
// notification is implemented: SubscribeRequest carries no mode, and
// Manager.Subscribe always creates PushMode subscriptions.
type Mode string

const PushMode Mode = "http://schemas.xmlsoap.org/ws/2004/08/eventing/DeliveryModes/Push"

// roundTrip is the bounded ring buffer of recent notification round-trip
// times a subscription keeps for diagnostics, grounded on the original
// implementation's _RoundTripData/MAX_ROUNDTRIP_VALUES pattern.
type roundTrip struct {
	samples []time.Duration
	max     int
	maxSeen time.Duration
}

func newRoundTrip(max int) *roundTrip {
	if max <= 0 {
		max = 20
	}
	return &roundTrip{max: max}
}

func (r *roundTrip) observe(d time.Duration) {
	r.samples = append(r.samples, d)
	if len(r.samples) > r.max {
		r.samples = r.samples[len(r.samples)-r.max:]
	}
	if d > r.maxSeen {
		r.maxSeen = d
	}
}

func (r *roundTrip) values() []time.Duration {
	out := make([]time.Duration, len(r.samples))
	copy(out, r.samples)
	return out
}

// Subscription is one live WS-Eventing subscriber: where to deliver
// notifications, what actions it filters on, and the lifecycle/health
// bookkeeping the manager uses to decide whether it is still valid.
type Subscription struct {
	mu sync.Mutex

	Identifier uuid.UUID
	Mode       Mode

	NotifyTo      string
	NotifyRefParams []soap.ReferenceParameter
	EndTo         string
	EndToRefParams []soap.ReferenceParameter

	// DispatchRefParamText and DispatchPathSuffix are the two slots of
	// the dual dispatch-identity key (§9): exactly one is populated,
	// depending on whether this manager dispatches by reference
	// parameter or by URL path suffix.
	DispatchRefParamText string
	DispatchPathSuffix   string

	filters []string

	acceptedEncodings []string

	startedAt time.Time
	expiresIn time.Duration
	maxDuration time.Duration

	notifyErrors    int
	maxNotifyErrors int
	closed          bool
	connectionError bool

	roundTrip *roundTrip
}

// New builds a Subscription from a subscribe request's fields, clamping
// the requested duration to at most maxDuration; a non-positive request
// is treated as maxDuration.
func New(mode Mode, notifyTo string, notifyRefParams []soap.ReferenceParameter, endTo string, endToRefParams []soap.ReferenceParameter, filters []string, acceptedEncodings []string, requestedDuration, maxDuration time.Duration, maxNotifyErrors, roundTripSamples int) *Subscription {
	s := &Subscription{
		Identifier:        uuid.New(),
		Mode:              mode,
		NotifyTo:          notifyTo,
		NotifyRefParams:   notifyRefParams,
		EndTo:             endTo,
		EndToRefParams:    endToRefParams,
		filters:           filters,
		acceptedEncodings: acceptedEncodings,
		startedAt:         time.Now(),
		maxDuration:       maxDuration,
		maxNotifyErrors:   maxNotifyErrors,
		roundTrip:         newRoundTrip(roundTripSamples),
	}
	s.expiresIn = clamp(requestedDuration, maxDuration)
	return s
}

func clamp(requested, max time.Duration) time.Duration {
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

// Matches reports whether action satisfies this subscription's filter
// set. An empty filter set matches everything. A filter matches if
// action has it as a suffix, following the original's short-filter-name
// convention (a filter may name just the report's local action name).
func (s *Subscription) Matches(action string) bool {
	if len(s.filters) == 0 {
		return true
	}
	for _, f := range s.filters {
		if strings.HasSuffix(action, f) {
			return true
		}
	}
	return false
}

// RemainingSeconds returns the time left before expiry, zero if already
// expired.
func (s *Subscription) RemainingSeconds() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked()
}

func (s *Subscription) remainingLocked() time.Duration {
	remaining := s.expiresIn - time.Since(s.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Renew clamps requested to this subscription's max duration and resets
// the expiry clock from now.
func (s *Subscription) Renew(requested time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedAt = time.Now()
	s.expiresIn = clamp(requested, s.maxDuration)
}

// IsValid reports whether the subscription is still eligible to receive
// notifications: not closed, not expired, and under its notify-error
// threshold.
func (s *Subscription) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.remainingLocked() > 0 && s.notifyErrors < s.maxNotifyErrors
}

// Close marks the subscription as torn down; further delivery attempts
// are the caller's responsibility to avoid.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Subscription) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// HasConnectionError reports whether any notification failure so far was
// classified as a peer/connection failure rather than a bare HTTP error;
// once set, the flag is not cleared.
func (s *Subscription) HasConnectionError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectionError
}

// RecordNotifyError increments the consecutive-failure counter. If
// connErr is true the failure is classified as unreachable peer, which
// drives the housekeeping pass's same-netloc cleanup (§4.4 step 4).
func (s *Subscription) RecordNotifyError(connErr bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyErrors++
	if connErr {
		s.connectionError = true
	}
}

// RecordNotifySuccess resets the consecutive-failure counter and records
// the round trip the notification took.
func (s *Subscription) RecordNotifySuccess(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyErrors = 0
	s.roundTrip.observe(d)
}

// RoundTripStats returns the rolling sample buffer and the maximum ever
// observed.
func (s *Subscription) RoundTripStats() ([]time.Duration, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundTrip.values(), s.roundTrip.maxSeen
}

// AcceptedEncodings returns the content encodings the subscriber
// accepts, used to select transport compression.
func (s *Subscription) AcceptedEncodings() []string {
	return s.acceptedEncodings
}
