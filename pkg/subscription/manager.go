package subscription

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/marmos91/sdcgo/internal/logger"
	"github.com/marmos91/sdcgo/internal/telemetry"
	mdiberrors "github.com/marmos91/sdcgo/pkg/mdib/errors"
	"github.com/marmos91/sdcgo/pkg/mdib/report"
	"github.com/marmos91/sdcgo/pkg/soap"
	"github.com/marmos91/sdcgo/pkg/subscription/pool"
)

// DispatchStrategy selects how incoming notifications identify which
// subscription they carry on the wire, the two schemes the original
// offers as separate manager implementations (§9).
type DispatchStrategy int

const (
	// DispatchReferenceParam injects a WS-Addressing reference parameter
	// into the subscription's notify-to EPR and matches requests by its
	// echoed text.
	DispatchReferenceParam DispatchStrategy = iota
	// DispatchPathSuffix appends the subscription identifier to the
	// subscription-manager URL and matches requests by path.
	DispatchPathSuffix
)

// EndCode is the reason code carried by a best-effort SubscriptionEnd
// message (§4.4).
type EndCode string

const (
	EndSourceShuttingDown EndCode = "SourceShuttingDown"
	EndDeliveryFailure    EndCode = "DeliveryFailure"
	EndCancelled          EndCode = "Cancelled"
)

// SubscribeRequest carries the fields a Subscribe operation needs out of
// the inbound WS-Eventing message, independent of its wire encoding.
type SubscribeRequest struct {
	NotifyTo          string
	NotifyRefParams   []soap.ReferenceParameter
	EndTo             string
	EndToRefParams    []soap.ReferenceParameter
	Filters           []string
	AcceptedEncodings []string
	RequestedDuration time.Duration
}

// Manager owns the live subscription table and fans out reports to every
// matching subscriber, delivering over Transports obtained from pool and
// encoding with codec (§4.4).
type Manager struct {
	table    *table
	pool     *pool.Pool
	codec    soap.Codec
	strategy DispatchStrategy
	baseURL  string

	maxDuration      time.Duration
	minDuration      time.Duration
	maxNotifyErrors  int
	roundTripSamples int

	metrics *Metrics
}

// Config bundles the manager's lifecycle defaults, mirrored from
// pkg/config.SubscriptionConfig so callers don't need to import it here.
type Config struct {
	MaxSubscriptionDuration time.Duration
	MinSubscriptionDuration time.Duration
	MaxNotifyErrors         int
	RoundTripSamples        int
}

// NewManager builds a Manager. baseURL is this provider's own subscription
// manager endpoint, used to construct path-suffix dispatch identities.
func NewManager(p *pool.Pool, codec soap.Codec, strategy DispatchStrategy, baseURL string, cfg Config) *Manager {
	return &Manager{
		table:            newTable(),
		pool:             p,
		codec:            codec,
		strategy:         strategy,
		baseURL:          baseURL,
		maxDuration:      cfg.MaxSubscriptionDuration,
		minDuration:      cfg.MinSubscriptionDuration,
		maxNotifyErrors:  cfg.MaxNotifyErrors,
		roundTripSamples: cfg.RoundTripSamples,
		metrics:          NewMetrics(nil),
	}
}

func netlocOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

// Subscribe creates a new subscription, registers its peer with the SOAP
// client pool, and returns it so the caller can render a SubscribeResponse
// (§4.4). The registered pool callback reports the new subscription
// unreachable to this manager if its netloc later fails.
func (m *Manager) Subscribe(req SubscribeRequest) (*Subscription, error) {
	netloc, err := netlocOf(req.NotifyTo)
	if err != nil {
		return nil, mdiberrors.NewConflict("", fmt.Sprintf("invalid NotifyTo: %v", err))
	}

	duration := req.RequestedDuration
	if duration <= 0 {
		duration = m.maxDuration
	}
	if duration < m.minDuration {
		duration = m.minDuration
	}

	s := New(PushMode, req.NotifyTo, req.NotifyRefParams, req.EndTo, req.EndToRefParams,
		req.Filters, req.AcceptedEncodings, duration, m.maxDuration, m.maxNotifyErrors, m.roundTripSamples)

	switch m.strategy {
	case DispatchPathSuffix:
		s.DispatchPathSuffix = s.Identifier.String()
	default:
		s.DispatchRefParamText = s.Identifier.String()
	}

	id := s.Identifier.String()
	m.pool.Register(netloc, req.NotifyTo, id, func() { m.onUnreachable(netloc) })
	m.table.add(s, netloc)
	m.metrics.setActive(len(m.table.all()))

	logger.Info("subscription created", logger.SubscriptionID(id), logger.Netloc(netloc))
	return s, nil
}

// Renew extends an existing subscription's expiry, clamped to this
// manager's max duration. Returns an UnableToRenew fault if key resolves
// to nothing (§4.4 operation table).
func (m *Manager) Renew(key dispatchKey, requested time.Duration) (*Subscription, error) {
	s, ok := m.table.getByDispatch(key)
	if !ok {
		return nil, soap.NewUnableToRenewFault("unknown subscription identifier")
	}
	s.Renew(requested)
	return s, nil
}

// GetStatus returns the remaining lifetime of the subscription key
// resolves to.
func (m *Manager) GetStatus(key dispatchKey) (time.Duration, error) {
	s, ok := m.table.getByDispatch(key)
	if !ok {
		return 0, soap.NewInvalidMessageFault("unknown subscription identifier")
	}
	return s.RemainingSeconds(), nil
}

// Unsubscribe closes and removes the subscription key resolves to, and
// forgets its peer registration with the pool if no other subscription
// still shares that netloc.
func (m *Manager) Unsubscribe(key dispatchKey) error {
	s, ok := m.table.getByDispatch(key)
	if !ok {
		return soap.NewInvalidMessageFault("unknown subscription identifier")
	}
	netloc, err := netlocOf(s.NotifyTo)
	if err != nil {
		return err
	}
	s.Close()
	m.table.remove(s, netloc)
	m.metrics.setActive(len(m.table.all()))
	if m.table.netlocCount(netloc) == 0 {
		_ = m.pool.ForgetCallback(s.Identifier.String())
	}
	logger.Info("subscription removed", logger.SubscriptionID(s.Identifier.String()))
	return nil
}

// DispatchKeyForReferenceParam builds the key a reference-parameter-based
// request resolves to.
func DispatchKeyForReferenceParam(text string) dispatchKey { return dispatchKey{refParamText: text} }

// DispatchKeyForPathSuffix builds the key a path-suffix-based request
// resolves to.
func DispatchKeyForPathSuffix(suffix string) dispatchKey { return dispatchKey{pathSuffix: suffix} }

// SendToSubscribers fans r out to every subscription whose filter set
// matches action, then runs housekeeping (§4.4 step 4). Delivery failures
// for individual subscribers never stop the fan-out.
func (m *Manager) SendToSubscribers(ctx context.Context, action string, r *report.Report) {
	start := time.Now()
	for _, s := range m.table.all() {
		if !s.Matches(action) {
			continue
		}
		m.deliver(ctx, s, action, r)
	}
	m.metrics.observeFanOut(time.Since(start))
	m.houseKeep()
}

func (m *Manager) deliver(ctx context.Context, s *Subscription, action string, r *report.Report) {
	ctx, span := telemetry.StartNotifySpan(ctx, s.Identifier.String(), action)
	defer span.End()

	netloc, err := netlocOf(s.NotifyTo)
	if err != nil {
		s.RecordNotifyError(true)
		m.metrics.observeNotify(false)
		telemetry.RecordError(ctx, err)
		return
	}
	telemetry.SetAttributes(ctx, telemetry.PeerNetloc(netloc))

	msg := soap.Message{
		Action:          action,
		To:              s.NotifyTo,
		ReferenceParams: s.NotifyRefParams,
		Body:            r,
	}
	payload, err := m.codec.Encode(msg)
	if err != nil {
		logger.Error("failed to encode notification", logger.Err(err), logger.SubscriptionID(s.Identifier.String()))
		m.metrics.observeNotify(false)
		telemetry.RecordError(ctx, err)
		return
	}

	transport, err := m.pool.Get(ctx, netloc, s.AcceptedEncodings())
	if err != nil {
		s.RecordNotifyError(true)
		m.metrics.observeNotify(false)
		telemetry.RecordError(ctx, err)
		return
	}

	start := time.Now()
	_, err = transport.Post(ctx, s.NotifyTo, payload, s.AcceptedEncodings())
	if err != nil {
		connErr := mdiberrors.Is(err, mdiberrors.TransportError) || mdiberrors.Is(err, mdiberrors.UnreachableNetloc)
		s.RecordNotifyError(connErr)
		m.metrics.observeNotify(false)
		logger.Warn("notification delivery failed", logger.Err(err), logger.SubscriptionID(s.Identifier.String()), logger.Netloc(netloc))
		telemetry.RecordError(ctx, err)
		return
	}
	s.RecordNotifySuccess(time.Since(start))
	m.metrics.observeNotify(true)
}

// onUnreachable drops every subscription registered against netloc, as
// reported by another manager sharing the same pool (§4.5).
func (m *Manager) onUnreachable(netloc string) {
	for _, s := range m.table.byNetlocSnapshot(netloc) {
		s.Close()
		m.table.remove(s, netloc)
	}
	m.metrics.setActive(len(m.table.all()))
}

// houseKeep removes every subscription that is no longer valid. A
// connection-errored subscription takes every other subscription on the
// same netloc down with it and forgets that netloc from the pool
// (§4.4 step 4).
func (m *Manager) houseKeep() {
	var unreachableNetlocs []string
	for _, s := range m.table.all() {
		if s.IsValid() {
			continue
		}
		netloc, err := netlocOf(s.NotifyTo)
		if err != nil {
			continue
		}
		if s.HasConnectionError() {
			unreachableNetlocs = append(unreachableNetlocs, netloc)
		}
		logger.Info("deleting subscription", logger.SubscriptionID(s.Identifier.String()))
		s.Close()
		m.table.remove(s, netloc)
	}

	for _, netloc := range unreachableNetlocs {
		for _, s := range m.table.byNetlocSnapshot(netloc) {
			logger.Info("deleting subscription, same endpoint", logger.SubscriptionID(s.Identifier.String()))
			s.Close()
			m.table.remove(s, netloc)
		}
		_ = m.pool.ReportUnreachableNetloc(netloc)
	}
	m.metrics.setActive(len(m.table.all()))
}

// Snapshot is one read-only row describing a live subscription, for the
// local debug/status listener.
type Snapshot struct {
	Identifier       string
	NotifyTo         string
	RemainingSeconds float64
	MaxRoundTrip     time.Duration
}

// Snapshot returns a read-only view of every live subscription.
func (m *Manager) Snapshot() []Snapshot {
	subs := m.table.all()
	out := make([]Snapshot, 0, len(subs))
	for _, s := range subs {
		_, maxRT := s.RoundTripStats()
		out = append(out, Snapshot{
			Identifier:       s.Identifier.String(),
			NotifyTo:         s.NotifyTo,
			RemainingSeconds: s.RemainingSeconds().Seconds(),
			MaxRoundTrip:     maxRT,
		})
	}
	return out
}

// EndAll sends a best-effort SubscriptionEnd to every live subscription,
// if sendEnd is true, then clears the table. Called on shutdown.
func (m *Manager) EndAll(ctx context.Context, sendEnd bool, code EndCode, reason string) {
	subs := m.table.clear()
	if !sendEnd {
		return
	}
	for _, s := range subs {
		m.sendEnd(ctx, s, code, reason)
	}
}

// sendEnd delivers SubscriptionEnd synchronously and swallows every
// error: the peer may already be gone, and there is no one left to
// report the failure to (§4.4).
func (m *Manager) sendEnd(ctx context.Context, s *Subscription, code EndCode, reason string) {
	target := s.EndTo
	refParams := s.EndToRefParams
	if target == "" {
		target = s.NotifyTo
		refParams = s.NotifyRefParams
	}
	if target == "" {
		return
	}
	netloc, err := netlocOf(target)
	if err != nil {
		return
	}

	msg := soap.Message{
		Action:          "SubscriptionEnd",
		To:              target,
		ReferenceParams: refParams,
		Body:            struct {
			Code   EndCode
			Reason string
		}{code, reason},
	}
	payload, err := m.codec.Encode(msg)
	if err != nil {
		return
	}
	transport, err := m.pool.Get(ctx, netloc, s.AcceptedEncodings())
	if err != nil {
		return
	}
	_, _ = transport.Post(ctx, target, payload, s.AcceptedEncodings())
}
