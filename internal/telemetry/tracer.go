package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for SDC protocol operations, following
// OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Peer attributes
	// ========================================================================
	AttrPeerNetloc = "peer.netloc" // host:port of a SOAP peer
	AttrPeerEPR    = "peer.epr"    // endpoint reference address

	// ========================================================================
	// SOAP / WS-* attributes
	// ========================================================================
	AttrAction        = "soap.action"     // SOAP action URI
	AttrMessageID     = "soap.message_id" // WS-Addressing MessageID
	AttrFaultCode     = "soap.fault_code"
	AttrFaultReason   = "soap.fault_reason"
	AttrSubscriptionID = "subscription.id"
	AttrFilter        = "subscription.filter"
	AttrExpiresSec    = "subscription.expires_seconds"

	// ========================================================================
	// MDIB attributes
	// ========================================================================
	AttrHandle          = "mdib.handle"
	AttrMdibVersion      = "mdib.version"
	AttrDescriptorVersion = "mdib.descriptor_version"
	AttrStateVersion     = "mdib.state_version"
	AttrSequenceID       = "mdib.sequence_id"
	AttrTransactionID    = "mdib.transaction_id"
	AttrNodeType         = "mdib.node_type"
	AttrReportFamily     = "mdib.report_family"

	// ========================================================================
	// Periodic reporting attributes
	// ========================================================================
	AttrPeriodMs = "periodic.period_ms"

	// ========================================================================
	// Generic operation attributes
	// ========================================================================
	AttrOperation = "op.name"
	AttrStatus    = "op.status"
	AttrAttempt   = "op.attempt"
)

// Span names for SDC protocol operations. Format: <component>.<operation>.
const (
	// ========================================================================
	// Provider-side hosted-service spans
	// ========================================================================
	SpanGetMdib         = "hosted.GetMdib"
	SpanGetMdDescription = "hosted.GetMdDescription"
	SpanGetMdState      = "hosted.GetMdState"
	SpanSetValue        = "hosted.SetValue"
	SpanSetString       = "hosted.SetString"
	SpanSetMetricState  = "hosted.SetMetricState"
	SpanSetAlertState   = "hosted.SetAlertState"
	SpanSetComponentState = "hosted.SetComponentState"
	SpanSetContextState = "hosted.SetContextState"
	SpanActivate        = "hosted.Activate"

	// ========================================================================
	// WS-Eventing spans
	// ========================================================================
	SpanSubscribe        = "eventing.Subscribe"
	SpanRenew            = "eventing.Renew"
	SpanGetStatus        = "eventing.GetStatus"
	SpanUnsubscribe      = "eventing.Unsubscribe"
	SpanSubscriptionEnd  = "eventing.SubscriptionEnd"
	SpanNotify           = "eventing.Notify"

	// ========================================================================
	// Transaction / commit spans
	// ========================================================================
	SpanTransactionCommit = "transaction.commit"
	SpanTransactionDiff   = "transaction.diff"

	// ========================================================================
	// Periodic aggregation spans
	// ========================================================================
	SpanPeriodicFlush = "periodic.flush"

	// ========================================================================
	// Consumer mirror spans
	// ========================================================================
	SpanMirrorApplyReport  = "mirror.apply_report"
	SpanMirrorBootstrap    = "mirror.bootstrap"
	SpanMirrorBufferDrain  = "mirror.buffer_drain"

	// ========================================================================
	// Reconnect supervisor spans
	// ========================================================================
	SpanReconnectProbe = "reconnect.probe"
	SpanReconnectRebind = "reconnect.rebind"
)

// PeerNetloc returns an attribute for a SOAP peer's host:port.
func PeerNetloc(netloc string) attribute.KeyValue {
	return attribute.String(AttrPeerNetloc, netloc)
}

// PeerEPR returns an attribute for an endpoint reference address.
func PeerEPR(epr string) attribute.KeyValue {
	return attribute.String(AttrPeerEPR, epr)
}

// Action returns an attribute for a SOAP action URI.
func Action(action string) attribute.KeyValue {
	return attribute.String(AttrAction, action)
}

// MessageID returns an attribute for a WS-Addressing MessageID.
func MessageID(id string) attribute.KeyValue {
	return attribute.String(AttrMessageID, id)
}

// FaultCode returns an attribute for a SOAP fault code.
func FaultCode(code string) attribute.KeyValue {
	return attribute.String(AttrFaultCode, code)
}

// SubscriptionID returns an attribute for a subscription dispatch identifier.
func SubscriptionID(id string) attribute.KeyValue {
	return attribute.String(AttrSubscriptionID, id)
}

// Filter returns an attribute for a WS-Eventing action filter.
func Filter(filter string) attribute.KeyValue {
	return attribute.String(AttrFilter, filter)
}

// ExpiresSeconds returns an attribute for a subscription's requested
// expiration, in seconds.
func ExpiresSeconds(seconds float64) attribute.KeyValue {
	return attribute.Float64(AttrExpiresSec, seconds)
}

// Handle returns an attribute for an MDIB descriptor/state handle.
func Handle(handle string) attribute.KeyValue {
	return attribute.String(AttrHandle, handle)
}

// MdibVersion returns an attribute for an mdib_version value.
func MdibVersion(v uint64) attribute.KeyValue {
	return attribute.Int64(AttrMdibVersion, int64(v))
}

// SequenceID returns an attribute for an MDIB sequence ID.
func SequenceID(id string) attribute.KeyValue {
	return attribute.String(AttrSequenceID, id)
}

// TransactionID returns an attribute for a provider transaction ID.
func TransactionID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrTransactionID, id)
}

// NodeType returns an attribute for a descriptor's node type (Mds, Vmd, ...).
func NodeType(t string) attribute.KeyValue {
	return attribute.String(AttrNodeType, t)
}

// ReportFamily returns an attribute naming a report family (episodic metric
// report, periodic alert report, ...).
func ReportFamily(family string) attribute.KeyValue {
	return attribute.String(AttrReportFamily, family)
}

// PeriodMs returns an attribute for a periodic report interval.
func PeriodMs(ms int64) attribute.KeyValue {
	return attribute.Int64(AttrPeriodMs, ms)
}

// Operation returns an attribute for a generic operation name.
func Operation(name string) attribute.KeyValue {
	return attribute.String(AttrOperation, name)
}

// Status returns an attribute for a generic operation status.
func Status(status string) attribute.KeyValue {
	return attribute.String(AttrStatus, status)
}

// Attempt returns an attribute for a retry attempt counter.
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// StartHostedServiceSpan starts a span for an inbound hosted-service
// request (GetMdib, SetValue, Subscribe, ...).
func StartHostedServiceSpan(ctx context.Context, spanName, action string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Action(action)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartTransactionSpan starts a span for a provider-side MDIB transaction.
func StartTransactionSpan(ctx context.Context, transactionID int64, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{TransactionID(transactionID)}, attrs...)
	return StartSpan(ctx, SpanTransactionCommit, trace.WithAttributes(allAttrs...))
}

// StartNotifySpan starts a span for dispatching a single WS-Eventing
// notification to one subscription.
func StartNotifySpan(ctx context.Context, subscriptionID, action string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{SubscriptionID(subscriptionID), Action(action)}, attrs...)
	return StartSpan(ctx, SpanNotify, trace.WithAttributes(allAttrs...))
}

// StartMirrorSpan starts a span for a consumer-side mirror operation.
func StartMirrorSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, spanName, trace.WithAttributes(attrs...))
}
