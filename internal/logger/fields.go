package logger

import "log/slog"

// Standard field keys for structured logging across the MDIB engine,
// subscription manager, and consumer mirror.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyAction         = "action"          // SOAP action URI
	KeyHandle         = "handle"          // descriptor/state handle
	KeySubscriptionID = "subscription_id" // subscription dispatch identifier
	KeyNetloc         = "netloc"          // host:port of a SOAP peer
	KeySequenceID     = "sequence_id"
	KeyMdibVersion    = "mdib_version"
	KeyStateVersion   = "state_version"
	KeyDescVersion    = "descriptor_version"
	KeyTransactionID  = "transaction_id"
	KeyReportFamily   = "report_family"
	KeyPeriodMs       = "period_ms"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyOperation  = "operation"
	KeyAttempt    = "attempt"
)

func Handle(h string) slog.Attr           { return slog.String(KeyHandle, h) }
func SubscriptionID(id string) slog.Attr  { return slog.String(KeySubscriptionID, id) }
func Netloc(n string) slog.Attr           { return slog.String(KeyNetloc, n) }
func SequenceID(s string) slog.Attr       { return slog.String(KeySequenceID, s) }
func MdibVersion(v uint64) slog.Attr      { return slog.Uint64(KeyMdibVersion, v) }
func Action(a string) slog.Attr           { return slog.String(KeyAction, a) }
func DurationMsAttr(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
