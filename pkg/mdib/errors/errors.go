// Package errors provides the error taxonomy shared by the MDIB entity
// table, transaction manager, subscription manager, and consumer mirror.
// It is a leaf package with no internal dependencies so it can be imported
// by every layer above it without causing import cycles.
package errors

import "fmt"

// Code represents the type of error that occurred, per the taxonomy in
// §7 of the design.
type Code int

const (
	// NotFound indicates a referenced handle does not resolve to a live
	// entity.
	NotFound Code = iota + 1

	// Ambiguous indicates a lookup that must be unique resolved to more
	// than one entity.
	Ambiguous

	// Conflict indicates an invariant violation: duplicate handle, a
	// missing parent, or a context-association rule breach.
	Conflict

	// VersionGap indicates a consumer observed an MdibVersion or
	// StateVersion further ahead than +1 of the last seen value.
	VersionGap

	// VersionRegression indicates a consumer observed a version lower
	// than the last seen value.
	VersionRegression

	// SequenceIdChanged indicates a report arrived carrying a different
	// SequenceId than the consumer mirror's current one.
	SequenceIdChanged

	// SchemaError indicates an inbound message failed XML-Schema
	// validation.
	SchemaError

	// TransportError indicates a socket timeout, refused connection, or
	// HTTP status error while delivering or issuing a SOAP message.
	TransportError

	// UnreachableNetloc indicates a peer network location has been
	// marked unreachable and no further client may be obtained for it
	// until a new registration occurs.
	UnreachableNetloc

	// ApiMisuse indicates the caller violated the package's usage
	// contract (double-init, commit outside a transaction scope). Not
	// recoverable automatically.
	ApiMisuse
)

// String returns a human-readable name for the error code.
func (c Code) String() string {
	switch c {
	case NotFound:
		return "NotFound"
	case Ambiguous:
		return "Ambiguous"
	case Conflict:
		return "Conflict"
	case VersionGap:
		return "VersionGap"
	case VersionRegression:
		return "VersionRegression"
	case SequenceIdChanged:
		return "SequenceIdChanged"
	case SchemaError:
		return "SchemaError"
	case TransportError:
		return "TransportError"
	case UnreachableNetloc:
		return "UnreachableNetloc"
	case ApiMisuse:
		return "ApiMisuse"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the typed error every mdib/subscription/consumer package
// returns instead of ad-hoc fmt.Errorf values, so callers can branch on
// Code without string-matching.
type Error struct {
	Code    Code
	Message string
	Handle  string // the handle involved, when applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("%s: %s (handle: %s)", e.Code, e.Message, e.Handle)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ============================================================================
// Factory functions
// ============================================================================

// NewNotFound creates a NotFound error for the given handle.
func NewNotFound(handle string) *Error {
	return &Error{Code: NotFound, Message: "entity not found", Handle: handle}
}

// NewAmbiguous creates an Ambiguous error for a lookup expecting at most one
// result.
func NewAmbiguous(handle string, count int) *Error {
	return &Error{Code: Ambiguous, Message: fmt.Sprintf("expected at most one match, found %d", count), Handle: handle}
}

// NewConflict creates a Conflict error describing an invariant violation.
func NewConflict(handle, reason string) *Error {
	return &Error{Code: Conflict, Message: reason, Handle: handle}
}

// NewVersionGap creates a VersionGap error/log-worthy condition.
func NewVersionGap(handle string, expected, got uint64) *Error {
	return &Error{Code: VersionGap, Message: fmt.Sprintf("expected version %d, got %d", expected, got), Handle: handle}
}

// NewVersionRegression creates a VersionRegression error.
func NewVersionRegression(handle string, last, got uint64) *Error {
	return &Error{Code: VersionRegression, Message: fmt.Sprintf("version %d is not greater than last seen %d", got, last), Handle: handle}
}

// NewSequenceIdChanged creates a SequenceIdChanged error.
func NewSequenceIdChanged(old, new string) *Error {
	return &Error{Code: SequenceIdChanged, Message: fmt.Sprintf("sequence_id changed from %q to %q", old, new)}
}

// NewSchemaError creates a SchemaError.
func NewSchemaError(reason string) *Error {
	return &Error{Code: SchemaError, Message: reason}
}

// NewTransportError creates a TransportError wrapping the underlying cause.
func NewTransportError(netloc string, cause error) *Error {
	msg := "transport error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Code: TransportError, Message: msg, Handle: netloc}
}

// NewUnreachableNetloc creates an UnreachableNetloc error.
func NewUnreachableNetloc(netloc string) *Error {
	return &Error{Code: UnreachableNetloc, Message: "network location is unreachable", Handle: netloc}
}

// NewApiMisuse creates an ApiMisuse error.
func NewApiMisuse(reason string) *Error {
	return &Error{Code: ApiMisuse, Message: reason}
}

// ============================================================================
// Type-checking helpers
// ============================================================================

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return Is(err, NotFound) }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return Is(err, Conflict) }

// IsVersionRegression reports whether err is a VersionRegression error.
func IsVersionRegression(err error) bool { return Is(err, VersionRegression) }

// IsSequenceIdChanged reports whether err is a SequenceIdChanged error.
func IsSequenceIdChanged(err error) bool { return Is(err, SequenceIdChanged) }
