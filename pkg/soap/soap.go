// Package soap declares the external collaborator interfaces the runtime
// reaches through for everything on the wire: XML encoding, HTTP(S)
// delivery, and per-peer client construction. Concrete SOAP 1.2 / WS-* /
// XML-Schema support is out of scope (§1) — sdcgo's own packages depend
// only on these interfaces, never on a concrete XML or HTTP library.
package soap

import (
	"context"
	"time"
)

// Message is an outbound or inbound SOAP envelope body in its decoded form;
// the concrete shape is owned by the Codec implementation.
type Message struct {
	Action          string
	To              string
	MessageID       string
	RelatesTo       string
	ReplyTo         string
	FaultTo         string
	ReferenceParams []ReferenceParameter
	Body            any
}

// ReferenceParameter is one WS-Addressing reference parameter element that
// must be echoed, with IsReferenceParameter="true", on every subsequent
// message to the subscription it identifies (§6).
type ReferenceParameter struct {
	Name  string
	Value string
}

// Fault is a typed SOAP 1.2 fault (§6): a Receiver/Sender code, a profile
// subcode such as "InvalidMessage" or "UnableToRenew", and a human reason.
type Fault struct {
	Code    string
	Subcode string
	Reason  string
}

func (f *Fault) Error() string { return f.Code + "/" + f.Subcode + ": " + f.Reason }

// NewUnableToRenewFault builds the fault returned for Renew against an
// unknown subscription identifier (§4.4, §8 scenario 3).
func NewUnableToRenewFault(reason string) *Fault {
	return &Fault{Code: "Receiver", Subcode: "UnableToRenew", Reason: reason}
}

// NewInvalidMessageFault builds the fault returned for a request referring
// to an unknown dispatch identity or handle.
func NewInvalidMessageFault(reason string) *Fault {
	return &Fault{Code: "Receiver", Subcode: "InvalidMessage", Reason: reason}
}

// Codec encodes and decodes SOAP envelopes. Implemented externally; this
// stack's codec dependency is injected wherever a Message must cross the
// wire.
type Codec interface {
	Encode(msg Message) ([]byte, error)
	Decode(data []byte) (Message, error)
}

// Transport delivers an already-encoded SOAP message to a single peer
// endpoint and returns its response bytes, or an error classified by the
// caller into mdiberrors.TransportError.
type Transport interface {
	Post(ctx context.Context, url string, body []byte, acceptedEncodings []string) ([]byte, error)
	Close() error
}

// ClientFactory constructs a Transport bound to one network location
// (host:port). The SOAP client pool (pkg/subscription/pool) is the sole
// caller; it amortizes one Transport per netloc across every subscription
// and one-shot request that targets it.
type ClientFactory interface {
	NewTransport(netloc string, timeout time.Duration) (Transport, error)
}

// VariantRegistry maps a wire xsi:type QName to the NodeType tag the MDIB
// entity table discriminates descriptors and states by, and back. A codec
// implementation owns the concrete QName strings; this stack only needs
// the mapping to select/emit the right tagged variant (§9 "Polymorphic
// containers with XSI type").
type VariantRegistry interface {
	NodeTypeFor(qname string) (nodeType int, ok bool)
	QNameFor(nodeType int) (qname string, ok bool)
}
