package soap

// Namespace URIs this stack treats as canonical. A concrete codec may see
// a provider declare an older or newer BICEPS participant-namespace URI;
// NamespaceAliases.Normalize maps such a URI to the canonical one below,
// hiding that profile-version skew from every package above this one (§6).
const (
	NsSoap12   = "http://www.w3.org/2003/05/soap-envelope"
	NsWsAddr   = "http://www.w3.org/2005/08/addressing"
	NsWsEvent  = "http://schemas.xmlsoap.org/ws/2004/08/eventing"
	NsWsMex    = "http://schemas.xmlsoap.org/ws/2004/09/mex"
	NsWsDisc   = "http://docs.oasis-open.org/ws-dd/ns/discovery/2009/01"
	NsDpws     = "http://docs.oasis-open.org/ws-dd/ns/dpws/2009/01"
	NsMdpws    = "http://standards.ieee.org/downloads/11073/11073-20702-2016"
	NsBiceps   = "http://standards.ieee.org/downloads/11073/11073-10207-2017/participant"
	NsMessage  = "http://standards.ieee.org/downloads/11073/11073-10207-2017/message"
	NsExt      = "http://standards.ieee.org/downloads/11073/11073-10207-2017/extension"
)

// NamespaceAliases normalizes provider-declared namespace URIs that denote
// the same profile concept across BICEPS revisions to the canonical URI
// above, so indexing and action-URI matching never depend on which
// revision a peer speaks.
type NamespaceAliases map[string]string

// DefaultAliases is the alias table shipped with this stack; a codec may
// extend it with profile revisions it has seen in the field.
func DefaultAliases() NamespaceAliases {
	return NamespaceAliases{}
}

// Normalize rewrites uri to its canonical form if an alias is registered,
// otherwise returns uri unchanged.
func (a NamespaceAliases) Normalize(uri string) string {
	if canonical, ok := a[uri]; ok {
		return canonical
	}
	return uri
}
