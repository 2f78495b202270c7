// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import "net/netip"

// NetID identifies a logical network context.
//
// This is the Go analogue of netd's unsigned netId: an opaque integer the
// caller associates with a network interface.
type NetID int32

// EndpointIdentity uniquely identifies a configured encrypted DNS endpoint
// within a [NetID].
//
// Two identities are equal iff both fields compare equal. ProviderName
// empty means the endpoint was configured for opportunistic use (no
// strict-mode hostname to verify against).
//
// Immutable once constructed.
type EndpointIdentity struct {
	// SockAddr is the numeric endpoint address, port 853.
	SockAddr netip.AddrPort

	// ProviderName is the TLS hostname the endpoint must present, or
	// the empty string for an opportunistic-mode endpoint.
	ProviderName string
}

// IsOpportunistic reports whether this identity was configured without a
// provider hostname, i.e. for opportunistic use.
func (id EndpointIdentity) IsOpportunistic() bool {
	return id.ProviderName == ""
}

// String renders the identity the way [Engine.Dump] formats audit records:
// "<sockaddr>/<provider>".
func (id EndpointIdentity) String() string {
	return id.SockAddr.String() + "/" + id.ProviderName
}
