// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointIdentityIsOpportunistic(t *testing.T) {
	strict := EndpointIdentity{ProviderName: "dns.example.com"}
	opportunistic := EndpointIdentity{}
	assert.False(t, strict.IsOpportunistic())
	assert.True(t, opportunistic.IsOpportunistic())
}

func TestEndpointIdentityString(t *testing.T) {
	id := EndpointIdentity{
		SockAddr:     netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), PrivateDnsPort),
		ProviderName: "dns.example.com",
	}
	assert.Equal(t, "192.0.2.1:853/dns.example.com", id.String())
}
