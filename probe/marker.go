// SPDX-License-Identifier: BSD-3-Clause

// Package probe provides default github.com/bassosimone/dnsprivacy
// [dnsprivacy.ProbeTransport] implementations: [TLSProbeTransport] for
// DNS-over-TLS endpoints and [HTTPSProbeTransport] for DNS-over-HTTPS
// endpoints.
//
// Adapted from github.com/bassosimone/minest's StreamExchanger and
// HTTPSExchanger: both probes build on the same DialContext/canary-query
// shape, trading "return the parsed response" for "return whether a valid
// response came back", since validation only needs a boolean.
package probe

import (
	"context"
	"net"
)

// MarkedDialer abstracts over a dialer that accepts a socket-association
// mark. Socket-mark application is a deployment-specific, privileged
// operation (binding a connection to a particular routing table via
// SO_MARK or an equivalent) and is explicitly out of scope for this module
// (see spec.md §1): [NetDialer] below ignores the mark it is handed, and
// callers that need real marking supply their own [MarkedDialer].
type MarkedDialer interface {
	DialContext(ctx context.Context, network, address string, mark uint32) (net.Conn, error)
}

// NetDialer adapts a plain [*net.Dialer] to [MarkedDialer] by ignoring the
// mark. This is the default used when no marking collaborator is supplied;
// it is suitable for tests and for platforms where marking is irrelevant.
type NetDialer struct {
	Dialer *net.Dialer
}

// NewNetDialer creates a [*NetDialer] wrapping dialer. A nil dialer means
// use [*net.Dialer] zero value defaults.
func NewNetDialer(dialer *net.Dialer) *NetDialer {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &NetDialer{Dialer: dialer}
}

// DialContext implements [MarkedDialer].
func (d *NetDialer) DialContext(ctx context.Context, network, address string, mark uint32) (net.Conn, error) {
	_ = mark // socket marking is out of scope; see [MarkedDialer].
	return d.Dialer.DialContext(ctx, network, address)
}
