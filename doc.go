// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnsprivacy implements a per-network private DNS configuration
// and validation engine.
//
// It tracks DNS-over-TLS endpoints configured for a network context,
// classifies the network under one of three [PrivateDnsMode] values, and
// drives asynchronous probe workflows deciding whether each endpoint is
// usable. The engine does not resolve DNS itself, does not cache answers,
// does not perform TLS, and does not own sockets — probing is delegated to
// a [ProbeTransport] collaborator and DNS-over-UDP latency sampling to a
// [Do53LatencyOracle] collaborator.
//
// The core high-level abstraction is [*Engine]. Construct using [NewEngine],
// configure a network with [*Engine.Set], and observe validation state via
// [*Engine.GetStatus], [*Engine.SetObserver], or by registering event
// subscribers against a github.com/bassosimone/dnsprivacy/subscribers.Registry.
//
// For example, to configure strict mode for a network:
//
//	engine := dnsprivacy.NewEngine(probeTransport, do53Oracle, flagStore)
//	err := engine.Set(netID, mark, []string{"1.1.1.1"}, "dns.example", caCertPEM)
//	status := engine.GetStatus(netID)
//
// The package github.com/bassosimone/dnsprivacy/probe supplies default
// [ProbeTransport] implementations for DNS-over-TLS and DNS-over-HTTPS;
// github.com/bassosimone/dnsprivacy/do53 supplies a [Do53LatencyOracle]
// that actively samples DNS-over-UDP latency.
//
// The code in this package is an evolution of code originally written for
// Android's netd resolver (PrivateDnsConfiguration), reworked onto the
// concurrency and transport idioms of github.com/bassosimone/minest.
package dnsprivacy
