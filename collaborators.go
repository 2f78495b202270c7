// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"context"
	"time"
)

// ProbeTransport performs the blocking TLS handshake + canary DNS query
// that decides whether an endpoint is usable (spec.md §6). It is an
// external collaborator: the engine does not perform TLS or own sockets.
//
// github.com/bassosimone/dnsprivacy/probe.TLSProbeTransport and
// probe.HTTPSProbeTransport are default implementations.
type ProbeTransport interface {
	// Probe attempts a handshake and canary query against endpoint using
	// mark as the socket-association token, and returns true iff a
	// valid DNS response was received before ctx's deadline.
	Probe(ctx context.Context, endpoint EndpointRecord, mark uint32) bool
}

// Do53LatencyOracle reports the moving-average plaintext DNS (Do53)
// response time observed on a network, used by the validation driver's
// opportunistic-mode latency gate (spec.md §4.4 Step A).
//
// github.com/bassosimone/dnsprivacy/do53.Sampler and
// do53.NopOracle are implementations.
type Do53LatencyOracle interface {
	// Average returns the current moving average for netID, or
	// ok == false if no sample is available.
	Average(netID NetID) (avg time.Duration, ok bool)
}

// FlagStore supplies runtime-tunable integer flags (spec.md §6). Values
// are read fresh on every driver attempt, matching the original source
// re-reading Experiments::getInstance()->getFlag(...) each iteration.
//
// github.com/bassosimone/dnsprivacy/flags.InMemoryStore and
// flags.ViperStore are implementations.
type FlagStore interface {
	GetInt(name string, def int64) int64
}

// Flag names read by the validation driver, matching the original
// Experiments flag names verbatim so a migrated flag-store config needs no
// translation.
const (
	FlagAvoidBadPrivateDNS        = "avoid_bad_private_dns"
	FlagMinPrivateDNSLatencyMS    = "min_private_dns_latency_threshold_ms"
	FlagMaxPrivateDNSLatencyMS    = "max_private_dns_latency_threshold_ms"
)

// Engine-side defaults for the flags above, used when the [FlagStore]
// has no override.
const (
	DefaultMinPrivateDNSLatencyMS = 200
	DefaultMaxPrivateDNSLatencyMS = 2000
)

// KOpportunisticMaxAttempts is K_MAX_OPPORTUNISTIC_ATTEMPTS from spec.md
// §4.4 Step C: the attempt count at which an opportunistic-mode probe
// gives up even under the avoid_bad_private_dns gate.
const KOpportunisticMaxAttempts = 5
