// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

// ValidationState is the tagged state of a single [EndpointRecord].
type ValidationState int

const (
	// StateUnknown means the endpoint has never been probed.
	StateUnknown ValidationState = iota

	// StateInProcess means a validation driver currently owns this record.
	StateInProcess

	// StateSuccess means the most recent probe succeeded within the
	// latency threshold.
	StateSuccess

	// StateSuccessButExpired means the record was [StateSuccess] but was
	// demoted because it is no longer active; it must be re-validated
	// before use.
	StateSuccessButExpired

	// StateFail means the most recent validation attempt failed
	// terminally (no further automatic retry is scheduled).
	StateFail
)

// String implements [fmt.Stringer] and is used verbatim in audit log lines
// (see [Engine.Dump]).
func (s ValidationState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateInProcess:
		return "in_process"
	case StateSuccess:
		return "success"
	case StateSuccessButExpired:
		return "success_but_expired"
	case StateFail:
		return "fail"
	default:
		return "invalid"
	}
}

// EndpointKind distinguishes the transport protocol family of an
// [EndpointRecord]. Only [KindDot] is wired to a validation path today;
// [KindDoh] is reserved (see Design Note 9(b) in spec.md and SPEC_FULL.md §6.1).
type EndpointKind int

const (
	// KindDot is DNS-over-TLS, port 853.
	KindDot EndpointKind = iota

	// KindDoh is DNS-over-HTTPS. Reserved: no [Engine] code path creates
	// a [KindDoh] record today, but [EndpointKind.Reportable] and
	// github.com/bassosimone/dnsprivacy/probe.HTTPSProbeTransport exist
	// so that wiring one in is a constructor change, not a core rewrite.
	KindDoh
)

// String implements [fmt.Stringer].
func (k EndpointKind) String() string {
	switch k {
	case KindDot:
		return "dot"
	case KindDoh:
		return "doh"
	default:
		return "unknown"
	}
}

// Reportable decides whether [Engine.GetStatus] includes a record of this
// kind. Resolves Design Note 9(b): today every kind is reportable, because
// the engine only ever creates [KindDot] records; a caller wiring in
// [KindDoh] support gets it reported here for free.
func (k EndpointKind) Reportable() bool {
	switch k {
	case KindDot, KindDoh:
		return true
	default:
		return false
	}
}

// EndpointRecord is the mutable per-endpoint state the engine's registry
// tracks.
//
// Drivers never alias a canonical record: they [EndpointRecord.Clone] a
// snapshot at spawn time (see spec.md Design Note 9, "Pointer graphs") and
// every subsequent mutation of the canonical copy goes through the
// registry's lock.
type EndpointRecord struct {
	// Identity is this record's immutable key.
	Identity EndpointIdentity

	// Mark is the opaque network-association token captured at [Engine.Set]
	// time. Immutable thereafter.
	Mark uint32

	// Active reports whether this record is part of the most recently
	// desired configuration for its network.
	Active bool

	// State is the current validation state.
	State ValidationState

	// LatencyThreshold is the opportunistic-mode latency gate computed by
	// the validation driver, or nil if unset / not applicable.
	LatencyThreshold *int64

	// Kind distinguishes the transport family; see [EndpointKind].
	Kind EndpointKind

	// ProviderName mirrors Identity.ProviderName for convenience and is
	// passed opaquely to [ProbeTransport].
	ProviderName string

	// CACertPEM is an optional CA certificate in PEM form, opaque to the
	// engine, passed through to [ProbeTransport].
	CACertPEM []byte
}

// Clone returns a value copy of the record. Drivers take a [Clone] at spawn
// time rather than retaining a pointer into the registry's map.
func (r EndpointRecord) Clone() EndpointRecord {
	out := r
	if r.LatencyThreshold != nil {
		v := *r.LatencyThreshold
		out.LatencyThreshold = &v
	}
	if r.CACertPEM != nil {
		out.CACertPEM = append([]byte(nil), r.CACertPEM...)
	}
	return out
}

// needsValidation implements spec.md §4.3.
func (r *EndpointRecord) needsValidation() bool {
	if !r.Active {
		return false
	}
	switch r.State {
	case StateUnknown, StateFail, StateSuccessButExpired:
		return true
	default:
		return false
	}
}
