// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

// PrivateDnsMode classifies how a network is configured to use private DNS.
type PrivateDnsMode int

const (
	// ModeOff means the network has no private DNS configuration.
	ModeOff PrivateDnsMode = iota

	// ModeOpportunistic means private DNS is attempted but the resolver
	// silently falls back to plaintext DNS when validation fails.
	ModeOpportunistic

	// ModeStrict means private DNS is required; there is no fallback.
	ModeStrict
)

// String implements [fmt.Stringer].
func (m PrivateDnsMode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeOpportunistic:
		return "opportunistic"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// modeForInput computes the [PrivateDnsMode] resulting from a [Engine.Set]
// call, given whether a provider hostname was supplied and how many server
// addresses parsed successfully.
//
// See spec.md §4.1's mode-selection table.
func modeForInput(name string, serverCount int) PrivateDnsMode {
	switch {
	case name != "":
		return ModeStrict
	case serverCount > 0:
		return ModeOpportunistic
	default:
		return ModeOff
	}
}
