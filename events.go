// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

// ValidationResult is the payload enum carried by [ValidationEventParcel],
// matching spec.md §6's "SUCCESS | FAILURE" unsolicited event payload.
type ValidationResult int

const (
	// ValidationResultFailure means the probe did not succeed in time.
	ValidationResultFailure ValidationResult = iota

	// ValidationResultSuccess means the probe succeeded within threshold.
	ValidationResultSuccess
)

// ValidationEventParcel is the event payload delivered to unsolicited
// subscribers, per spec.md §6.
type ValidationEventParcel struct {
	NetID      NetID
	IPAddress  string
	Hostname   string
	Validation ValidationResult
}

// ClassicSubscriber receives the "classic" validation event: a plain
// success/failure notification scoped to one identity.
type ClassicSubscriber interface {
	OnPrivateDnsValidationEvent(netID NetID, ipAddress, hostname string, success bool)
}

// UnsolicitedSubscriber receives the structured [ValidationEventParcel].
type UnsolicitedSubscriber interface {
	OnPrivateDnsValidationEvent(event ValidationEventParcel)
}

// EventSubscribers abstracts over the process-wide subscriber registry
// (spec.md §6, "EventSubscribers::classic() / ::unsolicited()"). The
// engine consumes this without holding its registry lock (spec.md §5).
//
// github.com/bassosimone/dnsprivacy/subscribers.Registry implements this
// interface; callers may also inject a fake for testing.
type EventSubscribers interface {
	Classic() []ClassicSubscriber
	Unsolicited() []UnsolicitedSubscriber
}

// Observer receives validation state transitions for a single in-process
// observer, per spec.md §6.
type Observer interface {
	OnValidationStateUpdate(ipString string, state ValidationState, netID NetID)
}

// noSubscribers is the default [EventSubscribers] used when the [Engine] is
// constructed without one: an always-empty registry, not a nil collaborator,
// so dispatch code never needs a nil check.
type noSubscribers struct{}

func (noSubscribers) Classic() []ClassicSubscriber         { return nil }
func (noSubscribers) Unsolicited() []UnsolicitedSubscriber { return nil }

// reporter fans validation events out to subscribers and the observer.
//
// Delivery is synchronous; a panic-free subscriber failing to do anything
// useful does not abort delivery to the rest (spec.md §4.5). Event ordering
// from a single driver is the driver's commit order; cross-driver ordering
// is unspecified.
type reporter struct {
	subscribers EventSubscribers
}

// notify fans the classic and unsolicited events out to every registered
// subscriber, per spec.md §4.5.
func (r *reporter) notify(identity EndpointIdentity, netID NetID, success bool) {
	ip := identity.SockAddr.Addr().String()
	for _, s := range r.subscribers.Classic() {
		s.OnPrivateDnsValidationEvent(netID, ip, identity.ProviderName, success)
	}
	validation := ValidationResultFailure
	if success {
		validation = ValidationResultSuccess
	}
	parcel := ValidationEventParcel{
		NetID:      netID,
		IPAddress:  ip,
		Hostname:   identity.ProviderName,
		Validation: validation,
	}
	for _, s := range r.subscribers.Unsolicited() {
		s.OnPrivateDnsValidationEvent(parcel)
	}
}

