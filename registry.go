// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import "sync"

// registry is the single source of truth described in spec.md §2.3 and §3:
// a thread-safe map from [NetID] to [PrivateDnsMode], and from [NetID] to
// the set of tracked [EndpointRecord] values.
//
// Exactly one lock protects modes, transports, and the observer (spec.md
// §5); registry is that lock plus the state it protects. It never acquires
// any other lock and is never held across a probe, a sleep, or event
// dispatch — callers (the [Engine] façade and the validation driver) are
// responsible for only ever touching it for the short, synchronous
// read/commit steps spec.md §4.4 describes.
type registry struct {
	mu         sync.RWMutex
	modes      map[NetID]PrivateDnsMode
	transports map[NetID]map[EndpointIdentity]*EndpointRecord
	observer   Observer
}

func newRegistry() *registry {
	return &registry{
		modes:      make(map[NetID]PrivateDnsMode),
		transports: make(map[NetID]map[EndpointIdentity]*EndpointRecord),
	}
}

// mode returns the mode for netID and whether it is configured at all.
func (reg *registry) mode(netID NetID) (PrivateDnsMode, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	m, ok := reg.modes[netID]
	return m, ok
}

// setObserver installs the single in-process [Observer].
func (reg *registry) setObserver(o Observer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.observer = o
}

// currentObserver returns the currently installed [Observer], if any.
func (reg *registry) currentObserver() Observer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.observer
}

// clear drops the mode and transport entries for netID (spec.md §4.2).
func (reg *registry) clear(netID NetID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.modes, netID)
	delete(reg.transports, netID)
}

// statusEntry is one row of [Engine.GetStatus]'s result.
type statusEntry struct {
	Identity EndpointIdentity
	State    ValidationState
}

// status implements spec.md §4.2's getStatus: the current mode plus, for
// each active reportable endpoint, its identity and validation state.
func (reg *registry) status(netID NetID) (PrivateDnsMode, []statusEntry) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	mode, ok := reg.modes[netID]
	if !ok {
		return ModeOff, nil
	}
	tracker := reg.transports[netID]
	entries := make([]statusEntry, 0, len(tracker))
	for identity, rec := range tracker {
		if !rec.Active || !rec.Kind.Reportable() {
			continue
		}
		entries = append(entries, statusEntry{Identity: identity, State: rec.State})
	}
	return mode, entries
}

// snapshot returns a value copy of the record for (netID, identity), or
// false if it does not currently exist. Used by the driver to take its
// spawn-time snapshot (spec.md Design Note 9, "Pointer graphs").
func (reg *registry) snapshot(netID NetID, identity EndpointIdentity) (EndpointRecord, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	tracker, ok := reg.transports[netID]
	if !ok {
		return EndpointRecord{}, false
	}
	rec, ok := tracker[identity]
	if !ok {
		return EndpointRecord{}, false
	}
	return rec.Clone(), true
}

// applyConfiguration installs netID's mode and reconciles its tracker
// against desired, implementing spec.md §4.1 steps 1–4 under the lock. It
// returns the identities that now [EndpointRecord.needsValidation] and must
// have a driver spawned for them — spawning happens outside the lock, by
// the caller.
func (reg *registry) applyConfiguration(
	netID NetID, mode PrivateDnsMode, desired map[EndpointIdentity]*EndpointRecord,
) []EndpointIdentity {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.modes[netID] = mode
	tracker, ok := reg.transports[netID]
	if !ok {
		tracker = make(map[EndpointIdentity]*EndpointRecord)
		reg.transports[netID] = tracker
	}

	for identity, rec := range desired {
		if _, exists := tracker[identity]; !exists {
			tracker[identity] = rec
		}
	}

	var toValidate []EndpointIdentity
	for identity, rec := range tracker {
		_, isDesired := desired[identity]
		rec.Active = isDesired
		if !rec.Active && rec.State == StateSuccess {
			rec.State = StateSuccessButExpired
		}
		if rec.needsValidation() {
			rec.State = StateInProcess
			toValidate = append(toValidate, identity)
		}
	}
	return toValidate
}

// commitResult is what [registry.commit] reports back to the driver so it
// can decide whether to retry (spec.md §4.4 Step D/E).
type commitResult struct {
	// State is the state the record was committed to.
	State ValidationState

	// NeedsReeval mirrors the decision table's "needs_reeval" column.
	NeedsReeval bool

	// SucceededQuickly mirrors the decision table's event payload column.
	SucceededQuickly bool
}

// commit applies spec.md §4.4 Step D's decision table under the lock. It
// looks the record up fresh (never trusting the driver's stale snapshot)
// and returns the outcome; the caller emits events for it after the lock
// is released.
func (reg *registry) commit(
	netID NetID, identity EndpointIdentity,
	gotAnswer, isRevalidation, latencyTooHigh, maxAttemptsReached bool,
) commitResult {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	mode, hasMode := reg.modes[netID]
	tracker, hasTracker := reg.transports[netID]
	if !hasMode || !hasTracker {
		return commitResult{State: StateFail, NeedsReeval: false, SucceededQuickly: false}
	}

	rec, found := tracker[identity]
	if !found {
		return commitResult{State: StateFail, NeedsReeval: false, SucceededQuickly: false}
	}
	if !rec.Active {
		rec.State = StateFail
		return commitResult{State: StateFail, NeedsReeval: false, SucceededQuickly: false}
	}

	needsReeval := true
	switch {
	case gotAnswer && !latencyTooHigh:
		needsReeval = false
	case maxAttemptsReached:
		needsReeval = false
	case gotAnswer && latencyTooHigh:
		needsReeval = true
	case !gotAnswer && mode == ModeOff:
		needsReeval = false
	case !gotAnswer && mode == ModeOpportunistic && !isRevalidation:
		needsReeval = false
	default:
		needsReeval = true
	}

	succeededQuickly := gotAnswer && !latencyTooHigh
	newState := StateFail
	if succeededQuickly {
		newState = StateSuccess
	} else if needsReeval {
		newState = StateInProcess
	}
	rec.State = newState

	return commitResult{State: newState, NeedsReeval: needsReeval, SucceededQuickly: succeededQuickly}
}

// finalizeLatencyThreshold writes the driver-computed latency threshold
// back to the canonical record (spec.md §4.4 Step F), for [KindDot]
// endpoints only, per Design Note 9's "Polymorphism over endpoint kind".
func (reg *registry) finalizeLatencyThreshold(netID NetID, identity EndpointIdentity, threshold *int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	tracker, ok := reg.transports[netID]
	if !ok {
		return
	}
	rec, ok := tracker[identity]
	if !ok || rec.Kind != KindDot {
		return
	}
	if threshold == nil {
		rec.LatencyThreshold = nil
		return
	}
	v := *threshold
	rec.LatencyThreshold = &v
}

// beginRevalidation implements the locked core of [Engine.RequestValidation]
// (spec.md §4.4.1): it returns the sentinel error for the first failing
// precondition, or nil after transitioning the record to [StateInProcess].
func (reg *registry) beginRevalidation(netID NetID, identity EndpointIdentity, mark uint32) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	mode, ok := reg.modes[netID]
	if !ok {
		return ErrNetworkUnknown
	}
	if mode != ModeOpportunistic {
		return ErrModeNotOpportunistic
	}
	tracker, ok := reg.transports[netID]
	if !ok {
		return ErrServerNotFound
	}
	rec, ok := tracker[identity]
	if !ok {
		return ErrServerNotFound
	}
	if !rec.Active {
		return ErrServerNotActive
	}
	if rec.State != StateSuccess {
		return ErrValidationStateMismatch
	}
	if rec.Mark != mark {
		return ErrMarkMismatch
	}
	rec.State = StateInProcess
	return nil
}
