// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"net/netip"
	"testing"
)

func testIdentity(host string, provider string) EndpointIdentity {
	addr := netip.MustParseAddr(host)
	return EndpointIdentity{SockAddr: netip.AddrPortFrom(addr, PrivateDnsPort), ProviderName: provider}
}

func TestRegistryCommitDecisionTable(t *testing.T) {
	id := testIdentity("192.0.2.1", "")

	cases := []struct {
		name               string
		mode               PrivateDnsMode
		isRevalidation     bool
		gotAnswer          bool
		latencyTooHigh     bool
		maxAttemptsReached bool
		wantState          ValidationState
		wantNeedsReeval    bool
	}{
		{"fast success stops reeval", ModeOpportunistic, false, true, false, false, StateSuccess, false},
		{"slow success keeps reeval", ModeOpportunistic, false, true, true, false, StateInProcess, true},
		{"max attempts overrides slow success's reeval", ModeOpportunistic, false, true, true, true, StateFail, false},
		{"opportunistic first failure is terminal", ModeOpportunistic, false, false, false, false, StateFail, false},
		{"opportunistic revalidation failure keeps reeval", ModeOpportunistic, true, false, false, false, StateInProcess, true},
		{"strict failure always keeps reeval", ModeStrict, false, false, false, false, StateInProcess, true},
		{"strict failure honors max attempts", ModeStrict, false, false, false, true, StateFail, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := newRegistry()
			reg.applyConfiguration(1, tc.mode, map[EndpointIdentity]*EndpointRecord{
				id: {Identity: id, Active: true, State: StateUnknown, Kind: KindDot},
			})

			result := reg.commit(1, id, tc.gotAnswer, tc.isRevalidation, tc.latencyTooHigh, tc.maxAttemptsReached)
			if result.State != tc.wantState {
				t.Errorf("State = %v, want %v", result.State, tc.wantState)
			}
			if result.NeedsReeval != tc.wantNeedsReeval {
				t.Errorf("NeedsReeval = %v, want %v", result.NeedsReeval, tc.wantNeedsReeval)
			}
		})
	}
}

func TestRegistryCommitOnInactiveRecordIsTerminalFail(t *testing.T) {
	reg := newRegistry()
	id := testIdentity("192.0.2.1", "")
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		id: {Identity: id, Active: true, State: StateSuccess, Kind: KindDot},
	})
	// Reconfigure with no servers at all so the record drops out of desired.
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{})

	result := reg.commit(1, id, true, false, false, false)
	if result.State != StateFail || result.NeedsReeval {
		t.Errorf("commit on inactive record = %+v, want terminal fail", result)
	}
}

func TestRegistryApplyConfigurationDemotesDroppedSuccess(t *testing.T) {
	reg := newRegistry()
	id := testIdentity("192.0.2.1", "")
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		id: {Identity: id, Active: true, State: StateSuccess, Kind: KindDot},
	})

	toValidate := reg.applyConfiguration(1, ModeOff, map[EndpointIdentity]*EndpointRecord{})

	snap, ok := reg.snapshot(1, id)
	if !ok {
		t.Fatal("record should still be tracked")
	}
	if snap.Active {
		t.Error("record should be inactive after being dropped")
	}
	if snap.State != StateSuccessButExpired {
		t.Errorf("State = %v, want StateSuccessButExpired", snap.State)
	}
	if len(toValidate) != 0 {
		t.Errorf("an inactive record must never be scheduled for validation, got %v", toValidate)
	}
}

func TestRegistryApplyConfigurationPreservesMarkAcrossCalls(t *testing.T) {
	reg := newRegistry()
	id := testIdentity("192.0.2.1", "")
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		id: {Identity: id, Mark: 42, Active: true, State: StateUnknown, Kind: KindDot},
	})
	// A second Set for the same identity must not clobber the captured mark.
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		id: {Identity: id, Mark: 7, Active: true, State: StateUnknown, Kind: KindDot},
	})

	snap, ok := reg.snapshot(1, id)
	if !ok {
		t.Fatal("record should be tracked")
	}
	if snap.Mark != 42 {
		t.Errorf("Mark = %d, want 42 (immutable after first Set)", snap.Mark)
	}
}

func TestRegistryBeginRevalidationPreconditions(t *testing.T) {
	id := testIdentity("192.0.2.1", "")

	t.Run("unknown network", func(t *testing.T) {
		reg := newRegistry()
		if err := reg.beginRevalidation(1, id, 0); err != ErrNetworkUnknown {
			t.Errorf("err = %v, want ErrNetworkUnknown", err)
		}
	})

	t.Run("strict mode rejected", func(t *testing.T) {
		reg := newRegistry()
		reg.applyConfiguration(1, ModeStrict, map[EndpointIdentity]*EndpointRecord{
			id: {Identity: id, Active: true, State: StateSuccess, Kind: KindDot},
		})
		if err := reg.beginRevalidation(1, id, 0); err != ErrModeNotOpportunistic {
			t.Errorf("err = %v, want ErrModeNotOpportunistic", err)
		}
	})

	t.Run("unknown server", func(t *testing.T) {
		reg := newRegistry()
		reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{})
		if err := reg.beginRevalidation(1, id, 0); err != ErrServerNotFound {
			t.Errorf("err = %v, want ErrServerNotFound", err)
		}
	})

	t.Run("not in success state", func(t *testing.T) {
		reg := newRegistry()
		reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
			id: {Identity: id, Active: true, State: StateInProcess, Kind: KindDot},
		})
		if err := reg.beginRevalidation(1, id, 0); err != ErrValidationStateMismatch {
			t.Errorf("err = %v, want ErrValidationStateMismatch", err)
		}
	})

	t.Run("mark mismatch", func(t *testing.T) {
		reg := newRegistry()
		reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
			id: {Identity: id, Mark: 42, Active: true, State: StateSuccess, Kind: KindDot},
		})
		if err := reg.beginRevalidation(1, id, 7); err != ErrMarkMismatch {
			t.Errorf("err = %v, want ErrMarkMismatch", err)
		}
	})

	t.Run("accepted transitions to in process", func(t *testing.T) {
		reg := newRegistry()
		reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
			id: {Identity: id, Mark: 42, Active: true, State: StateSuccess, Kind: KindDot},
		})
		if err := reg.beginRevalidation(1, id, 42); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snap, _ := reg.snapshot(1, id)
		if snap.State != StateInProcess {
			t.Errorf("State = %v, want StateInProcess", snap.State)
		}
	})
}

func TestRegistryStatusFiltersInactive(t *testing.T) {
	reg := newRegistry()
	active := testIdentity("192.0.2.1", "")
	inactive := testIdentity("192.0.2.2", "")
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		active: {Identity: active, Active: true, State: StateSuccess, Kind: KindDot},
	})
	reg.applyConfiguration(1, ModeOpportunistic, map[EndpointIdentity]*EndpointRecord{
		inactive: {Identity: inactive, Active: true, State: StateSuccess, Kind: KindDot},
	})
	// Second applyConfiguration's desired set no longer includes `active`.
	mode, entries := reg.status(1)
	if mode != ModeOpportunistic {
		t.Errorf("mode = %v, want ModeOpportunistic", mode)
	}
	if len(entries) != 1 || entries[0].Identity != inactive {
		t.Errorf("entries = %+v, want exactly [inactive]", entries)
	}
}
