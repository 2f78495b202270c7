// SPDX-License-Identifier: GPL-3.0-or-later

package subscribers

import (
	"testing"

	"github.com/bassosimone/dnsprivacy"
)

type fakeClassic struct{ called bool }

func (f *fakeClassic) OnPrivateDnsValidationEvent(netID dnsprivacy.NetID, ipAddress, hostname string, success bool) {
	f.called = true
}

func TestRegistrySubscribeAndUnsubscribe(t *testing.T) {
	r := New()
	sub := &fakeClassic{}
	id := r.Subscribe(sub)

	if len(r.Classic()) != 1 {
		t.Fatalf("Classic() = %d subscribers, want 1", len(r.Classic()))
	}

	r.Unsubscribe(id)
	if len(r.Classic()) != 0 {
		t.Errorf("Classic() = %d subscribers after Unsubscribe, want 0", len(r.Classic()))
	}
}

func TestRegistryUnsubscribeUnknownHandleIsNoop(t *testing.T) {
	r := New()
	r.Subscribe(&fakeClassic{})
	r.Unsubscribe(New().Subscribe(&fakeClassic{})) // handle from a different registry
	if len(r.Classic()) != 1 {
		t.Errorf("Classic() = %d, want 1 (unknown handle must not remove anything)", len(r.Classic()))
	}
}
