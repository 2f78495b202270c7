// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"net/netip"
	"testing"
)

type recordingClassicSubscriber struct {
	calls []bool
}

func (r *recordingClassicSubscriber) OnPrivateDnsValidationEvent(netID NetID, ipAddress, hostname string, success bool) {
	r.calls = append(r.calls, success)
}

type recordingUnsolicitedSubscriber struct {
	parcels []ValidationEventParcel
}

func (r *recordingUnsolicitedSubscriber) OnPrivateDnsValidationEvent(event ValidationEventParcel) {
	r.parcels = append(r.parcels, event)
}

type fakeSubscribers struct {
	classic     []ClassicSubscriber
	unsolicited []UnsolicitedSubscriber
}

func (f fakeSubscribers) Classic() []ClassicSubscriber         { return f.classic }
func (f fakeSubscribers) Unsolicited() []UnsolicitedSubscriber { return f.unsolicited }

func TestReporterNotifyFansOutToBothSubscriberKinds(t *testing.T) {
	classic := &recordingClassicSubscriber{}
	unsolicited := &recordingUnsolicitedSubscriber{}
	r := &reporter{subscribers: fakeSubscribers{
		classic:     []ClassicSubscriber{classic},
		unsolicited: []UnsolicitedSubscriber{unsolicited},
	}}

	id := EndpointIdentity{SockAddr: netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), PrivateDnsPort), ProviderName: "dns.example.com"}
	r.notify(id, 1, true)

	if len(classic.calls) != 1 || !classic.calls[0] {
		t.Errorf("classic.calls = %v, want [true]", classic.calls)
	}
	if len(unsolicited.parcels) != 1 || unsolicited.parcels[0].Validation != ValidationResultSuccess {
		t.Errorf("unsolicited.parcels = %+v, want one ValidationResultSuccess parcel", unsolicited.parcels)
	}
}

func TestNoSubscribersIsSafeDefault(t *testing.T) {
	r := &reporter{subscribers: noSubscribers{}}
	id := EndpointIdentity{SockAddr: netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), PrivateDnsPort)}
	r.notify(id, 1, false) // must not panic
}
