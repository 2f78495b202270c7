//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: github.com/bassosimone/minest's DNSOverUDPTransport
// (dnsoverudp.go) — the same Dial/SendQuery/RecvResponse shape, repurposed
// here to produce a moving average of plain Do53 round-trip latency instead
// of returning parsed answers.
//

package do53

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/dnsprivacy"
	"github.com/miekg/dns"
)

// DefaultCanaryName is the question name sampled against each network's
// Do53 resolver to establish a latency baseline.
const DefaultCanaryName = "connectivitycheck.gstatic.com."

// DefaultWindow bounds how many samples contribute to the moving average
// for a single [dnsprivacy.NetID].
const DefaultWindow = 8

// DefaultSampleTimeout bounds a single UDP exchange.
const DefaultSampleTimeout = 5 * time.Second

// Sampler implements [dnsprivacy.Do53LatencyOracle] by keeping a bounded
// moving average of round-trip times observed from [Sampler.Sample] calls,
// keyed by [dnsprivacy.NetID].
//
// Sampler does not sample on its own: the caller — typically a periodic
// background task outside this module's scope — decides when to probe a
// network's Do53 resolver and calls [Sampler.Sample].
type Sampler struct {
	mu      sync.Mutex
	samples map[dnsprivacy.NetID][]time.Duration
	window  int

	dialer  net.Dialer
	timeout time.Duration
}

// NewSampler creates a new [*Sampler] with [DefaultWindow]/[DefaultSampleTimeout].
func NewSampler() *Sampler {
	return &Sampler{
		samples: make(map[dnsprivacy.NetID][]time.Duration),
		window:  DefaultWindow,
		timeout: DefaultSampleTimeout,
	}
}

// Ensure that [*Sampler] implements [dnsprivacy.Do53LatencyOracle].
var _ dnsprivacy.Do53LatencyOracle = &Sampler{}

// Average implements [dnsprivacy.Do53LatencyOracle]. It reports ok=false
// until at least one sample has been recorded for netID.
func (s *Sampler) Average(netID dnsprivacy.NetID) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.samples[netID]
	if len(window) == 0 {
		return 0, false
	}
	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	return sum / time.Duration(len(window)), true
}

// Sample sends one canary query to serverAddr (host:port, typically a
// network's Do53 resolver on port 53) over UDP, records the round-trip
// time for netID's moving average, and returns any transport error. A
// response that is merely an error response (e.g. SERVFAIL) still counts
// as a timing sample; only a missing or malformed response is excluded.
func (s *Sampler) Sample(ctx context.Context, netID dnsprivacy.NetID, serverAddr string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.dialer.DialContext(ctx, "udp", serverAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	query := dnscodec.NewQuery(DefaultCanaryName, dns.TypeA)
	query.ID = dns.Id()
	queryMsg, err := query.NewMsg()
	if err != nil {
		return err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return err
	}

	start := time.Now()
	if _, err := conn.Write(rawQuery); err != nil {
		return err
	}
	buf := make([]byte, dns.MaxMsgSize)
	n, err := conn.Read(buf)
	if err != nil {
		return err
	}
	took := time.Since(start)

	respMsg := new(dns.Msg)
	if err := respMsg.Unpack(buf[:n]); err != nil {
		return err
	}
	if _, err := dnscodec.ParseResponse(queryMsg, respMsg); err != nil {
		return err
	}

	s.record(netID, took)
	return nil
}

func (s *Sampler) record(netID dnsprivacy.NetID, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := append(s.samples[netID], took)
	if len(window) > s.window {
		window = window[len(window)-s.window:]
	}
	s.samples[netID] = window
}
