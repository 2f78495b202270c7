// SPDX-License-Identifier: GPL-3.0-or-later

package do53

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/bassosimone/dnsprivacy"
	"github.com/bassosimone/dnstest"
)

func TestSamplerAverageWithNoSamples(t *testing.T) {
	s := NewSampler()
	if _, ok := s.Average(1); ok {
		t.Error("Average() on a netID with no samples should report ok=false")
	}
}

func TestSamplerAverageIsWindowedMean(t *testing.T) {
	s := NewSampler()
	s.window = 2
	s.record(1, 100*time.Millisecond)
	s.record(1, 200*time.Millisecond)
	s.record(1, 300*time.Millisecond) // evicts the first sample

	avg, ok := s.Average(1)
	if !ok {
		t.Fatal("Average() ok = false, want true")
	}
	if want := 250 * time.Millisecond; avg != want {
		t.Errorf("Average() = %v, want %v", avg, want)
	}
}

func TestNopOracleAlwaysReportsNoData(t *testing.T) {
	var o NopOracle
	if _, ok := o.Average(dnsprivacy.NetID(1)); ok {
		t.Error("NopOracle.Average() should always report ok=false")
	}
}

func TestSamplerSampleAgainstFakeUDPServer(t *testing.T) {
	config := dnstest.NewHandlerConfig()
	config.AddNetipAddr(strings.TrimSuffix(DefaultCanaryName, "."), netip.MustParseAddr("8.8.8.8"))
	server := dnstest.MustNewUDPServer(&net.ListenConfig{}, "127.0.0.1:0", dnstest.NewHandler(config))
	t.Cleanup(server.Close)

	s := NewSampler()
	if err := s.Sample(context.Background(), 1, server.Address()); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	avg, ok := s.Average(1)
	if !ok {
		t.Fatal("Average() ok = false after a successful Sample()")
	}
	if avg <= 0 {
		t.Errorf("Average() = %v, want a positive duration", avg)
	}
}
