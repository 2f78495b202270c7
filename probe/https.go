//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: github.com/bassosimone/minest's HTTPSExchanger (https.go),
// rewritten to use the external github.com/bassosimone/dnscodec types
// instead of the internal Query/Response pair the original file used.
//

package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/dnsprivacy"
	"github.com/miekg/dns"
)

// DoHContentType is the RFC 8484 media type for DNS-over-HTTPS messages.
const DoHContentType = "application/dns-message"

// HTTPSProbeTransport implements [dnsprivacy.ProbeTransport] for
// DNS-over-HTTPS endpoints ([dnsprivacy.KindDoh]). It is not wired in as
// the [dnsprivacy.Engine] default — [dnsprivacy.KindDoh] records are
// reserved for future use (spec.md Design Note 9(c)) — but is available
// for callers that construct such records directly.
//
// Construct using [NewHTTPSProbeTransport].
type HTTPSProbeTransport struct {
	// Client performs the POST. Set by [NewHTTPSProbeTransport] to an
	// *http.Client with Transport's TLSClientConfig left to Go defaults.
	Client *http.Client

	// Timeout bounds a single probe attempt.
	Timeout time.Duration
}

// NewHTTPSProbeTransport creates a new [*HTTPSProbeTransport]. If client is
// nil, a default [*http.Client] with a fresh [*http.Transport] is used so
// that callers supplying a custom RootCAs-bearing TLS config don't share
// connection pools with unrelated traffic.
func NewHTTPSProbeTransport(client *http.Client) *HTTPSProbeTransport {
	if client == nil {
		client = &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{}}}
	}
	return &HTTPSProbeTransport{
		Client:  client,
		Timeout: DefaultProbeTimeout,
	}
}

// Ensure that [*HTTPSProbeTransport] implements [dnsprivacy.ProbeTransport].
var _ dnsprivacy.ProbeTransport = &HTTPSProbeTransport{}

// Probe implements [dnsprivacy.ProbeTransport]. mark is accepted for
// interface conformance but cannot be honored over net/http's pooled
// transport; see [MarkedDialer] for the rationale shared with
// [TLSProbeTransport].
func (hp *HTTPSProbeTransport) Probe(ctx context.Context, endpoint dnsprivacy.EndpointRecord, mark uint32) bool {
	resp, err := hp.exchange(ctx, endpoint)
	return err == nil && resp != nil
}

func (hp *HTTPSProbeTransport) exchange(ctx context.Context, endpoint dnsprivacy.EndpointRecord) (*dnscodec.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, hp.Timeout)
	defer cancel()

	name := endpoint.ProviderName
	if name == "" {
		name = DefaultCanaryName
	}
	query := dnscodec.NewQuery(name, dns.TypeA)
	query.ID = dns.Id()
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/dns-query", endpoint.Identity.SockAddr.Addr().String())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(rawQuery))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", DoHContentType)
	req.Header.Set("Accept", DoHContentType)

	resp, err := hp.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dnsprivacy/probe: unexpected status %d", resp.StatusCode)
	}

	rawResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	respMsg := new(dns.Msg)
	if err := respMsg.Unpack(rawResp); err != nil {
		return nil, err
	}
	return dnscodec.ParseResponse(queryMsg, respMsg)
}
