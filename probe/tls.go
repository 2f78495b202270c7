//
// SPDX-License-Identifier: BSD-3-Clause
//
// Adapted from: github.com/bassosimone/minest's StreamExchanger (stream.go)
//

package probe

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"math"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/dnsprivacy"
	"github.com/bassosimone/runtimex"
	"github.com/miekg/dns"
)

// DefaultCanaryName is the question name used to probe an opportunistic
// (no provider hostname) endpoint, following the "connectivity check"
// canary convention real DNS-over-TLS validators query against.
const DefaultCanaryName = "connectivitycheck.gstatic.com."

// DefaultProbeTimeout bounds a single handshake+query attempt, the same
// "optional, has a sane default" shape as [minest.DefaultResolverTimeout].
const DefaultProbeTimeout = 10 * time.Second

// TLSProbeTransport implements [dnsprivacy.ProbeTransport] for
// DNS-over-TLS endpoints: dial with TLS, send a canary query framed like
// DNS-over-TCP (RFC 7858 reuses the TCP message framing), and report
// whether a well-formed, matching response came back.
//
// Construct using [NewTLSProbeTransport].
type TLSProbeTransport struct {
	// Dialer creates the underlying connection. Set by
	// [NewTLSProbeTransport] to a [*NetDialer] wrapping [*net.Dialer].
	Dialer MarkedDialer

	// Timeout bounds a single probe attempt. Set by
	// [NewTLSProbeTransport] to [DefaultProbeTimeout].
	Timeout time.Duration
}

// NewTLSProbeTransport creates a new [*TLSProbeTransport].
func NewTLSProbeTransport(dialer MarkedDialer) *TLSProbeTransport {
	if dialer == nil {
		dialer = NewNetDialer(nil)
	}
	return &TLSProbeTransport{
		Dialer:  dialer,
		Timeout: DefaultProbeTimeout,
	}
}

// Ensure that [*TLSProbeTransport] implements [dnsprivacy.ProbeTransport].
var _ dnsprivacy.ProbeTransport = &TLSProbeTransport{}

// Probe implements [dnsprivacy.ProbeTransport].
func (tp *TLSProbeTransport) Probe(ctx context.Context, endpoint dnsprivacy.EndpointRecord, mark uint32) bool {
	resp, err := tp.exchange(ctx, endpoint, mark)
	return err == nil && resp != nil
}

// exchange performs the handshake and canary query, returning the parsed
// response so tests can assert on more than the boolean [Probe] result.
func (tp *TLSProbeTransport) exchange(
	ctx context.Context, endpoint dnsprivacy.EndpointRecord, mark uint32) (*dnscodec.Response, error) {
	// 1. bound the attempt and create the TCP connection.
	ctx, cancel := context.WithTimeout(ctx, tp.Timeout)
	defer cancel()
	conn, err := tp.Dialer.DialContext(ctx, "tcp", endpoint.Identity.SockAddr.String(), mark)
	if err != nil {
		return nil, err
	}

	// 2. Make sure we react to context being canceled or timing out early,
	// the same pattern [stream.go]'s StreamExchanger uses.
	ctx, cancel2 := context.WithCancel(ctx)
	defer cancel2()
	go func() {
		defer conn.Close()
		<-ctx.Done()
	}()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// 3. wrap with TLS.
	tlsConn := tls.Client(conn, tp.tlsConfig(endpoint))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}

	// 4. build and frame the canary query.
	name := endpoint.ProviderName
	if name == "" {
		name = DefaultCanaryName
	}
	query := dnscodec.NewQuery(name, dns.TypeA)
	query.MaxSize = dnscodec.QueryMaxResponseSizeTCP
	query.ID = dns.Id()
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}
	rawQueryFrame, err := newStreamMsgFrame(rawQuery)
	if err != nil {
		return nil, err
	}

	// 5. send the query.
	if _, err := tlsConn.Write(rawQueryFrame); err != nil {
		return nil, err
	}

	// 6. read the response header and message.
	br := bufio.NewReader(tlsConn)
	header := make([]byte, 2)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	length := int(header[0])<<8 | int(header[1])
	rawResp := make([]byte, length)
	if _, err := io.ReadFull(br, rawResp); err != nil {
		return nil, err
	}

	// 7. parse and validate the response.
	respMsg := new(dns.Msg)
	if err := respMsg.Unpack(rawResp); err != nil {
		return nil, err
	}
	return dnscodec.ParseResponse(queryMsg, respMsg)
}

// tlsConfig builds the [*tls.Config] for endpoint. Strict-mode endpoints
// (non-empty ProviderName) verify the hostname against either the supplied
// CA certificate or the system pool. Opportunistic endpoints have no
// hostname to verify against, so only the TLS handshake itself — not
// certificate identity — gates validation.
func (tp *TLSProbeTransport) tlsConfig(endpoint dnsprivacy.EndpointRecord) *tls.Config {
	if endpoint.ProviderName == "" {
		return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opportunistic mode has no hostname to pin.
	}
	cfg := &tls.Config{ServerName: endpoint.ProviderName}
	if len(endpoint.CACertPEM) > 0 {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM(endpoint.CACertPEM) {
			cfg.RootCAs = pool
		}
	}
	return cfg
}

// newStreamMsgFrame creates the 2-byte length-prefixed frame DNS-over-TCP
// and DNS-over-TLS both use.
func newStreamMsgFrame(rawMsg []byte) ([]byte, error) {
	runtimex.Assert(len(rawMsg) <= math.MaxUint16)
	rawMsgFrame := []byte{byte(len(rawMsg) >> 8)}
	rawMsgFrame = append(rawMsgFrame, byte(len(rawMsg)))
	rawMsgFrame = append(rawMsgFrame, rawMsg...)
	return rawMsgFrame, nil
}
