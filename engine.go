// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"context"
	"fmt"
	"io"
	"net/netip"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// PrivateDnsPort is the fixed service port for DNS-over-TLS endpoints
// (spec.md §6: "Port is fixed at 853").
const PrivateDnsPort = 853

// Status is the result of [*Engine.GetStatus]: the network's current mode
// plus one entry per active, reportable endpoint.
type Status struct {
	Mode    PrivateDnsMode
	Servers []statusEntry
}

// Engine is the private DNS configuration and validation engine (spec.md
// §2). Construct using [NewEngine].
//
// All public methods are safe to call concurrently from arbitrary
// goroutines; calls that touch the same [NetID] are linearized by the
// internal registry lock (spec.md §5).
type Engine struct {
	registry       *registry
	reporter       *reporter
	auditLog       *AuditLog
	backoffBuilder *BackoffBuilder
	probeTransport ProbeTransport
	do53Oracle     Do53LatencyOracle
	flagStore      FlagStore
	logger         *zap.Logger
	metrics        MetricsSink
	clock          clock.Clock

	driversDone sync.WaitGroup
}

// MetricsSink receives per-probe instrumentation from the validation
// driver. A nil [MetricsSink] is valid and every call site checks for it,
// the same optional-hook shape [dnsoverudp.go]'s ObserveRawQuery/
// ObserveRawResponse hooks use.
//
// github.com/bassosimone/dnsprivacy/metrics.Collector implements this.
type MetricsSink interface {
	ObserveProbe(succeededQuickly bool, tookMS int64)
}

// EngineOption configures optional [Engine] fields at construction time.
type EngineOption func(*Engine)

// WithEventSubscribers injects an [EventSubscribers] collaborator. Without
// this option the engine uses an always-empty registry.
func WithEventSubscribers(s EventSubscribers) EngineOption {
	return func(e *Engine) { e.reporter.subscribers = s }
}

// WithLogger installs a [*zap.Logger]. Without this option the engine logs
// nothing ([zap.NewNop]).
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics installs a [MetricsSink].
func WithMetrics(m MetricsSink) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithBackoffBuilder overrides the default [*BackoffBuilder].
func WithBackoffBuilder(b *BackoffBuilder) EngineOption {
	return func(e *Engine) { e.backoffBuilder = b }
}

// WithClock overrides the [clock.Clock] used for timing and sleeps. Tests
// use [clock.NewMock] to drive the backoff loop without waiting in
// wall-clock time; production code should leave this unset ([clock.New]).
func WithClock(c clock.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// NewEngine creates a new [*Engine]. probeTransport and flagStore are
// required collaborators; do53Oracle may be nil (the opportunistic latency
// gate then uses the minimum latency bound as its threshold, as it does when
// the oracle has no sample).
func NewEngine(probeTransport ProbeTransport, do53Oracle Do53LatencyOracle, flagStore FlagStore, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:       newRegistry(),
		auditLog:       NewAuditLog(DefaultAuditLogCapacity),
		backoffBuilder: NewBackoffBuilder(),
		probeTransport: probeTransport,
		do53Oracle:     do53Oracle,
		flagStore:      flagStore,
		logger:         zap.NewNop(),
		clock:          clock.New(),
	}
	e.reporter = &reporter{subscribers: noSubscribers{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// flagInt reads a flag, falling back to def when the [Engine] has no
// [FlagStore].
func (e *Engine) flagInt(name string, def int64) int64 {
	if e.flagStore == nil {
		return def
	}
	return e.flagStore.GetInt(name, def)
}

// parseServer parses a textual server address as a numeric host with
// service 853 (spec.md §4.1). Hostnames are rejected: private DNS server
// addresses are never resolved via DNS.
func parseServer(s string) (netip.AddrPort, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: %q: %s", ErrInvalidInput, s, err)
	}
	return netip.AddrPortFrom(addr, PrivateDnsPort), nil
}

// Set configures netID's private DNS servers (spec.md §4.1).
//
// Any server address that fails to parse causes the entire call to fail
// with [ErrInvalidInput] and mutates nothing. Otherwise the mode is
// selected from name/servers per spec.md §4.1's table, the registry is
// reconciled, and a validation driver is spawned for every record that
// [EndpointRecord.needsValidation] reports true for.
//
// Set returns once drivers have been scheduled; it does not wait for any
// probe to complete.
func (e *Engine) Set(netID NetID, mark uint32, servers []string, name string, caCertPEM []byte) error {
	e.logger.Debug("dnsprivacy: Set", zap.Int32("net_id", int32(netID)),
		zap.Uint32("mark", mark), zap.Int("server_count", len(servers)), zap.String("name", name))

	desired := make(map[EndpointIdentity]*EndpointRecord, len(servers))
	for _, s := range servers {
		addr, err := parseServer(s)
		if err != nil {
			return err
		}
		identity := EndpointIdentity{SockAddr: addr, ProviderName: name}
		desired[identity] = &EndpointRecord{
			Identity:     identity,
			Mark:         mark,
			Active:       true,
			State:        StateUnknown,
			Kind:         KindDot,
			ProviderName: name,
			CACertPEM:    caCertPEM,
		}
	}

	mode := modeForInput(name, len(desired))
	if mode == ModeOff {
		e.registry.clear(netID)
		return nil
	}

	toValidate := e.registry.applyConfiguration(netID, mode, desired)
	for _, identity := range toValidate {
		e.spawn(netID, identity, mark, false)
	}
	return nil
}

// Clear drops netID's mode and transport entries (spec.md §4.2). Running
// drivers for netID are not explicitly signaled; they self-cancel on their
// next commit (spec.md §5, "Cancellation").
func (e *Engine) Clear(netID NetID) {
	e.logger.Debug("dnsprivacy: Clear", zap.Int32("net_id", int32(netID)))
	e.registry.clear(netID)
}

// GetStatus returns netID's current mode plus one entry per active,
// reportable endpoint (spec.md §4.2). A netID with no configuration yields
// (ModeOff, nil).
func (e *Engine) GetStatus(netID NetID) Status {
	mode, entries := e.registry.status(netID)
	return Status{Mode: mode, Servers: entries}
}

// RequestValidation triggers a revalidation probe of a currently-[StateSuccess]
// endpoint (spec.md §4.4.1). It is rejected, without side effect, unless
// netID is known, its mode is [ModeOpportunistic], the record exists, is
// active, is [StateSuccess], and mark matches the mark captured at [Engine.Set]
// time. On acceptance, the record transitions to [StateInProcess] and a
// revalidation driver is spawned.
func (e *Engine) RequestValidation(netID NetID, identity EndpointIdentity, mark uint32) error {
	if err := e.registry.beginRevalidation(netID, identity, mark); err != nil {
		return err
	}
	e.spawn(netID, identity, mark, true)
	return nil
}

// SetObserver installs the single in-process [Observer]. Pass nil to clear it.
func (e *Engine) SetObserver(o Observer) {
	e.registry.setObserver(o)
}

// notifyStateUpdate delivers a state transition to the currently installed
// [Observer], if any. The observer is read under the registry lock
// (spec.md §5: "the observer" is one of the fields the lock protects) but
// invoked outside it, matching the "never hold the lock across a callback"
// discipline Step D/E follow for subscribers.
func (e *Engine) notifyStateUpdate(identity EndpointIdentity, state ValidationState, netID NetID) {
	observer := e.registry.currentObserver()
	if observer == nil {
		return
	}
	observer.OnValidationStateUpdate(identity.SockAddr.Addr().String(), state, netID)
}

// Dump writes the audit log to w using the line format specified in
// spec.md §6.
func (e *Engine) Dump(w io.Writer) error {
	return e.auditLog.WriteTo(w)
}

// Close waits for all currently-spawned drivers to exit, or until ctx
// expires. A driver that is retrying exits only once its commit ends the
// loop or its backoff is exhausted. It does not cancel a running
// probe: spec.md §5 has no cancellation channel, only self-cancellation via
// registry checks (Design Note 9(a)). Close exists purely so tests and
// orderly process shutdown can bound wait time; it never changes §4.4's
// commit semantics.
func (e *Engine) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.driversDone.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn starts a detached validation driver, tracked by e.driversDone so
// [*Engine.Close] can bound its wait.
func (e *Engine) spawn(netID NetID, identity EndpointIdentity, mark uint32, isRevalidation bool) {
	d := &driver{engine: e, netID: netID, identity: identity, mark: mark, isRevalidation: isRevalidation}
	e.driversDone.Add(1)
	go d.run(context.Background())
}
