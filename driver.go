// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// driver is the detached validation task described by spec.md §4.4: a
// per-probe worker parameterized by (identity, netID, isRevalidation) that
// repeatedly probes, classifies, and commits state until the commit table
// says to stop or the backoff policy is exhausted.
//
// A driver holds no registry lock while probing (spec.md §5); it acquires
// the [Engine]'s registry only in commit and finalize, and to read its
// spawn-time snapshot.
type driver struct {
	engine         *Engine
	netID          NetID
	identity       EndpointIdentity
	mark           uint32
	isRevalidation bool
}

// run executes the driver loop (spec.md §4.4 Steps A–F). It is meant to be
// invoked as `go d.run(ctx)`; the [Engine] tracks it via a [sync.WaitGroup]
// purely so [*Engine.Close] can wait for outstanding drivers to settle.
func (d *driver) run(ctx context.Context) {
	defer d.engine.driversDone.Done()

	snapshot, ok := d.engine.registry.snapshot(d.netID, d.identity)
	if !ok {
		// The record vanished before the driver even got scheduled;
		// still commit Fail so subscribers/observer learn about it.
		d.commitAndReport(false, false, false)
		return
	}

	backoff := d.engine.backoffBuilder.Build()
	var latencyThreshold *int64

	for attempt := 1; ; attempt++ {
		latencyThreshold = d.computeLatencyThreshold(attempt)

		gotAnswer, tookMS := d.probe(ctx, snapshot)

		latencyTooHigh := latencyThreshold != nil && tookMS > *latencyThreshold
		gateOn := d.engine.flagInt(FlagAvoidBadPrivateDNS, 0) != 0
		maxAttemptsReached := gateOn && d.identity.IsOpportunistic() && attempt >= KOpportunisticMaxAttempts

		result := d.commitAndReport(gotAnswer, latencyTooHigh, maxAttemptsReached)
		if d.engine.metrics != nil {
			d.engine.metrics.ObserveProbe(result.SucceededQuickly, tookMS)
		}

		if !result.NeedsReeval {
			break
		}
		if !backoff.HasNext() {
			// Backoff exhausted: commit a terminal Fail so the record does
			// not stay InProcess with no driver behind it.
			d.commitAndReport(false, false, true)
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-d.engine.clock.After(backoff.Next()):
		}
	}

	d.engine.registry.finalizeLatencyThreshold(d.netID, d.identity, latencyThreshold)
}

// computeLatencyThreshold implements spec.md §4.4 Step A.
func (d *driver) computeLatencyThreshold(attempt int) *int64 {
	gateOn := d.engine.flagInt(FlagAvoidBadPrivateDNS, 0) != 0
	if !gateOn || !d.identity.IsOpportunistic() {
		return nil
	}

	minMS := d.engine.flagInt(FlagMinPrivateDNSLatencyMS, DefaultMinPrivateDNSLatencyMS)
	maxMS := d.engine.flagInt(FlagMaxPrivateDNSLatencyMS, DefaultMaxPrivateDNSLatencyMS)

	target := minMS
	if d.engine.do53Oracle != nil {
		if avg, ok := d.engine.do53Oracle.Average(d.netID); ok {
			target = 3 * avg.Microseconds() / 1000
		}
	}
	target = clampInt64(target, minMS, maxMS)
	return &target
}

// probe measures wall time around [ProbeTransport.Probe] (spec.md §4.4
// Step B) using the [Engine]'s injected [clock.Clock] so tests can run
// with [clock.NewMock] without real I/O timing.
func (d *driver) probe(ctx context.Context, snapshot EndpointRecord) (gotAnswer bool, tookMS int64) {
	d.engine.logger.Warn("validating private dns server",
		zap.Stringer("identity", d.identity), zap.Uint32("mark", d.mark))

	start := d.engine.clock.Now()
	gotAnswer = d.engine.probeTransport.Probe(ctx, snapshot, d.mark)
	took := d.engine.clock.Now().Sub(start)
	tookMS = int64((took + time.Millisecond/2) / time.Millisecond)

	d.engine.logger.Warn("validation attempt completed",
		zap.Stringer("identity", d.identity), zap.Bool("got_answer", gotAnswer), zap.Int64("took_ms", tookMS))
	return gotAnswer, tookMS
}

// commitAndReport performs spec.md §4.4 Step D (commit under the registry
// lock) and then, outside the lock, emits the validation event and audit
// log entry per spec.md §4.5/§4.7.
func (d *driver) commitAndReport(gotAnswer, latencyTooHigh, maxAttemptsReached bool) commitResult {
	result := d.engine.registry.commit(d.netID, d.identity, gotAnswer, d.isRevalidation, latencyTooHigh, maxAttemptsReached)

	d.engine.reporter.notify(d.identity, d.netID, result.SucceededQuickly)
	d.engine.notifyStateUpdate(d.identity, result.State, d.netID)
	d.engine.auditLog.Append(AuditLogRecord{
		Timestamp: d.engine.clock.Now(),
		NetID:     d.netID,
		Identity:  d.identity,
		State:     result.State,
	})
	return result
}

// clampInt64 clamps v to [lo, hi].
func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

