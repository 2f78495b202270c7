// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import "time"

// Default backoff parameters. See spec.md §4.6: first delay near 60s,
// capped near 1h, intended to yield roughly 24 passes per day.
const (
	// DefaultBackoffInitial is the first retry delay.
	DefaultBackoffInitial = 60 * time.Second

	// DefaultBackoffMax is the delay cap.
	DefaultBackoffMax = time.Hour

	// DefaultBackoffMultiplier doubles the delay on each attempt until
	// the cap is reached, the same doubling-with-cap shape as TCP SYN
	// retransmission backoff referenced in the original source's comment
	// ("cat /proc/sys/net/ipv4/tcp_syn_retries yields 6").
	DefaultBackoffMultiplier = 2.0

	// DefaultBackoffMaxAttempts bounds the total retry budget so a
	// driver for a permanently unreachable endpoint eventually gives up.
	DefaultBackoffMaxAttempts = 24
)

// BackoffPolicy produces a finite, monotonic, non-decreasing sequence of
// delays for the validation driver's retry loop (spec.md §4.6).
//
// Construct using [BackoffBuilder.Build]. A [*BackoffPolicy] is single-use:
// a fresh one is built per driver invocation.
type BackoffPolicy struct {
	next       time.Duration
	max        time.Duration
	multiplier float64
	remaining  int
}

// HasNext reports whether [*BackoffPolicy.Next] may be called again.
func (b *BackoffPolicy) HasNext() bool {
	return b.remaining > 0
}

// Next returns the next delay and advances the policy. Panics if
// [*BackoffPolicy.HasNext] is false; callers must check first.
func (b *BackoffPolicy) Next() time.Duration {
	if b.remaining <= 0 {
		panic("dnsprivacy: BackoffPolicy exhausted")
	}
	delay := b.next
	b.remaining--
	scaled := time.Duration(float64(b.next) * b.multiplier)
	if scaled > b.max || scaled < b.next {
		scaled = b.max
	}
	b.next = scaled
	return delay
}

// BackoffBuilder is a pluggable factory for [*BackoffPolicy] instances, the
// same builder-produces-fresh-instance shape the original source's
// mBackoffBuilder.build() call uses per validation thread.
//
// Construct using [NewBackoffBuilder].
type BackoffBuilder struct {
	// Initial is the first delay. Defaults to [DefaultBackoffInitial].
	Initial time.Duration

	// Max is the delay cap. Defaults to [DefaultBackoffMax].
	Max time.Duration

	// Multiplier scales the delay on each step. Defaults to
	// [DefaultBackoffMultiplier].
	Multiplier float64

	// MaxAttempts bounds the number of delays the policy will yield.
	// Defaults to [DefaultBackoffMaxAttempts].
	MaxAttempts int
}

// NewBackoffBuilder creates a [*BackoffBuilder] with the engine's defaults.
func NewBackoffBuilder() *BackoffBuilder {
	return &BackoffBuilder{
		Initial:     DefaultBackoffInitial,
		Max:         DefaultBackoffMax,
		Multiplier:  DefaultBackoffMultiplier,
		MaxAttempts: DefaultBackoffMaxAttempts,
	}
}

// Build returns a new, fully-armed [*BackoffPolicy].
func (b *BackoffBuilder) Build() *BackoffPolicy {
	return &BackoffPolicy{
		next:       b.Initial,
		max:        b.Max,
		multiplier: b.Multiplier,
		remaining:  b.MaxAttempts,
	}
}
