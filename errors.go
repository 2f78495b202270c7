// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import "errors"

// Errors returned by [Engine.Set].
var (
	// ErrInvalidInput means a server address failed to parse as a
	// numeric host with service 853. No partial update is applied.
	ErrInvalidInput = errors.New("dnsprivacy: invalid server address")
)

// Errors returned by [Engine.RequestValidation], each a distinct,
// distinguishable reason per spec.md §7. Check with [errors.Is].
var (
	// ErrNetworkUnknown means the netID has no recorded [PrivateDnsMode].
	ErrNetworkUnknown = errors.New("dnsprivacy: network not configured")

	// ErrModeNotOpportunistic means the netID's mode is not
	// [ModeOpportunistic]; revalidation is only allowed there because
	// only opportunistic mode has a fallback path.
	ErrModeNotOpportunistic = errors.New("dnsprivacy: private dns mode is not opportunistic")

	// ErrServerNotFound means no record exists for the given identity.
	ErrServerNotFound = errors.New("dnsprivacy: server not found")

	// ErrServerNotActive means the record exists but is not active.
	ErrServerNotActive = errors.New("dnsprivacy: server is not active")

	// ErrValidationStateMismatch means the record is not currently
	// [StateSuccess]; only a successful endpoint can be revalidated.
	ErrValidationStateMismatch = errors.New("dnsprivacy: server is not in success state")

	// ErrMarkMismatch means the supplied mark does not match the mark
	// captured for this record at configuration time.
	ErrMarkMismatch = errors.New("dnsprivacy: socket mark mismatch")
)
