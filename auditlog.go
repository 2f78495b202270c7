// SPDX-License-Identifier: GPL-3.0-or-later

package dnsprivacy

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultAuditLogCapacity is the number of records an [*AuditLog] retains
// before it starts dropping the oldest entry.
const DefaultAuditLogCapacity = 512

// AuditLogRecord is one entry written by [*AuditLog.Append].
type AuditLogRecord struct {
	Timestamp time.Time
	NetID     NetID
	Identity  EndpointIdentity
	State     ValidationState
}

// AuditLog is a bounded FIFO ring buffer of [AuditLogRecord] values.
//
// It has its own internal synchronization, independent of the engine
// registry's lock (spec.md §5: "The audit log has its own internal synchronization").
// Construct using [NewAuditLog].
type AuditLog struct {
	mu       sync.Mutex
	records  []AuditLogRecord
	capacity int
	start    int
	count    int
}

// NewAuditLog creates an [*AuditLog] with the given capacity. A capacity
// <= 0 uses [DefaultAuditLogCapacity].
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditLogCapacity
	}
	return &AuditLog{
		records:  make([]AuditLogRecord, capacity),
		capacity: capacity,
	}
}

// Append adds a record, dropping the oldest entry on overflow.
func (a *AuditLog) Append(rec AuditLogRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := (a.start + a.count) % a.capacity
	a.records[idx] = rec
	if a.count < a.capacity {
		a.count++
	} else {
		a.start = (a.start + 1) % a.capacity
	}
}

// Copy returns an atomic, oldest-first snapshot of the buffer's contents.
func (a *AuditLog) Copy() []AuditLogRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditLogRecord, a.count)
	for i := 0; i < a.count; i++ {
		out[i] = a.records[(a.start+i)%a.capacity]
	}
	return out
}

// WriteTo renders the log using the line format specified in spec.md §6:
//
//	<iso-timestamp> - netId=<n> PrivateDns={<sockaddr>/<provider>} state=<state-name>
func (a *AuditLog) WriteTo(w io.Writer) error {
	for _, rec := range a.Copy() {
		line := fmt.Sprintf("%s - netId=%d PrivateDns={%s/%s} state=%s\n",
			rec.Timestamp.Format(time.RFC3339), rec.NetID,
			rec.Identity.SockAddr, rec.Identity.ProviderName, rec.State)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
