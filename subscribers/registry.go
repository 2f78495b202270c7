// SPDX-License-Identifier: GPL-3.0-or-later

// Package subscribers implements github.com/bassosimone/dnsprivacy's
// [dnsprivacy.EventSubscribers], the process-wide listener registry spec.md
// §6 describes.
package subscribers

import (
	"sync"

	"github.com/bassosimone/dnsprivacy"
	"github.com/google/uuid"
)

// Registry is a concurrency-safe, mutable collection of classic and
// unsolicited subscribers. The zero value is not usable; construct with
// [New].
type Registry struct {
	mu          sync.RWMutex
	classic     map[uuid.UUID]dnsprivacy.ClassicSubscriber
	unsolicited map[uuid.UUID]dnsprivacy.UnsolicitedSubscriber
}

// New creates an empty [*Registry].
func New() *Registry {
	return &Registry{
		classic:     make(map[uuid.UUID]dnsprivacy.ClassicSubscriber),
		unsolicited: make(map[uuid.UUID]dnsprivacy.UnsolicitedSubscriber),
	}
}

// Ensure that [*Registry] implements [dnsprivacy.EventSubscribers].
var _ dnsprivacy.EventSubscribers = &Registry{}

// Subscribe registers a classic subscriber and returns a handle for
// [Registry.Unsubscribe].
func (r *Registry) Subscribe(s dnsprivacy.ClassicSubscriber) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.classic[id] = s
	return id
}

// Unsubscribe removes a classic subscriber by handle. Unsubscribing an
// unknown handle is a no-op.
func (r *Registry) Unsubscribe(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.classic, id)
}

// SubscribeUnsolicited registers an unsolicited subscriber and returns a
// handle for [Registry.UnsubscribeUnsolicited].
func (r *Registry) SubscribeUnsolicited(s dnsprivacy.UnsolicitedSubscriber) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.unsolicited[id] = s
	return id
}

// UnsubscribeUnsolicited removes an unsolicited subscriber by handle.
func (r *Registry) UnsubscribeUnsolicited(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unsolicited, id)
}

// Classic implements [dnsprivacy.EventSubscribers].
func (r *Registry) Classic() []dnsprivacy.ClassicSubscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dnsprivacy.ClassicSubscriber, 0, len(r.classic))
	for _, s := range r.classic {
		out = append(out, s)
	}
	return out
}

// Unsolicited implements [dnsprivacy.EventSubscribers].
func (r *Registry) Unsolicited() []dnsprivacy.UnsolicitedSubscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dnsprivacy.UnsolicitedSubscriber, 0, len(r.unsolicited))
	for _, s := range r.unsolicited {
		out = append(out, s)
	}
	return out
}
