// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package monitor

import (
	"errors"
	"fmt"
	"sync"
)

// ErrHandlerNotFound is returned by Unregister when the handler was never
// registered (or was already removed).
var ErrHandlerNotFound = errors.New("monitor: handler not registered")

// Registry fans events out to registered handlers.
//
// Registration order is delivery order. Log holds a read lock while
// delivering, so any number of Log calls proceed concurrently while
// Register and Unregister wait for them to drain.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a handler to the delivery list.
//
// The same handler may be registered more than once; it will then receive
// each event once per registration.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, h)
}

// Unregister removes the first registration of h, preserving the relative
// order of the remaining handlers. Returns ErrHandlerNotFound if h is not
// currently registered.
func (r *Registry) Unregister(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.handlers {
		if reg == h {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return nil
		}
	}
	return ErrHandlerNotFound
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Log delivers e to every registered handler, in registration order,
// before returning.
//
// If a handler returns an error, delivery stops and the error is returned
// wrapped with the handler's position; later handlers do not see the event.
func (r *Registry) Log(e Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, h := range r.handlers {
		if err := h.Handle(e); err != nil {
			return fmt.Errorf("monitor: handler %d failed for event %q: %w", i, e.Type, err)
		}
	}
	return nil
}
