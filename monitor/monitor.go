// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package monitor provides a process-wide event broadcast facility.
//
// Components publish structured events (counters crossing a window,
// transform stack pushes, fallback activations) to a Registry, and any
// number of handlers consume them synchronously:
//
//	reg := monitor.NewRegistry()
//	h := monitor.NewWriterHandler(os.Stderr)
//	reg.Register(h)
//	defer reg.Unregister(h)
//
//	reg.Log(monitor.Event{
//	    Type:      "checkpoint.saved",
//	    Timestamp: time.Now(),
//	    Data:      map[string]any{"step": 1200},
//	})
//
// Delivery is synchronous and ordered: Log returns only after every
// handler has seen the event, in registration order. Handlers must not
// call Register or Unregister on the same registry from inside Handle.
package monitor

import "time"

// Event is a single structured occurrence published to a Registry.
type Event struct {
	// Type identifies the event category, e.g. "transform.push".
	// Dotted lowercase names are conventional.
	Type string

	// Timestamp records when the event occurred. The publisher sets it;
	// the registry never overwrites it.
	Timestamp time.Time

	// Data holds arbitrary event payload. May be nil. Handlers must not
	// mutate it since the same map is shared across all handlers.
	Data map[string]any
}

// Handler consumes events published to a Registry.
//
// Handlers are compared by Go equality when unregistering, so a handler
// must be comparable. Pointer types satisfy this naturally.
type Handler interface {
	// Handle processes one event. Returning a non-nil error aborts
	// delivery of that event to later handlers and is propagated to
	// the Log caller.
	Handle(e Event) error
}
