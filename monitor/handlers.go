// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package monitor

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// WriterHandler writes each event as a single JSON line.
//
// It serializes its own writes, so one WriterHandler can be registered on
// registries that log from multiple goroutines.
type WriterHandler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterHandler returns a handler writing JSON lines to w.
func NewWriterHandler(w io.Writer) *WriterHandler {
	return &WriterHandler{w: w}
}

type eventJSON struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handle encodes the event as JSON followed by a newline.
func (h *WriterHandler) Handle(e Event) error {
	buf, err := json.Marshal(eventJSON{Type: e.Type, Timestamp: e.Timestamp, Data: e.Data})
	if err != nil {
		return err
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(buf)
	return err
}

// FuncHandler adapts a plain function to the Handler interface.
//
// Each call to NewFuncHandler returns a distinct pointer, so two handlers
// built from the same function can be registered and unregistered
// independently.
type FuncHandler struct {
	fn func(Event) error
}

// NewFuncHandler wraps fn as a Handler.
func NewFuncHandler(fn func(Event) error) *FuncHandler {
	return &FuncHandler{fn: fn}
}

// Handle invokes the wrapped function.
func (h *FuncHandler) Handle(e Event) error {
	return h.fn(e)
}
