// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package monitor_test

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/morphic-ml/morphic/monitor"
)

// TestProperty_RegistryMatchesSliceModel drives a registry with a random
// sequence of register/unregister/log steps and checks it against a plain
// slice model: same delivery order, same Unregister errors, same size.
func TestProperty_RegistryMatchesSliceModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := monitor.NewRegistry()

		var trace []string
		var model []*recordingHandler

		// A fixed pool so unregister can target both present and
		// absent handlers.
		pool := make([]*recordingHandler, 5)
		for i := range pool {
			pool[i] = &recordingHandler{name: string(rune('a' + i)), trace: &trace}
		}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		logged := 0
		for s := 0; s < steps; s++ {
			h := pool[rapid.IntRange(0, len(pool)-1).Draw(rt, "handler")]

			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0: // register
				reg.Register(h)
				model = append(model, h)

			case 1: // unregister
				err := reg.Unregister(h)

				idx := -1
				for i, m := range model {
					if m == h {
						idx = i
						break
					}
				}
				if idx < 0 {
					if !errors.Is(err, monitor.ErrHandlerNotFound) {
						rt.Fatalf("Unregister of absent handler: err = %v, want ErrHandlerNotFound", err)
					}
				} else {
					if err != nil {
						rt.Fatalf("Unregister of present handler failed: %v", err)
					}
					model = append(model[:idx], model[idx+1:]...)
				}

			case 2: // log
				logged++
				evt := monitor.Event{Type: "tick", Timestamp: time.Now()}
				if err := reg.Log(evt); err != nil {
					rt.Fatalf("Log failed: %v", err)
				}

				want := len(trace) - len(model)
				got := trace[want:]
				for i, m := range model {
					if got[i] != m.name+":tick" {
						rt.Fatalf("step %d: delivery[%d] = %q, want %q", s, i, got[i], m.name+":tick")
					}
				}
			}

			if reg.Len() != len(model) {
				rt.Fatalf("step %d: Len() = %d, model has %d", s, reg.Len(), len(model))
			}
		}
	})
}
