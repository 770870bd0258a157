package transform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoActiveTransform is returned when an operation needs a transform layer
// and the stack is empty.
var ErrNoActiveTransform = errors.New("transform: no active transform")

// lifeHandle marks whether the layer that created a wrapper is still on the
// stack. Wrappers hold a pointer to their layer's handle; popping the layer
// kills it, so stale wrappers are detectable after their level is gone.
type lifeHandle struct {
	alive bool
}

// Layer is one entry of the dynamic transform stack.
//
// The id is the transform level: it equals the stack depth at push time,
// with the first layer at level 1. Per-kind metadata lives alongside:
// vmap layers carry the batch size and randomness policy, grad and jvp
// layers remember the mode flag to restore on pop, functionalize layers
// remember whether views should be reapplied on unwrap.
type Layer struct {
	id              int
	kind            Kind
	batchSize       int
	randomness      Randomness
	prevGradMode    bool
	prevFwdGradMode bool
	reapplyViews    bool
	life            *lifeHandle
}

// ID returns the layer's transform level.
func (l *Layer) ID() int { return l.id }

// Kind returns the layer's transform kind.
func (l *Layer) Kind() Kind { return l.kind }

// BatchSize returns the vmap batch size (0 for non-vmap layers).
func (l *Layer) BatchSize() int { return l.batchSize }

// Randomness returns the vmap randomness policy.
func (l *Layer) Randomness() Randomness { return l.randomness }

// ReapplyViews reports the functionalize reapply-views setting.
func (l *Layer) ReapplyViews() bool { return l.reapplyViews }

// Alive reports whether the layer is still on the stack.
func (l *Layer) Alive() bool { return l.life.alive }

func (l *Layer) String() string {
	switch l.kind {
	case KindVmap:
		return fmt.Sprintf("[%d vmap batch_size=%d randomness=%s]", l.id, l.batchSize, l.randomness)
	case KindFunctionalize:
		return fmt.Sprintf("[%d functionalize reapply_views=%t]", l.id, l.reapplyViews)
	default:
		return fmt.Sprintf("[%d %s]", l.id, l.kind)
	}
}

// Stack is the dynamic layer stack. Levels are depth-based: pushing onto a
// stack of n layers creates level n+1, so levels are always contiguous.
type Stack struct {
	layers []*Layer
}

// Len returns the number of layers on the stack.
func (s *Stack) Len() int { return len(s.layers) }

// Top returns the current (innermost) layer, or nil when empty.
func (s *Stack) Top() *Layer {
	if len(s.layers) == 0 {
		return nil
	}
	return s.layers[len(s.layers)-1]
}

// At returns the layer with the given level, or nil if out of range.
func (s *Stack) At(level int) *Layer {
	if level < 1 || level > len(s.layers) {
		return nil
	}
	return s.layers[level-1]
}

// push assigns the new level, marks the layer alive, and returns the level.
func (s *Stack) push(l *Layer) int {
	l.id = len(s.layers) + 1
	l.life = &lifeHandle{alive: true}
	s.layers = append(s.layers, l)
	return l.id
}

// pop removes the top layer, which must have the expected kind. The popped
// layer's life handle is killed so wrappers created at that level report
// themselves dead.
func (s *Stack) pop(expected Kind) (*Layer, error) {
	if len(s.layers) == 0 {
		return nil, fmt.Errorf("transform: %s decrement on empty stack: %w", expected, ErrNoActiveTransform)
	}
	top := s.layers[len(s.layers)-1]
	if top.kind != expected {
		return nil, fmt.Errorf("transform: %s decrement but current layer is %s (level %d)", expected, top.kind, top.id)
	}
	s.layers = s.layers[:len(s.layers)-1]
	top.life.alive = false
	return top, nil
}

// String renders the stack bottom (outermost) to top.
func (s *Stack) String() string {
	var b strings.Builder
	b.WriteString("DynamicLayerStack[")
	for i, l := range s.layers {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(l.String())
	}
	b.WriteString("]")
	return b.String()
}
