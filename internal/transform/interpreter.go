package transform

import (
	"fmt"
	"time"

	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
	"github.com/morphic-ml/morphic/monitor"
)

// Interpreter owns one session of the functional-transform runtime: the
// dynamic layer stack, the grad and forward-grad mode flags, and the vmap
// fallback switches. There is no package-level instance; callers construct
// an Interpreter and pass it to whatever owns the runtime session.
//
// An Interpreter is not safe for concurrent use. Each goroutine running
// transformed functions should own its own.
type Interpreter struct {
	backend tensor.Backend
	stack   Stack

	gradMode    bool
	fwdGradMode bool

	vmapFallbackEnabled bool
	vmapFallbackWarning bool

	par    parallel.Config
	events *monitor.Registry
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithEvents makes the interpreter publish runtime events (transform.push,
// transform.pop, vmap.fallback) to reg.
func WithEvents(reg *monitor.Registry) Option {
	return func(i *Interpreter) { i.events = reg }
}

// WithParallel sets the worker configuration used by the vmap fallback loop.
// Enable workers only when the mapped functions do not reenter the
// interpreter (no nested transforms): the layer stack is single-goroutine
// state.
func WithParallel(cfg parallel.Config) Option {
	return func(i *Interpreter) { i.par = cfg }
}

// NewInterpreter creates an interpreter executing on the given backend.
// Grad and forward-grad modes start enabled, as does the vmap fallback.
func NewInterpreter(backend tensor.Backend, opts ...Option) *Interpreter {
	i := &Interpreter{
		backend:             backend,
		gradMode:            true,
		fwdGradMode:         true,
		vmapFallbackEnabled: true,
		par:                 parallel.Sequential(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Backend returns the backend the interpreter executes on.
func (i *Interpreter) Backend() tensor.Backend { return i.backend }

func (i *Interpreter) emit(typ string, data map[string]any) {
	if i.events == nil {
		return
	}
	// Handler failures are observability-side; they must not break the
	// transform machinery.
	_ = i.events.Log(monitor.Event{Type: typ, Timestamp: time.Now(), Data: data})
}

func (i *Interpreter) pushed(l *Layer) int {
	level := i.stack.push(l)
	i.emit("transform.push", map[string]any{"kind": l.kind.String(), "level": level})
	return level
}

func (i *Interpreter) popped(expected Kind) (*Layer, error) {
	l, err := i.stack.pop(expected)
	if err != nil {
		return nil, err
	}
	i.emit("transform.pop", map[string]any{"kind": l.kind.String(), "level": l.id})
	return l, nil
}

// VmapIncrementNesting pushes a vmap layer and returns its level.
func (i *Interpreter) VmapIncrementNesting(batchSize int, r Randomness) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("transform: vmap batch size must be positive, got %d", batchSize)
	}
	return i.pushed(&Layer{kind: KindVmap, batchSize: batchSize, randomness: r}), nil
}

// VmapDecrementNesting pops the vmap layer and returns its level.
func (i *Interpreter) VmapDecrementNesting() (int, error) {
	l, err := i.popped(KindVmap)
	if err != nil {
		return 0, err
	}
	return l.id, nil
}

// GradIncrementNesting pushes a grad layer, remembering the current grad
// mode and enabling it for the layer's duration. Returns the new level.
func (i *Interpreter) GradIncrementNesting() int {
	prev := i.gradMode
	i.gradMode = true
	return i.pushed(&Layer{kind: KindGrad, prevGradMode: prev})
}

// GradDecrementNesting pops the grad layer, restores the saved grad mode,
// and returns the popped level.
func (i *Interpreter) GradDecrementNesting() (int, error) {
	l, err := i.popped(KindGrad)
	if err != nil {
		return 0, err
	}
	i.gradMode = l.prevGradMode
	return l.id, nil
}

// JvpIncrementNesting pushes a jvp layer, remembering the current
// forward-grad mode and enabling it. Returns the new level.
func (i *Interpreter) JvpIncrementNesting() int {
	prev := i.fwdGradMode
	i.fwdGradMode = true
	return i.pushed(&Layer{kind: KindJvp, prevFwdGradMode: prev})
}

// JvpDecrementNesting pops the jvp layer, restores the saved forward-grad
// mode, and returns the popped level.
func (i *Interpreter) JvpDecrementNesting() (int, error) {
	l, err := i.popped(KindJvp)
	if err != nil {
		return 0, err
	}
	i.fwdGradMode = l.prevFwdGradMode
	return l.id, nil
}

// FuncIncrementNesting pushes a functionalize layer and returns its level.
func (i *Interpreter) FuncIncrementNesting(reapplyViews bool) int {
	return i.pushed(&Layer{kind: KindFunctionalize, reapplyViews: reapplyViews})
}

// FuncDecrementNesting pops the functionalize layer and returns its level.
func (i *Interpreter) FuncDecrementNesting() (int, error) {
	l, err := i.popped(KindFunctionalize)
	if err != nil {
		return 0, err
	}
	return l.id, nil
}

// CurrentLevel returns the level of the innermost transform layer.
func (i *Interpreter) CurrentLevel() (int, error) {
	top := i.stack.Top()
	if top == nil {
		return 0, ErrNoActiveTransform
	}
	return top.id, nil
}

// TransformsActive reports whether any transform layer is on the stack.
func (i *Interpreter) TransformsActive() bool { return i.stack.Len() > 0 }

// LayerCount returns the stack depth.
func (i *Interpreter) LayerCount() int { return i.stack.Len() }

// LayerAt returns the layer at the given level, or nil if out of range.
func (i *Interpreter) LayerAt(level int) *Layer { return i.stack.At(level) }

// SetGradEnabled toggles reverse-mode gradient tracking.
func (i *Interpreter) SetGradEnabled(enabled bool) { i.gradMode = enabled }

// GradEnabled reports whether reverse-mode gradient tracking is on.
func (i *Interpreter) GradEnabled() bool { return i.gradMode }

// SetFwdGradEnabled toggles forward-mode gradient tracking.
func (i *Interpreter) SetFwdGradEnabled(enabled bool) { i.fwdGradMode = enabled }

// FwdGradEnabled reports whether forward-mode gradient tracking is on.
func (i *Interpreter) FwdGradEnabled() bool { return i.fwdGradMode }

// SetVmapFallbackEnabled toggles the per-example vmap fallback loop.
func (i *Interpreter) SetVmapFallbackEnabled(enabled bool) { i.vmapFallbackEnabled = enabled }

// VmapFallbackEnabled reports whether the vmap fallback loop may run.
func (i *Interpreter) VmapFallbackEnabled() bool { return i.vmapFallbackEnabled }

// SetVmapFallbackWarningEnabled toggles the vmap.fallback event emission.
func (i *Interpreter) SetVmapFallbackWarningEnabled(enabled bool) { i.vmapFallbackWarning = enabled }

// VmapFallbackWarningEnabled reports whether fallback use is announced.
func (i *Interpreter) VmapFallbackWarningEnabled() bool { return i.vmapFallbackWarning }

// DumpStack renders the current layer stack for debugging.
func (i *Interpreter) DumpStack() string { return i.stack.String() }
