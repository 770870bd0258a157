package transform

import "fmt"

// WrapForGrad wraps v for differentiation at the given level. The level must
// name a live layer on the stack; the wrapper shares that layer's life
// handle so it reports itself dead after the layer pops.
func (i *Interpreter) WrapForGrad(v Value, level int) (Value, error) {
	layer := i.stack.At(level)
	if layer == nil {
		return nil, fmt.Errorf("transform: wrap for grad at level %d but stack depth is %d", level, i.stack.Len())
	}
	return &GradTracked{inner: v, level: level, hasLevel: true, life: layer.life}, nil
}

// UnwrapForGrad removes a grad wrapper when its level matches. Values that
// are not grad-wrapped, or are wrapped at a different level, pass through
// unchanged.
func (i *Interpreter) UnwrapForGrad(v Value, level int) Value {
	g, ok := v.(*GradTracked)
	if !ok {
		return v
	}
	if g.hasLevel && g.level == level {
		return g.inner
	}
	return v
}

// DLevel reports the grad-wrapper level of v for debugging: 0 when v is not
// grad-wrapped, -1 when the wrapper's layer has been popped, otherwise the
// wrapper's level.
func DLevel(v Value) int {
	g, ok := v.(*GradTracked)
	if !ok {
		return 0
	}
	if !g.Alive() {
		return -1
	}
	return g.level
}
