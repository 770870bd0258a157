package transform

// Introspection over wrapper values. These inspect the outermost wrapper
// only; unwrapping one level at a time is how the drivers peel nested
// transforms.

// MaybeBatched returns the value as *Batched if its outermost wrapper is a
// batch wrapper.
func MaybeBatched(v Value) (*Batched, bool) {
	b, ok := v.(*Batched)
	return b, ok
}

// MaybeGradTracked returns the value as *GradTracked if its outermost
// wrapper is a grad wrapper.
func MaybeGradTracked(v Value) (*GradTracked, bool) {
	g, ok := v.(*GradTracked)
	return g, ok
}

// MaybeFunctional returns the value as *Functional if its outermost wrapper
// is a functionalization wrapper.
func MaybeFunctional(v Value) (*Functional, bool) {
	f, ok := v.(*Functional)
	return f, ok
}

// IsBatched reports whether the outermost wrapper is a batch wrapper.
func IsBatched(v Value) bool {
	_, ok := v.(*Batched)
	return ok
}

// IsGradTracked reports whether the outermost wrapper is a grad wrapper.
func IsGradTracked(v Value) bool {
	_, ok := v.(*GradTracked)
	return ok
}

// IsFunctional reports whether the outermost wrapper is a functionalization
// wrapper.
func IsFunctional(v Value) bool {
	_, ok := v.(*Functional)
	return ok
}

// Unwrapped removes the outermost wrapper. Returns ErrNoWrapper for a plain
// value.
func Unwrapped(v Value) (Value, error) {
	switch w := v.(type) {
	case *Batched:
		return w.inner, nil
	case *GradTracked:
		return w.inner, nil
	case *Functional:
		return w.inner, nil
	default:
		return nil, ErrNoWrapper
	}
}

// MaybeLevel returns the transform level of the outermost wrapper.
// Plain values report -1. A grad wrapper that was created without a level
// reports -2.
func MaybeLevel(v Value) int {
	switch w := v.(type) {
	case *Batched:
		return w.level
	case *GradTracked:
		if w.hasLevel {
			return w.level
		}
		return -2
	case *Functional:
		return w.level
	default:
		return -1
	}
}

// MaybeBatchDim returns the batch dimension of a batch wrapper, or -1.
func MaybeBatchDim(v Value) int {
	if b, ok := v.(*Batched); ok {
		return b.bdim
	}
	return -1
}
