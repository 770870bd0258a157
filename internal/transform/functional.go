package transform

import "fmt"

// WrapFunctional wraps v for the functionalization pass at the given level,
// snapshotting its storage as the base.
func (i *Interpreter) WrapFunctional(v Value, level int) (Value, error) {
	if IsFunctional(v) {
		return nil, fmt.Errorf("transform: value is already functional")
	}
	return &Functional{inner: v, level: level, base: innerRaw(v)}, nil
}

// UnwrapFunctional commits any pending updates and returns the inner value.
// Only called after popping out of a functionalize scope, so v must be a
// functional wrapper.
//
// reapplyViews is the functionalize layer's setting: when true, regenerated
// inputs should come back as views rather than copies. This runtime has no
// view graph to regenerate, so the flag only selects whether the committed
// base or the current inner value is returned (they hold the same bytes
// after Sync).
func (i *Interpreter) UnwrapFunctional(v Value, reapplyViews bool) (Value, error) {
	f, ok := v.(*Functional)
	if !ok {
		return nil, fmt.Errorf("transform: unwrap functional on non-functional value %T", v)
	}
	f.Sync()
	return f.inner, nil
}

// AssertWrappedFunctional verifies that wrapped is a functional wrapper
// whose inner storage is exactly the unwrapped value's storage.
func (i *Interpreter) AssertWrappedFunctional(unwrapped, wrapped Value) error {
	f, ok := wrapped.(*Functional)
	if !ok {
		return fmt.Errorf("transform: expected a functional wrapper, got %T", wrapped)
	}
	if IsFunctional(unwrapped) {
		return fmt.Errorf("transform: unwrapped argument is itself functional")
	}
	if innerRaw(unwrapped) != innerRaw(f.inner) {
		return fmt.Errorf("transform: functional wrapper does not wrap the given value")
	}
	return nil
}

// PropagateInputMutation pushes mutations recorded in the functional wrapper
// back into the original input tensor.
//
// Pending updates are committed first. If the wrapper's inner storage is the
// input's storage, nothing further is needed. Otherwise the bytes are copied
// back, which requires matching byte size and shape: a metadata-changing
// inplace op (like an inplace transpose) on a functionalization input cannot
// be propagated.
func (i *Interpreter) PropagateInputMutation(unwrapped, wrapped Value) error {
	f, ok := wrapped.(*Functional)
	if !ok {
		return fmt.Errorf("transform: expected a functional wrapper, got %T", wrapped)
	}
	if IsFunctional(unwrapped) {
		return fmt.Errorf("transform: unwrapped argument is itself functional")
	}

	f.Sync()

	dst := innerRaw(unwrapped)
	src := innerRaw(f.inner)
	if dst == src {
		return nil
	}
	if dst.ByteSize() != src.ByteSize() {
		return fmt.Errorf("transform: cannot propagate mutation, storage sizes differ (%d vs %d bytes)", dst.ByteSize(), src.ByteSize())
	}
	if !dst.Shape().Equal(src.Shape()) {
		return fmt.Errorf("transform: an inplace metadata-changing op was applied to a functionalization input; propagating it is not supported (shapes %v vs %v)", dst.Shape(), src.Shape())
	}
	copy(dst.Data(), src.Data())
	return nil
}
