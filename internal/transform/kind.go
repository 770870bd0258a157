// Package transform implements the functional-transform runtime: a dynamic
// stack of transform layers (vmap, grad, jvp, functionalize), wrapper values
// carrying per-level transform metadata, and the drivers that execute
// batched and differentiated functions over the tensor backends.
package transform

import "fmt"

// Kind identifies a functional transform.
type Kind int

const (
	// KindVmap batches a function over a new leading dimension.
	KindVmap Kind = iota
	// KindGrad tracks values for reverse-mode differentiation.
	KindGrad
	// KindJvp tracks values with forward-mode tangents.
	KindJvp
	// KindFunctionalize tracks aliasing so mutations can be replayed.
	KindFunctionalize
)

// String returns the lowercase transform name.
func (k Kind) String() string {
	switch k {
	case KindVmap:
		return "vmap"
	case KindGrad:
		return "grad"
	case KindJvp:
		return "jvp"
	case KindFunctionalize:
		return "functionalize"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Randomness controls how random operations behave under vmap.
type Randomness int

const (
	// RandomnessError rejects random operations inside vmap.
	RandomnessError Randomness = iota
	// RandomnessSame gives every batch element the same random draw.
	RandomnessSame
	// RandomnessDifferent gives each batch element its own draw.
	RandomnessDifferent
)

// String returns the lowercase randomness name.
func (r Randomness) String() string {
	switch r {
	case RandomnessError:
		return "error"
	case RandomnessSame:
		return "same"
	case RandomnessDifferent:
		return "different"
	default:
		return fmt.Sprintf("Randomness(%d)", int(r))
	}
}

// ParseRandomness converts a randomness name to its enum value.
func ParseRandomness(s string) (Randomness, error) {
	switch s {
	case "error":
		return RandomnessError, nil
	case "same":
		return RandomnessSame, nil
	case "different":
		return RandomnessDifferent, nil
	default:
		return 0, fmt.Errorf("transform: randomness argument must be error, same, or different, got %q", s)
	}
}
