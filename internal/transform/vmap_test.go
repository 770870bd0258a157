package transform_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphic-ml/morphic/internal/backend/cpu"
	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
	"github.com/morphic-ml/morphic/internal/transform"
	"github.com/morphic-ml/morphic/monitor"
)

func doubleFn(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.MulScalar(inputs[0], float32(2)), nil
}

func TestVmap_SingleInput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})

	out, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{x}, []int{0}, 0, transform.RandomnessError)
	require.NoError(t, err)

	p := out.(*transform.Plain)
	assert.Equal(t, tensor.Shape{3, 2}, p.Raw().Shape())
	assert.Equal(t, []float32{2, 4, 6, 8, 10, 12}, p.Raw().AsFloat32())

	// The vmap layer is popped on the way out.
	assert.False(t, interp.TransformsActive())
}

func TestVmap_UnbatchedInput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := plainOf(t, []float32{10, 100}, tensor.Shape{2})

	addW := func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.Add(inputs[0], inputs[1]), nil
	}

	out, err := transform.Vmap(interp, addW,
		[]transform.Value{x, w}, []int{0, -1}, 0, transform.RandomnessError)
	require.NoError(t, err)

	p := out.(*transform.Plain)
	assert.Equal(t, []float32{11, 102, 13, 104}, p.Raw().AsFloat32())
}

func TestVmap_MapOverMiddleDim(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.Sum(inputs[0]), nil
	}

	// Map over dim 1: three per-example columns of length 2.
	out, err := transform.Vmap(interp, sum,
		[]transform.Value{x}, []int{1}, 0, transform.RandomnessError)
	require.NoError(t, err)

	p := out.(*transform.Plain)
	assert.Equal(t, tensor.Shape{3, 1}, p.Raw().Shape())
	assert.Equal(t, []float32{5, 7, 9}, p.Raw().AsFloat32())
}

func TestVmap_BatchSizeMismatch(t *testing.T) {
	interp := newInterp()
	a := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3})
	b := plainOf(t, []float32{1, 2}, tensor.Shape{2})

	addFn := func(be tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return be.Add(inputs[0], inputs[1]), nil
	}

	_, err := transform.Vmap(interp, addFn,
		[]transform.Value{a, b}, []int{0, 0}, 0, transform.RandomnessError)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch size")
	assert.False(t, interp.TransformsActive())
}

func TestVmap_NoMappedInput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1}, tensor.Shape{1})

	_, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{x}, []int{-1}, 0, transform.RandomnessError)
	assert.Error(t, err)
}

func TestVmap_FallbackDisabled(t *testing.T) {
	interp := newInterp()
	interp.SetVmapFallbackEnabled(false)
	x := plainOf(t, []float32{1, 2}, tensor.Shape{2, 1})

	_, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{x}, []int{0}, 0, transform.RandomnessError)
	assert.ErrorIs(t, err, transform.ErrVmapFallbackDisabled)
	assert.False(t, interp.TransformsActive(), "layer is popped even on failure")
}

func TestVmap_FallbackWarningEvent(t *testing.T) {
	reg := monitor.NewRegistry()
	var fallbacks []monitor.Event
	reg.Register(monitor.NewFuncHandler(func(e monitor.Event) error {
		if e.Type == "vmap.fallback" {
			fallbacks = append(fallbacks, e)
		}
		return nil
	}))

	interp := newInterp(transform.WithEvents(reg))
	interp.SetVmapFallbackWarningEnabled(true)
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	_, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{x}, []int{0}, 0, transform.RandomnessSame)
	require.NoError(t, err)

	require.Len(t, fallbacks, 1)
	assert.Equal(t, 3, fallbacks[0].Data["batch_size"])
	assert.Equal(t, "same", fallbacks[0].Data["randomness"])
}

func TestVmap_Nested(t *testing.T) {
	interp := newInterp()

	// out[i][j] = x[i] * y[j], via nested vmaps.
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	y := plainOf(t, []float32{10, 20}, tensor.Shape{2, 1})

	outer := func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		xi := inputs[0]
		inner := func(b tensor.Backend, innerInputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			return b.Mul(xi, innerInputs[0]), nil
		}
		out, err := transform.Vmap(interp, inner,
			[]transform.Value{transform.NewPlain(inputs[1])}, []int{0}, 0, transform.RandomnessError)
		if err != nil {
			return nil, err
		}
		return out.(*transform.Plain).Raw(), nil
	}

	out, err := transform.Vmap(interp, outer,
		[]transform.Value{x, transform.NewPlain(y.Raw())}, []int{0, -1}, 0, transform.RandomnessError)
	require.NoError(t, err)

	p := out.(*transform.Plain)
	assert.Equal(t, tensor.Shape{3, 2, 1}, p.Raw().Shape())
	assert.Equal(t, []float32{10, 20, 20, 40, 30, 60}, p.Raw().AsFloat32())
	assert.False(t, interp.TransformsActive())
}

func TestVmap_ParallelWorkers(t *testing.T) {
	backend := cpu.New()
	interp := transform.NewInterpreter(backend,
		transform.WithParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}))

	data := make([]float32, 64)
	for i := range data {
		data[i] = float32(i)
	}
	x, err := tensor.FromSlice(data, tensor.Shape{64, 1}, backend)
	require.NoError(t, err)

	out, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{transform.NewPlain(x.Raw())}, []int{0}, 0, transform.RandomnessError)
	require.NoError(t, err)

	got := out.(*transform.Plain).Raw().AsFloat32()
	for i := range data {
		assert.Equal(t, data[i]*2, got[i])
	}
}

// TestProperty_VmapMatchesLoop checks that Vmap over element-wise doubling
// agrees with a hand-written loop for arbitrary batch and element sizes.
func TestProperty_VmapMatchesLoop(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		backend := cpu.New()
		interp := transform.NewInterpreter(backend)

		batch := rapid.IntRange(1, 8).Draw(rt, "batch")
		width := rapid.IntRange(1, 6).Draw(rt, "width")

		data := make([]float32, batch*width)
		for i := range data {
			data[i] = float32(rapid.IntRange(-100, 100).Draw(rt, "elem"))
		}
		x, err := tensor.FromSlice(data, tensor.Shape{batch, width}, backend)
		if err != nil {
			rt.Fatalf("FromSlice failed: %v", err)
		}

		fn := func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			return b.AddScalar(b.MulScalar(inputs[0], float32(3)), float32(1)), nil
		}

		out, err := transform.Vmap(interp, fn,
			[]transform.Value{transform.NewPlain(x.Raw())}, []int{0}, 0, transform.RandomnessError)
		if err != nil {
			rt.Fatalf("Vmap failed: %v", err)
		}

		got := out.(*transform.Plain).Raw().AsFloat32()
		for i, v := range data {
			want := v*3 + 1
			if got[i] != want {
				rt.Fatalf("out[%d] = %v, want %v", i, got[i], want)
			}
		}
	})
}

func TestVmap_PrewrappedBatchedInput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	shared := plainOf(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	foreign, err := interp.AddBatchDim(shared, 0, 7)
	require.NoError(t, err)

	addFn := func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.Add(inputs[0], inputs[1]), nil
	}

	// As a shared input: the wrapper belongs to another vmap level and
	// cannot be sliced by this one.
	_, err = transform.Vmap(interp, addFn,
		[]transform.Value{x, foreign}, []int{0, -1}, 0, transform.RandomnessError)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level 7")
	assert.False(t, interp.TransformsActive())

	// As a mapped input: rejected the same way.
	_, err = transform.Vmap(interp, doubleFn,
		[]transform.Value{foreign}, []int{0}, 0, transform.RandomnessError)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level 7")
	assert.False(t, interp.TransformsActive())
}

func TestVmap_ScalarInput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{5}, tensor.Shape{})

	_, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{x}, []int{0}, 0, transform.RandomnessError)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scalar")
	assert.False(t, interp.TransformsActive())
}

func TestVmap_GradWrappedInput(t *testing.T) {
	interp := newInterp()
	gradLevel := interp.GradIncrementNesting()

	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3, 1})
	wrapped, err := interp.WrapForGrad(x, gradLevel)
	require.NoError(t, err)

	out, err := transform.Vmap(interp, doubleFn,
		[]transform.Value{wrapped}, []int{0}, 0, transform.RandomnessError)
	require.NoError(t, err)

	p := out.(*transform.Plain)
	assert.Equal(t, tensor.Shape{3, 1}, p.Raw().Shape())
	assert.Equal(t, []float32{2, 4, 6}, p.Raw().AsFloat32())

	_, err = interp.GradDecrementNesting()
	require.NoError(t, err)
	assert.False(t, interp.TransformsActive())
}
