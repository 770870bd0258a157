package transform_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morphic-ml/morphic/internal/tensor"
	"github.com/morphic-ml/morphic/internal/transform"
)

func sumOfSquares(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.Sum(b.Mul(x, x)), nil
}

func TestGrad_SumOfSquares(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3})

	g, err := transform.Grad(interp, sumOfSquares, x)
	require.NoError(t, err)

	p := g.(*transform.Plain)
	assert.Equal(t, tensor.Shape{3}, p.Raw().Shape())
	// d/dx sum(x²) = 2x
	assert.Equal(t, []float32{2, 4, 6}, p.Raw().AsFloat32())
	assert.False(t, interp.TransformsActive())
}

func TestGrad_NonScalarOutput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3})

	double := func(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.MulScalar(x, float32(2)), nil
	}
	_, err := transform.Grad(interp, double, x)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scalar")
	assert.False(t, interp.TransformsActive())
}

func TestGrad_IndependentOutput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2}, tensor.Shape{2})
	c := plainOf(t, []float32{5, 5}, tensor.Shape{2})

	constant := func(b tensor.Backend, _ *tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.Sum(b.MulScalar(c.Raw(), float32(3))), nil
	}

	g, err := transform.Grad(interp, constant, x)
	require.NoError(t, err)

	p := g.(*transform.Plain)
	assert.Equal(t, []float32{0, 0}, p.Raw().AsFloat32())
}

func TestGrad_DisabledGradMode(t *testing.T) {
	interp := newInterp()
	interp.SetGradEnabled(false)
	x := plainOf(t, []float32{1}, tensor.Shape{1})

	_, err := transform.Grad(interp, sumOfSquares, x)
	assert.Error(t, err)
}

func TestGrad_Exp(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{0, 1}, tensor.Shape{2})

	sumExp := func(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error) {
		return b.Sum(b.Exp(x)), nil
	}
	g, err := transform.Grad(interp, sumExp, x)
	require.NoError(t, err)

	got := g.(*transform.Plain).Raw().AsFloat32()
	for i, xv := range []float64{0, 1} {
		want := math.Exp(xv)
		assert.InDelta(t, want, float64(got[i]), 1e-5)
	}
}

func TestGrad_NestedLevels(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{3}, tensor.Shape{1})

	var innerLevel, outerLevel int
	outer := func(b tensor.Backend, xr *tensor.RawTensor) (*tensor.RawTensor, error) {
		outerLevel, _ = interp.CurrentLevel()
		inner := func(b tensor.Backend, yr *tensor.RawTensor) (*tensor.RawTensor, error) {
			innerLevel, _ = interp.CurrentLevel()
			return b.Sum(b.Mul(yr, yr)), nil
		}
		// Inner gradient: d/dy sum(y²) = 2y.
		gy, err := transform.Grad(interp, inner, transform.NewPlain(xr))
		if err != nil {
			return nil, err
		}
		// The inner grad enters the outer tape as a constant leaf.
		return b.Sum(b.Mul(xr, gy.(*transform.Plain).Raw())), nil
	}

	g, err := transform.Grad(interp, outer, x)
	require.NoError(t, err)

	assert.Equal(t, 1, outerLevel)
	assert.Equal(t, 2, innerLevel)
	// outer computes sum(x * 2x) with 2x held constant; gradient is 2x = 6.
	assert.Equal(t, []float32{6}, g.(*transform.Plain).Raw().AsFloat32())
	assert.False(t, interp.TransformsActive())
}

func TestGrad_OpsRecordedAfterOutput(t *testing.T) {
	interp := newInterp()
	x := plainOf(t, []float32{1, 2, 3}, tensor.Shape{3})

	f := func(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error) {
		out := b.Sum(b.Mul(x, x))
		// A value computed after the result is taped but does not
		// contribute to it.
		_ = b.MulScalar(out, float32(10))
		return out, nil
	}

	g, err := transform.Grad(interp, f, x)
	require.NoError(t, err)

	// d/dx sum(x²) = 2x, unaffected by the trailing op.
	assert.Equal(t, []float32{2, 4, 6}, g.(*transform.Plain).Raw().AsFloat32())
}
