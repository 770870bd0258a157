package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype, b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, oneValue[T](), b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// oneValue returns the multiplicative identity for T (true for bool).
func oneValue[T DType]() T {
	var dummy T
	var one any
	switch any(dummy).(type) {
	case float32:
		one = float32(1)
	case float64:
		one = float64(1)
	case int32:
		one = int32(1)
	case int64:
		one = int64(1)
	case uint8:
		one = uint8(1)
	case bool:
		one = true
	}
	return one.(T)
}

// Randn creates a tensor with random values from a normal distribution (mean=0, std=1).
// Uses the Box-Muller transform. Only works with float types.
// Note: uses math/rand (not crypto/rand), which is appropriate for numerical work.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dataF32 := any(data).([]float32)
		for i := 0; i < len(dataF32); i += 2 {
			z0, z1 := boxMuller()
			dataF32[i] = float32(z0)
			if i+1 < len(dataF32) {
				dataF32[i+1] = float32(z1)
			}
		}
	case float64:
		dataF64 := any(data).([]float64)
		for i := 0; i < len(dataF64); i += 2 {
			z0, z1 := boxMuller()
			dataF64[i] = z0
			if i+1 < len(dataF64) {
				dataF64[i+1] = z1
			}
		}
	default:
		panic("Randn only supports float32 and float64")
	}
	return t
}

func boxMuller() (float64, float64) {
	u1 := rand.Float64() //nolint:gosec // numerical code uses math/rand intentionally
	u2 := rand.Float64() //nolint:gosec
	r := math.Sqrt(-2.0 * math.Log(u1))
	return r * math.Cos(2.0*math.Pi*u2), r * math.Sin(2.0*math.Pi*u2)
}

// Rand creates a tensor with random values from a uniform distribution U(0, 1).
// Only works with float types.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dataF32 := any(data).([]float32)
		for i := range dataF32 {
			dataF32[i] = rand.Float32() //nolint:gosec
		}
	case float64:
		dataF64 := any(data).([]float64)
		for i := range dataF64 {
			dataF64[i] = rand.Float64() //nolint:gosec
		}
	default:
		panic("Rand only supports float32 and float64")
	}
	return t
}

// Arange creates a 1D tensor with values [start, end) stepping by 1.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	var dummy T
	switch any(dummy).(type) {
	case bool:
		panic("Arange does not support bool")
	}

	n := arangeLen(start, end)
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	v := start
	for i := 0; i < n; i++ {
		data[i] = v
		v = addOne(v)
	}
	return t
}

func arangeLen[T DType](start, end T) int {
	switch s := any(start).(type) {
	case float32:
		return int(math.Ceil(float64(any(end).(float32) - s)))
	case float64:
		return int(math.Ceil(any(end).(float64) - s))
	case int32:
		return int(any(end).(int32) - s)
	case int64:
		return int(any(end).(int64) - s)
	case uint8:
		return int(any(end).(uint8) - s)
	default:
		panic("unsupported type")
	}
}

func addOne[T DType](v T) T {
	switch x := any(v).(type) {
	case float32:
		return any(x + 1).(T)
	case float64:
		return any(x + 1).(T)
	case int32:
		return any(x + 1).(T)
	case int64:
		return any(x + 1).(T)
	case uint8:
		return any(x + 1).(T)
	default:
		panic("unsupported type")
	}
}

// Eye creates a 2D identity matrix of size n×n.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	one := oneValue[T]()
	for i := 0; i < n; i++ {
		t.Set(one, i, i)
	}
	return t
}
