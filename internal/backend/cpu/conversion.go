package cpu

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// Cast converts the tensor to a different data type.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		castFrom(result, x.AsFloat32())
	case tensor.Float64:
		castFrom(result, x.AsFloat64())
	case tensor.Int32:
		castFrom(result, x.AsInt32())
	case tensor.Int64:
		castFrom(result, x.AsInt64())
	case tensor.Uint8:
		castFromUint8(result, x.AsUint8())
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
	}
	return result
}

func castFrom[T number](dst *tensor.RawTensor, src []T) {
	switch dst.DType() {
	case tensor.Float32:
		out := dst.AsFloat32()
		for i, v := range src {
			out[i] = float32(v)
		}
	case tensor.Float64:
		out := dst.AsFloat64()
		for i, v := range src {
			out[i] = float64(v)
		}
	case tensor.Int32:
		out := dst.AsInt32()
		for i, v := range src {
			out[i] = int32(v)
		}
	case tensor.Int64:
		out := dst.AsInt64()
		for i, v := range src {
			out[i] = int64(v)
		}
	case tensor.Uint8:
		out := dst.AsUint8()
		for i, v := range src {
			out[i] = uint8(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dst.DType()))
	}
}

func castFromUint8(dst *tensor.RawTensor, src []uint8) {
	switch dst.DType() {
	case tensor.Float32:
		out := dst.AsFloat32()
		for i, v := range src {
			out[i] = float32(v)
		}
	case tensor.Float64:
		out := dst.AsFloat64()
		for i, v := range src {
			out[i] = float64(v)
		}
	case tensor.Int32:
		out := dst.AsInt32()
		for i, v := range src {
			out[i] = int32(v)
		}
	case tensor.Int64:
		out := dst.AsInt64()
		for i, v := range src {
			out[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dst.DType()))
	}
}
