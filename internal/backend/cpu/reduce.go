package cpu

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// Sum reduces the tensor to a scalar (empty shape) by summing all elements.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw("sum", tensor.Shape{}, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumAll(x.AsInt32())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

func sumAll[T number](src []T) T {
	var sum T
	for _, v := range src {
		sum += v
	}
	return sum
}

// SumDim sums along a single dimension.
// If keepDim is true the reduced dimension is retained with size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i := 0; i < ndim; i++ {
			if i != dim {
				outShape = append(outShape, shape[i])
			}
		}
	}

	result := mustNewRaw("sumdim", outShape, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		sumDimKernel(result.AsFloat32(), x.AsFloat32(), shape, dim)
	case tensor.Float64:
		sumDimKernel(result.AsFloat64(), x.AsFloat64(), shape, dim)
	case tensor.Int32:
		sumDimKernel(result.AsInt32(), x.AsInt32(), shape, dim)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}

	return result
}

// sumDimKernel reduces along dim by decomposing the index space into
// outer * reduced * inner, where inner is the product of trailing dims.
func sumDimKernel[T number](dst, src []T, shape tensor.Shape, dim int) {
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	reduced := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	for o := 0; o < outer; o++ {
		dstBase := o * inner
		srcBase := o * reduced * inner
		for in := 0; in < inner; in++ {
			var sum T
			for r := 0; r < reduced; r++ {
				sum += src[srcBase+r*inner+in]
			}
			dst[dstBase+in] = sum
		}
	}
}
