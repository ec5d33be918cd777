package cpu

import (
	"github.com/fathom-ml/fathom/internal/parallel"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// number is the set of element types the CPU kernels operate on.
type number interface {
	~float32 | ~float64 | ~int32
}

type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

// binaryInplace performs a op= b (a.Shape equals b.Shape, a uniquely owned).
func binaryInplace(a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		inplaceKernel(a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		inplaceKernel(a.AsFloat64(), b.AsFloat64(), op)
	case tensor.Int32:
		inplaceKernel(a.AsInt32(), b.AsInt32(), op)
	default:
		panic("binaryInplace: unsupported dtype")
	}
}

// binaryVectorized performs result = a op b over equal-shaped operands.
func binaryVectorized(result, a, b *tensor.RawTensor, op binOp) {
	switch a.DType() {
	case tensor.Float32:
		vectorizedKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), op)
	case tensor.Float64:
		vectorizedKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), op)
	case tensor.Int32:
		vectorizedKernel(result.AsInt32(), a.AsInt32(), b.AsInt32(), op)
	default:
		panic("binaryVectorized: unsupported dtype")
	}
}

// binaryBroadcast performs result = a op b with stride-0 broadcasting.
func binaryBroadcast(result, a, b *tensor.RawTensor, outShape tensor.Shape, op binOp, cfg parallel.Config) {
	switch a.DType() {
	case tensor.Float32:
		broadcastKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, op, cfg)
	case tensor.Float64:
		broadcastKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, op, cfg)
	case tensor.Int32:
		broadcastKernel(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, op, cfg)
	default:
		panic("binaryBroadcast: unsupported dtype")
	}
}

func inplaceKernel[T number](a, b []T, op binOp) {
	switch op {
	case opAdd:
		for i := range a {
			a[i] += b[i]
		}
	case opSub:
		for i := range a {
			a[i] -= b[i]
		}
	case opMul:
		for i := range a {
			a[i] *= b[i]
		}
	case opDiv:
		for i := range a {
			a[i] /= b[i]
		}
	}
}

func vectorizedKernel[T number](dst, a, b []T, op binOp) {
	switch op {
	case opAdd:
		for i := range a {
			dst[i] = a[i] + b[i]
		}
	case opSub:
		for i := range a {
			dst[i] = a[i] - b[i]
		}
	case opMul:
		for i := range a {
			dst[i] = a[i] * b[i]
		}
	case opDiv:
		for i := range a {
			dst[i] = a[i] / b[i]
		}
	}
}

func broadcastKernel[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op binOp, cfg parallel.Config) {
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	apply := func(x, y T) T {
		switch op {
		case opAdd:
			return x + y
		case opSub:
			return x - y
		case opMul:
			return x * y
		default:
			return x / y
		}
	}

	parallel.For(outShape.NumElements(), func(i int) {
		ai := flatIndex(i, outStrides, aStrides)
		bi := flatIndex(i, outStrides, bStrides)
		dst[i] = apply(a[ai], b[bi])
	}, cfg)
}

// broadcastStrides computes strides for reading inShape as outShape,
// with stride 0 on broadcast (size 1 or padded) dimensions.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0 || inIdx >= inDim:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a flat output index to a flat source index using
// broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}
