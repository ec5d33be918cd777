package ops

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// SumDimOp represents reduction along one dimension: output = sum(x, dim).
//
// Backward: the output gradient is replicated along the reduced
// dimension to recover the input shape.
type SumDimOp struct {
	input   *tensor.RawTensor
	output  *tensor.RawTensor
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized
// to a non-negative index.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		input:   input,
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward replicates the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.input
	shape := x.Shape()

	inputGrad, err := tensor.NewRaw(shape, x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("sumdim backward: %v", err))
	}

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= shape[i]
	}
	reduced := shape[op.dim]
	inner := 1
	for i := op.dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	switch x.DType() {
	case tensor.Float32:
		replicateDim(inputGrad.AsFloat32(), outputGrad.AsFloat32(), outer, reduced, inner)
	case tensor.Float64:
		replicateDim(inputGrad.AsFloat64(), outputGrad.AsFloat64(), outer, reduced, inner)
	default:
		panic(fmt.Sprintf("sumdim backward: unsupported dtype %s", x.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

func replicateDim[T ~float32 | ~float64](dst, src []T, outer, reduced, inner int) {
	for o := 0; o < outer; o++ {
		srcBase := o * inner
		dstBase := o * reduced * inner
		for r := 0; r < reduced; r++ {
			copy(dst[dstBase+r*inner:dstBase+(r+1)*inner], src[srcBase:srcBase+inner])
		}
	}
}

// Inputs returns the input tensors.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
