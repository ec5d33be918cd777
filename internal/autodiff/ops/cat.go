package ops

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// CatOp represents concatenation along one dimension.
//
// Backward: the output gradient is split at the input boundaries and
// each input receives the slice matching its contribution.
type CatOp struct {
	inputs []*tensor.RawTensor
	dim    int   // normalized concat dimension
	sizes  []int // size of each input along dim
	output *tensor.RawTensor
}

// NewCatOp creates a new CatOp. dim must already be normalized.
func NewCatOp(inputs []*tensor.RawTensor, dim int, sizes []int, output *tensor.RawTensor) *CatOp {
	return &CatOp{
		inputs: inputs,
		dim:    dim,
		sizes:  sizes,
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the concatenated output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward splits the output gradient along the concat dimension.
func (op *CatOp) Backward(gradOutput *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	gradShape := gradOutput.Shape()
	ndim := len(gradShape)

	outer := 1
	for i := 0; i < op.dim; i++ {
		outer *= gradShape[i]
	}
	inner := 1
	for i := op.dim + 1; i < ndim; i++ {
		inner *= gradShape[i]
	}

	totalDim := gradShape[op.dim]
	srcData := gradOutput.Data()
	elemSize := gradOutput.DType().Size()
	srcRow := totalDim * inner

	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, size := range op.sizes {
		sliceShape := gradShape.Clone()
		sliceShape[op.dim] = size

		grad, err := tensor.NewRaw(sliceShape, gradOutput.DType(), gradOutput.Device())
		if err != nil {
			panic(fmt.Sprintf("cat backward: %v", err))
		}

		dstData := grad.Data()
		dstRow := size * inner
		for o := 0; o < outer; o++ {
			srcStart := (o*srcRow + offset*inner) * elemSize
			dstStart := o * dstRow * elemSize
			copy(dstData[dstStart:dstStart+dstRow*elemSize], srcData[srcStart:srcStart+dstRow*elemSize])
		}

		grads[i] = grad
		offset += size
	}

	return grads
}
