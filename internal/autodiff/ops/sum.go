package ops

import "github.com/fathom-ml/fathom/internal/tensor"

// SumOp represents a full reduction to scalar: output = sum(x).
//
// Backward: every element contributed with weight 1, so the scalar
// output gradient is broadcast uniformly over the input shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Backward fills the input gradient with the scalar output gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.input
	inputGrad := fullLike(x.Shape(), x.DType(), x.Device(), scalarValue(outputGrad))
	return []*tensor.RawTensor{inputGrad}
}

// Inputs returns the input tensors.
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}
