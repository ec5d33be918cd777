package ops

import "github.com/fathom-ml/fathom/internal/tensor"

// SigmoidOp represents the logistic sigmoid: output = 1 / (1 + exp(-x)).
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SigmoidOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SigmoidOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the sigmoid gradient from the cached output:
// dσ/dx = σ(x) * (1 - σ(x)).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output

	ones := fullLike(out.Shape(), out.DType(), out.Device(), 1)
	derivative := backend.Mul(out, backend.Sub(ones, out))
	inputGrad := backend.Mul(outputGrad, derivative)

	return []*tensor.RawTensor{inputGrad}
}
