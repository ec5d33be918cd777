package ops

import "github.com/fathom-ml/fathom/internal/tensor"

// TanhOp represents the hyperbolic tangent: output = tanh(x).
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *TanhOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *TanhOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the tanh gradient from the cached output:
// d(tanh(x))/dx = 1 - tanh²(x).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output

	ones := fullLike(out.Shape(), out.DType(), out.Device(), 1)
	derivative := backend.Sub(ones, backend.Mul(out, out))
	inputGrad := backend.Mul(outputGrad, derivative)

	return []*tensor.RawTensor{inputGrad}
}
