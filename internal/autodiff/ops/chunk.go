package ops

import "github.com/fathom-ml/fathom/internal/tensor"

// ChunkOp represents a split into n equal parts along one dimension.
//
// Backward: concatenate the gradients of all chunks back along the same
// dimension. The tape fills missing chunk gradients with zeros before
// calling BackwardMulti.
type ChunkOp struct {
	input   *tensor.RawTensor
	n       int
	dim     int // normalized split dimension
	outputs []*tensor.RawTensor
}

// NewChunkOp creates a new ChunkOp. dim must already be normalized.
func NewChunkOp(input *tensor.RawTensor, n, dim int, outputs []*tensor.RawTensor) *ChunkOp {
	return &ChunkOp{
		input:   input,
		n:       n,
		dim:     dim,
		outputs: outputs,
	}
}

// Inputs returns the input tensor.
func (op *ChunkOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the first chunk. The tape detects the
// MultiOutputOperation interface and uses Outputs instead.
func (op *ChunkOp) Output() *tensor.RawTensor {
	return op.outputs[0]
}

// Outputs returns all chunk tensors.
func (op *ChunkOp) Outputs() []*tensor.RawTensor {
	return op.outputs
}

// Backward is unusable for multi-output operations; the tape must call
// BackwardMulti with gradients for every chunk.
func (op *ChunkOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	panic("ChunkOp.Backward: multi-output operations require BackwardMulti")
}

// BackwardMulti concatenates all chunk gradients back together.
func (op *ChunkOp) BackwardMulti(gradOutputs []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if len(gradOutputs) != op.n {
		panic("ChunkOp.BackwardMulti: expected n gradients for n outputs")
	}

	gradInput := backend.Cat(gradOutputs, op.dim)
	return []*tensor.RawTensor{gradInput}
}
