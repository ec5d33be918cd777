package ops

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// EmbeddingOp represents an embedding lookup: output[i] = weight[indices[i]].
//
// Backward is a scatter-add: each output row's gradient is accumulated
// into the weight row its index selected. Repeated indices sum.
type EmbeddingOp struct {
	weight  *tensor.RawTensor // [numEmbeddings, embeddingDim]
	indices *tensor.RawTensor // int32 indices
	output  *tensor.RawTensor
}

// NewEmbeddingOp creates a new EmbeddingOp.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Inputs returns the differentiable inputs. Indices are integers and
// carry no gradient.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.weight}
}

// Output returns the output tensor.
func (op *EmbeddingOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatter-adds the output gradient into the weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	weightShape := op.weight.Shape()
	numEmbeddings := weightShape[0]
	embeddingDim := weightShape[1]

	gradWeight, err := tensor.NewRaw(weightShape, op.weight.DType(), op.weight.Device())
	if err != nil {
		panic(fmt.Sprintf("embedding backward: %v", err))
	}

	indicesData := op.indices.AsInt32()

	switch op.weight.DType() {
	case tensor.Float32:
		scatterAdd(gradWeight.AsFloat32(), outputGrad.AsFloat32(), indicesData, numEmbeddings, embeddingDim)
	case tensor.Float64:
		scatterAdd(gradWeight.AsFloat64(), outputGrad.AsFloat64(), indicesData, numEmbeddings, embeddingDim)
	default:
		panic(fmt.Sprintf("embedding backward: unsupported dtype %s", op.weight.DType()))
	}

	return []*tensor.RawTensor{gradWeight}
}

func scatterAdd[T ~float32 | ~float64](gradWeight, gradOutput []T, indices []int32, numEmbeddings, dim int) {
	for i, id := range indices {
		idx := int(id)
		if idx < 0 || idx >= numEmbeddings {
			panic(fmt.Sprintf("embedding backward: index %d out of range [0, %d)", idx, numEmbeddings))
		}
		src := gradOutput[i*dim : (i+1)*dim]
		dst := gradWeight[idx*dim : (idx+1)*dim]
		for j, v := range src {
			dst[j] += v
		}
	}
}
