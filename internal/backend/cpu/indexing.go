package cpu

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// Embedding gathers rows of weight indexed by indices.
//
// weight has shape [V, D]; indices is an Int32 tensor of arbitrary
// shape S. The result has shape S + [D], one embedding row per index.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [vocab, dim], got %v", wShape))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}

	vocab, dim := wShape[0], wShape[1]
	outShape := append(indices.Shape().Clone(), dim)
	result := mustNewRaw("embedding", outShape, weight.DType(), cpu.device)

	idx := indices.AsInt32()

	switch weight.DType() {
	case tensor.Float32:
		embeddingKernel(result.AsFloat32(), weight.AsFloat32(), idx, vocab, dim)
	case tensor.Float64:
		embeddingKernel(result.AsFloat64(), weight.AsFloat64(), idx, vocab, dim)
	default:
		panic(fmt.Sprintf("embedding: unsupported weight dtype %s", weight.DType()))
	}

	return result
}

func embeddingKernel[T number](dst, weight []T, idx []int32, vocab, dim int) {
	for i, id := range idx {
		if id < 0 || int(id) >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", id, vocab))
		}
		copy(dst[i*dim:(i+1)*dim], weight[int(id)*dim:(int(id)+1)*dim])
	}
}
