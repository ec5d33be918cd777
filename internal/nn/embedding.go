package nn

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// Embedding is a lookup table mapping discrete token IDs to dense
// vectors. The table is a learnable parameter; gradients scatter-add
// into the rows the forward pass touched.
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // [NumEmbed, EmbedDim]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding layer with weights drawn from
// U(-bound, bound).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, bound float32, backend B) *Embedding[B] {
	weight := Uniform[B](tensor.Shape{numEmbeddings, embeddingDim}, bound, backend)

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// NewEmbeddingWithWeight creates an Embedding layer over a
// pre-initialized weight tensor [numEmbeddings, embeddingDim].
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter[B]("embedding.weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward maps indices of any shape S to embeddings of shape S + [EmbedDim].
// Panics if any index falls outside [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding weight.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
