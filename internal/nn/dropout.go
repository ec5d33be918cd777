package nn

import (
	"fmt"
	"math/rand"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// Dropout zeroes each element independently with probability p during
// training and scales the survivors by 1/(1-p), so activations keep
// the same expected magnitude at eval time without any rescaling.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
	backend  B
	rng      *rand.Rand
}

// NewDropout creates a Dropout layer with drop probability p in [0, 1).
// The layer starts in training mode.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("dropout probability must be in [0, 1), got %v", p))
	}

	return &Dropout[B]{
		p:        p,
		training: true,
		backend:  backend,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// SetTraining switches between training mode (mask applied) and eval
// mode (identity).
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the layer is in training mode.
func (d *Dropout[B]) Training() bool {
	return d.training
}

// Forward applies the dropout mask. In eval mode, or when p is zero,
// the input is returned unchanged.
//
// The mask is sampled on the host and applied with an elementwise
// multiply so the operation participates in autodiff like any other
// product.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return x
	}

	raw, err := tensor.NewRaw(x.Shape().Clone(), tensor.Float32, x.Raw().Device())
	if err != nil {
		panic(err)
	}

	scale := 1 / (1 - d.p)
	mask := raw.AsFloat32()
	for i := range mask {
		if d.rng.Float32() >= d.p {
			mask[i] = scale
		}
	}

	return x.Mul(tensor.New[float32, B](raw, d.backend))
}

// Parameters returns nil; dropout has no learnable state.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
