package optim

import (
	"math"

	"github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// ClipGradNorm rescales the parameters' gradients in place so their
// joint global L2 norm does not exceed maxNorm, and returns the norm
// measured before clipping.
//
// The norm is taken over the concatenation of every parameter
// gradient, not per tensor. The gradient map also carries entries for
// intermediate tensors; only the listed parameters' gradients count and
// are scaled. When the total norm is already within maxNorm nothing is
// modified.
func ClipGradNorm[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float32) float32 {
	var sumSq float64
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		for _, v := range grad.AsFloat32() {
			sumSq += float64(v) * float64(v)
		}
	}

	totalNorm := math.Sqrt(sumSq)
	if totalNorm <= float64(maxNorm) {
		return float32(totalNorm)
	}

	scale := float32(float64(maxNorm) / (totalNorm + 1e-6))
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		data := grad.AsFloat32()
		for i := range data {
			data[i] *= scale
		}
	}

	return float32(totalNorm)
}
