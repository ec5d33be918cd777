package nn

import (
	"math"
	"math/rand"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// Xavier initializes weights from the Glorot uniform distribution:
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))). It keeps
// activation variance roughly constant across layers.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return Uniform[B](shape, float32(bound), backend)
}

// Uniform initializes weights from U(-bound, bound).
//
// Recurrent layers conventionally use bound = 1/sqrt(hiddenSize) so
// every gate matrix starts in the same range.
func Uniform[B tensor.Backend](shape tensor.Shape, bound float32, backend B) *tensor.Tensor[float32, B] {
	t, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	data := t.AsFloat32()
	for i := range data {
		//nolint:gosec // math/rand is appropriate for weight initialization
		data[i] = float32(rand.Float64()*2.0-1.0) * bound
	}

	return tensor.New[float32, B](t, backend)
}

// Zeros creates a zero-filled tensor. Commonly used for biases.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// Randn creates a tensor with values from N(0, 1).
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, backend)
}
