package nn

import (
	"math"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// SigmoidBackend is implemented by backends that provide a fused
// sigmoid kernel.
type SigmoidBackend interface {
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends that provide a fused tanh
// kernel.
type TanhBackend interface {
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// Sigmoid applies the logistic function 1/(1+exp(-x)) elementwise.
//
// When the backend implements SigmoidBackend the fused kernel is used,
// which keeps the operation on the gradient tape. Otherwise the result
// is computed on the host.
func Sigmoid[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if sb, ok := any(backend).(SigmoidBackend); ok {
		return tensor.New[float32, B](sb.Sigmoid(x.Raw()), backend)
	}

	out := hostUnary(x.Raw(), func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(-float64(v))))
	})
	return tensor.New[float32, B](out, backend)
}

// Tanh applies the hyperbolic tangent elementwise. Backend fused
// kernels are preferred for the same reason as Sigmoid.
func Tanh[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := x.Backend()

	if tb, ok := any(backend).(TanhBackend); ok {
		return tensor.New[float32, B](tb.Tanh(x.Raw()), backend)
	}

	out := hostUnary(x.Raw(), func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
	return tensor.New[float32, B](out, backend)
}

func hostUnary(raw *tensor.RawTensor, fn func(float32) float32) *tensor.RawTensor {
	out, err := tensor.NewRaw(raw.Shape().Clone(), raw.DType(), raw.Device())
	if err != nil {
		panic(err)
	}
	in := raw.AsFloat32()
	dst := out.AsFloat32()
	for i, v := range in {
		dst[i] = fn(v)
	}
	return out
}
