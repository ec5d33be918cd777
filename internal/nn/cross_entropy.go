package nn

import (
	"fmt"
	"math"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// CrossEntropyBackend is implemented by backends that provide a fused
// cross-entropy kernel combining log-softmax and negative
// log-likelihood in one pass.
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes the mean negative log-likelihood of int32
// class targets under float32 logits [batch, classes]. The result is a
// scalar tensor.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a CrossEntropyLoss criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward returns the scalar mean loss. When the backend implements
// CrossEntropyBackend the fused kernel is used and the operation lands
// on the gradient tape; otherwise a host log-sum-exp fallback computes
// the value only.
func (cl *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross entropy expects 2D logits, got shape %v", shape))
	}
	if targets.NumElements() != shape[0] {
		panic(fmt.Sprintf("cross entropy batch mismatch: %d logits rows, %d targets",
			shape[0], targets.NumElements()))
	}

	backend := logits.Backend()
	if ceb, ok := any(backend).(CrossEntropyBackend); ok {
		return tensor.New[float32, B](ceb.CrossEntropy(logits.Raw(), targets.Raw()), backend)
	}

	return hostCrossEntropy(logits, targets)
}

// hostCrossEntropy evaluates the loss on the host with the usual
// max-shifted log-sum-exp. It produces no gradient record and exists
// for backends without the fused kernel.
func hostCrossEntropy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	batch, classes := shape[0], shape[1]
	data := logits.Raw().AsFloat32()
	tgt := targets.Raw().AsInt32()

	var total float64
	for row := 0; row < batch; row++ {
		t := int(tgt[row])
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("cross entropy target %d out of range [0, %d)", t, classes))
		}
		logitRow := data[row*classes : (row+1)*classes]

		maxVal := logitRow[0]
		for _, v := range logitRow[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range logitRow {
			sumExp += math.Exp(float64(v - maxVal))
		}
		total += float64(maxVal) + math.Log(sumExp) - float64(logitRow[t])
	}

	out, err := tensor.NewRaw(tensor.Shape{}, tensor.Float32, logits.Raw().Device())
	if err != nil {
		panic(err)
	}
	out.AsFloat32()[0] = float32(total / float64(batch))
	return tensor.New[float32, B](out, logits.Backend())
}
