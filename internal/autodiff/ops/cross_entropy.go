package ops

import (
	"fmt"
	"math"

	"github.com/fathom-ml/fathom/internal/parallel"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// CrossEntropyOp represents fused softmax + negative log-likelihood.
//
// Forward:
//
//	Loss = mean(-log_softmax(logits)[targets])
//
// log_softmax uses the log-sum-exp trick for numerical stability.
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// Logits are [batch_size, num_classes], targets are int32 [batch_size],
// and the output is a scalar mean loss.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns the differentiable inputs. Targets are class indices
// and carry no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes ∂L/∂logits = gradScale * (softmax - one_hot) / batch.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logitsShape := op.logits.Shape()
	if len(logitsShape) != 2 {
		panic("cross entropy backward: logits must be 2D [batch_size, num_classes]")
	}

	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	logitsGrad, err := tensor.NewRaw(logitsShape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross entropy backward: %v", err))
	}

	targets := op.targets.AsInt32()

	switch op.logits.DType() {
	case tensor.Float32:
		crossEntropyGrad(op.logits.AsFloat32(), targets, logitsGrad.AsFloat32(),
			float64(outputGrad.AsFloat32()[0]), batchSize, numClasses)
	case tensor.Float64:
		crossEntropyGrad(op.logits.AsFloat64(), targets, logitsGrad.AsFloat64(),
			outputGrad.AsFloat64()[0], batchSize, numClasses)
	default:
		panic(fmt.Sprintf("cross entropy backward: unsupported dtype %s", op.logits.DType()))
	}

	return []*tensor.RawTensor{logitsGrad}
}

func crossEntropyGrad[T ~float32 | ~float64](logits []T, targets []int32, grad []T, gradScale float64, batchSize, numClasses int) {
	scale := T(gradScale) / T(batchSize)
	parallel.For(batchSize, func(b int) {
		row := logits[b*numClasses : (b+1)*numClasses]
		gradRow := grad[b*numClasses : (b+1)*numClasses]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}

		target := int(targets[b])
		for i, v := range row {
			prob := T(math.Exp(float64(v-maxVal)) / sumExp)
			if i == target {
				prob -= 1
			}
			gradRow[i] = scale * prob
		}
	}, parallel.DefaultConfig())
}

// CrossEntropyForward computes the mean negative log-likelihood loss.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	logitsShape := logits.Shape()
	if len(logitsShape) != 2 {
		panic("cross entropy: logits must be 2D [batch_size, num_classes]")
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != logitsShape[0] {
		panic(fmt.Sprintf("cross entropy: targets shape %v does not match logits batch %d",
			targets.Shape(), logitsShape[0]))
	}

	batchSize := logitsShape[0]
	numClasses := logitsShape[1]

	output, err := tensor.NewRaw(tensor.Shape{}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("cross entropy: %v", err))
	}

	targetsData := targets.AsInt32()

	switch logits.DType() {
	case tensor.Float32:
		output.AsFloat32()[0] = crossEntropyLoss(logits.AsFloat32(), targetsData, batchSize, numClasses)
	case tensor.Float64:
		output.AsFloat64()[0] = crossEntropyLoss(logits.AsFloat64(), targetsData, batchSize, numClasses)
	default:
		panic(fmt.Sprintf("cross entropy: unsupported dtype %s", logits.DType()))
	}

	return output
}

func crossEntropyLoss[T ~float32 | ~float64](logits []T, targets []int32, batchSize, numClasses int) T {
	losses := make([]float64, batchSize)
	parallel.For(batchSize, func(b int) {
		row := logits[b*numClasses : (b+1)*numClasses]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sumExp)

		target := int(targets[b])
		if target < 0 || target >= numClasses {
			panic(fmt.Sprintf("cross entropy: target %d out of range [0, %d)", target, numClasses))
		}
		losses[b] = logSumExp - float64(row[target])
	}, parallel.DefaultConfig())

	var total float64
	for _, l := range losses {
		total += l
	}
	return T(total / float64(batchSize))
}
