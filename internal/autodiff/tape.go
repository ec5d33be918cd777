package autodiff

import (
	"github.com/fathom-ml/fathom/internal/autodiff/ops"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients by walking the recorded operations in reverse.
type GradientTape struct {
	operations []ops.Operation // in execution order
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether the tape is currently recording.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. Recording state is preserved so
// training loops can Clear after every optimizer step without
// re-enabling recording.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward walks the tape in reverse, applying the chain rule.
//
// The returned map holds the accumulated gradient for every tensor
// that gradient flowed to, keyed by RawTensor identity. A tensor used
// by several operations accumulates the sum of its partial gradients.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if len(t.operations) == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}

	// Gradient math must not append to the tape being walked.
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)

	lastOp := t.operations[len(t.operations)-1]
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]

		var inputGrads []*tensor.RawTensor
		if multiOp, ok := op.(ops.MultiOutputOperation); ok {
			inputGrads = t.multiOutputGrads(multiOp, grads, backend)
		} else if outGrad, ok := grads[op.Output()]; ok {
			inputGrads = op.Backward(outGrad, backend)
		}
		if inputGrads == nil {
			continue
		}

		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}

// multiOutputGrads collects gradients for every output of a
// multi-output operation, filling unused outputs with zeros. Returns
// nil when no output received any gradient.
func (t *GradientTape) multiOutputGrads(
	multiOp ops.MultiOutputOperation,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) []*tensor.RawTensor {
	outputs := multiOp.Outputs()
	outputGrads := make([]*tensor.RawTensor, len(outputs))

	hasAnyGrad := false
	for j, out := range outputs {
		if grad, ok := grads[out]; ok {
			outputGrads[j] = grad
			hasAnyGrad = true
		}
	}
	if !hasAnyGrad {
		return nil
	}

	for j, out := range outputs {
		if outputGrads[j] != nil {
			continue
		}
		zeroGrad, err := tensor.NewRaw(out.Shape(), out.DType(), backend.Device())
		if err != nil {
			continue
		}
		outputGrads[j] = zeroGrad
	}

	return multiOp.BackwardMulti(outputGrads, backend)
}
