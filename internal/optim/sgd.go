package optim

import (
	"github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend    B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // learning rate (default 0.01)
	Momentum float32 // momentum factor in [0, 1), 0 disables
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}

// Step performs a single optimization step. Parameters with no entry in
// the gradient map are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		update := tensor.New[float32, B](grad, s.backend)
		if s.momentum != 0 {
			update = s.advanceVelocity(param, update)
		}

		// The parameter buffer is shared with the owning module, so the
		// update is written into it directly regardless of how many
		// handles alias it.
		buf := param.Tensor().Raw().AsFloat32()
		for i, v := range update.Raw().AsFloat32() {
			buf[i] -= s.lr * v
		}
	}
}

// advanceVelocity folds the new gradient into the parameter's velocity
// buffer and returns the updated velocity.
func (s *SGD[B]) advanceVelocity(param *nn.Parameter[B], grad *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	velocity, ok := s.velocities[param]
	if !ok {
		velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		s.velocities[param] = velocity
	}

	next := velocity.MulScalar(s.momentum).Add(grad)
	copy(velocity.Raw().AsFloat32(), next.Raw().AsFloat32())
	return velocity
}

// ZeroGrad clears the gradients of all managed parameters.
func (s *SGD[B]) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate, used by plateau schedules.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
