package train

import "math"

// plateauSchedule decays the learning rate when validation loss stops
// improving. Improvement is strict: matching the best loss exactly
// still counts as a plateau and triggers a decay.
type plateauSchedule struct {
	best   float64
	lr     float32
	factor float32
}

func newPlateauSchedule(lr, factor float32) *plateauSchedule {
	return &plateauSchedule{
		best:   math.Inf(1),
		lr:     lr,
		factor: factor,
	}
}

// observe feeds one epoch's validation loss into the schedule. On
// improvement the best value is recorded and the rate is untouched;
// otherwise the rate is multiplied by the decay factor. Returns whether
// the loss improved.
func (p *plateauSchedule) observe(valLoss float64) bool {
	if valLoss < p.best {
		p.best = valLoss
		return true
	}
	p.lr *= p.factor
	return false
}
