package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlateauSchedule_FirstObservationImproves(t *testing.T) {
	s := newPlateauSchedule(20, 0.25)

	assert.True(t, s.observe(5.0))
	assert.Equal(t, float32(20), s.lr)
	assert.Equal(t, 5.0, s.best)
}

func TestPlateauSchedule_StrictImprovementRequired(t *testing.T) {
	s := newPlateauSchedule(20, 0.25)
	s.observe(5.0)

	// Equal loss is a plateau, not an improvement.
	assert.False(t, s.observe(5.0))
	assert.Equal(t, float32(5), s.lr)
	assert.Equal(t, 5.0, s.best)
}

func TestPlateauSchedule_DecayCompounds(t *testing.T) {
	s := newPlateauSchedule(16, 0.25)
	s.observe(3.0)

	assert.False(t, s.observe(4.0))
	assert.False(t, s.observe(3.5))
	assert.Equal(t, float32(1), s.lr) // 16 * 0.25 * 0.25
}

func TestPlateauSchedule_BestIsMonotone(t *testing.T) {
	s := newPlateauSchedule(1, 0.5)

	losses := []float64{9, 7, 8, 6, 6, 5, 10}
	prev := s.best
	for _, l := range losses {
		s.observe(l)
		assert.LessOrEqual(t, s.best, prev)
		prev = s.best
	}
	assert.Equal(t, 5.0, s.best)
}

func TestPlateauSchedule_ImprovementKeepsRate(t *testing.T) {
	s := newPlateauSchedule(8, 0.25)

	assert.True(t, s.observe(4.0))
	assert.True(t, s.observe(3.0))
	assert.True(t, s.observe(2.9))
	assert.Equal(t, float32(8), s.lr)
}
