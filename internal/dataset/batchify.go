package dataset

import "fmt"

// Stream is a token sequence reshaped into batchSize parallel
// sub-streams for truncated BPTT. Inputs and targets are laid out
// time-major ([steps, batchSize] row-major), so one row is one time
// step across every sub-stream and the target row is the input row
// advanced by one token.
//
// Tokens past the last full step are discarded; within an epoch the
// batch order is fixed, so batch counts are deterministic for a given
// corpus and geometry.
type Stream struct {
	batchSize int
	steps     int
	inputs    []int32
	targets   []int32
}

// Batchify reshapes ids into a Stream of batchSize sub-streams. The
// shift by one token for targets happens before trimming, so every
// retained input position has a target and no window needs a partial
// row. When batchSize divides len(ids) exactly this keeps one step
// fewer than len(ids)/batchSize; the final step's last target would
// otherwise index one past the end of the sequence.
func Batchify(ids []int32, batchSize int) (*Stream, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("batchify: batch size must be positive, got %d", batchSize)
	}
	steps := (len(ids) - 1) / batchSize
	if steps < 1 {
		return nil, fmt.Errorf("batchify: %d tokens cannot fill one step of %d streams", len(ids), batchSize)
	}

	// Sub-stream j reads the contiguous span ids[j*steps : (j+1)*steps].
	// Transpose into time-major order so row t holds step t of every
	// sub-stream.
	inputs := make([]int32, steps*batchSize)
	targets := make([]int32, steps*batchSize)
	for j := 0; j < batchSize; j++ {
		for t := 0; t < steps; t++ {
			inputs[t*batchSize+j] = ids[j*steps+t]
			targets[t*batchSize+j] = ids[j*steps+t+1]
		}
	}

	return &Stream{
		batchSize: batchSize,
		steps:     steps,
		inputs:    inputs,
		targets:   targets,
	}, nil
}

// BatchSize returns the number of parallel sub-streams.
func (s *Stream) BatchSize() int {
	return s.batchSize
}

// Steps returns the number of full time steps available.
func (s *Stream) Steps() int {
	return s.steps
}

// NumBatches returns how many full windows of length bptt fit in the
// stream. Trailing steps that cannot fill a window are discarded.
func (s *Stream) NumBatches(bptt int) int {
	if bptt < 1 {
		panic(fmt.Sprintf("batchify: bptt must be positive, got %d", bptt))
	}
	return s.steps / bptt
}

// Batch returns the i-th window as (input, target) slices of length
// bptt*batchSize in time-major order. The slices alias the stream's
// storage; callers must treat them as read-only.
func (s *Stream) Batch(i, bptt int) (input, target []int32) {
	n := s.NumBatches(bptt)
	if i < 0 || i >= n {
		panic(fmt.Sprintf("batchify: batch %d out of range [0, %d)", i, n))
	}
	lo := i * bptt * s.batchSize
	hi := lo + bptt*s.batchSize
	return s.inputs[lo:hi], s.targets[lo:hi]
}
