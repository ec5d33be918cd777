package train

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/dataset"
	"github.com/fathom-ml/fathom/internal/model"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// synthCorpus builds a small deterministic corpus over a handful of
// words, big enough for a few BPTT windows per segment.
func synthCorpus(t *testing.T) *dataset.Corpus {
	t.Helper()

	words := []string{"the", "quick", "brown", "fox", "jumps"}
	var tokens []string
	for i := 0; i < 60; i++ {
		tokens = append(tokens, words[i%len(words)])
	}
	vocab := dataset.BuildVocab(tokens)

	segment := func(n int) []int32 {
		ids := make([]int32, n)
		for i := range ids {
			ids[i] = vocab.ID(words[i%len(words)])
		}
		return ids
	}

	return &dataset.Corpus{
		Vocab: vocab,
		Train: segment(60),
		Valid: segment(30),
		Test:  segment(30),
	}
}

func newTestTrainer(t *testing.T, config Config) (*Trainer[testBackend], *bytes.Buffer) {
	t.Helper()

	backend := autodiff.New(cpu.New())
	corpus := synthCorpus(t)

	m, err := model.NewLSTMLM[testBackend](model.LSTMLMConfig{
		VocabSize:  corpus.Vocab.Len(),
		EmbedDim:   8,
		HiddenSize: 8,
		NumLayers:  1,
		Dropout:    0,
	}, backend)
	require.NoError(t, err)

	trainer, err := New(config, m, corpus, backend)
	require.NoError(t, err)

	var buf bytes.Buffer
	trainer.SetOutput(&buf)
	return trainer, &buf
}

func TestTrainer_RunProcessesEveryWindow(t *testing.T) {
	trainer, _ := newTestTrainer(t, Config{
		Epochs:      2,
		BatchSize:   2,
		BPTT:        4,
		LR:          0.1,
		Clip:        0.25,
		LogInterval: 2,
	})

	result, err := trainer.Run(context.Background())
	require.NoError(t, err)

	// steps = (60-1)/2 = 29, batches = 29/4 = 7, tokens = 7*4*2 per epoch.
	assert.Equal(t, 7, trainer.train.NumBatches(4))
	assert.Equal(t, 2*7*4*2, result.TotalTokens)
	assert.True(t, result.TestEvaluated)
	assert.False(t, math.IsNaN(result.BestValLoss))
	assert.Greater(t, result.BestValLoss, 0.0)
}

func TestTrainer_PlateauDecaysAndSkipsTestEval(t *testing.T) {
	// A zero learning rate freezes the parameters, so the second
	// epoch's validation loss exactly matches the first. Strict
	// comparison treats that as a plateau.
	trainer, buf := newTestTrainer(t, Config{
		Epochs:      2,
		BatchSize:   2,
		BPTT:        4,
		LR:          0,
		LogInterval: 100,
	})

	_, err := trainer.Run(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "test loss"), "test eval must run only on improvement:\n%s", out)
	assert.Contains(t, out, "no improvement")
}

func TestTrainer_ImprovementKeepsLR(t *testing.T) {
	trainer, _ := newTestTrainer(t, Config{
		Epochs:      1,
		BatchSize:   2,
		BPTT:        4,
		LR:          0.5,
		LogInterval: 100,
	})

	result, err := trainer.Run(context.Background())
	require.NoError(t, err)

	// One epoch always improves on +Inf, so the LR is untouched.
	assert.Equal(t, float32(0.5), result.FinalLR)
	assert.True(t, result.TestEvaluated)
}

func TestTrainer_ContextCancellation(t *testing.T) {
	trainer, _ := newTestTrainer(t, Config{
		Epochs:      1,
		BatchSize:   2,
		BPTT:        4,
		LR:          0.1,
		LogInterval: 100,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := trainer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainer_EvaluateIsRepeatable(t *testing.T) {
	trainer, _ := newTestTrainer(t, Config{
		Epochs:      1,
		BatchSize:   2,
		BPTT:        4,
		LR:          0.1,
		LogInterval: 100,
	})

	// Fresh zero state per call and no dropout: identical results.
	first := trainer.evaluate(trainer.valid)
	second := trainer.evaluate(trainer.valid)
	assert.Equal(t, first, second)

	// Evaluation must leave no operations behind on the tape.
	assert.Zero(t, trainer.backend.GetTape().NumOps())
}

func TestNew_ZeroLRReachesOptimizer(t *testing.T) {
	// A zero configured rate must not be replaced by the optimizer's
	// own default; the schedule and the optimizer track the same rate.
	trainer, _ := newTestTrainer(t, Config{
		Epochs:    1,
		BatchSize: 2,
		BPTT:      4,
		LR:        0,
	})

	assert.Zero(t, trainer.optimizer.GetLR())
	assert.Equal(t, trainer.schedule.lr, trainer.optimizer.GetLR())
}

func TestNew_ConfigDefaultsAndValidation(t *testing.T) {
	trainer, _ := newTestTrainer(t, Config{
		Epochs:    1,
		BatchSize: 2,
		BPTT:      4,
		LR:        1,
	})
	assert.Equal(t, float32(0.25), trainer.config.DecayFactor)
	assert.Equal(t, 2, trainer.valid.BatchSize())

	backend := autodiff.New(cpu.New())
	m, err := model.NewLSTMLM[testBackend](model.LSTMLMConfig{
		VocabSize: 10, EmbedDim: 4, HiddenSize: 4, NumLayers: 1,
	}, backend)
	require.NoError(t, err)

	_, err = New(Config{Epochs: 0, BatchSize: 2, BPTT: 4}, m, synthCorpus(t), backend)
	assert.Error(t, err)

	_, err = New(Config{Epochs: 1, BatchSize: 2, BPTT: 4, LR: -1}, m, synthCorpus(t), backend)
	assert.Error(t, err)
}
