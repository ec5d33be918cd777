// Package train drives truncated-BPTT language model training:
// hidden-state carry with per-window detachment, gradient clipping,
// perplexity logging and validation-driven learning rate decay.
package train

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/dataset"
	"github.com/fathom-ml/fathom/internal/model"
	"github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/internal/optim"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// Config is the immutable training configuration. It is read once at
// construction; nothing mutates it afterwards.
type Config struct {
	Epochs        int
	BatchSize     int
	EvalBatchSize int
	BPTT          int
	LR            float32
	Clip          float32 // global gradient norm bound, 0 disables
	LogInterval   int
	DecayFactor   float32 // LR multiplier on plateau, default 0.25
	Momentum      float32
}

// Result summarizes a completed run.
type Result struct {
	BestValLoss   float64
	TestLoss      float64
	TestEvaluated bool
	FinalLR       float32
	TotalTokens   int
	Elapsed       time.Duration
}

// Trainer owns the training loop state: model, optimizer, batchified
// corpus segments and the plateau schedule. A Trainer is driven by a
// single goroutine; parallelism lives inside the backend kernels.
type Trainer[B autodiff.BackwardCapable] struct {
	config    Config
	model     *model.LSTMLM[B]
	optimizer *optim.SGD[B]
	criterion *nn.CrossEntropyLoss[B]
	schedule  *plateauSchedule
	backend   B

	train *dataset.Stream
	valid *dataset.Stream
	test  *dataset.Stream

	out io.Writer
}

// New batchifies the corpus segments and prepares a Trainer. The train
// segment uses Config.BatchSize; valid and test use EvalBatchSize.
func New[B autodiff.BackwardCapable](config Config, m *model.LSTMLM[B], corpus *dataset.Corpus, backend B) (*Trainer[B], error) {
	if config.Epochs < 1 || config.BPTT < 1 || config.BatchSize < 1 {
		return nil, fmt.Errorf("train: invalid config: epochs=%d bptt=%d batch=%d",
			config.Epochs, config.BPTT, config.BatchSize)
	}
	if config.LR < 0 {
		return nil, fmt.Errorf("train: negative learning rate %g", config.LR)
	}
	if config.EvalBatchSize == 0 {
		config.EvalBatchSize = config.BatchSize
	}
	if config.DecayFactor == 0 {
		config.DecayFactor = 0.25
	}
	if config.LogInterval == 0 {
		config.LogInterval = 200
	}

	trainStream, err := dataset.Batchify(corpus.Train, config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("train segment: %w", err)
	}
	validStream, err := dataset.Batchify(corpus.Valid, config.EvalBatchSize)
	if err != nil {
		return nil, fmt.Errorf("valid segment: %w", err)
	}
	testStream, err := dataset.Batchify(corpus.Test, config.EvalBatchSize)
	if err != nil {
		return nil, fmt.Errorf("test segment: %w", err)
	}

	// NewSGD substitutes its own default for a zero rate; the schedule
	// and the optimizer must always report the same rate, so force the
	// configured value through.
	optimizer := optim.NewSGD(m.Parameters(), optim.SGDConfig{LR: config.LR, Momentum: config.Momentum}, backend)
	optimizer.SetLR(config.LR)

	return &Trainer[B]{
		config:    config,
		model:     m,
		optimizer: optimizer,
		criterion: nn.NewCrossEntropyLoss[B](),
		schedule:  newPlateauSchedule(config.LR, config.DecayFactor),
		backend:   backend,
		train:     trainStream,
		valid:     validStream,
		test:      testStream,
		out:       os.Stdout,
	}, nil
}

// SetOutput redirects log lines, primarily for tests.
func (t *Trainer[B]) SetOutput(w io.Writer) {
	t.out = w
}

// Run executes the configured number of epochs. After each epoch the
// validation segment is evaluated: on strict improvement the best loss
// is recorded and the test segment is evaluated and logged, otherwise
// the learning rate decays and the test evaluation is skipped. The
// context is checked once per batch; cancellation aborts the run.
func (t *Trainer[B]) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	start := time.Now()

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		epochStart := time.Now()
		tokens, err := t.runEpoch(ctx, epoch)
		result.TotalTokens += tokens
		if err != nil {
			return result, err
		}

		valLoss := t.evaluate(t.valid)
		t.logf("epoch %d | time %.2fs | valid loss %.4f | valid ppl %.2f",
			epoch, time.Since(epochStart).Seconds(), valLoss, perplexity(valLoss))

		if t.schedule.observe(valLoss) {
			result.BestValLoss = valLoss
			testLoss := t.evaluate(t.test)
			result.TestLoss = testLoss
			result.TestEvaluated = true
			t.logf("epoch %d | test loss %.4f | test ppl %.2f", epoch, testLoss, perplexity(testLoss))
		} else {
			t.optimizer.SetLR(t.schedule.lr)
			t.logf("epoch %d | no improvement | lr %.6f", epoch, t.schedule.lr)
		}
	}

	result.Elapsed = time.Since(start)
	result.FinalLR = t.optimizer.GetLR()
	t.logf("finished | epochs %d | tokens %d | tok/s %.0f",
		t.config.Epochs, result.TotalTokens, float64(result.TotalTokens)/result.Elapsed.Seconds())
	return result, nil
}

// runEpoch performs one pass over the training stream and returns the
// number of target tokens processed.
func (t *Trainer[B]) runEpoch(ctx context.Context, epoch int) (int, error) {
	t.model.Train()
	tape := t.backend.GetTape()
	tape.StartRecording()

	numBatches := t.train.NumBatches(t.config.BPTT)
	tokensPerBatch := t.config.BPTT * t.config.BatchSize
	state := t.model.InitState(t.config.BatchSize)

	var (
		totalTokens   int
		intervalLoss  float64
		intervalSince = time.Now()
	)

	for batch := 0; batch < numBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return totalTokens, fmt.Errorf("epoch %d interrupted: %w", epoch, err)
		}

		// The carry crosses window boundaries as values only. Detaching
		// here keeps gradients from flowing into the previous window
		// and bounds the tape to one window.
		state = state.Detach()
		tape.Clear()

		loss, next := t.step(batch, state)
		state = next

		intervalLoss += loss
		totalTokens += tokensPerBatch

		if (batch+1)%t.config.LogInterval == 0 {
			avg := intervalLoss / float64(t.config.LogInterval)
			elapsed := time.Since(intervalSince).Seconds()
			rate := float64(t.config.LogInterval*tokensPerBatch) / elapsed
			t.logf("epoch %d | batch %d/%d | lr %.6f | loss %.4f | ppl %.2f | tok/s %.0f",
				epoch, batch+1, numBatches, t.optimizer.GetLR(), avg, perplexity(avg), rate)
			intervalLoss = 0
			intervalSince = time.Now()
		}
	}

	return totalTokens, nil
}

// step runs forward, backward, clip and update for one window and
// returns the per-token mean loss plus the carried state.
func (t *Trainer[B]) step(batch int, state *nn.State[B]) (float64, *nn.State[B]) {
	input, target := t.train.Batch(batch, t.config.BPTT)

	inputT := mustFromSlice[int32](input, tensor.Shape{t.config.BPTT, t.config.BatchSize}, t.backend)
	targetT := mustFromSlice[int32](target, tensor.Shape{t.config.BPTT * t.config.BatchSize}, t.backend)

	logits, next := t.model.Forward(inputT, state)
	loss := t.criterion.Forward(logits, targetT)
	grads := autodiff.Backward(loss, t.backend)

	// The parameter update itself must not land on the tape.
	tape := t.backend.GetTape()
	tape.StopRecording()
	if t.config.Clip > 0 {
		optim.ClipGradNorm(t.model.Parameters(), grads, t.config.Clip)
	}
	t.optimizer.Step(grads)
	t.optimizer.ZeroGrad()
	tape.StartRecording()

	return float64(loss.Item()), next
}

// evaluate returns the per-token average loss over a segment. The
// model runs in eval mode with recording disabled; the hidden state is
// freshly zeroed for the segment and carried across its windows
// without detachment, since nothing is recorded.
func (t *Trainer[B]) evaluate(stream *dataset.Stream) float64 {
	t.model.Eval()
	defer t.model.Train()

	tape := t.backend.GetTape()
	tape.StopRecording()
	tape.Clear()
	defer tape.StartRecording()

	bptt := t.config.BPTT
	numBatches := stream.NumBatches(bptt)
	tokensPerBatch := bptt * stream.BatchSize()
	state := t.model.InitState(stream.BatchSize())

	var lossSum float64
	var tokens int
	for batch := 0; batch < numBatches; batch++ {
		input, target := stream.Batch(batch, bptt)
		inputT := mustFromSlice[int32](input, tensor.Shape{bptt, stream.BatchSize()}, t.backend)
		targetT := mustFromSlice[int32](target, tensor.Shape{tokensPerBatch}, t.backend)

		logits, next := t.model.Forward(inputT, state)
		state = next

		loss := t.criterion.Forward(logits, targetT)
		lossSum += float64(loss.Item()) * float64(tokensPerBatch)
		tokens += tokensPerBatch
	}

	if tokens == 0 {
		return math.Inf(1)
	}
	return lossSum / float64(tokens)
}

func (t *Trainer[B]) logf(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

// perplexity converts a mean cross-entropy loss to perplexity.
func perplexity(loss float64) float64 {
	return math.Exp(loss)
}

func mustFromSlice[T tensor.DType, B tensor.Backend](data []T, shape tensor.Shape, b B) *tensor.Tensor[T, B] {
	t, err := tensor.FromSlice[T, B](data, shape, b)
	if err != nil {
		panic(err)
	}
	return t
}
