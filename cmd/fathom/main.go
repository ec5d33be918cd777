// Command fathom trains a word-level LSTM language model on the
// WikiText-2 corpus (or any raw text file via BPE) and reports
// validation/test perplexity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/dataset"
	"github.com/fathom-ml/fathom/internal/model"
	"github.com/fathom-ml/fathom/internal/train"
)

type backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func main() {
	dataDir := flag.String("data", "./data/wikitext-2", "Directory containing wiki.{train,valid,test}.tokens")
	rawFile := flag.String("raw", "", "Raw text file to BPE-encode instead of WikiText-2")
	encoding := flag.String("encoding", "r50k_base", "tiktoken encoding for -raw corpora")
	preset := flag.String("model", "200", "Model preset: 200, 650 or 1500")
	epochs := flag.Int("epochs", 6, "Number of training epochs")
	batchSize := flag.Int("batch", 64, "Training batch size")
	evalBatchSize := flag.Int("eval-batch", 10, "Evaluation batch size")
	bptt := flag.Int("bptt", 35, "Truncation window length")
	lr := flag.Float64("lr", 20, "Initial SGD learning rate")
	momentum := flag.Float64("momentum", 0, "SGD momentum")
	clip := flag.Float64("clip", 0.25, "Global gradient norm bound (0 disables)")
	decay := flag.Float64("decay", 0.25, "LR decay factor on validation plateau")
	logInterval := flag.Int("log-interval", 200, "Batches between log lines")
	flag.Parse()

	b := autodiff.New(cpu.New())

	corpus, err := loadCorpus(*dataDir, *rawFile, *encoding)
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}

	vocabSize := corpus.Vocab.Len()
	fmt.Printf("Corpus: train %d / valid %d / test %d tokens, vocab %d\n",
		len(corpus.Train), len(corpus.Valid), len(corpus.Test), vocabSize)

	config, err := presetConfig(*preset, vocabSize)
	if err != nil {
		log.Fatalf("%v", err)
	}

	m, err := model.NewLSTMLM[backend](config, b)
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}
	fmt.Printf("Model: %d layers x %d hidden, embedding %d, dropout %.2f\n",
		config.NumLayers, config.HiddenSize, config.EmbedDim, config.Dropout)

	trainer, err := train.New(train.Config{
		Epochs:        *epochs,
		BatchSize:     *batchSize,
		EvalBatchSize: *evalBatchSize,
		BPTT:          *bptt,
		LR:            float32(*lr),
		Momentum:      float32(*momentum),
		Clip:          float32(*clip),
		DecayFactor:   float32(*decay),
		LogInterval:   *logInterval,
	}, m, corpus, b)
	if err != nil {
		log.Fatalf("Failed to configure trainer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := trainer.Run(ctx)
	if err != nil {
		log.Fatalf("Training aborted: %v", err)
	}

	fmt.Printf("Best valid loss %.4f", result.BestValLoss)
	if result.TestEvaluated {
		fmt.Printf(" | test loss %.4f", result.TestLoss)
	}
	fmt.Println()
}

// loadCorpus reads WikiText-2 by default; with -raw it BPE-encodes a
// single text file and splits it 80/10/10 into segments sharing the
// encoding's vocabulary.
func loadCorpus(dataDir, rawFile, encoding string) (*dataset.Corpus, error) {
	if rawFile == "" {
		return dataset.LoadWikiText2(dataDir)
	}

	ids, vocabSize, err := dataset.EncodeFile(rawFile, encoding)
	if err != nil {
		return nil, err
	}

	trainEnd := len(ids) * 8 / 10
	validEnd := trainEnd + len(ids)/10
	return &dataset.Corpus{
		Vocab: dataset.FixedVocab(vocabSize),
		Train: ids[:trainEnd],
		Valid: ids[trainEnd:validEnd],
		Test:  ids[validEnd:],
	}, nil
}

func presetConfig(preset string, vocabSize int) (model.LSTMLMConfig, error) {
	switch preset {
	case "200":
		return model.StandardLSTM200(vocabSize), nil
	case "650":
		return model.StandardLSTM650(vocabSize), nil
	case "1500":
		return model.StandardLSTM1500(vocabSize), nil
	default:
		return model.LSTMLMConfig{}, fmt.Errorf("unknown model preset %q (want 200, 650 or 1500)", preset)
	}
}
