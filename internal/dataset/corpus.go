package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Corpus holds the three WikiText-2 segments encoded against a shared
// vocabulary built from the training segment only.
type Corpus struct {
	Vocab *Vocab
	Train []int32
	Valid []int32
	Test  []int32
}

// LoadWikiText2 reads wiki.{train,valid,test}.tokens from dir. Each
// line is whitespace-split into word tokens with an <eos> appended, the
// standard word-LM treatment of this corpus. The vocabulary comes from
// the training segment; valid/test tokens outside it map to <unk>.
func LoadWikiText2(dir string) (*Corpus, error) {
	train, err := readTokens(filepath.Join(dir, "wiki.train.tokens"))
	if err != nil {
		return nil, fmt.Errorf("loading train segment: %w", err)
	}
	valid, err := readTokens(filepath.Join(dir, "wiki.valid.tokens"))
	if err != nil {
		return nil, fmt.Errorf("loading valid segment: %w", err)
	}
	test, err := readTokens(filepath.Join(dir, "wiki.test.tokens"))
	if err != nil {
		return nil, fmt.Errorf("loading test segment: %w", err)
	}

	vocab := BuildVocab(train)
	return &Corpus{
		Vocab: vocab,
		Train: vocab.Encode(train),
		Valid: vocab.Encode(valid),
		Test:  vocab.Encode(test),
	}, nil
}

// readTokens splits a token file into words, one <eos> per line. Empty
// lines still contribute their <eos>, matching the reference treatment
// of the pre-tokenized files.
func readTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, strings.Fields(scanner.Text())...)
		tokens = append(tokens, EosToken)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%s: empty token file", path)
	}
	return tokens, nil
}
