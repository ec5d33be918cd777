package dataset

import (
	"fmt"
	"os"

	"github.com/pkoukk/tiktoken-go"
)

// Known tiktoken vocabulary sizes; the library does not expose them.
var encodingVocabSizes = map[string]int{
	"cl100k_base": 100256,
	"p50k_base":   50257,
	"r50k_base":   50257,
}

// EncodeFile encodes a raw (non-pretokenized) text file with a tiktoken
// BPE encoding and returns the token ids plus the encoding's vocabulary
// size. This is the corpus path for plain-text datasets; pre-tokenized
// corpora go through LoadWikiText2 instead.
func EncodeFile(path, encodingName string) ([]int32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, 0, fmt.Errorf("loading tiktoken encoding %q: %w", encodingName, err)
	}

	tokens := encoding.Encode(string(data), nil, nil)
	if len(tokens) == 0 {
		return nil, 0, fmt.Errorf("%s: no tokens produced", path)
	}

	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = int32(tok) //nolint:gosec // G115: BPE vocab sizes fit in int32.
	}

	vocabSize, ok := encodingVocabSizes[encodingName]
	if !ok {
		// Fall back to the observed id range.
		maxID := int32(0)
		for _, id := range ids {
			if id > maxID {
				maxID = id
			}
		}
		vocabSize = int(maxID) + 1
	}

	return ids, vocabSize, nil
}
