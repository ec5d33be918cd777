// Package dataset loads word-level language modeling corpora and
// reshapes them into fixed-size batches for truncated BPTT training.
package dataset

import (
	"fmt"
	"sort"
)

// Reserved vocabulary entries. Unknown is the fallback for tokens
// absent from the training segment; EOS marks line boundaries.
const (
	UnkToken = "<unk>"
	EosToken = "<eos>"

	UnkID int32 = 0
	EosID int32 = 1
)

// Vocab maps token strings to dense int32 ids. Ids are assigned by
// descending training-segment frequency so frequent words get small
// ids, with ties broken lexicographically for determinism.
type Vocab struct {
	ids    map[string]int32
	tokens []string
}

// BuildVocab constructs a vocabulary from the training tokens. The
// reserved tokens always occupy ids 0 and 1, even when the corpus never
// mentions them.
func BuildVocab(tokens []string) *Vocab {
	counts := make(map[string]int)
	for _, tok := range tokens {
		if tok == UnkToken || tok == EosToken {
			continue
		}
		counts[tok]++
	}

	ordered := make([]string, 0, len(counts))
	for tok := range counts {
		ordered = append(ordered, tok)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if counts[ordered[i]] != counts[ordered[j]] {
			return counts[ordered[i]] > counts[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})

	v := &Vocab{
		ids:    make(map[string]int32, len(ordered)+2),
		tokens: make([]string, 0, len(ordered)+2),
	}
	v.add(UnkToken)
	v.add(EosToken)
	for _, tok := range ordered {
		v.add(tok)
	}
	return v
}

// FixedVocab returns a vocabulary of a known size with no string
// mapping, for corpora whose ids come from an external encoder (BPE).
// ID lookups fall back to UnkID and Token returns the empty string.
func FixedVocab(size int) *Vocab {
	return &Vocab{
		ids:    map[string]int32{},
		tokens: make([]string, size),
	}
}

func (v *Vocab) add(token string) {
	v.ids[token] = int32(len(v.tokens))
	v.tokens = append(v.tokens, token)
}

// ID returns the id for token, falling back to UnkID for tokens outside
// the vocabulary.
func (v *Vocab) ID(token string) int32 {
	if id, ok := v.ids[token]; ok {
		return id
	}
	return UnkID
}

// Token returns the string for an id. Panics on out-of-range ids.
func (v *Vocab) Token(id int32) string {
	if id < 0 || int(id) >= len(v.tokens) {
		panic(fmt.Sprintf("vocab: id %d out of range [0, %d)", id, len(v.tokens)))
	}
	return v.tokens[id]
}

// Len returns the vocabulary size including reserved tokens.
func (v *Vocab) Len() int {
	return len(v.tokens)
}

// Encode maps a token sequence to ids, substituting UnkID for unknown
// tokens.
func (v *Vocab) Encode(tokens []string) []int32 {
	ids := make([]int32, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.ID(tok)
	}
	return ids
}
