package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/dataset"
)

func TestBuildVocab_FrequencyOrder(t *testing.T) {
	tokens := []string{"b", "a", "b", "c", "b", "a", "<eos>"}
	v := dataset.BuildVocab(tokens)

	// Reserved ids first, then b (3), a (2), c (1).
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, dataset.UnkID, v.ID("<unk>"))
	assert.Equal(t, dataset.EosID, v.ID("<eos>"))
	assert.Equal(t, int32(2), v.ID("b"))
	assert.Equal(t, int32(3), v.ID("a"))
	assert.Equal(t, int32(4), v.ID("c"))
}

func TestBuildVocab_TiesAreLexicographic(t *testing.T) {
	v := dataset.BuildVocab([]string{"z", "m", "a"})

	assert.Equal(t, int32(2), v.ID("a"))
	assert.Equal(t, int32(3), v.ID("m"))
	assert.Equal(t, int32(4), v.ID("z"))
}

func TestVocab_UnknownFallsBackToUnk(t *testing.T) {
	v := dataset.BuildVocab([]string{"hello"})

	assert.Equal(t, dataset.UnkID, v.ID("missing"))
	assert.Equal(t, []int32{2, dataset.UnkID, dataset.EosID}, v.Encode([]string{"hello", "nope", "<eos>"}))
}

func TestVocab_RoundTrip(t *testing.T) {
	v := dataset.BuildVocab([]string{"alpha", "beta", "alpha"})

	for _, tok := range []string{"<unk>", "<eos>", "alpha", "beta"} {
		assert.Equal(t, tok, v.Token(v.ID(tok)))
	}
}

func writeCorpus(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadWikiText2(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "wiki.train.tokens", "the cat sat\nthe dog\n")
	writeCorpus(t, dir, "wiki.valid.tokens", "the bird\n")
	writeCorpus(t, dir, "wiki.test.tokens", "cat\n")

	c, err := dataset.LoadWikiText2(dir)
	require.NoError(t, err)

	// Train: the(2) cat sat eos the dog eos -> 7 ids, <eos> per line.
	assert.Len(t, c.Train, 7)
	assert.Equal(t, dataset.EosID, c.Train[3])
	assert.Equal(t, dataset.EosID, c.Train[6])

	// "the" is the most frequent word, so it gets the first free id.
	the := c.Vocab.ID("the")
	assert.Equal(t, int32(2), the)
	assert.Equal(t, the, c.Train[0])
	assert.Equal(t, the, c.Train[4])

	// "bird" is valid-only, so it encodes as <unk>.
	assert.Equal(t, []int32{the, dataset.UnkID, dataset.EosID}, c.Valid)
}

func TestLoadWikiText2_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "wiki.train.tokens", "only train\n")

	_, err := dataset.LoadWikiText2(dir)
	assert.Error(t, err)
}

func TestBatchify_Layout(t *testing.T) {
	// 9 tokens, 2 streams: steps = (9-1)/2 = 4.
	// Stream 0 reads 0..3, stream 1 reads 4..7, targets shift by one.
	ids := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8}
	s, err := dataset.Batchify(ids, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Steps())
	assert.Equal(t, 2, s.BatchSize())

	input, target := s.Batch(0, 2)
	assert.Equal(t, []int32{0, 4, 1, 5}, input)
	assert.Equal(t, []int32{1, 5, 2, 6}, target)

	input, target = s.Batch(1, 2)
	assert.Equal(t, []int32{2, 6, 3, 7}, input)
	assert.Equal(t, []int32{3, 7, 4, 8}, target)
}

func TestBatchify_DiscardsRemainder(t *testing.T) {
	ids := make([]int32, 101)
	s, err := dataset.Batchify(ids, 10) // steps = 10
	require.NoError(t, err)

	assert.Equal(t, 10, s.Steps())
	assert.Equal(t, 3, s.NumBatches(3)) // last step dropped
	assert.Equal(t, 2, s.NumBatches(5))
	assert.Equal(t, 1, s.NumBatches(10))
	assert.Equal(t, 0, s.NumBatches(11))
}

func TestBatchify_ExactDivisorDropsFinalStep(t *testing.T) {
	// 40 tokens over 4 streams would naively give 10 steps, but the
	// last stream's final target would then need a 41st token. The
	// shift before trimming keeps (40-1)/4 = 9 steps instead, and
	// every target stays in range.
	ids := make([]int32, 40)
	for i := range ids {
		ids[i] = int32(i)
	}

	s, err := dataset.Batchify(ids, 4)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Steps())

	_, target := s.Batch(0, 9)
	assert.Equal(t, int32(36), target[len(target)-1])
}

func TestBatchify_DeterministicCount(t *testing.T) {
	ids := make([]int32, 64*35*3+17)
	for i := range ids {
		ids[i] = int32(i % 100)
	}

	first, err := dataset.Batchify(ids, 64)
	require.NoError(t, err)
	second, err := dataset.Batchify(ids, 64)
	require.NoError(t, err)

	require.Equal(t, first.NumBatches(35), second.NumBatches(35))

	in1, tg1 := first.Batch(2, 35)
	in2, tg2 := second.Batch(2, 35)
	assert.Equal(t, in1, in2)
	assert.Equal(t, tg1, tg2)
}

func TestBatchify_TargetIsInputShifted(t *testing.T) {
	ids := []int32{10, 11, 12, 13, 14, 15, 16}
	s, err := dataset.Batchify(ids, 1) // steps = 6
	require.NoError(t, err)

	input, target := s.Batch(0, 6)
	for i := range input {
		assert.Equal(t, input[i]+1, target[i])
	}
}

func TestBatchify_TooFewTokens(t *testing.T) {
	_, err := dataset.Batchify([]int32{1, 2}, 4)
	assert.Error(t, err)

	_, err = dataset.Batchify([]int32{1, 2, 3}, 0)
	assert.Error(t, err)
}
