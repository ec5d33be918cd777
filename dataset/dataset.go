// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides corpus loading, vocabulary construction and
// BPTT batching for language model training.
//
// Example:
//
//	corpus, err := dataset.LoadWikiText2("./data/wikitext-2")
//	stream, err := dataset.Batchify(corpus.Train, 64)
//	input, target := stream.Batch(0, 35)
package dataset

import (
	internal "github.com/fathom-ml/fathom/internal/dataset"
)

// Reserved vocabulary entries.
const (
	UnkToken = internal.UnkToken
	EosToken = internal.EosToken

	UnkID = internal.UnkID
	EosID = internal.EosID
)

// Vocab maps token strings to dense int32 ids by descending frequency.
type Vocab = internal.Vocab

// Corpus holds encoded train/valid/test segments and their vocabulary.
type Corpus = internal.Corpus

// Stream is a token sequence reshaped into parallel sub-streams for
// truncated BPTT.
type Stream = internal.Stream

// BuildVocab constructs a vocabulary from training tokens.
func BuildVocab(tokens []string) *Vocab {
	return internal.BuildVocab(tokens)
}

// FixedVocab returns a vocabulary of a known size with no string
// mapping, for externally encoded corpora.
func FixedVocab(size int) *Vocab {
	return internal.FixedVocab(size)
}

// LoadWikiText2 reads wiki.{train,valid,test}.tokens from dir.
func LoadWikiText2(dir string) (*Corpus, error) {
	return internal.LoadWikiText2(dir)
}

// Batchify reshapes ids into batchSize parallel sub-streams.
func Batchify(ids []int32, batchSize int) (*Stream, error) {
	return internal.Batchify(ids, batchSize)
}

// EncodeFile encodes a raw text file with a tiktoken BPE encoding and
// returns the ids plus the encoding's vocabulary size.
func EncodeFile(path, encodingName string) ([]int32, int, error) {
	return internal.EncodeFile(path, encodingName)
}
