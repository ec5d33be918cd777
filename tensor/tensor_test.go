// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/backend/cpu"
	"github.com/fathom-ml/fathom/tensor"
)

// The facade re-exports the internal package; these tests only smoke
// the public surface end to end.

func TestPublicAPI_Arithmetic(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	y := tensor.Ones[float32](tensor.Shape{2, 2}, backend)

	z := x.Add(y).MulScalar(2)
	assert.InDeltaSlice(t, []float32{4, 6, 8, 10}, z.Data(), 1e-6)
}

func TestPublicAPI_MatMulAndReshape(t *testing.T) {
	backend := cpu.New()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	b := a.Reshape(3, 2)
	c := a.MatMul(b)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.InDeltaSlice(t, []float32{22, 28, 49, 64}, c.Data(), 1e-5)
}

func TestPublicAPI_CatChunk(t *testing.T) {
	backend := cpu.New()

	a := tensor.Full[float32](tensor.Shape{2, 2}, 1, backend)
	b := tensor.Full[float32](tensor.Shape{2, 2}, 2, backend)

	cat := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 0)
	require.Equal(t, tensor.Shape{4, 2}, cat.Shape())

	parts := cat.Chunk(2, 0)
	assert.InDeltaSlice(t, a.Data(), parts[0].Data(), 1e-6)
	assert.InDeltaSlice(t, b.Data(), parts[1].Data(), 1e-6)
}
