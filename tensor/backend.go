// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/fathom-ml/fathom/internal/tensor"
)

// Backend is the interface every compute backend implements: arithmetic
// with broadcasting, matrix multiplication, shape manipulation,
// reductions and embedding lookup, all over RawTensor.
type Backend = tensor.Backend
