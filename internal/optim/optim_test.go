package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/internal/optim"
	"github.com/fathom-ml/fathom/internal/tensor"
)

type Backend = *cpu.CPUBackend

func newParam(t *testing.T, name string, values []float32, b Backend) *nn.Parameter[Backend] {
	t.Helper()
	ten, err := tensor.FromSlice[float32, Backend](values, tensor.Shape{len(values)}, b)
	require.NoError(t, err)
	return nn.NewParameter[Backend](name, ten)
}

func gradFor(t *testing.T, param *nn.Parameter[Backend], values []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(param.Tensor().Shape().Clone(), tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), values)
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): raw}
}

func TestSGD_Step(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{1, 2}, b)

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 0.1}, b)
	sgd.Step(gradFor(t, param, []float32{0.5, -1}))

	assert.InDeltaSlice(t, []float32{0.95, 2.1}, param.Tensor().Data(), 1e-6)
}

func TestSGD_StepWritesSharedStorage(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{1, 2}, b)

	// A second handle on the buffer defeats any in-place backend fast
	// path; the update must still land in the parameter's storage so
	// every alias observes it.
	alias := param.Tensor().Raw().Clone()
	require.False(t, param.Tensor().Raw().IsUnique())

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 0.1}, b)
	sgd.Step(gradFor(t, param, []float32{0.5, -1}))

	assert.InDeltaSlice(t, []float32{0.95, 2.1}, param.Tensor().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{0.95, 2.1}, alias.AsFloat32(), 1e-6)
}

func TestSGD_Momentum(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{0}, b)

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 1, Momentum: 0.9}, b)

	// First step: velocity = 1, param = -1.
	sgd.Step(gradFor(t, param, []float32{1}))
	assert.InDeltaSlice(t, []float32{-1}, param.Tensor().Data(), 1e-6)

	// Second step: velocity = 0.9*1 + 1 = 1.9, param = -2.9.
	sgd.Step(gradFor(t, param, []float32{1}))
	assert.InDeltaSlice(t, []float32{-2.9}, param.Tensor().Data(), 1e-6)
}

func TestSGD_SkipsParamsWithoutGradient(t *testing.T) {
	b := cpu.New()
	active := newParam(t, "active", []float32{1}, b)
	idle := newParam(t, "idle", []float32{5}, b)

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{active, idle}, optim.SGDConfig{LR: 0.5}, b)
	sgd.Step(gradFor(t, active, []float32{2}))

	assert.InDeltaSlice(t, []float32{0}, active.Tensor().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{5}, idle.Tensor().Data(), 1e-6)
}

func TestSGD_SetLR(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{1}, b)

	sgd := optim.NewSGD([]*nn.Parameter[Backend]{param}, optim.SGDConfig{LR: 20}, b)
	assert.Equal(t, float32(20), sgd.GetLR())

	sgd.SetLR(5)
	assert.Equal(t, float32(5), sgd.GetLR())
}

func TestClipGradNorm_Rescales(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{0, 0}, b)
	grads := gradFor(t, param, []float32{3, 4}) // norm 5

	params := []*nn.Parameter[Backend]{param}
	norm := optim.ClipGradNorm(params, grads, 1)

	assert.InDelta(t, 5.0, float64(norm), 1e-6)
	clipped := grads[param.Tensor().Raw()].AsFloat32()
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, clipped, 1e-5)
}

func TestClipGradNorm_WithinBoundUntouched(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{0, 0}, b)
	grads := gradFor(t, param, []float32{0.3, 0.4})

	norm := optim.ClipGradNorm([]*nn.Parameter[Backend]{param}, grads, 1)

	assert.InDelta(t, 0.5, float64(norm), 1e-6)
	assert.InDeltaSlice(t, []float32{0.3, 0.4}, grads[param.Tensor().Raw()].AsFloat32(), 1e-6)
}

func TestClipGradNorm_GlobalNotPerParameter(t *testing.T) {
	b := cpu.New()
	p1 := newParam(t, "w1", []float32{0}, b)
	p2 := newParam(t, "w2", []float32{0}, b)

	grads := gradFor(t, p1, []float32{3})
	for k, v := range gradFor(t, p2, []float32{4}) {
		grads[k] = v
	}

	norm := optim.ClipGradNorm([]*nn.Parameter[Backend]{p1, p2}, grads, 1)

	// Joint norm 5: each gradient scales by the same 1/5 factor.
	assert.InDelta(t, 5.0, float64(norm), 1e-6)
	assert.InDeltaSlice(t, []float32{0.6}, grads[p1.Tensor().Raw()].AsFloat32(), 1e-5)
	assert.InDeltaSlice(t, []float32{0.8}, grads[p2.Tensor().Raw()].AsFloat32(), 1e-5)
}

func TestClipGradNorm_IgnoresNonParameterEntries(t *testing.T) {
	b := cpu.New()
	param := newParam(t, "w", []float32{0}, b)
	grads := gradFor(t, param, []float32{1})

	// Simulate an intermediate activation gradient in the map.
	extra, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	extra.AsFloat32()[0] = 100
	other, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	grads[other] = extra

	norm := optim.ClipGradNorm([]*nn.Parameter[Backend]{param}, grads, 10)

	assert.InDelta(t, 1.0, float64(norm), 1e-6)
	assert.InDeltaSlice(t, []float32{100}, extra.AsFloat32(), 1e-6)
}
