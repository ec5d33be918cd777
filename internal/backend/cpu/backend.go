// Package cpu implements the pure Go CPU backend with chunked parallel kernels.
package cpu

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/parallel"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	pcfg   parallel.Config
}

// New creates a new CPU backend with parallelism sized to the machine.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pcfg:   parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend with parallel kernels disabled.
// Useful for deterministic debugging and small unit tests.
func NewSequential() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		pcfg:   parallel.Config{Enabled: false},
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, opAdd)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, opSub)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, opMul)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, opDiv)
}

// binary dispatches an element-wise binary operation, taking the inplace
// fast path when a uniquely owns its buffer and no broadcasting is needed.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op binOp) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			binaryInplace(a, b, op)
			return a
		}
		result := mustNewRaw(name, outShape, a.DType(), cpu.device)
		binaryVectorized(result, a, b, op)
		return result
	}

	result := mustNewRaw(name, outShape, a.DType(), cpu.device)
	binaryBroadcast(result, a, b, outShape, op, cpu.pcfg)
	return result
}

func mustNewRaw(name string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}
	return result
}
