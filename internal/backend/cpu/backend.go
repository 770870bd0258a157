// Package cpu implements the pure-Go CPU backend for the morphic runtime.
package cpu

import (
	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// Verify that CPUBackend implements the backend contract.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements tensor operations on CPU with chunked parallelism.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default parallel configuration.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// NewWithParallel creates a CPU backend with an explicit parallel configuration.
func NewWithParallel(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
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
