// Package parallel provides chunked parallel execution for tensor kernels.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults sized from the detected CPU topology.
func DefaultConfig() Config {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	chunk := 64
	if cpuid.CPU.CacheLine > 0 {
		// At least one cache block of float32 per worker chunk.
		chunk = max(cpuid.CPU.CacheLine*4, 64)
	}
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: chunk,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is
// too small to amortize goroutine overhead.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForRows executes f(r) for each row in [0, rows).
// Intended for matrix kernels where each row carries substantial work,
// so the chunk threshold is lower than For's element-wise default.
func ForRows(rows int, f func(r int), cfg Config) {
	rowCfg := cfg
	rowCfg.MinChunkSize = 1
	rowCfg.Enabled = cfg.Enabled && rows > 1
	For(rows, f, rowCfg)
}
