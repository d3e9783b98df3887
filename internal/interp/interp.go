// Package interp constructs and drives the tensor-execution context for the
// breed model. The model artifact is treated as an opaque ONNX blob; this
// package owns session construction (including the fallback ladder across
// execution configurations) and exposes a narrow Interpreter interface so
// the rest of the engine never touches the native runtime directly.
package interp

import (
	"runtime"
)

// Interpreter is a built execution context for the breed model. A single
// instance is expensive to construct and cheap to reuse; it is safe for
// sequential reuse but must not be run concurrently from two goroutines
// without external serialization.
type Interpreter interface {
	// Run executes one forward pass over a flat NHWC float32 input and
	// returns the raw output class scores.
	Run(input []float32) ([]float32, error)
	// InputShape returns the model input shape, normalized to [1, H, W, C].
	InputShape() []int64
	// OutputShape returns the model output shape, normalized to [1, N].
	OutputShape() []int64
	Close() error
}

// ExecutionConfig is one candidate way of constructing a session. The
// factory tries configs in order and keeps the first that works, so the
// ladder is data, not code: adding a fallback is a one-line change.
type ExecutionConfig struct {
	Name       string
	NumThreads int  // 0 = runtime default
	CPUOnly    bool // skip accelerator providers even if requested
}

// DefaultConfigs returns the construction ladder: default settings first,
// then single-threaded, then explicitly multi-threaded, then CPU-only with
// the accelerator disabled as the last resort.
func DefaultConfigs() []ExecutionConfig {
	return []ExecutionConfig{
		{Name: "default"},
		{Name: "single-thread", NumThreads: 1},
		{Name: "multi-thread", NumThreads: runtime.NumCPU()},
		{Name: "cpu-only", CPUOnly: true},
	}
}

// Options controls interpreter construction.
type Options struct {
	Configs []ExecutionConfig // nil = DefaultConfigs()
	GPU     GPUConfig
}

// DefaultOptions returns construction options with the standard ladder and
// the accelerator disabled.
func DefaultOptions() Options {
	return Options{
		Configs: DefaultConfigs(),
		GPU:     DefaultGPUConfig(),
	}
}
