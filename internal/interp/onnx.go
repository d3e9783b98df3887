package interp

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// onnxInterpreter drives a constructed ONNX Runtime session.
type onnxInterpreter struct {
	session  *onnxrt.DynamicAdvancedSession
	inShape  []int64 // normalized [1, H, W, C]
	outShape []int64 // normalized [1, N]
	config   ExecutionConfig
}

// Build constructs an interpreter from raw model bytes, trying each
// execution configuration in order until one yields a working session.
// Every failed attempt is logged with the configuration name and the
// underlying error; after exhausting the ladder the last failure is
// classified so callers can distinguish a model/runtime incompatibility
// from a generic fault.
func Build(modelBytes []byte, opts Options) (Interpreter, ExecutionConfig, error) {
	if len(modelBytes) == 0 {
		return nil, ExecutionConfig{}, errors.New("empty model bytes")
	}

	if err := initRuntime(); err != nil {
		return nil, ExecutionConfig{}, classifyBuildError(err)
	}

	inShape, outShape, inName, outName, err := inspectModel(modelBytes)
	if err != nil {
		return nil, ExecutionConfig{}, classifyBuildError(err)
	}

	configs := opts.Configs
	if configs == nil {
		configs = DefaultConfigs()
	}

	var lastErr error
	for _, cfg := range configs {
		session, err := buildSession(modelBytes, inName, outName, cfg, opts.GPU)
		if err != nil {
			slog.Warn("Interpreter construction attempt failed",
				"config", cfg.Name, "threads", cfg.NumThreads, "cpu_only", cfg.CPUOnly, "error", err)
			lastErr = err
			continue
		}
		slog.Info("Interpreter constructed",
			"config", cfg.Name, "input_shape", inShape, "output_shape", outShape)
		return &onnxInterpreter{
			session:  session,
			inShape:  inShape,
			outShape: outShape,
			config:   cfg,
		}, cfg, nil
	}
	return nil, ExecutionConfig{}, classifyBuildError(lastErr)
}

// initRuntime locates the shared library and initializes the runtime
// environment once per process.
func initRuntime() error {
	if onnxrt.IsInitialized() {
		return nil
	}
	if err := setRuntimeLibraryPath(); err != nil {
		return fmt.Errorf("failed to set runtime library path: %w", err)
	}
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	return nil
}

// inspectModel reads the declared graph I/O and normalizes the shapes.
// The breed model has exactly one input ([N, H, W, C], batch possibly
// dynamic) and one output ([N, classes]).
func inspectModel(modelBytes []byte) (in, out []int64, inName, outName string, err error) {
	inputs, outputs, err := onnxrt.GetInputOutputInfoWithONNXData(modelBytes)
	if err != nil {
		return nil, nil, "", "", fmt.Errorf("failed to read model graph info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, nil, "", "", fmt.Errorf("expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, nil, "", "", fmt.Errorf("expected 1 model output, got %d", len(outputs))
	}
	inInfo, outInfo := inputs[0], outputs[0]
	if len(inInfo.Dimensions) != 4 {
		return nil, nil, "", "", fmt.Errorf("expected 4D input tensor, got %dD", len(inInfo.Dimensions))
	}

	in = make([]int64, 4)
	copy(in, inInfo.Dimensions)
	in[0] = 1 // batch size is always 1
	for i, d := range in {
		if d <= 0 {
			return nil, nil, "", "", fmt.Errorf("input dimension %d is dynamic; a fixed shape is required", i)
		}
	}

	out = []int64{1, 0}
	dims := outInfo.Dimensions
	if len(dims) == 0 {
		return nil, nil, "", "", errors.New("output tensor has no dimensions")
	}
	last := dims[len(dims)-1]
	if last <= 0 {
		return nil, nil, "", "", fmt.Errorf("output class dimension is dynamic (%v)", dims)
	}
	out[1] = last

	return in, out, inInfo.Name, outInfo.Name, nil
}

func buildSession(modelBytes []byte, inName, outName string,
	cfg ExecutionConfig, gpu GPUConfig,
) (*onnxrt.DynamicAdvancedSession, error) {
	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			slog.Warn("Failed to destroy session options", "error", err)
		}
	}()

	if !cfg.CPUOnly {
		if err := configureSessionForGPU(opts, gpu); err != nil {
			return nil, err
		}
	}
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSessionWithONNXData(
		modelBytes, []string{inName}, []string{outName}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Run executes one forward pass. The input must be a flat NHWC buffer
// matching InputShape.
func (o *onnxInterpreter) Run(input []float32) ([]float32, error) {
	expected := int(o.inShape[1] * o.inShape[2] * o.inShape[3])
	if len(input) != expected {
		return nil, fmt.Errorf("input length %d does not match model shape %v (want %d)",
			len(input), o.inShape, expected)
	}

	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(o.inShape...), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := o.session.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("forward pass failed: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				_ = v.Destroy()
			}
		}
	}()

	t, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	// Copy out before the runtime tensor is destroyed.
	data := t.GetData()
	scores := make([]float32, len(data))
	copy(scores, data)
	return scores, nil
}

func (o *onnxInterpreter) InputShape() []int64 {
	shape := make([]int64, len(o.inShape))
	copy(shape, o.inShape)
	return shape
}

func (o *onnxInterpreter) OutputShape() []int64 {
	shape := make([]int64, len(o.outShape))
	copy(shape, o.outShape)
	return shape
}

func (o *onnxInterpreter) Close() error {
	if o.session != nil {
		if err := o.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		o.session = nil
	}
	return nil
}

// setRuntimeLibraryPath points the binding at the ONNX Runtime shared
// library, checking common system locations first and falling back to a
// project-relative bundle.
func setRuntimeLibraryPath() error {
	systemPaths := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	for _, p := range systemPaths {
		if _, err := os.Stat(p); err == nil {
			onnxrt.SetSharedLibraryPath(p)
			return nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	libName, err := runtimeLibraryName()
	if err != nil {
		return err
	}
	libPath := filepath.Join(root, "onnxruntime", "lib", libName)
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("onnxruntime library not found at %s", libPath)
	}
	onnxrt.SetSharedLibraryPath(libPath)
	return nil
}

func runtimeLibraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root := cwd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("could not find project root")
		}
		root = parent
	}
}
