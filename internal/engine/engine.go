// Package engine is the recognition facade: it owns asset resolution,
// label parsing and interpreter construction, and exposes a single
// Recognize operation that returns a ranked result or an explicit
// unavailable state. The one non-negotiable product invariant lives here:
// when anything fails, the caller gets an honest failure, never a
// fabricated prediction.
package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/meowai/catscan/internal/assets"
	"github.com/meowai/catscan/internal/common"
	"github.com/meowai/catscan/internal/interp"
	"github.com/meowai/catscan/internal/labels"
	"github.com/meowai/catscan/internal/modelpath"
	"github.com/meowai/catscan/internal/preprocess"
)

// State tracks engine lifecycle. Transitions are one-directional except
// that Reinitialize returns a failed engine to Uninitialized for an
// explicit caller-triggered retry.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Config holds engine construction settings. Normalization constants, the
// confidence floor and the alternatives cap are fixed engine constants, not
// configuration; only ambient knobs live here.
type Config struct {
	ModelsDir  string // override for the packaged models directory
	NumThreads int    // preferred intra-op thread count (0 = ladder default)
	UseGPU     bool
	Warmup     bool // run one throwaway pass after a successful init
}

// assetResolver is the slice of internal/assets the engine needs.
type assetResolver interface {
	Resolve(logical string) ([]byte, error)
}

// buildFunc constructs an interpreter from raw model bytes.
type buildFunc func(model []byte) (interp.Interpreter, interp.ExecutionConfig, error)

// Engine is the process-wide recognition facade. All state is guarded by a
// single mutex: initialization is single-shot, and recognitions are
// serialized because the underlying execution context is not reentrant.
type Engine struct {
	cfg Config

	mu         sync.Mutex
	state      State
	itp        interp.Interpreter
	table      *labels.Table
	initReason UnavailableReason
	initDetail string

	resolver assetResolver
	build    buildFunc
}

// New creates an engine. Nothing is loaded until Initialize or the first
// Recognize call.
func New(cfg Config) *Engine {
	modelsDir := modelpath.Dir(cfg.ModelsDir)

	opts := interp.DefaultOptions()
	opts.GPU.UseGPU = cfg.UseGPU
	if cfg.NumThreads > 0 {
		configured := interp.ExecutionConfig{Name: "configured", NumThreads: cfg.NumThreads}
		opts.Configs = append([]interp.ExecutionConfig{configured}, opts.Configs...)
	}

	return &Engine{
		cfg:      cfg,
		resolver: assets.NewResolver(assets.DefaultRoots(modelsDir)...),
		build: func(model []byte) (interp.Interpreter, interp.ExecutionConfig, error) {
			return interp.Build(model, opts)
		},
	}
}

// Initialize resolves assets, parses labels and builds the interpreter.
// Idempotent: after the first success it returns nil without re-reading
// anything; after a failure it keeps returning the stored error until
// Reinitialize is called. Automatic retry on every recognition would be
// expensive and pointless when the model binary is genuinely incompatible.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

// Reinitialize discards any prior state (including a permanent failure) and
// runs initialization again. Intended for caller-triggered retry after a
// package or model update.
func (e *Engine) Reinitialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
	e.state = StateUninitialized
	e.initReason = ReasonNone
	e.initDetail = ""
	return e.initLocked()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Labels returns the loaded label table, or nil before initialization.
func (e *Engine) Labels() *labels.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table
}

// Close releases the interpreter. The engine returns to Uninitialized and
// may be initialized again.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.closeLocked()
	e.state = StateUninitialized
	return err
}

func (e *Engine) closeLocked() error {
	if e.itp == nil {
		return nil
	}
	err := e.itp.Close()
	e.itp = nil
	return err
}

func (e *Engine) initLocked() error {
	switch e.state {
	case StateReady:
		return nil
	case StateFailed:
		return fmt.Errorf("engine unavailable (%s): %s", e.initReason, e.initDetail)
	case StateInitializing, StateUninitialized:
	}
	e.state = StateInitializing

	model, err := e.resolver.Resolve(modelpath.ModelLogicalPath)
	if err != nil {
		return e.failLocked(initFailureReason(err), err)
	}
	labelBytes, err := e.resolver.Resolve(modelpath.LabelsLogicalPath)
	if err != nil {
		return e.failLocked(initFailureReason(err), err)
	}

	table := labels.Parse(labelBytes)
	if table.Len() == 0 {
		return e.failLocked(ReasonInitializationFailed, errors.New("label table is empty"))
	}

	e.checkModelInfo(table)

	itp, execCfg, err := e.build(model)
	if err != nil {
		return e.failLocked(initFailureReason(err), err)
	}

	if out := itp.OutputShape(); len(out) == 2 && out[1] != int64(table.Len()) {
		slog.Warn("Label count does not match model output classes",
			"labels", table.Len(), "classes", out[1])
	}

	e.itp = itp
	e.table = table
	e.state = StateReady
	slog.Info("Recognition engine ready",
		"execution_config", execCfg.Name,
		"input_shape", itp.InputShape(),
		"labels", table.Len())

	if e.cfg.Warmup {
		if err := e.warmupLocked(); err != nil {
			slog.Warn("Warmup pass failed", "error", err)
		}
	}
	return nil
}

// checkModelInfo cross-checks the optional model_info.json sidecar against
// the label table. The sidecar is advisory; mismatches are logged, not
// fatal.
func (e *Engine) checkModelInfo(table *labels.Table) {
	data, err := e.resolver.Resolve(modelpath.InfoLogicalPath)
	if err != nil {
		return
	}
	info, err := modelpath.ParseInfo(data)
	if err != nil {
		slog.Warn("Ignoring malformed model info sidecar", "error", err)
		return
	}
	if info.NumClasses != 0 && info.NumClasses != table.Len() {
		slog.Warn("Model info class count disagrees with label table",
			"info_classes", info.NumClasses, "labels", table.Len())
	}
	slog.Debug("Model info loaded",
		"name", info.Name, "version", info.Version,
		"architecture", info.Architecture, "input_size", info.InputSize)
}

// warmupLocked runs one throwaway pass over a zero tensor to pay the
// runtime's first-inference cost at startup instead of on the first photo.
func (e *Engine) warmupLocked() error {
	in := e.itp.InputShape()
	buf := make([]float32, in[1]*in[2]*in[3])
	_, _, err := runForwardPass(e.itp, buf)
	return err
}

func (e *Engine) failLocked(reason UnavailableReason, err error) error {
	e.state = StateFailed
	e.initReason = reason
	e.initDetail = err.Error()
	slog.Error("Engine initialization failed", "reason", reason.String(), "error", err)
	return fmt.Errorf("engine unavailable (%s): %w", reason, err)
}

// initFailureReason classifies an initialization error into the closed
// reason taxonomy.
func initFailureReason(err error) UnavailableReason {
	var notFound *assets.NotFoundError
	if errors.As(err, &notFound) {
		return ReasonAssetMissing
	}
	var incompatible *interp.IncompatibilityError
	if errors.As(err, &incompatible) {
		return ReasonRuntimeIncompatible
	}
	return ReasonInitializationFailed
}

// Recognize decodes the image at path and classifies it. If the engine has
// never been initialized, initialization is attempted lazily exactly once;
// a permanently failed engine reports its stored reason without retrying.
func (e *Engine) Recognize(path string) Outcome {
	img, meta, err := preprocess.DecodeFile(path)
	if err != nil {
		slog.Debug("Image decode failed", "path", path, "error", err)
		return unavailable(ReasonDecodeFailed, err.Error())
	}
	slog.Debug("Image decoded",
		"path", path, "format", meta.Format, "width", meta.Width, "height", meta.Height)
	return e.RecognizeImage(img, path)
}

// RecognizeBytes decodes an in-memory image buffer and classifies it.
func (e *Engine) RecognizeBytes(data []byte, source string) Outcome {
	img, meta, err := preprocess.DecodeBytes(data)
	if err != nil {
		slog.Debug("Image decode failed", "source", source, "error", err)
		return unavailable(ReasonDecodeFailed, err.Error())
	}
	slog.Debug("Image decoded",
		"source", source, "format", meta.Format, "width", meta.Width, "height", meta.Height)
	return e.RecognizeImage(img, source)
}

// RecognizeImage classifies an already-decoded image. The whole pass runs
// under the engine mutex: one recognition in flight at a time.
func (e *Engine) RecognizeImage(img image.Image, source string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		if e.state == StateUninitialized {
			_ = e.initLocked()
		}
		if e.state != StateReady {
			return unavailable(e.initReason, e.initDetail)
		}
	}

	total := common.StartTimer("recognize")

	in := e.itp.InputShape()
	side := int(in[1])

	tensor, release, err := preprocess.TensorForImagePooled(img, side)
	if err != nil {
		return unavailable(ReasonInferenceFailed, fmt.Sprintf("preprocessing failed: %v", err))
	}
	defer release()

	scores, inferElapsed, err := runForwardPass(e.itp, tensor)
	if err != nil {
		slog.Error("Forward pass failed", "source", source, "error", err)
		return unavailable(ReasonInferenceFailed, err.Error())
	}
	logTopScores(scores, e.table)

	preds := rankPredictions(scores, e.table, MinConfidence)
	elapsed := total.Stop()
	slog.Debug("Recognition complete",
		"source", source, "candidates", len(preds),
		"inference", inferElapsed, "total", elapsed)

	if len(preds) == 0 {
		return unavailable(ReasonNoConfidentPrediction,
			"no breed cleared the confidence floor")
	}

	alternatives := preds[1:]
	if len(alternatives) > MaxAlternatives {
		alternatives = alternatives[:MaxAlternatives]
	}
	return success(preds[0], alternatives, elapsed)
}

// runForwardPass executes one inference and converts any panic from inside
// the tensor runtime into an error, so a crash surfaces as a structured
// failure instead of taking down the process.
func runForwardPass(itp interp.Interpreter, input []float32) (scores []float32, elapsed time.Duration, err error) {
	t := common.StartTimer("inference")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forward pass panicked: %v", r)
		}
		elapsed = t.Stop()
	}()
	scores, err = itp.Run(input)
	return scores, elapsed, err
}
