package engine

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/meowai/catscan/internal/assets"
	"github.com/meowai/catscan/internal/interp"
	"github.com/meowai/catscan/internal/modelpath"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	files map[string][]byte
	calls map[string]int
}

func (s *stubResolver) Resolve(logical string) ([]byte, error) {
	s.calls[logical]++
	if b, ok := s.files[logical]; ok {
		return b, nil
	}
	return nil, &assets.NotFoundError{Logical: logical, Attempted: []string{logical}}
}

type stubInterp struct {
	side    int
	classes int
	scores  []float32
	runErr  error
	panics  bool

	runs      int
	lastInput []float32
	closed    bool
}

func (s *stubInterp) Run(input []float32) ([]float32, error) {
	s.runs++
	s.lastInput = input
	if s.panics {
		panic("native runtime crashed")
	}
	if s.runErr != nil {
		return nil, s.runErr
	}
	out := make([]float32, len(s.scores))
	copy(out, s.scores)
	return out, nil
}

func (s *stubInterp) InputShape() []int64 {
	return []int64{1, int64(s.side), int64(s.side), 3}
}

func (s *stubInterp) OutputShape() []int64 {
	return []int64{1, int64(s.classes)}
}

func (s *stubInterp) Close() error {
	s.closed = true
	return nil
}

func defaultFiles() map[string][]byte {
	return map[string][]byte{
		modelpath.ModelLogicalPath:  []byte("opaque model bytes"),
		modelpath.LabelsLogicalPath: []byte("A\nB\nC\nD\n"),
	}
}

type testFixture struct {
	engine     *Engine
	resolver   *stubResolver
	interp     *stubInterp
	buildCalls int
}

func newFixture(files map[string][]byte, itp *stubInterp, buildErr error) *testFixture {
	f := &testFixture{
		resolver: &stubResolver{files: files, calls: map[string]int{}},
		interp:   itp,
	}
	f.engine = &Engine{
		resolver: f.resolver,
		build: func(_ []byte) (interp.Interpreter, interp.ExecutionConfig, error) {
			f.buildCalls++
			if buildErr != nil {
				return nil, interp.ExecutionConfig{}, buildErr
			}
			return f.interp, interp.ExecutionConfig{Name: "stub"}, nil
		},
	}
	return f
}

func solidTestImage(side int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := range side {
		for x := range side {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}
	return img
}

func TestInitialize_Idempotent(t *testing.T) {
	f := newFixture(defaultFiles(), &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}, nil)

	require.NoError(t, f.engine.Initialize())
	require.NoError(t, f.engine.Initialize())
	require.NoError(t, f.engine.Initialize())

	require.Equal(t, StateReady, f.engine.State())
	require.Equal(t, 1, f.buildCalls)
	require.Equal(t, 1, f.resolver.calls[modelpath.ModelLogicalPath])
	require.Equal(t, 1, f.resolver.calls[modelpath.LabelsLogicalPath])
	require.Equal(t, 4, f.engine.Labels().Len())
}

func TestInitialize_ModelAssetMissing(t *testing.T) {
	files := defaultFiles()
	delete(files, modelpath.ModelLogicalPath)
	f := newFixture(files, nil, nil)

	require.Error(t, f.engine.Initialize())
	require.Equal(t, StateFailed, f.engine.State())

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.False(t, outcome.OK)
	require.Equal(t, ReasonAssetMissing, outcome.Reason)

	// A permanently failed engine does not re-attempt resolution per call.
	_ = f.engine.RecognizeImage(solidTestImage(8), "test")
	require.Equal(t, 1, f.resolver.calls[modelpath.ModelLogicalPath])
	require.Equal(t, 0, f.buildCalls)
}

func TestInitialize_EmptyLabelTableIsFatal(t *testing.T) {
	files := defaultFiles()
	files[modelpath.LabelsLogicalPath] = []byte("\n\n")
	f := newFixture(files, &stubInterp{side: 8, classes: 4}, nil)

	require.Error(t, f.engine.Initialize())
	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.Equal(t, ReasonInitializationFailed, outcome.Reason)
	require.Equal(t, 0, f.buildCalls)
}

func TestRecognizeImage_LazyInitialization(t *testing.T) {
	f := newFixture(defaultFiles(), &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}, nil)

	require.Equal(t, StateUninitialized, f.engine.State())
	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.True(t, outcome.OK)
	require.Equal(t, StateReady, f.engine.State())
	require.Equal(t, 1, f.buildCalls)
}

func TestRecognize_NoFabricationWhenModelIncompatible(t *testing.T) {
	buildErr := &interp.IncompatibilityError{Detail: "unsupported op version 99"}
	f := newFixture(defaultFiles(), nil, buildErr)

	for range 5 {
		outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
		require.False(t, outcome.OK)
		require.Equal(t, ReasonRuntimeIncompatible, outcome.Reason)
		require.NotEmpty(t, outcome.Detail)
		require.Zero(t, outcome.Top)
		require.Empty(t, outcome.Alternatives)
	}
	// Construction is attempted once, not per call.
	require.Equal(t, 1, f.buildCalls)
}

func TestRecognize_GenericBuildFailure(t *testing.T) {
	f := newFixture(defaultFiles(), nil, errors.New("arena allocation failed"))

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.False(t, outcome.OK)
	require.Equal(t, ReasonInitializationFailed, outcome.Reason)
}

func TestReinitialize_RetriesAfterPermanentFailure(t *testing.T) {
	f := newFixture(defaultFiles(), nil, errors.New("transient construction failure"))
	require.Error(t, f.engine.Initialize())
	require.Equal(t, StateFailed, f.engine.State())
	require.Error(t, f.engine.Initialize()) // stays failed, no retry

	// The model package got replaced; retry explicitly.
	itp := &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}
	f.engine.build = func(_ []byte) (interp.Interpreter, interp.ExecutionConfig, error) {
		f.buildCalls++
		return itp, interp.ExecutionConfig{Name: "stub"}, nil
	}
	require.NoError(t, f.engine.Reinitialize())
	require.Equal(t, StateReady, f.engine.State())

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.True(t, outcome.OK)
}

func TestRecognizeImage_NoConfidentPrediction(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 4, scores: []float32{0.01, 0.02, 0.05, 0.09}}
	f := newFixture(defaultFiles(), itp, nil)

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.False(t, outcome.OK)
	require.Equal(t, ReasonNoConfidentPrediction, outcome.Reason)
	// The engine stayed functional; this is not an unavailable-model state.
	require.Equal(t, StateReady, f.engine.State())
}

func TestRecognizeImage_InferenceFailure(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 4, runErr: errors.New("shape mismatch")}
	f := newFixture(defaultFiles(), itp, nil)

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.False(t, outcome.OK)
	require.Equal(t, ReasonInferenceFailed, outcome.Reason)
}

func TestRecognizeImage_PanicInsideRuntimeIsContained(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 4, panics: true}
	f := newFixture(defaultFiles(), itp, nil)

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.False(t, outcome.OK)
	require.Equal(t, ReasonInferenceFailed, outcome.Reason)
	require.Contains(t, outcome.Detail, "panicked")
}

func TestRecognize_DecodeFailure(t *testing.T) {
	f := newFixture(defaultFiles(), &stubInterp{side: 8, classes: 4}, nil)

	outcome := f.engine.Recognize(filepath.Join(t.TempDir(), "missing.png"))
	require.False(t, outcome.OK)
	require.Equal(t, ReasonDecodeFailed, outcome.Reason)
}

func TestRecognizeImage_RoundTrip(t *testing.T) {
	const side = 8
	itp := &stubInterp{side: side, classes: 4, scores: []float32{0.05, 0.9, 0.3, 0.12}}
	f := newFixture(defaultFiles(), itp, nil)

	outcome := f.engine.RecognizeImage(solidTestImage(side), "solid.png")
	require.True(t, outcome.OK)
	require.Equal(t, Prediction{Label: "B", Confidence: 0.9, Rank: 1}, outcome.Top)
	require.Equal(t, []Prediction{
		{Label: "C", Confidence: 0.3, Rank: 2},
		{Label: "D", Confidence: 0.12, Rank: 3},
	}, outcome.Alternatives)
	require.Positive(t, outcome.Elapsed)

	// The interpreter saw a correctly shaped, correctly normalized tensor.
	require.Len(t, itp.lastInput, side*side*3)
	require.InDelta(t, (1.0-0.485)/0.229, itp.lastInput[0], 1e-5)
	require.InDelta(t, (128.0/255.0-0.456)/0.224, itp.lastInput[1], 1e-5)
	require.InDelta(t, (0.0-0.406)/0.225, itp.lastInput[2], 1e-5)
}

func TestRecognizeImage_AlternativesCapped(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 6, scores: []float32{0.9, 0.8, 0.7, 0.6, 0.5, 0.4}}
	files := defaultFiles()
	files[modelpath.LabelsLogicalPath] = []byte("A\nB\nC\nD\nE\nF\n")
	f := newFixture(files, itp, nil)

	outcome := f.engine.RecognizeImage(solidTestImage(8), "test")
	require.True(t, outcome.OK)
	require.Equal(t, "A", outcome.Top.Label)
	require.Len(t, outcome.Alternatives, MaxAlternatives)
	require.Equal(t, "B", outcome.Alternatives[0].Label)
	require.Equal(t, "D", outcome.Alternatives[2].Label)
}

func TestInitialize_MalformedModelInfoIsNotFatal(t *testing.T) {
	files := defaultFiles()
	files[modelpath.InfoLogicalPath] = []byte("{broken json")
	f := newFixture(files, &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}, nil)

	require.NoError(t, f.engine.Initialize())
	require.Equal(t, StateReady, f.engine.State())
}

func TestWarmup_RunsOnePass(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}
	f := newFixture(defaultFiles(), itp, nil)
	f.engine.cfg.Warmup = true

	require.NoError(t, f.engine.Initialize())
	require.Equal(t, 1, itp.runs)
}

func TestClose_ReleasesInterpreter(t *testing.T) {
	itp := &stubInterp{side: 8, classes: 4, scores: []float32{0, 0.9, 0, 0}}
	f := newFixture(defaultFiles(), itp, nil)

	require.NoError(t, f.engine.Initialize())
	require.NoError(t, f.engine.Close())
	require.True(t, itp.closed)
	require.Equal(t, StateUninitialized, f.engine.State())
}
