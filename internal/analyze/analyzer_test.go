package analyze

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signature-analyzer/internal/config"
	"signature-analyzer/internal/imageio"
	"signature-analyzer/internal/model"
	"signature-analyzer/internal/preprocess"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()

	cfg := config.Default()
	cfg.Model.Path = t.TempDir()
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// trainingSet builds a fully separable labeled set: forgeries sit far
// from genuine samples on every canonical feature.
func trainingSet() []TrainingSample {
	var samples []TrainingSample
	for i := 0; i < 6; i++ {
		jitter := 0.01 * float64(i)

		genuine := referenceDescriptor()
		genuine["stroke_direction"] = 1.2
		for k := range genuine {
			genuine[k] += jitter
		}
		samples = append(samples, TrainingSample{Features: genuine, Label: 1})

		forged := referenceDescriptor()
		forged["stroke_direction"] = 1.2
		for k := range forged {
			forged[k] = forged[k]*4 + 2 + jitter
		}
		samples = append(samples, TrainingSample{Features: forged, Label: 0})
	}
	return samples
}

func TestAnalyzeRejectsOversizeImage(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = t.TempDir()
	cfg.Image.MaxFileSize = 16
	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Valid PNG magic, but over the configured limit.
	raw := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)

	_, err := a.Analyze(raw, nil)
	require.ErrorIs(t, err, imageio.ErrTooLarge)

	var decodeErr *preprocess.DecodeError
	assert.False(t, errors.As(err, &decodeErr))
}

func TestAnalyzeRejectsUnrecognizedBytes(t *testing.T) {
	a := testAnalyzer(t)

	_, err := a.Analyze([]byte("not an image"), nil)
	require.Error(t, err)

	var decodeErr *preprocess.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.NotErrorIs(t, err, imageio.ErrTooLarge)
}

func TestScoreDispatchesToComparison(t *testing.T) {
	a := testAnalyzer(t)
	d := referenceDescriptor()

	score, confidence, strategy := a.score(d, d.Clone())

	assert.Equal(t, StrategyComparison, strategy)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 1.0, confidence)
}

func TestScoreDispatchesToRulesWhenUntrained(t *testing.T) {
	a := testAnalyzer(t)
	require.False(t, a.Trained())

	score, confidence, strategy := a.score(referenceDescriptor(), nil)

	assert.Equal(t, StrategyRules, strategy)
	assert.InDelta(t, 0.9, score, 1e-9)
	assert.InDelta(t, 0.72, confidence, 1e-9)
}

func TestTrainInsufficientSamples(t *testing.T) {
	a := testAnalyzer(t)

	err := a.Train(trainingSet()[:5])
	require.ErrorIs(t, err, model.ErrInsufficientTraining)
	assert.False(t, a.Trained())

	_, statErr := os.Stat(a.ModelPath())
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestTrainAndPredict(t *testing.T) {
	a := testAnalyzer(t)

	require.NoError(t, a.Train(trainingSet()))
	require.True(t, a.Trained())

	_, err := os.Stat(a.ModelPath())
	require.NoError(t, err)

	genuine := referenceDescriptor()
	genuine["stroke_direction"] = 1.2
	score, confidence, strategy := a.score(genuine, nil)
	assert.Equal(t, StrategyModel, strategy)
	assert.Greater(t, score, 0.8)
	assert.Equal(t, score, confidence)

	forged := referenceDescriptor()
	forged["stroke_direction"] = 1.2
	for k := range forged {
		forged[k] = forged[k]*4 + 2
	}
	score, _, strategy = a.score(forged, nil)
	assert.Equal(t, StrategyModel, strategy)
	assert.Less(t, score, 0.2)
}

func TestLoadModelRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Path = t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	trained := New(cfg, logger)
	require.NoError(t, trained.Train(trainingSet()))

	probe := referenceDescriptor()
	probe["stroke_direction"] = 1.2
	want, _, _ := trained.score(probe, nil)

	reloaded := New(cfg, logger)
	require.False(t, reloaded.Trained())
	require.True(t, reloaded.LoadModel())
	require.True(t, reloaded.Trained())

	got, _, strategy := reloaded.score(probe, nil)
	assert.Equal(t, StrategyModel, strategy)
	assert.Equal(t, want, got)
}

func TestLoadModelMissing(t *testing.T) {
	a := testAnalyzer(t)
	assert.False(t, a.LoadModel())
	assert.False(t, a.SaveModel())
}
