// Package analyze orchestrates signature authenticity scoring:
// template comparison when a reference descriptor set is supplied,
// trained-classifier prediction when a model is loaded, and a
// rule-based heuristic otherwise.
package analyze

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"signature-analyzer/internal/config"
	"signature-analyzer/internal/feature"
	"signature-analyzer/internal/imageio"
	"signature-analyzer/internal/model"
	"signature-analyzer/internal/preprocess"

	"gocv.io/x/gocv"
)

// Strategy identifies which scoring path produced a result.
type Strategy int

const (
	// StrategyComparison scores against a stored template.
	StrategyComparison Strategy = iota
	// StrategyModel scores with the trained classifier.
	StrategyModel
	// StrategyRules scores with the plausibility heuristic.
	StrategyRules
)

func (s Strategy) String() string {
	switch s {
	case StrategyComparison:
		return "template-comparison"
	case StrategyModel:
		return "trained-model"
	case StrategyRules:
		return "rule-based"
	default:
		return "unknown"
	}
}

// Result is the outcome of one analysis call.
type Result struct {
	AuthenticityScore float64               `json:"authenticity_score"`
	ConfidenceLevel   float64               `json:"confidence_level"`
	IsAuthentic       bool                  `json:"is_authentic"`
	Strategy          Strategy              `json:"-"`
	Details           *Report               `json:"analysis_details,omitempty"`
	Features          feature.DescriptorSet `json:"extracted_features,omitempty"`
	ImageHash         string                `json:"image_hash,omitempty"`
	ProcessingTime    time.Duration         `json:"processing_time"`
}

// TrainingSample pairs a descriptor set with its label: 1 genuine,
// 0 forged.
type TrainingSample struct {
	Features feature.DescriptorSet `json:"features"`
	Label    int                   `json:"label"`
}

// Analyzer runs the full pipeline from raw bytes to a scored result.
//
// The analysis path is synchronous and shares nothing between calls
// except the model snapshot, which is read through an atomic pointer.
// Train holds the exclusive mutex while fitting, persisting, and
// swapping the snapshot, so concurrent Analyze calls always observe
// either the old or the new model, never a mix.
type Analyzer struct {
	params    preprocess.Params
	threshold float64
	maxSize   int64
	store     *model.Store
	extractor *feature.Extractor
	log       *slog.Logger

	mu       sync.Mutex
	snapshot atomic.Pointer[model.Snapshot]
}

// New creates an analyzer from configuration. A nil config uses
// defaults; a nil logger uses the process default.
func New(cfg *config.Config, logger *slog.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		params: preprocess.DefaultParams().
			WithTargetSize(cfg.Image.TargetWidth, cfg.Image.TargetHeight),
		threshold: cfg.Analysis.ConfidenceThreshold,
		maxSize:   cfg.Image.MaxFileSize,
		store:     model.NewStore(cfg.Model.Path),
		extractor: feature.NewExtractor(logger),
		log:       logger,
	}
}

// Threshold returns the configured decision threshold.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Trained reports whether a classifier snapshot is loaded.
func (a *Analyzer) Trained() bool {
	return a.snapshot.Load() != nil
}

// Analyze scores a raw signature image. When template is non-empty it
// compares against the stored reference; otherwise it falls back to
// the trained model or the rule heuristic. Decode and preprocessing
// failures surface as typed errors; extraction failure degrades to a
// zero-score result without an error.
func (a *Analyzer) Analyze(raw []byte, template feature.DescriptorSet) (*Result, error) {
	start := time.Now()

	if err := imageio.ValidateBytes(raw, a.maxSize); err != nil {
		// An oversize image is a policy rejection, not a decode failure.
		if errors.Is(err, imageio.ErrTooLarge) {
			return nil, err
		}
		return nil, &preprocess.DecodeError{Reason: err.Error()}
	}

	mat, err := preprocess.Preprocess(raw, a.params)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	result := a.AnalyzeMatrix(mat, template)
	result.ImageHash = imageio.Hash(raw)
	result.ProcessingTime = time.Since(start)
	return result, nil
}

// AnalyzeMatrix scores an already-preprocessed matrix. Exposed for
// callers that run the preprocessing stages themselves.
func (a *Analyzer) AnalyzeMatrix(mat gocv.Mat, template feature.DescriptorSet) *Result {
	features := a.extractor.Extract(mat)
	if features.Empty() {
		a.log.Warn("feature extraction produced no descriptors")
		return &Result{
			Details: buildReport(features, 0, a.threshold),
		}
	}

	score, confidence, strategy := a.score(features, template)

	return &Result{
		AuthenticityScore: score,
		ConfidenceLevel:   confidence,
		IsAuthentic:       score >= a.threshold,
		Strategy:          strategy,
		Details:           buildReport(features, score, a.threshold),
		Features:          features,
	}
}

// score dispatches to exactly one scoring strategy based on available
// input.
func (a *Analyzer) score(features, template feature.DescriptorSet) (float64, float64, Strategy) {
	if !template.Empty() {
		score, confidence := Compare(features, template)
		return score, confidence, StrategyComparison
	}

	if snap := a.snapshot.Load(); snap != nil {
		score := snap.Predict(features.Vector())
		return score, score, StrategyModel
	}

	score, confidence := RuleScore(features)
	return score, confidence, StrategyRules
}

// Train fits the classifier on labeled descriptor sets, persists it,
// and swaps it in. Fewer than the minimum sample count fails without
// touching the current model.
func (a *Analyzer) Train(samples []TrainingSample) error {
	if len(samples) < model.MinTrainingSamples {
		return model.ErrInsufficientTraining
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		X[i] = s.Features.Vector()
		y[i] = s.Label
	}

	scaler, err := model.FitScaler(X)
	if err != nil {
		return err
	}

	forest, err := model.TrainForest(scaler.TransformAll(X), y, model.DefaultForestConfig())
	if err != nil {
		return err
	}

	snap := &model.Snapshot{
		Scaler:       scaler,
		Forest:       forest,
		FeatureNames: feature.CanonicalNames,
		SampleCount:  len(samples),
		TrainedAt:    time.Now().UTC(),
	}

	if err := a.store.Save(snap); err != nil {
		return err
	}

	a.snapshot.Store(snap)
	a.log.Info("classifier trained", "samples", len(samples), "path", a.store.Path())
	return nil
}

// LoadModel loads a persisted snapshot if one exists. Failures are
// logged, not raised: the analyzer degrades to rule-based scoring.
func (a *Analyzer) LoadModel() bool {
	snap, err := a.store.Load()
	if err != nil {
		a.log.Warn("model load failed, falling back to rule-based scoring", "error", err)
		return false
	}
	if snap == nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.snapshot.Store(snap)
	a.log.Info("classifier loaded", "samples", snap.SampleCount, "trained_at", snap.TrainedAt)
	return true
}

// SaveModel re-persists the in-memory snapshot, if any. Failures are
// logged, not raised.
func (a *Analyzer) SaveModel() bool {
	snap := a.snapshot.Load()
	if snap == nil {
		return false
	}
	if err := a.store.Save(snap); err != nil {
		a.log.Warn("model save failed", "error", err)
		return false
	}
	return true
}

// ModelPath returns the model document location.
func (a *Analyzer) ModelPath() string {
	return a.store.Path()
}
