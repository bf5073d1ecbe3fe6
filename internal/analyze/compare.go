package analyze

import (
	"math"

	"signature-analyzer/internal/feature"
)

// comparisonWeights is the per-feature weight table for template
// comparison. Only features present in both sets contribute; the
// weighted average re-normalizes by the sum of contributing weights.
// stroke_direction and the texture extras are deliberately excluded.
var comparisonWeights = map[string]float64{
	"aspect_ratio":       0.20,
	"density":            0.15,
	"compactness":        0.15,
	"centroid_x":         0.10,
	"centroid_y":         0.10,
	"eccentricity":       0.10,
	"solidity":           0.10,
	"convexity":          0.10,
	"stroke_width_mean":  0.10,
	"stroke_width_std":   0.05,
	"curvature_mean":     0.05,
	"curvature_std":      0.05,
	"pressure_variation": 0.05,
	"pen_lifts":          0.05,
	"writing_speed":      0.05,
	"acceleration":       0.05,
}

// relativeFeatures are compared by relative difference against the
// template value.
var relativeFeatures = map[string]bool{
	"aspect_ratio":      true,
	"density":           true,
	"compactness":       true,
	"eccentricity":      true,
	"solidity":          true,
	"convexity":         true,
	"stroke_width_mean": true,
	"stroke_width_std":  true,
	"curvature_mean":    true,
	"curvature_std":     true,
}

// positionFeatures are normalized coordinates compared by scaled
// absolute difference.
var positionFeatures = map[string]bool{
	"centroid_x": true,
	"centroid_y": true,
}

// keyFeatures trigger the gross-shape-disagreement guard: a relative
// difference above keyFeatureTolerance on any of them penalizes an
// otherwise-high score accumulated from minor-weight features.
var keyFeatures = []string{"aspect_ratio", "density", "compactness"}

const (
	keyFeatureTolerance    = 0.5
	exactMatchTolerance    = 0.01
	positionScaleFactor    = 2.0
	guardScorePenalty      = 0.7
	guardConfidencePenalty = 0.8
)

// Compare computes a bounded similarity between a submitted descriptor
// set and a stored template. Both return values are in [0,1]; no
// overlapping features yields (0, 0).
func Compare(current, template feature.DescriptorSet) (score, confidence float64) {
	var weightedSum, totalWeight float64

	for name, weight := range comparisonWeights {
		if !current.Has(name) || !template.Has(name) {
			continue
		}
		weightedSum += weight * featureSimilarity(name, current.Get(name), template.Get(name))
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0, 0
	}
	score = weightedSum / totalWeight
	confidence = bandConfidence(score)

	// Gross disagreement on overall shape outweighs agreement on
	// minor-weight features.
	if maxKeyDifference(current, template) > keyFeatureTolerance {
		score *= guardScorePenalty
		confidence *= guardConfidencePenalty
	}

	return score, confidence
}

// featureSimilarity scores one feature pair in [0,1] using the rule
// for its category.
func featureSimilarity(name string, a, b float64) float64 {
	switch {
	case relativeFeatures[name]:
		if b > 0 {
			return math.Max(0, 1-math.Abs(a-b)/b)
		}
		if math.Abs(a-b) < exactMatchTolerance {
			return 1.0
		}
		return 0.0

	case positionFeatures[name]:
		return math.Max(0, 1-positionScaleFactor*math.Abs(a-b))

	case name == "pen_lifts":
		// Discrete count: one lift of slack, then a half-point per lift
		diff := math.Abs(a - b)
		if diff <= 1 {
			return 1.0
		}
		return math.Max(0, 1-(diff-1)*0.5)

	default:
		maxVal := math.Max(math.Abs(a), math.Max(math.Abs(b), 1e-6))
		return math.Max(0, 1-math.Abs(a-b)/maxVal)
	}
}

// bandConfidence maps a comparison score to a confidence level,
// downweighting low scores non-linearly.
func bandConfidence(score float64) float64 {
	switch {
	case score >= 0.85:
		return math.Min(score*1.1, 1.0)
	case score >= 0.70:
		return score * 0.9
	case score >= 0.50:
		return score * 0.7
	default:
		return score * 0.5
	}
}

// maxKeyDifference returns the largest relative difference across the
// key shape features present in both sets.
func maxKeyDifference(current, template feature.DescriptorSet) float64 {
	maxDiff := 0.0
	for _, name := range keyFeatures {
		if !current.Has(name) || !template.Has(name) {
			continue
		}
		if tv := template.Get(name); tv > 0 {
			if diff := math.Abs(current.Get(name)-tv) / tv; diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	return maxDiff
}
