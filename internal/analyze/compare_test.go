package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signature-analyzer/internal/feature"
)

// referenceDescriptor covers every weighted comparison feature with
// plausible values for a clean signature.
func referenceDescriptor() feature.DescriptorSet {
	return feature.DescriptorSet{
		"aspect_ratio":       1.0,
		"density":            0.1,
		"compactness":        1.0,
		"centroid_x":         0.5,
		"centroid_y":         0.5,
		"eccentricity":       0.5,
		"solidity":           0.8,
		"convexity":          0.9,
		"stroke_width_mean":  3.0,
		"stroke_width_std":   0.5,
		"curvature_mean":     0.2,
		"curvature_std":      0.1,
		"pressure_variation": 0.5,
		"pen_lifts":          3,
		"writing_speed":      0.05,
		"acceleration":       0.1,
	}
}

func TestCompareIdentical(t *testing.T) {
	d := referenceDescriptor()

	score, confidence := Compare(d, d.Clone())
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 1.0, confidence)
}

func TestCompareNoOverlap(t *testing.T) {
	current := feature.DescriptorSet{"texture_mean": 0.4}
	template := referenceDescriptor()

	score, confidence := Compare(current, template)
	assert.Zero(t, score)
	assert.Zero(t, confidence)
}

func TestCompareKeyFeatureGuard(t *testing.T) {
	template := referenceDescriptor()
	current := template.Clone()
	// 60% relative difference on aspect ratio trips the shape guard.
	current["aspect_ratio"] = 1.6

	score, confidence := Compare(current, template)

	// Weighted average drops only by the aspect term, then the guard
	// applies its flat penalty on top of a saturated confidence.
	unguarded := (1.45 - 0.20 + 0.20*0.4) / 1.45
	require.InDelta(t, unguarded*0.7, score, 1e-9)
	assert.InDelta(t, 0.8, confidence, 1e-9)
}

func TestCompareConfidenceBands(t *testing.T) {
	tests := []struct {
		name           string
		current        feature.DescriptorSet
		template       feature.DescriptorSet
		wantScore      float64
		wantConfidence float64
	}{
		{
			// 0.70 <= score < 0.85 band
			"mid band relative",
			feature.DescriptorSet{"aspect_ratio": 0.75},
			feature.DescriptorSet{"aspect_ratio": 1.0},
			0.75, 0.675,
		},
		{
			// position rule: 2x the absolute offset
			"high-mid band position",
			feature.DescriptorSet{"centroid_x": 0.5},
			feature.DescriptorSet{"centroid_x": 0.6},
			0.80, 0.72,
		},
		{
			// score < 0.5 band, no key feature involved
			"low band position",
			feature.DescriptorSet{"centroid_x": 0.1},
			feature.DescriptorSet{"centroid_x": 0.5},
			0.20, 0.10,
		},
		{
			// 0.50 <= score < 0.70 band; 45% aspect delta stays under
			// the guard tolerance
			"low-mid band near guard",
			feature.DescriptorSet{"aspect_ratio": 0.55},
			feature.DescriptorSet{"aspect_ratio": 1.0},
			0.55, 0.385,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, confidence := Compare(tt.current, tt.template)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.InDelta(t, tt.wantConfidence, confidence, 1e-9)
		})
	}
}

func TestFeatureSimilarity(t *testing.T) {
	// Pen lifts get one lift of slack before similarity decays.
	assert.Equal(t, 1.0, featureSimilarity("pen_lifts", 3, 3))
	assert.Equal(t, 1.0, featureSimilarity("pen_lifts", 5, 4))
	assert.InDelta(t, 0.5, featureSimilarity("pen_lifts", 5, 3), 1e-9)
	assert.Equal(t, 0.0, featureSimilarity("pen_lifts", 5, 2))

	// Relative rule against a zero template value falls back to an
	// exact-match check.
	assert.Equal(t, 1.0, featureSimilarity("curvature_mean", 0.005, 0))
	assert.Equal(t, 0.0, featureSimilarity("curvature_mean", 0.5, 0))

	// Default rule normalizes by the larger magnitude.
	assert.InDelta(t, 0.5, featureSimilarity("writing_speed", 0.1, 0.05), 1e-9)
}

func TestMaxKeyDifference(t *testing.T) {
	template := referenceDescriptor()
	current := template.Clone()
	current["density"] = 0.18

	assert.InDelta(t, 0.8, maxKeyDifference(current, template), 1e-9)
	assert.Zero(t, maxKeyDifference(template, template))
}
