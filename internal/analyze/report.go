package analyze

import (
	"signature-analyzer/internal/feature"
)

// Recommendation values for the structured report.
const (
	RecommendationAuthentic  = "Authentic"
	RecommendationSuspicious = "Suspicious"
)

// Report is the structured explanation attached to every analysis
// result, grouping the descriptors a reviewer would inspect first.
type Report struct {
	FeatureAnalysis   FeatureAnalysis   `json:"feature_analysis"`
	StrokeAnalysis    StrokeAnalysis    `json:"stroke_analysis"`
	QualityIndicators QualityIndicators `json:"quality_indicators"`
	OverallScore      float64           `json:"overall_score"`
	Recommendation    string            `json:"recommendation"`
}

// FeatureAnalysis summarizes overall shape descriptors.
type FeatureAnalysis struct {
	AspectRatio  float64 `json:"aspect_ratio"`
	Density      float64 `json:"density"`
	Compactness  float64 `json:"compactness"`
	Eccentricity float64 `json:"eccentricity"`
}

// StrokeAnalysis summarizes stroke descriptors.
type StrokeAnalysis struct {
	StrokeWidthMean float64 `json:"stroke_width_mean"`
	StrokeWidthStd  float64 `json:"stroke_width_std"`
	PenLifts        float64 `json:"pen_lifts"`
}

// QualityIndicators summarizes shape-quality descriptors.
type QualityIndicators struct {
	Solidity          float64 `json:"solidity"`
	Convexity         float64 `json:"convexity"`
	PressureVariation float64 `json:"pressure_variation"`
}

// buildReport assembles the explanation for a scored descriptor set.
func buildReport(features feature.DescriptorSet, score, threshold float64) *Report {
	recommendation := RecommendationSuspicious
	if score >= threshold {
		recommendation = RecommendationAuthentic
	}

	return &Report{
		FeatureAnalysis: FeatureAnalysis{
			AspectRatio:  features.Get("aspect_ratio"),
			Density:      features.Get("density"),
			Compactness:  features.Get("compactness"),
			Eccentricity: features.Get("eccentricity"),
		},
		StrokeAnalysis: StrokeAnalysis{
			StrokeWidthMean: features.Get("stroke_width_mean"),
			StrokeWidthStd:  features.Get("stroke_width_std"),
			PenLifts:        features.Get("pen_lifts"),
		},
		QualityIndicators: QualityIndicators{
			Solidity:          features.Get("solidity"),
			Convexity:         features.Get("convexity"),
			PressureVariation: features.Get("pressure_variation"),
		},
		OverallScore:   score,
		Recommendation: recommendation,
	}
}
