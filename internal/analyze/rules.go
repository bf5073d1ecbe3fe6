package analyze

import (
	"signature-analyzer/internal/feature"
)

// ruleBound is an open interval a feature must fall in to earn its bonus.
type ruleBound struct {
	name  string
	low   float64
	high  float64
	bonus float64
}

// ruleBounds are plausibility checks for a signature with no template
// and no trained model: sane proportions, ink coverage, centering, and
// shape complexity.
var ruleBounds = []ruleBound{
	{"aspect_ratio", 0.2, 5.0, 0.10},
	{"density", 0.01, 0.5, 0.10},
	{"centroid_x", 0.2, 0.8, 0.05},
	{"centroid_y", 0.2, 0.8, 0.05},
	{"compactness", 0.1, 2.0, 0.10},
}

// ruleBaseScore is the starting score before plausibility bonuses.
const ruleBaseScore = 0.5

// ruleConfidenceFactor discounts rule-based confidence relative to the
// score: heuristic results are always reported less confidently.
const ruleConfidenceFactor = 0.8

// RuleScore produces a heuristic authenticity estimate from descriptor
// plausibility alone.
func RuleScore(features feature.DescriptorSet) (score, confidence float64) {
	score = ruleBaseScore
	for _, r := range ruleBounds {
		v := features.Get(r.name)
		if v > r.low && v < r.high {
			score += r.bonus
		}
	}
	if score > 1 {
		score = 1
	}
	return score, score * ruleConfidenceFactor
}
