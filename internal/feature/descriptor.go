package feature

import (
	"encoding/json"
)

// CanonicalNames is the fixed, ordered feature set every descriptor
// vector is keyed by. Scoring and model training depend on this order.
var CanonicalNames = []string{
	"aspect_ratio",
	"density",
	"centroid_x",
	"centroid_y",
	"compactness",
	"eccentricity",
	"solidity",
	"convexity",
	"stroke_width_mean",
	"stroke_width_std",
	"stroke_direction",
	"curvature_mean",
	"curvature_std",
	"pressure_variation",
	"pen_lifts",
	"writing_speed",
	"acceleration",
}

// DescriptorSet maps feature names to measured values. An empty set
// signals extraction failure; it is never mutated after extraction.
type DescriptorSet map[string]float64

// Empty reports whether the set carries no features.
func (d DescriptorSet) Empty() bool {
	return len(d) == 0
}

// Get returns the named feature, or 0 if absent.
func (d DescriptorSet) Get(name string) float64 {
	return d[name]
}

// Has reports whether the named feature is present.
func (d DescriptorSet) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Vector converts the set to the canonical feature order. Missing
// features contribute 0.
func (d DescriptorSet) Vector() []float64 {
	vec := make([]float64, len(CanonicalNames))
	for i, name := range CanonicalNames {
		vec[i] = d[name]
	}
	return vec
}

// Clone returns a copy of the set.
func (d DescriptorSet) Clone() DescriptorSet {
	out := make(DescriptorSet, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Serialize encodes the set as a JSON document with full float64
// round-trip precision.
func (d DescriptorSet) Serialize() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Deserialize parses a JSON descriptor document. A document that
// cannot be parsed yields an empty set, never an error.
func Deserialize(data []byte) DescriptorSet {
	var d DescriptorSet
	if err := json.Unmarshal(data, &d); err != nil {
		return DescriptorSet{}
	}
	if d == nil {
		return DescriptorSet{}
	}
	return d
}
