// Package model implements the trainable authenticity classifier: a
// feature-standardizing scaler, an ensemble of decision trees, and a
// JSON-backed store for the fitted pair.
package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes feature vectors to zero mean and unit variance,
// fitted over the canonical feature order.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler fits a scaler over the rows of X. Columns with zero spread
// scale by 1 so constant features pass through centered.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, fmt.Errorf("cannot fit scaler on empty data")
	}

	cols := len(X[0])
	s := &Scaler{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}

	column := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			if len(row) != cols {
				return nil, fmt.Errorf("ragged training matrix: row %d has %d features, want %d", i, len(row), cols)
			}
			column[i] = row[j]
		}
		s.Mean[j] = stat.Mean(column, nil)
		s.Std[j] = stat.PopStdDev(column, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s, nil
}

// Len returns the fitted feature count.
func (s *Scaler) Len() int {
	return len(s.Mean)
}

// Transform standardizes a single feature vector.
func (s *Scaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i < len(s.Mean) {
			out[i] = (v[i] - s.Mean[i]) / s.Std[i]
		} else {
			out[i] = v[i]
		}
	}
	return out
}

// TransformAll standardizes a matrix of feature vectors.
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
