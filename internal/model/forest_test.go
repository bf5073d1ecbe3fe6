package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableSet builds a linearly separable two-class training set: the
// first feature carries the class, the second is a constant distractor.
func separableSet() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 10; i++ {
		X = append(X, []float64{-2 - 0.1*float64(i), 1})
		y = append(y, 0)
		X = append(X, []float64{2 + 0.1*float64(i), 1})
		y = append(y, 1)
	}
	return X, y
}

func TestTrainForestSeparable(t *testing.T) {
	X, y := separableSet()

	cfg := DefaultForestConfig()
	cfg.NumTrees = 25

	f, err := TrainForest(X, y, cfg)
	require.NoError(t, err)
	require.Len(t, f.Trees, 25)
	assert.Equal(t, 2, f.NumFeatures)

	assert.Greater(t, f.PredictProba([]float64{3, 1}), 0.9)
	assert.Less(t, f.PredictProba([]float64{-3, 1}), 0.1)
}

func TestTrainForestDeterministic(t *testing.T) {
	X, y := separableSet()

	cfg := DefaultForestConfig()
	cfg.NumTrees = 10

	f1, err := TrainForest(X, y, cfg)
	require.NoError(t, err)
	f2, err := TrainForest(X, y, cfg)
	require.NoError(t, err)

	// Same seed, same data, same ensemble.
	require.Equal(t, f1, f2)
}

func TestTrainForestValidation(t *testing.T) {
	_, err := TrainForest(nil, nil, DefaultForestConfig())
	require.Error(t, err)

	_, err = TrainForest([][]float64{{1}, {2}}, []int{0}, DefaultForestConfig())
	require.Error(t, err)

	_, err = TrainForest([][]float64{{1}}, []int{2}, DefaultForestConfig())
	require.Error(t, err)
}

func TestPredictProbaEmptyForest(t *testing.T) {
	f := &Forest{}
	assert.Equal(t, 0.5, f.PredictProba([]float64{1, 2}))
}
