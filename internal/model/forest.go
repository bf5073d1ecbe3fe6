package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// MinTrainingSamples is the smallest labeled-sample count accepted for
// training.
const MinTrainingSamples = 10

// ErrInsufficientTraining is returned when too few labeled samples are
// supplied to train the classifier.
var ErrInsufficientTraining = errors.New("insufficient training data")

// ForestConfig configures ensemble training.
type ForestConfig struct {
	NumTrees    int   `json:"num_trees"`
	MaxDepth    int   `json:"max_depth"`
	MinLeafSize int   `json:"min_leaf_size"`
	Seed        int64 `json:"seed"`
}

// DefaultForestConfig returns the standard ensemble parameters. The
// fixed seed keeps retraining on identical data reproducible.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:    100,
		MaxDepth:    10,
		MinLeafSize: 1,
		Seed:        42,
	}
}

// treeNode is one node of a decision tree. Leaf nodes have Left == -1
// and carry the positive-class fraction of their training samples.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a single CART classifier stored as a flat node array.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

// Forest is an ensemble of decision trees over the canonical feature
// vector. Probability estimates average the per-tree leaf fractions.
type Forest struct {
	Trees       []Tree       `json:"trees"`
	NumFeatures int          `json:"num_features"`
	Config      ForestConfig `json:"config"`
}

// TrainForest fits an ensemble on labeled feature vectors. Labels are
// 0 (forged) or 1 (genuine). Each tree trains on a bootstrap sample
// and considers a random √p feature subset at every split.
func TrainForest(X [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("sample/label count mismatch: %d vs %d", len(X), len(y))
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("labels must be 0 or 1, got %d", label)
		}
	}

	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &Forest{
		Trees:       make([]Tree, cfg.NumTrees),
		NumFeatures: numFeatures,
		Config:      cfg,
	}

	mtry := int(math.Sqrt(float64(numFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	for t := 0; t < cfg.NumTrees; t++ {
		indices := make([]int, len(X))
		for i := range indices {
			indices[i] = rng.Intn(len(X))
		}

		builder := &treeBuilder{
			X:       X,
			y:       y,
			cfg:     cfg,
			mtry:    mtry,
			rng:     rng,
			numFeat: numFeatures,
		}
		builder.grow(indices, 0)
		f.Trees[t] = Tree{Nodes: builder.nodes}
	}

	return f, nil
}

// treeBuilder grows one tree into a flat node slice.
type treeBuilder struct {
	X       [][]float64
	y       []int
	cfg     ForestConfig
	mtry    int
	rng     *rand.Rand
	numFeat int
	nodes   []treeNode
}

// grow builds the subtree for the given sample indices and returns its
// node index.
func (b *treeBuilder) grow(indices []int, depth int) int {
	positives := 0
	for _, i := range indices {
		positives += b.y[i]
	}
	fraction := float64(positives) / float64(len(indices))

	if depth >= b.cfg.MaxDepth || positives == 0 || positives == len(indices) ||
		len(indices) <= b.cfg.MinLeafSize {
		return b.leaf(fraction)
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return b.leaf(fraction)
	}

	var left, right []int
	for _, i := range indices {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(fraction)
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: feature, Threshold: threshold, Left: -1, Right: -1})
	leftIdx := b.grow(left, depth+1)
	rightIdx := b.grow(right, depth+1)
	b.nodes[idx].Left = leftIdx
	b.nodes[idx].Right = rightIdx
	return idx
}

func (b *treeBuilder) leaf(fraction float64) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: -1, Left: -1, Right: -1, Value: fraction})
	return idx
}

// bestSplit finds the Gini-impurity-minimizing split over a random
// feature subset, with thresholds at midpoints between consecutive
// distinct values.
func (b *treeBuilder) bestSplit(indices []int) (int, float64, bool) {
	features := b.rng.Perm(b.numFeat)[:b.mtry]

	bestGini := math.Inf(1)
	bestFeature := -1
	bestThreshold := 0.0

	values := make([]float64, 0, len(indices))
	for _, feature := range features {
		values = values[:0]
		for _, i := range indices {
			values = append(values, b.X[i][feature])
		}
		sort.Float64s(values)

		for k := 0; k < len(values)-1; k++ {
			if values[k] == values[k+1] {
				continue
			}
			threshold := (values[k] + values[k+1]) / 2

			var leftN, leftPos, rightN, rightPos int
			for _, i := range indices {
				if b.X[i][feature] <= threshold {
					leftN++
					leftPos += b.y[i]
				} else {
					rightN++
					rightPos += b.y[i]
				}
			}
			if leftN == 0 || rightN == 0 {
				continue
			}

			gini := weightedGini(leftN, leftPos, rightN, rightPos)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// weightedGini computes the size-weighted Gini impurity of a split.
func weightedGini(leftN, leftPos, rightN, rightPos int) float64 {
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftN, leftPos) +
		float64(rightN)/total*gini(rightN, rightPos)
}

func gini(n, pos int) float64 {
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}

// PredictProba returns the probability that a scaled feature vector is
// a genuine signature.
func (f *Forest) PredictProba(v []float64) float64 {
	if len(f.Trees) == 0 {
		return 0.5
	}

	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(v)
	}
	return sum / float64(len(f.Trees))
}

// predict walks the tree to a leaf and returns its positive fraction.
func (t Tree) predict(v []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0.5
	}

	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Left < 0 {
			return node.Value
		}
		if node.Feature < len(v) && v[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}
