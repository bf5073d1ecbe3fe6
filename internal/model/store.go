package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// modelFileName is the persisted model document inside the store directory.
const modelFileName = "signature_model.json"

// Snapshot is an immutable fitted classifier: the forest, its scaler,
// and the feature order they were trained against. Analyzers swap
// whole snapshots atomically so readers never observe a half-updated
// model/scaler pair.
type Snapshot struct {
	Scaler       *Scaler   `json:"scaler"`
	Forest       *Forest   `json:"forest"`
	FeatureNames []string  `json:"feature_names"`
	SampleCount  int       `json:"sample_count"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Predict scales a raw canonical feature vector and returns the
// genuine-signature probability.
func (s *Snapshot) Predict(vector []float64) float64 {
	return s.Forest.PredictProba(s.Scaler.Transform(vector))
}

// Store persists model snapshots as a JSON document in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the model document path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, modelFileName)
}

// Save persists a snapshot. The document is written to a temp file and
// renamed into place so a concurrent Load never sees a partial write.
func (s *Store) Save(snap *Snapshot) error {
	if snap == nil || snap.Forest == nil || snap.Scaler == nil {
		return fmt.Errorf("cannot save incomplete model snapshot")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, modelFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close model file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to install model file: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. A missing document returns
// (nil, nil): absence of a trained model is a normal degraded state,
// not an error.
func (s *Store) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if snap.Forest == nil || snap.Scaler == nil {
		return nil, fmt.Errorf("model document missing forest or scaler")
	}
	return &snap, nil
}
