package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// LinearArtifact is the serialized form the training job writes: a linear
// binary classifier with a bias term. The feature order the weights were
// fit against lives in the model's metadata record, not the artifact.
type LinearArtifact struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Load decodes a serialized artifact from disk.
func Load(path string) (*LinearArtifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", path, err)
	}
	var a LinearArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if len(a.Weights) == 0 {
		return nil, fmt.Errorf("decode artifact %s: no weights", path)
	}
	return &a, nil
}

// Predict votes 1 when the linear score clears zero, 0 otherwise.
func (a *LinearArtifact) Predict(features []float64) (int, error) {
	if len(features) != len(a.Weights) {
		return 0, fmt.Errorf("predict: %d features, model has %d weights", len(features), len(a.Weights))
	}
	score := a.Bias
	for i, w := range a.Weights {
		score += w * features[i]
	}
	if score > 0 {
		return 1, nil
	}
	return 0, nil
}
