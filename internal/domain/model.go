package domain

import "time"

// ModelClass partitions trained classifiers by the threshold they were
// trained against.
type ModelClass string

const (
	ModelSymmetric         ModelClass = "symmetric"
	ModelPositiveThreshold ModelClass = "positive_threshold"
	ModelNegativeThreshold ModelClass = "negative_threshold"
)

// ModelRecord is the stored metadata for one trained classifier. Records are
// written by the training job and read-only here.
type ModelRecord struct {
	ModelID          string
	Symbols          []string
	ThresholdPct     float64
	FeatureOrder     []string
	Accuracy         float64
	BalancedAccuracy float64
	Precision        float64
	TrainingSetRows  int64
	ArtifactObject   string
	CreatedAt        time.Time
}

// Class derives the threshold class from the stored threshold percentage.
func (m *ModelRecord) Class() ModelClass {
	switch {
	case m.ThresholdPct > 0:
		return ModelPositiveThreshold
	case m.ThresholdPct < 0:
		return ModelNegativeThreshold
	}
	return ModelSymmetric
}

// Symbol returns the single symbol the model was trained on. Models are
// single-symbol in practice; the first entry is authoritative.
func (m *ModelRecord) Symbol() string {
	if len(m.Symbols) == 0 {
		return ""
	}
	return m.Symbols[0]
}

// Predictor is the only capability the pipeline needs from a deserialized
// model artifact: a binary vote on a feature vector.
type Predictor interface {
	Predict(features []float64) (int, error)
}
