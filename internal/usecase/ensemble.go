package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

// PredictorLoader deserializes an artifact file into an opaque predictor.
type PredictorLoader func(path string) (domain.Predictor, error)

// ModelSet is one symbol's loaded ensemble: a symmetric up/down classifier
// plus up to two threshold classifiers.
type ModelSet struct {
	Symmetric domain.Predictor
	Positive  domain.Predictor
	Negative  domain.Predictor

	SymmetricRecord *domain.ModelRecord
	PositiveRecord  *domain.ModelRecord
	NegativeRecord  *domain.ModelRecord
}

// Complete reports whether the set may vote. A symbol missing its symmetric
// model, or missing both threshold models, is excluded entirely: partial
// ensembles create asymmetric risk exposure.
func (m *ModelSet) Complete() bool {
	return m.Symmetric != nil && (m.Positive != nil || m.Negative != nil)
}

// Ensemble loads trained classifiers per symbol. Artifacts are cached for
// the process lifetime in a staging directory keyed by object name; cache
// misses are fetched from object storage.
type Ensemble struct {
	repo       domain.ModelRepository
	store      domain.ObjectStore
	loader     PredictorLoader
	bucket     string
	stagingDir string
	logger     *zap.Logger

	cache  map[string]domain.Predictor
	staged []string
}

func NewEnsemble(repo domain.ModelRepository, store domain.ObjectStore, loader PredictorLoader, bucket, stagingDir string, logger *zap.Logger) *Ensemble {
	return &Ensemble{
		repo:       repo,
		store:      store,
		loader:     loader,
		bucket:     bucket,
		stagingDir: stagingDir,
		logger:     logger,
		cache:      make(map[string]domain.Predictor),
	}
}

// Load reads metadata for models trained since the freshness cutoff and
// materializes per-symbol ensembles. Symbols whose set is incomplete, or
// whose artifact cannot be retrieved, are skipped with a log line; one bad
// symbol never stops the rest.
func (e *Ensemble) Load(ctx context.Context, since time.Time) (map[string]*ModelSet, error) {
	records, err := e.repo.ActiveModels(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}

	sets := make(map[string]*ModelSet)
	for _, record := range records {
		symbol := record.Symbol()
		if symbol == "" {
			e.logger.Warn("model without symbols", zap.String("model_id", record.ModelID))
			continue
		}

		predictor, err := e.predictor(ctx, record)
		if err != nil {
			e.logger.Warn("failed to load artifact",
				zap.String("model_id", record.ModelID),
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}

		set := sets[symbol]
		if set == nil {
			set = &ModelSet{}
			sets[symbol] = set
		}
		switch record.Class() {
		case domain.ModelSymmetric:
			set.Symmetric, set.SymmetricRecord = predictor, record
		case domain.ModelPositiveThreshold:
			set.Positive, set.PositiveRecord = predictor, record
		case domain.ModelNegativeThreshold:
			set.Negative, set.NegativeRecord = predictor, record
		}
	}

	for symbol, set := range sets {
		if !set.Complete() {
			e.logger.Info("incomplete ensemble, excluding symbol", zap.String("symbol", symbol))
			delete(sets, symbol)
		}
	}

	e.logger.Info("ensembles loaded", zap.Int("symbols", len(sets)), zap.Int("models", len(records)))
	return sets, nil
}

func (e *Ensemble) predictor(ctx context.Context, record *domain.ModelRecord) (domain.Predictor, error) {
	if p, ok := e.cache[record.ArtifactObject]; ok {
		return p, nil
	}

	path := filepath.Join(e.stagingDir, record.ArtifactObject)
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := e.store.Download(ctx, e.bucket, record.ArtifactObject, path); err != nil {
			return nil, err
		}
		e.staged = append(e.staged, path)
	}

	p, err := e.loader(path)
	if err != nil {
		return nil, err
	}
	e.cache[record.ArtifactObject] = p
	return p, nil
}

// Cleanup removes artifacts staged during this session.
func (e *Ensemble) Cleanup() {
	for _, path := range e.staged {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove staged artifact", zap.String("path", path), zap.Error(err))
		}
	}
	e.staged = nil
}
