package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edbennett/daytrader/internal/domain"
)

func ensembleRecord(modelID, symbol string, threshold float64, object string) *domain.ModelRecord {
	return &domain.ModelRecord{
		ModelID:        modelID,
		Symbols:        []string{symbol},
		ThresholdPct:   threshold,
		FeatureOrder:   testFeatureOrder,
		ArtifactObject: object,
		CreatedAt:      time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
	}
}

func stubLoader(path string) (domain.Predictor, error) {
	return stubPredictor{out: 1}, nil
}

func TestEnsembleLoadGroupsModelsBySymbol(t *testing.T) {
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		ensembleRecord("sym", "AAPL", 0, "sym.json"),
		ensembleRecord("pos", "AAPL", 2.5, "pos.json"),
		ensembleRecord("neg", "AAPL", -2.5, "neg.json"),
	}}
	store := &mockObjectStore{}
	ensemble := NewEnsemble(repo, store, stubLoader, "models", t.TempDir(), zap.NewNop())

	sets, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set := sets["AAPL"]
	require.NotNil(t, set)
	assert.NotNil(t, set.Symmetric)
	assert.NotNil(t, set.Positive)
	assert.NotNil(t, set.Negative)
	assert.Equal(t, "sym", set.SymmetricRecord.ModelID)
	assert.Equal(t, "pos", set.PositiveRecord.ModelID)
	assert.Equal(t, "neg", set.NegativeRecord.ModelID)
}

func TestEnsembleLoadExcludesIncompleteSets(t *testing.T) {
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		// Threshold models without a symmetric classifier cannot vote.
		ensembleRecord("pos", "TSLA", 2.5, "pos.json"),
		ensembleRecord("neg", "TSLA", -2.5, "neg.json"),
		// A symmetric classifier alone has no directional confirmation.
		ensembleRecord("sym", "MSFT", 0, "sym-msft.json"),
	}}
	ensemble := NewEnsemble(repo, &mockObjectStore{}, stubLoader, "models", t.TempDir(), zap.NewNop())

	sets, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestEnsembleLoadAllowsSingleThresholdModel(t *testing.T) {
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		ensembleRecord("sym", "AAPL", 0, "sym.json"),
		ensembleRecord("pos", "AAPL", 2.5, "pos.json"),
	}}
	ensemble := NewEnsemble(repo, &mockObjectStore{}, stubLoader, "models", t.TempDir(), zap.NewNop())

	sets, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Nil(t, sets["AAPL"].Negative)
}

func TestEnsembleCachesArtifactsByObject(t *testing.T) {
	// Two symbols sharing one artifact object download it once.
	shared := ensembleRecord("sym-a", "AAPL", 0, "shared.json")
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		shared,
		ensembleRecord("pos-a", "AAPL", 2.5, "shared.json"),
	}}
	store := &mockObjectStore{}
	ensemble := NewEnsemble(repo, store, stubLoader, "models", t.TempDir(), zap.NewNop())

	_, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.downloads)
}

func TestEnsembleSkipsSymbolOnDownloadFailure(t *testing.T) {
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		ensembleRecord("sym", "AAPL", 0, "sym.json"),
		ensembleRecord("pos", "AAPL", 2.5, "pos.json"),
	}}
	store := &mockObjectStore{err: errors.New("bucket unavailable")}
	ensemble := NewEnsemble(repo, store, stubLoader, "models", t.TempDir(), zap.NewNop())

	sets, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestEnsembleLoadPropagatesRepositoryError(t *testing.T) {
	repo := &mockModelRepo{err: errors.New("db locked")}
	ensemble := NewEnsemble(repo, &mockObjectStore{}, stubLoader, "models", t.TempDir(), zap.NewNop())

	_, err := ensemble.Load(context.Background(), time.Time{})
	assert.ErrorContains(t, err, "db locked")
}

func TestEnsembleCleanupRemovesStagedArtifacts(t *testing.T) {
	staging := t.TempDir()
	repo := &mockModelRepo{records: []*domain.ModelRecord{
		ensembleRecord("sym", "AAPL", 0, "sym.json"),
		ensembleRecord("pos", "AAPL", 2.5, "pos.json"),
	}}
	ensemble := NewEnsemble(repo, &mockObjectStore{}, stubLoader, "models", staging, zap.NewNop())

	_, err := ensemble.Load(context.Background(), time.Time{})
	require.NoError(t, err)

	symPath := filepath.Join(staging, "sym.json")
	_, statErr := os.Stat(symPath)
	require.NoError(t, statErr)

	ensemble.Cleanup()
	_, statErr = os.Stat(symPath)
	assert.True(t, os.IsNotExist(statErr))
}
