package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadArtifact(t *testing.T) {
	path := writeArtifact(t, `{"weights":[0.5,-0.25],"bias":0.1}`)

	a, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -0.25}, a.Weights)
	assert.Equal(t, 0.1, a.Bias)
}

func TestLoadArtifactMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadArtifactMalformed(t *testing.T) {
	_, err := Load(writeArtifact(t, `{"weights":`))
	assert.ErrorContains(t, err, "decode artifact")
}

func TestLoadArtifactWithoutWeights(t *testing.T) {
	_, err := Load(writeArtifact(t, `{"bias":1.0}`))
	assert.ErrorContains(t, err, "no weights")
}

func TestPredictVotesOnSign(t *testing.T) {
	a := &LinearArtifact{Weights: []float64{1, -1}, Bias: 0}

	up, err := a.Predict([]float64{2, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, up)

	down, err := a.Predict([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, down)

	// Zero score does not vote up.
	flat, err := a.Predict([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, flat)
}

func TestPredictDimensionMismatch(t *testing.T) {
	a := &LinearArtifact{Weights: []float64{1, 2}}
	_, err := a.Predict([]float64{1})
	assert.Error(t, err)
}
