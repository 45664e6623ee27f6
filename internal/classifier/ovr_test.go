package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryData(seed int64) (X [][]float64, y []int) {
	negX, _ := syntheticClusters(30, [][]float64{{0, 0}}, seed)
	posX, _ := syntheticClusters(30, [][]float64{{4, 4}}, seed+1)

	for _, row := range negX {
		X = append(X, row)
		y = append(y, 0)
	}
	for _, row := range posX {
		X = append(X, row)
		y = append(y, 1)
	}
	return X, y
}

func TestBinaryLogistic_Fit(t *testing.T) {
	X, y := binaryData(11)

	var clf BinaryLogistic
	require.NoError(t, clf.Fit(X, y, DefaultLogisticOptions()))

	assert.Greater(t, clf.Predict([]float64{4, 4}), 0.8)
	assert.Less(t, clf.Predict([]float64{0, 0}), 0.2)
}

func TestBinaryLogistic_Calibrate(t *testing.T) {
	X, y := binaryData(13)

	var clf BinaryLogistic
	require.NoError(t, clf.Fit(X, y, DefaultLogisticOptions()))
	require.NoError(t, clf.Calibrate(X, y))

	assert.True(t, clf.Calibrated)
	// Calibration must preserve the decision direction
	assert.Greater(t, clf.Predict([]float64{4, 4}), 0.5)
	assert.Less(t, clf.Predict([]float64{0, 0}), 0.5)
}

func TestBinaryLogistic_Errors(t *testing.T) {
	var clf BinaryLogistic
	assert.Error(t, clf.Fit(nil, nil, DefaultLogisticOptions()))
	assert.Error(t, clf.Calibrate(nil, nil))
}

func TestOVREnsemble(t *testing.T) {
	// Three labels in different corners, negatives at the origin
	corners := map[string][]float64{
		"confusion": {5, 0},
		"laughing":  {0, 5},
		"emptiness": {-5, 0},
	}

	ensemble := &OVREnsemble{
		Labels: []string{"confusion", "laughing", "emptiness"},
		Models: make(map[string]*BinaryLogistic),
	}

	for label, corner := range corners {
		posX, _ := syntheticClusters(25, [][]float64{corner}, 21)
		negX, _ := syntheticClusters(25, [][]float64{{0, 0}}, 22)

		var X [][]float64
		var y []int
		for _, row := range negX {
			X = append(X, row)
			y = append(y, 0)
		}
		for _, row := range posX {
			X = append(X, row)
			y = append(y, 1)
		}

		clf := &BinaryLogistic{}
		require.NoError(t, clf.Fit(X, y, DefaultLogisticOptions()))
		ensemble.Models[label] = clf
	}

	require.NoError(t, ensemble.Validate())

	label, prob := ensemble.Best([]float64{0, 5})
	assert.Equal(t, "laughing", label)
	assert.Greater(t, prob, 0.5)

	scores := ensemble.Score([]float64{5, 0})
	assert.Greater(t, scores["confusion"], scores["emptiness"])
}

func TestOVREnsemble_Validate(t *testing.T) {
	empty := &OVREnsemble{}
	assert.Error(t, empty.Validate())

	missing := &OVREnsemble{
		Labels: []string{"confusion"},
		Models: map[string]*BinaryLogistic{"laughing": {}},
	}
	assert.Error(t, missing.Validate())
}

func TestLogit(t *testing.T) {
	assert.InDelta(t, 0.0, logit(0.5), 1e-9)
	// clamped at the poles, must stay finite
	assert.False(t, logit(0) < -1e12 || logit(1) > 1e12)
}
