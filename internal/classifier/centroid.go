package classifier

import "errors"

// NearestCentroid classifies by distance to per-class mean embeddings.
type NearestCentroid struct {
	Centroids [][]float64 `json:"centroids"`
	Classes   int         `json:"classes"`
}

// Name implements Classifier
func (nc *NearestCentroid) Name() string { return "centroid" }

// Fit computes the mean embedding of each class
func (nc *NearestCentroid) Fit(X [][]float64, y []int, numClasses int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("centroid fit: empty or mismatched training set")
	}

	dim := len(X[0])
	sums := make([][]float64, numClasses)
	counts := make([]float64, numClasses)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, row := range X {
		c := y[i]
		counts[c]++
		for j, v := range row {
			sums[c][j] += v
		}
	}

	for c := range sums {
		if counts[c] == 0 {
			return errors.New("centroid fit: class with no samples")
		}
		for j := range sums[c] {
			sums[c][j] /= counts[c]
		}
	}

	nc.Centroids = sums
	nc.Classes = numClasses
	return nil
}

// PredictProba softmaxes the negative distances so closer centroids score
// higher. The output is a proper distribution but not a calibrated one.
func (nc *NearestCentroid) PredictProba(x []float64) []float64 {
	scores := make([]float64, nc.Classes)
	for c, centroid := range nc.Centroids {
		scores[c] = -EuclideanDistance(x, centroid)
	}
	return softmax(scores)
}
