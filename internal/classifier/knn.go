package classifier

import (
	"errors"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbor classifier over scaled embeddings. It keeps
// the training matrix, so it suits the small datasets this pipeline trains
// on (hundreds of images, not millions).
type KNN struct {
	K       int         `json:"k"`
	Classes int         `json:"classes"`
	X       [][]float64 `json:"x"`
	Y       []int       `json:"y"`
}

// Name implements Classifier
func (k *KNN) Name() string { return "knn" }

// Fit stores the training set
func (k *KNN) Fit(X [][]float64, y []int, numClasses int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("knn fit: empty or mismatched training set")
	}
	if k.K <= 0 {
		k.K = 5
	}
	k.X = X
	k.Y = y
	k.Classes = numClasses
	return nil
}

// PredictProba returns neighbor vote fractions per class
func (k *KNN) PredictProba(x []float64) []float64 {
	type neighbor struct {
		dist  float64
		label int
	}

	neighbors := make([]neighbor, len(k.X))
	for i, row := range k.X {
		neighbors[i] = neighbor{dist: EuclideanDistance(x, row), label: k.Y[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	kk := k.K
	if kk > len(neighbors) {
		kk = len(neighbors)
	}

	probs := make([]float64, k.Classes)
	for _, n := range neighbors[:kk] {
		probs[n.label] += 1 / float64(kk)
	}
	return probs
}

// EuclideanDistance between two vectors
func EuclideanDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// CosineSimilarity between two vectors, in [-1, 1]
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
