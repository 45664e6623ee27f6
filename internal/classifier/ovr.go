package classifier

import (
	"errors"
	"fmt"
	"math"
)

// BinaryLogistic is a sigmoid classifier for one label against the rest.
// Weights hold one coefficient per feature plus a trailing bias.
type BinaryLogistic struct {
	Weights []float64 `json:"weights"`

	// Platt scaling parameters, identity when not calibrated
	Calibrated bool    `json:"calibrated"`
	PlattA     float64 `json:"platt_a,omitempty"`
	PlattB     float64 `json:"platt_b,omitempty"`
}

// Fit trains on binary labels (1 = positive) with gradient descent
func (b *BinaryLogistic) Fit(X [][]float64, y []int, opts LogisticOptions) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return errors.New("binary fit: empty or mismatched training set")
	}
	dim := len(X[0])

	weights := sampleWeights(y, 2, opts.Balanced)
	w := make([]float64, dim+1)
	grad := make([]float64, dim+1)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}

		for i, row := range X {
			p := sigmoid(dot(w, row))
			diff := (p - float64(y[i])) * weights[i]
			for j, v := range row {
				grad[j] += diff * v
			}
			grad[dim] += diff
		}

		for j := range w {
			g := grad[j]/float64(n) + opts.L2*w[j]
			w[j] -= opts.LearningRate * g
		}
	}

	b.Weights = w
	return nil
}

// Score returns the raw sigmoid probability for the positive class
func (b *BinaryLogistic) Score(x []float64) float64 {
	return sigmoid(dot(b.Weights, x))
}

// Predict returns the calibrated positive-class probability
func (b *BinaryLogistic) Predict(x []float64) float64 {
	p := b.Score(x)
	if !b.Calibrated {
		return p
	}
	return sigmoid(b.PlattA*logit(p) + b.PlattB)
}

// Calibrate fits Platt scaling parameters on a held-out set so scores
// behave like probabilities across imbalanced training data.
func (b *BinaryLogistic) Calibrate(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("calibrate: empty or mismatched holdout set")
	}

	scores := make([]float64, len(X))
	for i, row := range X {
		scores[i] = logit(b.Score(row))
	}

	// Gradient descent on the two-parameter sigmoid fit
	a, c := 1.0, 0.0
	const lr = 0.01
	for epoch := 0; epoch < 500; epoch++ {
		var gradA, gradC float64
		for i, s := range scores {
			p := sigmoid(a*s + c)
			diff := p - float64(y[i])
			gradA += diff * s
			gradC += diff
		}
		a -= lr * gradA / float64(len(X))
		c -= lr * gradC / float64(len(X))
	}

	b.Calibrated = true
	b.PlattA = a
	b.PlattB = c
	return nil
}

// OVREnsemble holds one independent binary classifier per supplementary
// label, sharing a global scaler fitted on the union of their training data.
type OVREnsemble struct {
	Labels []string                   `json:"labels"`
	Models map[string]*BinaryLogistic `json:"models"`
}

// Score runs every member classifier on one scaled embedding
func (e *OVREnsemble) Score(x []float64) map[string]float64 {
	out := make(map[string]float64, len(e.Models))
	for label, model := range e.Models {
		out[label] = model.Predict(x)
	}
	return out
}

// Best returns the highest-scoring label
func (e *OVREnsemble) Best(x []float64) (string, float64) {
	best := ""
	top := -1.0
	for label, p := range e.Score(x) {
		if p > top {
			top = p
			best = label
		}
	}
	return best, top
}

// Validate checks the ensemble is usable
func (e *OVREnsemble) Validate() error {
	if len(e.Models) == 0 {
		return errors.New("ovr ensemble has no models")
	}
	for _, label := range e.Labels {
		if _, ok := e.Models[label]; !ok {
			return fmt.Errorf("ovr ensemble missing model for label %q", label)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// logit is the sigmoid inverse, clamped away from the poles
func logit(p float64) float64 {
	const eps = 1e-9
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}

// dot applies weights (with trailing bias) to a feature vector
func dot(w, x []float64) float64 {
	s := w[len(w)-1]
	for j, v := range x {
		s += w[j] * v
	}
	return s
}
