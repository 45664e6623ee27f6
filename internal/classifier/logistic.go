package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogisticOptions control the gradient-descent fit
type LogisticOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
	// Balanced reweights samples inversely to class frequency
	Balanced bool
}

// DefaultLogisticOptions work for a few hundred 512-d embeddings
func DefaultLogisticOptions() LogisticOptions {
	return LogisticOptions{
		Epochs:       400,
		LearningRate: 0.1,
		L2:           1e-4,
	}
}

// Logistic is a multinomial logistic regression classifier. Weights has one
// row per class; the last column is the bias term.
type Logistic struct {
	Weights [][]float64 `json:"weights"`
	Classes int         `json:"classes"`
}

// Name implements Classifier
func (l *Logistic) Name() string { return "logreg" }

// Fit trains with full-batch gradient descent on the softmax cross-entropy.
func (l *Logistic) Fit(X [][]float64, y []int, numClasses int, opts LogisticOptions) error {
	n := len(X)
	if n == 0 || n != len(y) {
		return errors.New("logistic fit: empty or mismatched training set")
	}
	if numClasses < 2 {
		return errors.New("logistic fit: need at least two classes")
	}
	dim := len(X[0])

	// Design matrix with bias column
	xb := mat.NewDense(n, dim+1, nil)
	for i, row := range X {
		if len(row) != dim {
			return fmt.Errorf("logistic fit: row %d has %d features, want %d", i, len(row), dim)
		}
		for j, v := range row {
			xb.Set(i, j, v)
		}
		xb.Set(i, dim, 1)
	}

	// One-hot targets, optionally reweighted per class
	weights := sampleWeights(y, numClasses, opts.Balanced)
	target := mat.NewDense(n, numClasses, nil)
	for i, c := range y {
		if c < 0 || c >= numClasses {
			return fmt.Errorf("logistic fit: label %d out of range", c)
		}
		target.Set(i, c, 1)
	}

	w := mat.NewDense(numClasses, dim+1, nil)
	var logits, probs, diff, grad mat.Dense

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		logits.Mul(xb, w.T())
		softmaxRows(&probs, &logits)

		diff.Sub(&probs, target)
		for i := range y {
			if weights[i] != 1 {
				rowScale(&diff, i, weights[i])
			}
		}

		grad.Mul(diff.T(), xb)
		grad.Scale(1/float64(n), &grad)
		if opts.L2 > 0 {
			var reg mat.Dense
			reg.Scale(opts.L2, w)
			grad.Add(&grad, &reg)
		}

		var step mat.Dense
		step.Scale(opts.LearningRate, &grad)
		w.Sub(w, &step)
	}

	l.Classes = numClasses
	l.Weights = make([][]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		l.Weights[c] = mat.Row(nil, c, w)
	}

	return nil
}

// PredictProba returns the softmax distribution over the classes
func (l *Logistic) PredictProba(x []float64) []float64 {
	scores := make([]float64, l.Classes)
	for c, row := range l.Weights {
		s := row[len(row)-1] // bias
		for j, v := range x {
			s += row[j] * v
		}
		scores[c] = s
	}
	return softmax(scores)
}

// sampleWeights returns per-sample weights, all ones unless balanced
func sampleWeights(y []int, numClasses int, balanced bool) []float64 {
	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}
	if !balanced {
		return weights
	}

	counts := make([]float64, numClasses)
	for _, c := range y {
		counts[c]++
	}
	for i, c := range y {
		if counts[c] > 0 {
			weights[i] = float64(len(y)) / (float64(numClasses) * counts[c])
		}
	}
	return weights
}

// softmaxRows writes the row-wise softmax of src into dst
func softmaxRows(dst, src *mat.Dense) {
	r, c := src.Dims()
	dst.Reset()
	dst.ReuseAs(r, c)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, src)
		for j, v := range softmax(row) {
			dst.Set(i, j, v)
		}
	}
}

// softmax is numerically stabilized by max subtraction
func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	var total float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// rowScale multiplies row i of m in place
func rowScale(m *mat.Dense, i int, f float64) {
	_, c := m.Dims()
	for j := 0; j < c; j++ {
		m.Set(i, j, m.At(i, j)*f)
	}
}
