package classifier

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

// StandardScaler centers features to zero mean and unit variance, fitted on
// the training embeddings and reused verbatim at serving time.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-feature moments over the sample matrix
func FitScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, errors.New("fit scaler: empty sample matrix")
	}

	dim := len(X[0])
	scaler := &StandardScaler{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
	}

	column := make([]float64, len(X))
	for j := 0; j < dim; j++ {
		for i, row := range X {
			if len(row) != dim {
				return nil, fmt.Errorf("fit scaler: row %d has %d features, want %d", i, len(row), dim)
			}
			column[i] = row[j]
		}

		mean, err := stats.Mean(column)
		if err != nil {
			return nil, fmt.Errorf("fit scaler: %w", err)
		}
		std, err := stats.StandardDeviation(column)
		if err != nil {
			return nil, fmt.Errorf("fit scaler: %w", err)
		}

		scaler.Mean[j] = mean
		scaler.Std[j] = std
	}

	return scaler, nil
}

// Transform scales one embedding. Features with zero variance pass through
// centered only.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("transform: embedding has %d features, scaler fitted on %d", len(x), len(s.Mean))
	}

	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = v - s.Mean[j]
		if s.Std[j] > 0 {
			out[j] /= s.Std[j]
		}
	}
	return out, nil
}

// TransformAll scales a sample matrix
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
