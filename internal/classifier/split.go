package classifier

import (
	"errors"
	"math/rand"
)

// StratifiedSplit partitions samples into train and test sets keeping class
// proportions. Classes with a single sample go entirely to training.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int, err error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, nil, nil, nil, errors.New("stratified split: empty or mismatched samples")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, errors.New("stratified split: test fraction must be in (0, 1)")
	}

	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(float64(len(indices)) * testFraction)
		if len(indices) > 1 && nTest == 0 {
			nTest = 1
		}

		for k, idx := range indices {
			if k < nTest {
				testX = append(testX, X[idx])
				testY = append(testY, y[idx])
			} else {
				trainX = append(trainX, X[idx])
				trainY = append(trainY, y[idx])
			}
		}
	}

	if len(trainX) == 0 {
		return nil, nil, nil, nil, errors.New("stratified split: no training samples left")
	}

	return trainX, trainY, testX, testY, nil
}
