package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/dataset"
)

// Options controls multiclass training
type Options struct {
	TestFraction float64
	Seed         int64
	KNNNeighbors int
}

// DefaultOptions mirrors the holdout split used across the candidates
func DefaultOptions() Options {
	return Options{
		TestFraction: 0.2,
		Seed:         42,
		KNNNeighbors: 5,
	}
}

// Trainer builds embedding datasets and fits classifier candidates
type Trainer struct {
	embedder Embedder
	logger   *slog.Logger
}

func New(embedder Embedder, logger *slog.Logger) *Trainer {
	return &Trainer{
		embedder: embedder,
		logger:   logger,
	}
}

// BuildDataset walks the label folders and embeds every image. Images that
// fail to embed are skipped with a warning, matching the tolerance needed
// for scraped data.
func (t *Trainer) BuildDataset(ctx context.Context, dataDir string) ([][]float64, []string, error) {
	entries, err := dataset.Collect(dataDir)
	if err != nil {
		return nil, nil, err
	}

	entries, err = dataset.Dedupe(entries)
	if err != nil {
		return nil, nil, err
	}

	t.logger.Info("building dataset",
		slog.String("data_dir", dataDir),
		slog.Int("images", len(entries)),
	)

	var X [][]float64
	var y []string

	for i, entry := range entries {
		data, err := os.ReadFile(entry.Path)
		if err != nil {
			t.logger.Warn("skipping unreadable image",
				slog.String("path", entry.Path),
				slog.Any("error", err),
			)
			continue
		}

		embedding, err := t.embedder.Embed(ctx, data, entry.Label)
		if err != nil {
			t.logger.Warn("skipping image that failed to embed",
				slog.String("path", entry.Path),
				slog.Any("error", err),
			)
			continue
		}

		X = append(X, embedding)
		y = append(y, entry.Label)

		if (i+1)%50 == 0 {
			t.logger.Info("embedding progress",
				slog.Int("processed", i+1),
				slog.Int("total", len(entries)),
			)
		}
	}

	if len(X) == 0 {
		return nil, nil, errors.New("no embeddings extracted; check the data dir and provider")
	}

	return X, y, nil
}

// Train fits the multiclass candidates on a stratified split and returns
// the pipeline holding the one with the best holdout accuracy, along with
// the per-candidate evaluation reports.
func (t *Trainer) Train(X [][]float64, y []string, opts Options) (*classifier.Pipeline, map[string]classifier.Report, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, nil, errors.New("train: empty or mismatched dataset")
	}

	encoder := classifier.FitLabels(y)
	yEnc := make([]int, len(y))
	for i, label := range y {
		class, err := encoder.Encode(label)
		if err != nil {
			return nil, nil, err
		}
		yEnc[i] = class
	}
	numClasses := len(encoder.Labels)

	trainX, trainY, testX, testY, err := classifier.StratifiedSplit(X, yEnc, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, nil, err
	}
	if len(testX) == 0 {
		return nil, nil, errors.New("train: holdout split is empty, need more samples")
	}

	scaler, err := classifier.FitScaler(trainX)
	if err != nil {
		return nil, nil, err
	}
	scaledTrain, err := scaler.TransformAll(trainX)
	if err != nil {
		return nil, nil, err
	}
	scaledTest, err := scaler.TransformAll(testX)
	if err != nil {
		return nil, nil, err
	}

	logistic := &classifier.Logistic{}
	knn := &classifier.KNN{K: opts.KNNNeighbors}
	centroid := &classifier.NearestCentroid{}

	candidates := []struct {
		name string
		fit  func() error
		prob func(x []float64) []float64
	}{
		{
			name: "logreg",
			fit: func() error {
				return logistic.Fit(scaledTrain, trainY, numClasses, classifier.DefaultLogisticOptions())
			},
			prob: logistic.PredictProba,
		},
		{
			name: "knn",
			fit:  func() error { return knn.Fit(scaledTrain, trainY, numClasses) },
			prob: knn.PredictProba,
		},
		{
			name: "centroid",
			fit:  func() error { return centroid.Fit(scaledTrain, trainY, numClasses) },
			prob: centroid.PredictProba,
		},
	}

	reports := make(map[string]classifier.Report, len(candidates))
	bestName := ""
	bestAccuracy := -1.0

	for _, cand := range candidates {
		t.logger.Info("training candidate", slog.String("model", cand.name))

		if err := cand.fit(); err != nil {
			t.logger.Error("candidate training failed",
				slog.String("model", cand.name),
				slog.Any("error", err),
			)
			continue
		}

		preds := make([]int, len(scaledTest))
		for i, x := range scaledTest {
			preds[i] = classifier.Argmax(cand.prob(x))
		}

		report := classifier.Evaluate(testY, preds, encoder.Labels)
		reports[cand.name] = report

		t.logger.Info("candidate evaluated",
			slog.String("model", cand.name),
			slog.Float64("accuracy", report.Accuracy),
			slog.Float64("macro_f1", report.MacroF1),
		)
		fmt.Printf("--- %s classification report ---\n%s\n", cand.name, report)

		if report.Accuracy > bestAccuracy {
			bestAccuracy = report.Accuracy
			bestName = cand.name
		}
	}

	if bestName == "" {
		return nil, nil, errors.New("train: no candidate trained successfully")
	}

	t.logger.Info("best model selected",
		slog.String("model", bestName),
		slog.Float64("accuracy", bestAccuracy),
	)

	pipeline := &classifier.Pipeline{
		ModelName: bestName,
		Encoder:   encoder,
		Scaler:    scaler,
	}
	switch bestName {
	case "logreg":
		pipeline.Logistic = logistic
	case "knn":
		pipeline.KNN = knn
	case "centroid":
		pipeline.Centroid = centroid
	}

	return pipeline, reports, nil
}
