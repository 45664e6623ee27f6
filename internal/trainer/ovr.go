package trainer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/ami-labs/emotion-api/internal/classifier"
	"github.com/ami-labs/emotion-api/internal/dataset"
	"github.com/ami-labs/emotion-api/internal/domain"
)

// OVROptions controls one-vs-rest training of the supplementary labels
type OVROptions struct {
	Labels        []string
	Balanced      bool
	Calibrate     bool
	NegSampleSize int
	TestFraction  float64
	Seed          int64
}

// DefaultOVROptions trains the supplementary label set with a small pool
// of neutral faces as shared negatives.
func DefaultOVROptions() OVROptions {
	return OVROptions{
		Labels:        domain.SupplementaryLabels,
		NegSampleSize: 20,
		TestFraction:  0.2,
		Seed:          42,
	}
}

// TrainOVR fits one binary classifier per supplementary label. Negatives
// for each label are the other labels' images plus a sampled pool from the
// neutral folder. All classifiers share a scaler fitted on the union.
func (t *Trainer) TrainOVR(ctx context.Context, dataDir string, opts OVROptions) (*classifier.Pipeline, error) {
	if len(opts.Labels) == 0 {
		opts.Labels = domain.SupplementaryLabels
	}

	labelPaths := make(map[string][]string, len(opts.Labels))
	for _, label := range opts.Labels {
		paths, err := dataset.ForLabel(dataDir, label)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			t.logger.Warn("label folder missing or empty", slog.String("label", label))
		}
		labelPaths[label] = paths
	}

	neutral, err := dataset.ForLabel(dataDir, "neutral")
	if err != nil {
		return nil, err
	}
	sampledNeutral := samplePaths(neutral, opts.NegSampleSize, opts.Seed)
	if len(sampledNeutral) > 0 {
		t.logger.Info("using neutral faces as negatives", slog.Int("count", len(sampledNeutral)))
	} else {
		t.logger.Info("no neutral folder; other labels serve as negatives")
	}

	// Embed the union of everything needed once
	needed := make(map[string]bool)
	for _, paths := range labelPaths {
		for _, p := range paths {
			needed[p] = true
		}
	}
	for _, p := range sampledNeutral {
		needed[p] = true
	}
	if len(needed) == 0 {
		return nil, errors.New("no images found for supplementary training")
	}

	embeddings, err := t.embedPaths(ctx, needed)
	if err != nil {
		return nil, err
	}

	allPaths := make([]string, 0, len(embeddings))
	for p := range embeddings {
		allPaths = append(allPaths, p)
	}
	sort.Strings(allPaths)

	allX := make([][]float64, len(allPaths))
	for i, p := range allPaths {
		allX[i] = embeddings[p]
	}

	scaler, err := classifier.FitScaler(allX)
	if err != nil {
		return nil, err
	}
	scaled := make(map[string][]float64, len(allPaths))
	for _, p := range allPaths {
		s, err := scaler.Transform(embeddings[p])
		if err != nil {
			return nil, err
		}
		scaled[p] = s
	}

	logOpts := classifier.DefaultLogisticOptions()
	logOpts.Balanced = opts.Balanced

	models := make(map[string]*classifier.BinaryLogistic, len(opts.Labels))
	var fitted []string

	for _, label := range opts.Labels {
		pos := filterEmbedded(labelPaths[label], scaled)
		if len(pos) == 0 {
			t.logger.Warn("no usable positives, skipping label", slog.String("label", label))
			continue
		}

		neg := negativesFor(label, labelPaths, sampledNeutral)
		neg = filterEmbedded(neg, scaled)

		X := make([][]float64, 0, len(pos)+len(neg))
		y := make([]int, 0, len(pos)+len(neg))
		for _, p := range pos {
			X = append(X, scaled[p])
			y = append(y, 1)
		}
		for _, p := range neg {
			X = append(X, scaled[p])
			y = append(y, 0)
		}

		model, err := t.trainBinary(label, X, y, logOpts, opts)
		if err != nil {
			t.logger.Error("binary training failed",
				slog.String("label", label),
				slog.Any("error", err),
			)
			continue
		}

		models[label] = model
		fitted = append(fitted, label)
	}

	if len(models) == 0 {
		return nil, errors.New("no binary classifiers trained successfully")
	}

	return &classifier.Pipeline{
		ModelName: "binary_ovr",
		Scaler:    scaler,
		OVR: &classifier.OVREnsemble{
			Labels: fitted,
			Models: models,
		},
	}, nil
}

// trainBinary fits one label's classifier on a stratified split, optionally
// Platt-calibrating on the holdout.
func (t *Trainer) trainBinary(label string, X [][]float64, y []int, logOpts classifier.LogisticOptions, opts OVROptions) (*classifier.BinaryLogistic, error) {
	trainX, trainY, testX, testY, err := classifier.StratifiedSplit(X, y, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}

	t.logger.Info("training binary classifier",
		slog.String("label", label),
		slog.Int("train", len(trainX)),
		slog.Int("holdout", len(testX)),
	)

	model := &classifier.BinaryLogistic{}
	if err := model.Fit(trainX, trainY, logOpts); err != nil {
		return nil, err
	}

	if opts.Calibrate && len(testX) > 0 {
		if err := model.Calibrate(testX, testY); err != nil {
			t.logger.Warn("calibration failed",
				slog.String("label", label),
				slog.Any("error", err),
			)
		}
	}

	if len(testX) > 0 {
		correct := 0
		for i, x := range testX {
			pred := 0
			if model.Predict(x) >= 0.5 {
				pred = 1
			}
			if pred == testY[i] {
				correct++
			}
		}
		accuracy := float64(correct) / float64(len(testX))
		t.logger.Info("binary classifier evaluated",
			slog.String("label", label),
			slog.Float64("accuracy", accuracy),
		)
	}

	return model, nil
}

// embedPaths reads and embeds each file, skipping failures
func (t *Trainer) embedPaths(ctx context.Context, paths map[string]bool) (map[string][]float64, error) {
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	t.logger.Info("extracting embeddings", slog.Int("images", len(sorted)))

	out := make(map[string][]float64, len(sorted))
	for _, p := range sorted {
		data, err := os.ReadFile(p)
		if err != nil {
			t.logger.Warn("skipping unreadable image", slog.String("path", p), slog.Any("error", err))
			continue
		}

		embedding, err := t.embedder.Embed(ctx, data, labelFromPath(p))
		if err != nil {
			t.logger.Warn("skipping image that failed to embed", slog.String("path", p), slog.Any("error", err))
			continue
		}
		out[p] = embedding
	}

	if len(out) == 0 {
		return nil, errors.New("no embeddings extracted for supplementary training")
	}

	return out, nil
}

// negativesFor collects the other labels' images plus the neutral pool,
// deduplicated while preserving order.
func negativesFor(label string, labelPaths map[string][]string, neutral []string) []string {
	labels := make([]string, 0, len(labelPaths))
	for l := range labelPaths {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	seen := make(map[string]bool)
	var out []string
	for _, other := range labels {
		if other == label {
			continue
		}
		for _, p := range labelPaths[other] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, p := range neutral {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	return out
}

func filterEmbedded(paths []string, scaled map[string][]float64) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := scaled[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// samplePaths picks up to n paths without replacement
func samplePaths(paths []string, n int, seed int64) []string {
	if len(paths) <= n {
		return append([]string(nil), paths...)
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := append([]string(nil), paths...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:n]
}

// labelFromPath reads the label from the image's parent folder name
func labelFromPath(p string) string {
	return filepath.Base(filepath.Dir(p))
}
