package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LabelEncoder maps string labels to contiguous class indices
type LabelEncoder struct {
	Labels []string `json:"labels"`
}

// FitLabels builds an encoder over the sorted distinct labels
func FitLabels(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var distinct []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			distinct = append(distinct, l)
		}
	}
	sort.Strings(distinct)
	return &LabelEncoder{Labels: distinct}
}

// Encode maps a label to its class index
func (e *LabelEncoder) Encode(label string) (int, error) {
	for i, l := range e.Labels {
		if l == label {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown label %q", label)
}

// Decode maps a class index back to its label
func (e *LabelEncoder) Decode(class int) (string, error) {
	if class < 0 || class >= len(e.Labels) {
		return "", fmt.Errorf("class index %d out of range", class)
	}
	return e.Labels[class], nil
}

// Pipeline is the persisted serving artifact: scaler + best model + label
// encoder, with exactly one model slot populated according to ModelName.
type Pipeline struct {
	ModelName string          `json:"model_name"`
	Encoder   *LabelEncoder   `json:"label_encoder"`
	Scaler    *StandardScaler `json:"scaler"`

	Logistic *Logistic        `json:"logreg,omitempty"`
	KNN      *KNN             `json:"knn,omitempty"`
	Centroid *NearestCentroid `json:"centroid,omitempty"`
	OVR      *OVREnsemble     `json:"ovr,omitempty"`
}

// Prediction is one pipeline inference result
type Prediction struct {
	Label       string
	Probability float64
}

// Predict scales the raw embedding and scores it with the stored model.
// For the OVR ensemble the winning supplementary label is returned; for
// the multiclass models the argmax class.
func (p *Pipeline) Predict(embedding []float64) (*Prediction, error) {
	scaled, err := p.Scaler.Transform(embedding)
	if err != nil {
		return nil, err
	}

	if p.OVR != nil {
		label, prob := p.OVR.Best(scaled)
		return &Prediction{Label: label, Probability: prob}, nil
	}

	var probs []float64
	switch {
	case p.Logistic != nil:
		probs = p.Logistic.PredictProba(scaled)
	case p.KNN != nil:
		probs = p.KNN.PredictProba(scaled)
	case p.Centroid != nil:
		probs = p.Centroid.PredictProba(scaled)
	default:
		return nil, errors.New("pipeline has no model")
	}

	class := Argmax(probs)
	label, err := p.Encoder.Decode(class)
	if err != nil {
		return nil, err
	}

	return &Prediction{Label: label, Probability: probs[class]}, nil
}

// Validate checks the artifact is complete enough to serve
func (p *Pipeline) Validate() error {
	if p.Scaler == nil || len(p.Scaler.Mean) == 0 {
		return errors.New("pipeline missing scaler")
	}
	if p.OVR != nil {
		return p.OVR.Validate()
	}
	if p.Encoder == nil || len(p.Encoder.Labels) == 0 {
		return errors.New("pipeline missing label encoder")
	}
	if p.Logistic == nil && p.KNN == nil && p.Centroid == nil {
		return errors.New("pipeline missing model")
	}
	return nil
}

// Save writes the pipeline to disk as JSON
func (p *Pipeline) Save(path string) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save pipeline: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("save pipeline: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save pipeline: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save pipeline: %w", err)
	}
	return nil
}

// LoadPipeline reads a pipeline artifact from disk
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}
	return &p, nil
}
