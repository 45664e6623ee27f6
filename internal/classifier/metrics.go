package classifier

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// LabelMetrics holds per-class evaluation results
type LabelMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a holdout evaluation summary
type Report struct {
	Accuracy float64        `json:"accuracy"`
	MacroF1  float64        `json:"macro_f1"`
	Labels   []LabelMetrics `json:"labels"`
}

// Evaluate compares predictions against truth over the label vocabulary
func Evaluate(yTrue, yPred []int, labels []string) Report {
	var correct int
	tp := make([]int, len(labels))
	fp := make([]int, len(labels))
	fn := make([]int, len(labels))
	support := make([]int, len(labels))

	for i, truth := range yTrue {
		pred := yPred[i]
		support[truth]++
		if pred == truth {
			correct++
			tp[truth]++
		} else {
			if pred >= 0 && pred < len(labels) {
				fp[pred]++
			}
			fn[truth]++
		}
	}

	report := Report{Labels: make([]LabelMetrics, len(labels))}
	if len(yTrue) > 0 {
		report.Accuracy = float64(correct) / float64(len(yTrue))
	}

	f1s := make([]float64, len(labels))
	for c, label := range labels {
		m := LabelMetrics{Label: label, Support: support[c]}
		if tp[c]+fp[c] > 0 {
			m.Precision = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			m.Recall = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		f1s[c] = m.F1
		report.Labels[c] = m
	}

	if macro, err := stats.Mean(f1s); err == nil {
		report.MacroF1 = macro
	}

	return report
}

// String renders the report in a classification-report layout
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %9s %9s %9s %9s\n", "", "precision", "recall", "f1", "support")
	for _, m := range r.Labels {
		fmt.Fprintf(&b, "%-12s %9.3f %9.3f %9.3f %9d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "\naccuracy: %.4f  macro f1: %.4f\n", r.Accuracy, r.MacroF1)
	return b.String()
}

// Argmax returns the index of the largest probability
func Argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
