// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"fmt"
	"slices"
	"strings"
)

type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Report contains evaluation of a trained classifier on held-out data.
type Report struct {
	Classes     [2]ClassMetrics `json:"classes"`
	Accuracy    float64         `json:"accuracy"`
	MacroAvg    ClassMetrics    `json:"macroAvg"`
	WeightedAvg ClassMetrics    `json:"weightedAvg"`

	// Confusion is indexed as [actual][predicted]
	Confusion   [2][2]int           `json:"confusion"`
	TopFeatures []FeatureImportance `json:"topFeatures"`
	NumTrain    int                 `json:"numTrain"`
	NumTest     int                 `json:"numTest"`
	ModelInfo   string              `json:"modelInfo"`
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// NewReport computes per-class precision, recall and F1 along with
// the confusion matrix. Undefined ratios (e.g. precision of a class
// never predicted) are reported as zero.
func NewReport(actual, predicted []int, labels [2]string) *Report {
	ans := &Report{NumTest: len(actual)}
	for i, a := range actual {
		ans.Confusion[a][predicted[i]]++
	}
	var correct int
	for c := range 2 {
		tp := float64(ans.Confusion[c][c])
		predictedAsC := float64(ans.Confusion[0][c] + ans.Confusion[1][c])
		support := ans.Confusion[c][0] + ans.Confusion[c][1]
		m := ClassMetrics{
			Label:     labels[c],
			Precision: safeDiv(tp, predictedAsC),
			Recall:    safeDiv(tp, float64(support)),
			Support:   support,
		}
		m.F1 = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
		ans.Classes[c] = m
		correct += ans.Confusion[c][c]
	}
	ans.Accuracy = safeDiv(float64(correct), float64(len(actual)))
	ans.MacroAvg = ClassMetrics{Label: "macro avg", Support: len(actual)}
	ans.WeightedAvg = ClassMetrics{Label: "weighted avg", Support: len(actual)}
	for _, m := range ans.Classes {
		ans.MacroAvg.Precision += m.Precision / 2
		ans.MacroAvg.Recall += m.Recall / 2
		ans.MacroAvg.F1 += m.F1 / 2
		w := safeDiv(float64(m.Support), float64(len(actual)))
		ans.WeightedAvg.Precision += m.Precision * w
		ans.WeightedAvg.Recall += m.Recall * w
		ans.WeightedAvg.F1 += m.F1 * w
	}
	return ans
}

// TopFeatures ranks features by importance (descending, ties keep
// the schema order) and returns at most n of them.
func TopFeatures(schema []string, importances []float64, n int) []FeatureImportance {
	ans := make([]FeatureImportance, 0, len(schema))
	for i, name := range schema {
		var imp float64
		if i < len(importances) {
			imp = importances[i]
		}
		ans = append(ans, FeatureImportance{Feature: name, Importance: imp})
	}
	slices.SortStableFunc(ans, func(a, b FeatureImportance) int {
		if a.Importance > b.Importance {
			return -1

		} else if a.Importance < b.Importance {
			return 1
		}
		return 0
	})
	if n >= 0 && len(ans) > n {
		ans = ans[:n]
	}
	return ans
}

func writeMetricsLine(b *strings.Builder, m ClassMetrics) {
	fmt.Fprintf(b, "%12s %10.2f %9.2f %9.2f %9d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
}

// ClassificationReport returns a text table with per-class metrics
func (r *Report) ClassificationReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		writeMetricsLine(&b, m)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.NumTest)
	writeMetricsLine(&b, r.MacroAvg)
	writeMetricsLine(&b, r.WeightedAvg)
	return b.String()
}

// ConfusionTable returns the confusion matrix as a text table
// with actual classes in rows and predicted classes in columns.
func (r *Report) ConfusionTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s\n", "actual\\pred", r.Classes[0].Label, r.Classes[1].Label)
	for c := range 2 {
		fmt.Fprintf(&b, "%12s %10d %10d\n", r.Classes[c].Label, r.Confusion[c][0], r.Confusion[c][1])
	}
	return b.String()
}

func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(r.ClassificationReport())
	b.WriteString("\n")
	b.WriteString(r.ConfusionTable())
	if len(r.TopFeatures) > 0 {
		b.WriteString("\n")
		for i, f := range r.TopFeatures {
			fmt.Fprintf(&b, "%3d. %-40s %.3f\n", i+1, f.Feature, f.Importance)
		}
	}
	return b.String()
}

// ConfusionFloats returns the confusion matrix converted to floats
// (e.g. for plotting).
func (r *Report) ConfusionFloats() [][]float64 {
	ans := make([][]float64, 2)
	for c := range 2 {
		ans[c] = []float64{float64(r.Confusion[c][0]), float64(r.Confusion[c][1])}
	}
	return ans
}
