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

package analytics

import (
	"math"
	"slices"
	"sort"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type BoxStats struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// GroupSummary describes a numeric column within rows sharing
// the same target value.
type GroupSummary struct {
	Target string   `json:"target"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Box    BoxStats `json:"box"`
}

type HistogramBin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

type NumericSummary struct {
	Column    string         `json:"column"`
	Groups    []GroupSummary `json:"groups"`
	Histogram []HistogramBin `json:"histogram"`
}

func numbers(values []dataset.Value) []float64 {
	ans := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			ans = append(ans, f)
		}
	}
	return ans
}

func summarizeGroup(tv string, values []float64) GroupSummary {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	return GroupSummary{
		Target: tv,
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Box: BoxStats{
			Min:    sorted[0],
			Q1:     Quantile(sorted, 0.25),
			Median: Quantile(sorted, 0.5),
			Q3:     Quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
		},
	}
}

// NumericSummaries describes all numeric columns (except for
// the excluded ones) by target groups and provides their histograms.
func NumericSummaries(ds *dataset.Dataset, target Target, exclude ...string) []NumericSummary {
	exclude = append(slices.Clone(exclude), target.Column)
	targetValues := ds.Categories(target.Column)
	var ans []NumericSummary
	for _, col := range ds.NumericColumns(exclude...) {
		summary := NumericSummary{Column: col}
		for _, tv := range targetValues {
			grp := ds.Filter(func(r dataset.Record) bool {
				return r[target.Column].String() == tv
			})
			values := numbers(grp.Column(col))
			if len(values) == 0 {
				continue
			}
			summary.Groups = append(summary.Groups, summarizeGroup(tv, values))
		}
		summary.Histogram = Histogram(numbers(ds.Column(col)))
		ans = append(ans, summary)
	}
	return ans
}

// Histogram splits values into equally wide bins. The number of bins
// follows the Sturges' rule.
func Histogram(values []float64) []HistogramBin {
	if len(values) == 0 {
		return []HistogramBin{}
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []HistogramBin{{From: lo, To: hi, Count: len(sorted)}}
	}
	numBins := int(math.Ceil(math.Log2(float64(len(sorted))))) + 1
	dividers := floats.Span(make([]float64, numBins+1), lo, hi)
	// the last bin must include the maximum
	dividers[numBins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)
	ans := make([]HistogramBin, numBins)
	for i := range ans {
		ans[i] = HistogramBin{From: dividers[i], To: dividers[i+1], Count: int(counts[i])}
	}
	ans[numBins-1].To = hi
	return ans
}
