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
	"slices"

	"github.com/rafaeeo/turnover-dashboard/dataset"
)

// Target identifies the target column and its literal values
type Target struct {
	Column   string
	Positive string
	Negative string
}

// KPIs are the headline attrition metrics
type KPIs struct {
	Total int `json:"total"`
	Left  int `json:"left"`

	// Rate is the percentage of employees who left
	Rate float64 `json:"rate"`
}

func ComputeKPIs(ds *dataset.Dataset, target Target) KPIs {
	ans := KPIs{Total: ds.NumRows()}
	for _, v := range ds.Column(target.Column) {
		if v.String() == target.Positive {
			ans.Left++
		}
	}
	if ans.Total > 0 {
		ans.Rate = float64(ans.Left) / float64(ans.Total) * 100
	}
	return ans
}

// CategoryCount is a number of rows with a given category
// and target value.
type CategoryCount struct {
	Category string `json:"category"`
	Target   string `json:"target,omitempty"`
	Count    int    `json:"count"`
}

type CategoricalDistribution struct {
	Column string          `json:"column"`
	Counts []CategoryCount `json:"counts"`
}

// CategoricalDistributions counts rows for each pair of category and target
// value for all categorical columns (except for the target and excluded
// ones) with at most maxCategories distinct values. Names of columns
// with too many categories are returned separately.
func CategoricalDistributions(
	ds *dataset.Dataset,
	target Target,
	maxCategories int,
	exclude ...string,
) (dists []CategoricalDistribution, skipped []string) {
	exclude = append(slices.Clone(exclude), target.Column)
	targetValues := ds.Categories(target.Column)
	for _, col := range ds.CategoricalColumns(exclude...) {
		categories := ds.Categories(col)
		if len(categories) > maxCategories {
			skipped = append(skipped, col)
			continue
		}
		counts := make(map[[2]string]int)
		for _, r := range ds.Rows() {
			if r[col].IsMissing() || r[target.Column].IsMissing() {
				continue
			}
			counts[[2]string{r[col].String(), r[target.Column].String()}]++
		}
		dist := CategoricalDistribution{Column: col}
		for _, cat := range categories {
			for _, tv := range targetValues {
				if cnt := counts[[2]string{cat, tv}]; cnt > 0 {
					dist.Counts = append(dist.Counts, CategoryCount{Category: cat, Target: tv, Count: cnt})
				}
			}
		}
		dists = append(dists, dist)
	}
	return
}

// DeparturesBy counts employees who left for each value of a column.
// The result is sorted by count in descending order (ties keep
// the order of the first occurrence).
func DeparturesBy(ds *dataset.Dataset, column string, target Target) []CategoryCount {
	if !ds.HasColumn(column) {
		return nil
	}
	left := ds.Filter(func(r dataset.Record) bool {
		return r[target.Column].String() == target.Positive
	})
	counts := make(map[string]int)
	for _, v := range left.Column(column) {
		if !v.IsMissing() {
			counts[v.String()]++
		}
	}
	ans := make([]CategoryCount, 0, len(counts))
	for _, cat := range left.Categories(column) {
		ans = append(ans, CategoryCount{Category: cat, Count: counts[cat]})
	}
	slices.SortStableFunc(ans, func(a, b CategoryCount) int {
		return b.Count - a.Count
	})
	return ans
}
