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
)

// Quantile returns the p-quantile of sorted values using linear
// interpolation between closest ranks (the (n-1)*p position).
// For empty input, NaN is returned.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// Median returns the middle value of values (the mean of the two middle
// values for an even count). The input is not modified.
func Median(values []float64) float64 {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5)
}

// Mode returns the most frequent string. Ties are resolved in favor
// of the lexicographically smallest value. For empty input, an empty
// string is returned.
func Mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var ans string
	best := -1
	for v, cnt := range counts {
		if cnt > best || (cnt == best && v < ans) {
			ans = v
			best = cnt
		}
	}
	return ans
}
