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

package session

import (
	"fmt"
	"slices"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rs/zerolog/log"
)

// FilterOption lists selectable values of a column
type FilterOption struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// Filters maps column names to selected values
type Filters map[string][]string

func (f Filters) String() string {
	return fmt.Sprintf("%d filtered column(s)", len(f.active()))
}

func (f Filters) active() []string {
	ans := make([]string, 0, len(f))
	for col, sel := range f {
		if len(sel) > 0 {
			ans = append(ans, col)
		}
	}
	slices.Sort(ans)
	return ans
}

// FilterOptions returns all categorical columns except for the target
// along with their values in the order of their first occurrence.
func FilterOptions(ds *dataset.Dataset, target string) []FilterOption {
	cols := ds.CategoricalColumns(target)
	ans := make([]FilterOption, len(cols))
	for i, col := range cols {
		ans[i] = FilterOption{Column: col, Values: ds.Categories(col)}
	}
	return ans
}

// ApplyFilters keeps rows whose values are among the selected ones
// for every column with a non-empty selection. Columns not present
// in the dataset are ignored.
func ApplyFilters(ds *dataset.Dataset, filters Filters) *dataset.Dataset {
	var cols []string
	for _, col := range filters.active() {
		if !ds.HasColumn(col) {
			log.Warn().Str("column", col).Msg("ignoring filter of unknown column")
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return ds
	}
	return ds.Filter(func(r dataset.Record) bool {
		for _, col := range cols {
			if r[col].IsMissing() || !slices.Contains(filters[col], r[col].String()) {
				return false
			}
		}
		return true
	})
}
