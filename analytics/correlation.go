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

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"gonum.org/v1/gonum/stat"
)

const (
	TargetNumSuffix = "_Num"
)

// CorrelationMatrix contains pairwise Pearson correlations. Undefined
// values (e.g. for a constant column) are nil.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Correlation computes correlations among numeric columns and a numeric
// form of the target (1 for the positive value, 0 for the negative one).
// Only rows with one of the two target values are used. Each pair
// of columns uses rows where both values are present.
func Correlation(ds *dataset.Dataset, target Target, exclude ...string) *CorrelationMatrix {
	targetNum := target.Column + TargetNumSuffix
	rows := ds.Filter(func(r dataset.Record) bool {
		if _, ok := r[target.Column].Float(); ok {
			return true
		}
		v := r[target.Column].String()
		return v == target.Positive || v == target.Negative
	})
	columns := append(rows.NumericColumns(exclude...), targetNum)
	data := make([][]dataset.Value, len(columns))
	for i, col := range columns[:len(columns)-1] {
		data[i] = rows.Column(col)
	}
	tcol := make([]dataset.Value, rows.NumRows())
	for i, r := range rows.Rows() {
		if f, ok := r[target.Column].Float(); ok {
			tcol[i] = dataset.Num(f)

		} else if r[target.Column].String() == target.Positive {
			tcol[i] = dataset.Num(1)

		} else {
			tcol[i] = dataset.Num(0)
		}
	}
	data[len(columns)-1] = tcol

	ans := &CorrelationMatrix{
		Columns: columns,
		Values:  make([][]*float64, len(columns)),
	}
	for i := range columns {
		ans.Values[i] = make([]*float64, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			c := pairwiseCorrelation(data[i], data[j])
			ans.Values[i][j] = c
			ans.Values[j][i] = c
		}
	}
	return ans
}

func pairwiseCorrelation(a, b []dataset.Value) *float64 {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		fa, okA := a[i].Float()
		fb, okB := b[i].Float()
		if okA && okB {
			x = append(x, fa)
			y = append(y, fb)
		}
	}
	if len(x) < 2 {
		return nil
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return nil
	}
	c = max(-1, min(1, c))
	return &c
}

// Dense returns the correlations with undefined values set to NaN
func (cm *CorrelationMatrix) Dense() [][]float64 {
	ans := make([][]float64, len(cm.Values))
	for i, row := range cm.Values {
		ans[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				ans[i][j] = math.NaN()

			} else {
				ans[i][j] = *v
			}
		}
	}
	return ans
}
