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

package prep

import (
	"fmt"
	"slices"

	"github.com/rafaeeo/turnover-dashboard/dataset"
)

// EncodedColumn describes how a single source column is turned
// into feature columns.
type EncodedColumn struct {
	Name string             `json:"name" msgpack:"name"`
	Kind dataset.ColumnKind `json:"kind" msgpack:"kind"`

	// Categories contains categories of a categorical column in the order
	// they were first observed. The first one is the reference category
	// which has no indicator column.
	Categories []string `json:"categories,omitempty" msgpack:"categories"`
}

func (ec EncodedColumn) Reference() string {
	if len(ec.Categories) == 0 {
		return ""
	}
	return ec.Categories[0]
}

// Encoding is a frozen mapping between records and feature vectors.
// Its Schema is the exact ordered list of features a classifier
// trained on the encoded data expects.
type Encoding struct {
	Columns  []EncodedColumn `json:"columns" msgpack:"columns"`
	Schema   []string        `json:"schema" msgpack:"schema"`
	Excluded []string        `json:"excluded" msgpack:"excluded"`

	byName map[string]int
}

func indicatorName(column, category string) string {
	return column + "_" + category
}

// newEncoding creates the encoding for the feature columns of a dataset.
// Indicator columns of all categorical columns go first followed
// by numeric columns, both in the dataset column order.
func newEncoding(ds *dataset.Dataset, excluded []string) (*Encoding, error) {
	enc := &Encoding{Excluded: excluded}
	var numeric []string
	for _, col := range ds.Columns() {
		if slices.Contains(excluded, col) {
			continue
		}
		ec := EncodedColumn{Name: col, Kind: ds.Kind(col)}
		if ec.Kind == dataset.Categorical {
			ec.Categories = ds.Categories(col)
			for i, cat := range ec.Categories {
				if i > 0 {
					enc.Schema = append(enc.Schema, indicatorName(col, cat))
				}
			}

		} else {
			numeric = append(numeric, col)
		}
		enc.Columns = append(enc.Columns, ec)
	}
	enc.Schema = append(enc.Schema, numeric...)
	seen := make(map[string]bool, len(enc.Schema))
	for _, name := range enc.Schema {
		if seen[name] {
			return nil, fmt.Errorf("%w: ambiguous feature column %s", dataset.ErrSchema, name)
		}
		seen[name] = true
	}
	enc.init()
	return enc, nil
}

func (enc *Encoding) init() {
	enc.byName = make(map[string]int, len(enc.Columns))
	for i, ec := range enc.Columns {
		enc.byName[ec.Name] = i
	}
}

func (enc *Encoding) column(name string) (EncodedColumn, bool) {
	if enc.byName == nil {
		enc.init()
	}
	i, ok := enc.byName[name]
	if !ok {
		return EncodedColumn{}, false
	}
	return enc.Columns[i], true
}

// FeatureColumns returns names of the source columns used as features.
func (enc *Encoding) FeatureColumns() []string {
	ans := make([]string, len(enc.Columns))
	for i, ec := range enc.Columns {
		ans[i] = ec.Name
	}
	return ans
}

// Expand converts a record into its indicator form. For a known categorical
// column, only a non-reference category observed during encoding produces
// an indicator (the reference and unseen categories produce nothing). Known
// numeric columns are copied. Columns unknown to the encoding are expanded
// in a raw form (strings to "<col>_<value>" indicators, numbers as they are)
// and it is up to Align to discard them.
func (enc *Encoding) Expand(rec dataset.Record) map[string]float64 {
	ans := make(map[string]float64, len(rec))
	for name, v := range rec {
		if v.IsMissing() || slices.Contains(enc.Excluded, name) {
			continue
		}
		if _, ok := enc.column(name); ok {
			continue
		}
		if f, ok := v.Float(); ok {
			ans[name] = f

		} else {
			ans[indicatorName(name, v.String())] = 1
		}
	}
	for name, v := range rec {
		ec, ok := enc.column(name)
		if !ok || v.IsMissing() {
			continue
		}
		switch ec.Kind {
		case dataset.Categorical:
			cat := v.String()
			if cat != ec.Reference() && slices.Contains(ec.Categories, cat) {
				ans[indicatorName(name, cat)] = 1
			}
		case dataset.Numeric:
			if f, ok := v.Numeric(); ok {
				ans[name] = f
			}
		}
	}
	return ans
}

// Align builds a feature vector following the schema. Schema columns
// missing in the expanded data are set to 0, expanded columns not
// in the schema are ignored.
func (enc *Encoding) Align(expanded map[string]float64) []float64 {
	ans := make([]float64, len(enc.Schema))
	for i, name := range enc.Schema {
		ans[i] = expanded[name]
	}
	return ans
}

// Vector is a shortcut for Align(Expand(rec))
func (enc *Encoding) Vector(rec dataset.Record) []float64 {
	return enc.Align(enc.Expand(rec))
}
