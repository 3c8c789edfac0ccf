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

package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSchema signals a problem with the dataset columns, e.g. a missing
// required column or a duplicate name.
var ErrSchema = errors.New("schema error")

// ColumnKind is the inferred type of a column
type ColumnKind int

const (
	Numeric ColumnKind = iota
	Categorical
)

func (ck ColumnKind) String() string {
	if ck == Categorical {
		return "categorical"
	}
	return "numeric"
}

func (ck ColumnKind) MarshalText() ([]byte, error) {
	return []byte(ck.String()), nil
}

func (ck *ColumnKind) UnmarshalText(data []byte) error {
	switch string(data) {
	case "categorical":
		*ck = Categorical
	case "numeric":
		*ck = Numeric
	default:
		return fmt.Errorf("unknown column kind %s", string(data))
	}
	return nil
}

// Dataset is an ordered sequence of records sharing a common column set.
// A Dataset is never modified once created, all the transforming methods
// return a new instance (the untouched records may be shared).
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Record
}

// New creates a dataset with the provided column order. Record keys not
// listed among columns are ignored by all the column-oriented operations.
func New(columns []string, rows []Record) (*Dataset, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := index[c]; ok {
			return nil, fmt.Errorf("%w: duplicate column %s", ErrSchema, c)
		}
		index[c] = i
	}
	if rows == nil {
		rows = []Record{}
	}
	return &Dataset{
		columns: slices.Clone(columns),
		index:   index,
		rows:    rows,
	}, nil
}

// MustNew is like New but panics on error. It is intended mostly
// for static datasets in tests.
func MustNew(columns []string, rows []Record) *Dataset {
	ds, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return ds
}

func (ds *Dataset) derive(rows []Record) *Dataset {
	return &Dataset{columns: ds.columns, index: ds.index, rows: rows}
}

func (ds *Dataset) Columns() []string {
	return slices.Clone(ds.columns)
}

func (ds *Dataset) HasColumn(name string) bool {
	_, ok := ds.index[name]
	return ok
}

func (ds *Dataset) NumRows() int {
	return len(ds.rows)
}

func (ds *Dataset) Row(i int) Record {
	return ds.rows[i]
}

// Rows returns all the records. The records must not be modified.
func (ds *Dataset) Rows() []Record {
	return ds.rows
}

// Column returns all values of a column. For a non-existing column,
// nil is returned.
func (ds *Dataset) Column(name string) []Value {
	if !ds.HasColumn(name) {
		return nil
	}
	ans := make([]Value, len(ds.rows))
	for i, r := range ds.rows {
		ans[i] = r[name]
	}
	return ans
}

// Kind infers type of a column. A column is numeric if all its non-missing
// values are numbers (this includes columns with missing values only).
func (ds *Dataset) Kind(name string) ColumnKind {
	for _, r := range ds.rows {
		v := r[name]
		if v.kind == KindString {
			return Categorical
		}
	}
	return Numeric
}

// CategoricalColumns returns categorical columns in the dataset order
// except for the excluded ones.
func (ds *Dataset) CategoricalColumns(exclude ...string) []string {
	return ds.columnsOfKind(Categorical, exclude)
}

// NumericColumns returns numeric columns in the dataset order
// except for the excluded ones.
func (ds *Dataset) NumericColumns(exclude ...string) []string {
	return ds.columnsOfKind(Numeric, exclude)
}

func (ds *Dataset) columnsOfKind(kind ColumnKind, exclude []string) []string {
	ans := make([]string, 0, len(ds.columns))
	for _, c := range ds.columns {
		if slices.Contains(exclude, c) {
			continue
		}
		if ds.Kind(c) == kind {
			ans = append(ans, c)
		}
	}
	return ans
}

// Categories returns distinct non-missing values of a column (in their
// textual form) in the order they are first observed.
func (ds *Dataset) Categories(name string) []string {
	seen := make(map[string]struct{})
	ans := make([]string, 0, 8)
	for _, r := range ds.rows {
		v := r[name]
		if v.IsMissing() {
			continue
		}
		s := v.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		ans = append(ans, s)
	}
	return ans
}

// NumDistinct returns number of distinct non-missing values of a column.
func (ds *Dataset) NumDistinct(name string) int {
	return len(ds.Categories(name))
}

// Filter returns a dataset containing only the records matching
// the predicate.
func (ds *Dataset) Filter(pred func(Record) bool) *Dataset {
	rows := make([]Record, 0, len(ds.rows))
	for _, r := range ds.rows {
		if pred(r) {
			rows = append(rows, r)
		}
	}
	return ds.derive(rows)
}

// DropIncomplete removes all the rows containing at least one missing
// value in any of the dataset columns.
func (ds *Dataset) DropIncomplete() *Dataset {
	return ds.Filter(func(r Record) bool {
		for _, c := range ds.columns {
			if r[c].IsMissing() {
				return false
			}
		}
		return true
	})
}

// Drop removes the listed columns. Non-existing columns are ignored.
func (ds *Dataset) Drop(cols ...string) *Dataset {
	keep := make([]string, 0, len(ds.columns))
	for _, c := range ds.columns {
		if !slices.Contains(cols, c) {
			keep = append(keep, c)
		}
	}
	if len(keep) == len(ds.columns) {
		return ds
	}
	rows := make([]Record, len(ds.rows))
	for i, r := range ds.rows {
		nr := make(Record, len(keep))
		for _, c := range keep {
			if v, ok := r[c]; ok {
				nr[c] = v
			}
		}
		rows[i] = nr
	}
	ans, _ := New(keep, rows) // keep is a subset of unique names
	return ans
}

// Rename changes a column name while keeping its position.
func (ds *Dataset) Rename(from, to string) (*Dataset, error) {
	if !ds.HasColumn(from) {
		return nil, fmt.Errorf("%w: column %s not found", ErrSchema, from)
	}
	if from == to {
		return ds, nil
	}
	if ds.HasColumn(to) {
		return nil, fmt.Errorf("%w: duplicate column %s after renaming %s", ErrSchema, to, from)
	}
	cols := ds.Columns()
	cols[ds.index[from]] = to
	rows := make([]Record, len(ds.rows))
	for i, r := range ds.rows {
		nr := r.Clone()
		if v, ok := nr[from]; ok {
			nr[to] = v
			delete(nr, from)
		}
		rows[i] = nr
	}
	return New(cols, rows)
}
