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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind distinguishes the three possible states of a cell.
type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

// missingMarkers are cell texts treated as missing values in addition
// to an empty cell.
var missingMarkers = map[string]struct{}{
	"#N/A": {}, "#NA": {}, "N/A": {}, "n/a": {}, "NA": {}, "<NA>": {},
	"NULL": {}, "null": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"None": {},
}

// Value is a single cell of a dataset. The zero value is a missing value.
type Value struct {
	kind Kind
	str  string
	num  float64
}

func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

func Missing() Value {
	return Value{}
}

// ParseCell converts raw spreadsheet text into a Value. Surrounding
// whitespace is ignored, empty text and common N/A markers become missing
// values and finite numeric text becomes a number.
func ParseCell(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	if _, ok := missingMarkers[s]; ok {
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Num(f)
	}
	return Str(s)
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// Float returns the numeric content of a number value.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Numeric is like Float but it also accepts strings containing
// a number (e.g. values typed by a user).
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String returns the textual form of the value. Numbers are formatted
// in the shortest form which parses back to the same number, missing
// values produce an empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return ""
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch tv := raw.(type) {
	case nil:
		*v = Missing()
	case string:
		*v = Str(tv)
	case float64:
		*v = Num(tv)
	case bool:
		*v = Str(strconv.FormatBool(tv))
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// Record is one row of a dataset keyed by column name. Columns not present
// in the map are considered missing.
type Record map[string]Value

// Clone creates a shallow copy of the record.
func (r Record) Clone() Record {
	ans := make(Record, len(r))
	for k, v := range r {
		ans[k] = v
	}
	return ans
}
