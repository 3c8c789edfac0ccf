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
	"errors"
	"fmt"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rs/zerolog/log"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoFeatures       = errors.New("no features available")
)

const (
	LabelLeft   = 1
	LabelStayed = 0
)

// Spec names the special columns and the literal target values
type Spec struct {
	TargetColumn  string
	PositiveLabel string
	NegativeLabel string
	IDColumn      string
}

// Prepared is a modeling-ready form of a dataset
type Prepared struct {

	// Cleaned contains only complete rows with a valid target value.
	// Rows of Matrix and Labels correspond to its records.
	Cleaned  *dataset.Dataset
	Labels   []int
	Matrix   [][]float64
	Encoding *Encoding
}

func (p *Prepared) Schema() []string {
	return p.Encoding.Schema
}

func (p *Prepared) NumPositive() int {
	var ans int
	for _, v := range p.Labels {
		ans += v
	}
	return ans
}

// Prepare cleans the dataset and turns it into a feature matrix
// and a label vector. Rows with any missing value are removed, as well
// as rows with a target value other than the two labels.
func Prepare(ds *dataset.Dataset, spec Spec) (*Prepared, error) {
	if !ds.HasColumn(spec.TargetColumn) {
		return nil, fmt.Errorf("%w: target column %s not found", dataset.ErrSchema, spec.TargetColumn)
	}
	complete := ds.DropIncomplete()
	cleaned := complete.Filter(func(r dataset.Record) bool {
		v := r[spec.TargetColumn].String()
		return v == spec.PositiveLabel || v == spec.NegativeLabel
	})
	if n := complete.NumRows() - cleaned.NumRows(); n > 0 {
		log.Warn().
			Int("numRows", n).
			Str("column", spec.TargetColumn).
			Msg("removed rows with unexpected target values")
	}
	if cleaned.NumRows() == 0 {
		return nil, fmt.Errorf("%w: no complete rows left after cleaning", ErrInsufficientData)
	}
	if cleaned.NumDistinct(spec.TargetColumn) < 2 {
		return nil, fmt.Errorf(
			"%w: column %s has a single value after cleaning", ErrInsufficientData, spec.TargetColumn)
	}

	excluded := []string{spec.TargetColumn}
	if spec.IDColumn != "" && cleaned.HasColumn(spec.IDColumn) {
		excluded = append(excluded, spec.IDColumn)
	}
	enc, err := newEncoding(cleaned, excluded)
	if err != nil {
		return nil, err
	}
	if len(enc.Schema) == 0 {
		return nil, ErrNoFeatures
	}

	ans := &Prepared{
		Cleaned:  cleaned,
		Labels:   make([]int, cleaned.NumRows()),
		Matrix:   make([][]float64, cleaned.NumRows()),
		Encoding: enc,
	}
	for i, rec := range cleaned.Rows() {
		if rec[spec.TargetColumn].String() == spec.PositiveLabel {
			ans.Labels[i] = LabelLeft

		} else {
			ans.Labels[i] = LabelStayed
		}
		ans.Matrix[i] = enc.Vector(rec)
	}
	log.Debug().
		Int("numRows", len(ans.Labels)).
		Int("numPositive", ans.NumPositive()).
		Int("numFeatures", len(enc.Schema)).
		Msg("prepared feature matrix")
	return ans, nil
}
