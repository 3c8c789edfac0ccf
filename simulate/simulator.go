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

package simulate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rafaeeo/turnover-dashboard/analytics"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidInput     = errors.New("invalid simulation input")
)

// Field describes one input of a simulated employee profile
type Field struct {
	Name    string             `json:"name"`
	Kind    dataset.ColumnKind `json:"kind"`
	Default dataset.Value      `json:"default"`

	// Options contains allowed values of a categorical field (sorted)
	Options []string `json:"options,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
}

// Assessment is a result of a single prediction
type Assessment struct {
	Probability float64 `json:"probability"`
	Percent     string  `json:"percent"`
	Risk        Risk    `json:"risk"`
}

// Simulator predicts the departure probability of hypothetical
// employees using a trained classifier and the encoding of its
// training data.
type Simulator struct {
	prepared *prep.Prepared
	result   *eval.Result
	risk     cnf.RiskConf
	fields   []Field
}

// NewSimulator creates a simulator with input fields derived from
// the cleaned training data. The result may be nil in which case
// the simulator provides defaults but cannot predict.
func NewSimulator(prepared *prep.Prepared, result *eval.Result, risk cnf.RiskConf) *Simulator {
	return &Simulator{
		prepared: prepared,
		result:   result,
		risk:     risk,
		fields:   deriveFields(prepared),
	}
}

func deriveFields(prepared *prep.Prepared) []Field {
	ds := prepared.Cleaned
	ans := make([]Field, 0, len(prepared.Encoding.Columns))
	for _, ec := range prepared.Encoding.Columns {
		field := Field{Name: ec.Name, Kind: ec.Kind}
		switch ec.Kind {
		case dataset.Categorical:
			values := make([]string, 0, ds.NumRows())
			for _, v := range ds.Column(ec.Name) {
				values = append(values, v.String())
			}
			field.Options = slices.Clone(ec.Categories)
			slices.Sort(field.Options)
			field.Default = dataset.Str(analytics.Mode(values))
		case dataset.Numeric:
			values := make([]float64, 0, ds.NumRows())
			for _, v := range ds.Column(ec.Name) {
				if f, ok := v.Float(); ok {
					values = append(values, f)
				}
			}
			if len(values) == 0 {
				continue
			}
			field.Default = dataset.Num(analytics.Median(values))
			field.Min = floats.Min(values)
			field.Max = floats.Max(values)
		}
		ans = append(ans, field)
	}
	return ans
}

// Available tells whether the simulator is able to predict
func (s *Simulator) Available() bool {
	return s != nil && s.result != nil && s.result.Model != nil
}

func (s *Simulator) Fields() []Field {
	return slices.Clone(s.fields)
}

// DefaultInput returns a profile with all the fields set to their
// default values.
func (s *Simulator) DefaultInput() dataset.Record {
	ans := make(dataset.Record, len(s.fields))
	for _, f := range s.fields {
		ans[f.Name] = f.Default
	}
	return ans
}

// Validate checks whether the profile stays within the observed
// categories and numeric ranges. Columns not used as features
// are ignored.
func (s *Simulator) Validate(rec dataset.Record) error {
	var problems []string
	for _, f := range s.fields {
		v, ok := rec[f.Name]
		if !ok || v.IsMissing() {
			continue
		}
		switch f.Kind {
		case dataset.Categorical:
			if !slices.Contains(f.Options, v.String()) {
				problems = append(problems, fmt.Sprintf("%s: unknown value %s", f.Name, v.String()))
			}
		case dataset.Numeric:
			num, ok := v.Numeric()
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: %s is not a number", f.Name, v.String()))

			} else if num < f.Min || num > f.Max {
				problems = append(
					problems,
					fmt.Sprintf("%s: %v outside of range [%v, %v]", f.Name, num, f.Min, f.Max),
				)
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Align returns a feature vector of the profile following the frozen
// feature schema of the trained classifier.
func (s *Simulator) Align(rec dataset.Record) []float64 {
	return s.prepared.Encoding.Vector(rec)
}

// Predict returns probability of the "left" class for the profile.
func (s *Simulator) Predict(rec dataset.Record) (float64, error) {
	if !s.Available() {
		return 0, ErrModelUnavailable
	}
	vec := s.Align(rec)
	proba := s.result.Model.PredictProba(vec)
	log.Debug().
		Floats64("vector", vec).
		Float64("probability", proba[1]).
		Msg("simulated profile")
	return proba[1], nil
}

// Assess predicts the probability and classifies it into a risk band
func (s *Simulator) Assess(rec dataset.Record) (Assessment, error) {
	p, err := s.Predict(rec)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		Probability: p,
		Percent:     fmt.Sprintf("%.2f%%", p*100),
		Risk:        RiskBand(p, s.risk),
	}, nil
}
