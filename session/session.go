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
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/simulate"
	"github.com/rs/zerolog/log"
)

var ErrNoData = errors.New("no data uploaded")

// Prediction is an assessment of a simulated profile. Warning
// describes values outside of the training data (the prediction
// is made anyway).
type Prediction struct {
	simulate.Assessment
	Warning string `json:"warning,omitempty"`
}

// Session keeps a state of a single user's analysis. All the methods
// are safe for concurrent use. Each change of the input data
// re-runs the whole pipeline.
type Session struct {
	mu       sync.RWMutex
	id       string
	created  time.Time
	pipeline *Pipeline
	cache    *dataimport.LoadCache
	raw      *dataset.Dataset
	fileHash string
	target   string
	filters  Filters
	outcome  *Outcome
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Created() time.Time {
	return s.created
}

func (s *Session) run(ctx context.Context) *Outcome {
	t0 := time.Now()
	s.outcome = s.pipeline.Run(ctx, Input{
		Raw:          s.raw,
		TargetColumn: s.target,
		Filters:      s.filters,
	})
	log.Info().
		Str("session", s.id).
		Dur("duration", time.Since(t0)).
		Err(s.outcome.Err()).
		Msg("pipeline finished")
	return s.outcome
}

// Upload loads a spreadsheet and runs the pipeline with a detected
// target column and no filters. On a load error, the previous
// state is kept.
func (s *Session) Upload(ctx context.Context, data []byte) (*Outcome, error) {
	ds, hash, err := s.cache.Load(data)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fileHash != "" && s.fileHash != hash {
		s.cache.Invalidate(s.fileHash)
	}
	s.raw = ds
	s.fileHash = hash
	s.target = ""
	s.filters = nil
	log.Info().
		Str("session", s.id).
		Str("hash", hash).
		Int("rows", ds.NumRows()).
		Int("columns", len(ds.Columns())).
		Msg("uploaded dataset")
	return s.run(ctx), nil
}

// SetTarget selects the target column and re-runs the pipeline.
// Existing filters are kept.
func (s *Session) SetTarget(ctx context.Context, column string) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrNoData
	}
	if !s.raw.HasColumn(column) {
		return nil, fmt.Errorf("%w: column %s not found", dataset.ErrSchema, column)
	}
	s.target = column
	return s.run(ctx), nil
}

func (s *Session) SetFilters(ctx context.Context, filters Filters) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrNoData
	}
	s.filters = maps.Clone(filters)
	return s.run(ctx), nil
}

func (s *Session) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.filters)
}

// Outcome returns the latest pipeline outcome or nil if no data
// has been uploaded yet.
func (s *Session) Outcome() *Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

// Predict assesses a profile. Fields missing in the input are set
// to their defaults.
func (s *Session) Predict(input dataset.Record) (Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.outcome == nil || !s.outcome.Simulator.Available() {
		return Prediction{}, simulate.ErrModelUnavailable
	}
	sim := s.outcome.Simulator
	rec := sim.DefaultInput()
	for k, v := range input {
		if !v.IsMissing() {
			rec[k] = v
		}
	}
	var ans Prediction
	if err := sim.Validate(rec); err != nil {
		ans.Warning = err.Error()
	}
	var err error
	ans.Assessment, err = sim.Assess(rec)
	if err != nil {
		return Prediction{}, err
	}
	log.Info().
		Str("session", s.id).
		Float64("probability", ans.Probability).
		Str("risk", string(ans.Risk)).
		Msg("predicted departure probability")
	return ans, nil
}
