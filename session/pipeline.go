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
	"fmt"

	"github.com/rafaeeo/turnover-dashboard/analytics"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/columns"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/rafaeeo/turnover-dashboard/simulate"
	"github.com/rs/zerolog/log"
)

type Stage string

const (
	StageTarget    Stage = "target"
	StageFilter    Stage = "filter"
	StageAnalytics Stage = "analytics"
	StagePrepare   Stage = "prepare"
	StageTrain     Stage = "train"
)

// StageError describes the first stage of a pipeline which could not
// be completed. All the following stages are disabled.
type StageError struct {
	Stage Stage
	Err   error
}

func (se *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %s", se.Stage, se.Err)
}

func (se *StageError) Unwrap() error {
	return se.Err
}

// Input contains everything a pipeline run depends on
type Input struct {
	Raw *dataset.Dataset

	// TargetColumn is a user-selected target column. If empty,
	// the detected one is used.
	TargetColumn string
	Filters      Filters
}

// Analytics contains exploratory views of filtered data
type Analytics struct {
	Distributions  []analytics.CategoricalDistribution `json:"distributions"`
	SkippedColumns []string                            `json:"skippedColumns"`
	Numeric        []analytics.NumericSummary          `json:"numeric"`
	Correlation    *analytics.CorrelationMatrix        `json:"correlation"`
	ByGender       []analytics.CategoryCount           `json:"byGender,omitempty"`
	ByEducation    []analytics.CategoryCount           `json:"byEducation,omitempty"`
}

// Outcome is a result of a pipeline run. Fields of stages following
// a failed one are nil.
type Outcome struct {
	Roles columns.Assignment

	// DataRoles are detected on the data with the renamed target
	// column and drive the departure breakdowns
	DataRoles     columns.Assignment
	TargetColumn  string
	Data          *dataset.Dataset
	FilterOptions []FilterOption
	Filtered      *dataset.Dataset
	KPIs          *analytics.KPIs
	Analytics     *Analytics
	Prepared      *prep.Prepared
	Training      *eval.Result
	Simulator     *simulate.Simulator
	Failure       *StageError
}

// Err returns the stage failure (if any) as an error
func (o *Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

func (o *Outcome) fail(stage Stage, err error) *Outcome {
	o.Failure = &StageError{Stage: stage, Err: err}
	log.Warn().Err(err).Str("stage", string(stage)).Msg("pipeline stage failed")
	return o
}

// Pipeline turns a raw dataset into analytics, a trained classifier
// and a simulator. It does not keep any state between runs.
type Pipeline struct {
	conf       *cnf.Conf
	classifier *columns.Classifier

	// NewModel creates an untrained classifier for each run
	NewModel func() (eval.MLModel, error)

	// OnTrained is called after a successful training (e.g. to update metrics)
	OnTrained func(res *eval.Result)
}

func NewPipeline(conf *cnf.Conf) *Pipeline {
	return &Pipeline{
		conf:       conf,
		classifier: columns.NewClassifier(columns.DefaultRules(conf.Dataset.TargetColumn, conf.Dataset.IDColumn)),
		NewModel: func() (eval.MLModel, error) {
			return eval.GetMLModel(conf.Model)
		},
	}
}

func (p *Pipeline) target() analytics.Target {
	return analytics.Target{
		Column:   p.conf.Dataset.TargetColumn,
		Positive: p.conf.Dataset.PositiveLabel,
		Negative: p.conf.Dataset.NegativeLabel,
	}
}

// DetectRoles classifies columns of a dataset
func (p *Pipeline) DetectRoles(ds *dataset.Dataset) columns.Assignment {
	return p.classifier.Classify(ds.Columns())
}

// detectDataRoles re-detects gender and education after the target
// column got its canonical name. Each role is detected on its own so
// a column is never hidden by a role of another column.
func (p *Pipeline) detectDataRoles(ds *dataset.Dataset) columns.Assignment {
	target := p.conf.Dataset.TargetColumn
	cols := ds.Columns()
	return columns.Assignment{
		Target:     target,
		Gender:     p.classifier.Detect(cols, columns.RoleGender, target),
		Education:  p.classifier.Detect(cols, columns.RoleEducation, target),
		Identifier: p.classifier.Detect(cols, columns.RoleIdentifier, target),
	}
}

func (p *Pipeline) analyze(ds *dataset.Dataset, roles columns.Assignment) *Analytics {
	target := p.target()
	idCol := p.conf.Dataset.IDColumn
	ans := &Analytics{
		Numeric:     analytics.NumericSummaries(ds, target, idCol),
		Correlation: analytics.Correlation(ds, target, idCol),
	}
	ans.Distributions, ans.SkippedColumns = analytics.CategoricalDistributions(
		ds, target, p.conf.Dataset.MaxPlottedCategories, idCol)
	if roles.Gender != "" && roles.Gender != target.Column {
		ans.ByGender = analytics.DeparturesBy(ds, roles.Gender, target)
	}
	if roles.Education != "" && roles.Education != target.Column {
		ans.ByEducation = analytics.DeparturesBy(ds, roles.Education, target)
	}
	return ans
}

// Run executes all the stages. A failure of a stage is recorded
// in the outcome and the remaining stages are skipped.
func (p *Pipeline) Run(ctx context.Context, input Input) *Outcome {
	ans := &Outcome{Roles: p.DetectRoles(input.Raw)}
	ans.TargetColumn = input.TargetColumn
	if ans.TargetColumn == "" {
		ans.TargetColumn = ans.Roles.Target
	}
	data, err := columns.ApplyTarget(input.Raw, ans.TargetColumn, p.conf.Dataset.TargetColumn)
	if err != nil {
		return ans.fail(StageTarget, err)
	}
	ans.Data = data
	ans.DataRoles = p.detectDataRoles(data)
	ans.FilterOptions = FilterOptions(data, p.conf.Dataset.TargetColumn)

	ans.Filtered = ApplyFilters(data, input.Filters)
	log.Info().
		Int("rows", data.NumRows()).
		Int("filteredRows", ans.Filtered.NumRows()).
		Stringer("filters", input.Filters).
		Msg("applied filters")
	kpis := analytics.ComputeKPIs(ans.Filtered, p.target())
	ans.KPIs = &kpis
	if ans.Filtered.NumRows() == 0 {
		return ans.fail(
			StageFilter,
			fmt.Errorf("%w: no rows match the filters", prep.ErrInsufficientData),
		)
	}
	ans.Analytics = p.analyze(ans.Filtered, ans.DataRoles)

	prepared, err := prep.Prepare(ans.Filtered, prep.Spec{
		TargetColumn:  p.conf.Dataset.TargetColumn,
		PositiveLabel: p.conf.Dataset.PositiveLabel,
		NegativeLabel: p.conf.Dataset.NegativeLabel,
		IDColumn:      p.conf.Dataset.IDColumn,
	})
	if err != nil {
		return ans.fail(StagePrepare, err)
	}
	ans.Prepared = prepared
	// the simulator can still show defaults when training fails
	ans.Simulator = simulate.NewSimulator(prepared, nil, p.conf.Risk)

	if err := ctx.Err(); err != nil {
		return ans.fail(StageTrain, err)
	}
	model, err := p.NewModel()
	if err != nil {
		return ans.fail(StageTrain, err)
	}
	res, err := eval.Train(
		ctx,
		prepared,
		eval.TrainingConf{
			TestSize:    p.conf.Model.TestSize,
			Seed:        p.conf.Model.Seed,
			TopFeatures: p.conf.Model.TopFeatures,
			ClassLabels: [2]string{p.conf.Dataset.NegativeLabel, p.conf.Dataset.PositiveLabel},
		},
		model,
	)
	if err != nil {
		return ans.fail(StageTrain, err)
	}
	ans.Training = res
	ans.Simulator = simulate.NewSimulator(prepared, res, p.conf.Risk)
	if p.OnTrained != nil {
		p.OnTrained(res)
	}
	return ans
}
