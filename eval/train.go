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

package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTestSize    = 0.3
	DefaultTopFeatures = 15
)

type TrainingConf struct {
	TestSize    float64
	Seed        uint64
	TopFeatures int

	// ClassLabels are displayed names of class 0 and class 1
	ClassLabels [2]string
}

// Result is an outcome of a single training invocation. It is
// never modified once created.
type Result struct {
	Model MLModel

	// Schema is the exact ordered feature list the model was trained with
	Schema   []string
	TrainIdx []int
	TestIdx  []int
	Report   *Report
	Duration time.Duration
}

func selectRows(prepared *prep.Prepared, idx []int) ([][]float64, []int) {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, v := range idx {
		x[i] = prepared.Matrix[v]
		y[i] = prepared.Labels[v]
	}
	return x, y
}

// Train splits prepared data into training and testing parts, fits
// the model on the former and evaluates it on the latter.
func Train(ctx context.Context, prepared *prep.Prepared, conf TrainingConf, model MLModel) (*Result, error) {
	testSize := conf.TestSize
	if testSize == 0 {
		testSize = DefaultTestSize
	}
	trainIdx, testIdx, err := StratifiedSplit(prepared.Labels, testSize, conf.Seed)
	if err != nil {
		return nil, err
	}
	t0 := time.Now()
	trainX, trainY := selectRows(prepared, trainIdx)
	if err := model.Train(ctx, trainX, trainY); err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}
	testX, testY := selectRows(prepared, testIdx)
	predicted := make([]int, len(testX))
	for i, x := range testX {
		predicted[i] = PredictClass(model, x)
	}
	report := NewReport(testY, predicted, conf.ClassLabels)
	report.NumTrain = len(trainIdx)
	topN := conf.TopFeatures
	if topN == 0 {
		topN = DefaultTopFeatures
	}
	report.TopFeatures = TopFeatures(prepared.Schema(), model.FeatureImportances(), topN)
	report.ModelInfo = model.GetInfo()

	ans := &Result{
		Model:    model,
		Schema:   prepared.Schema(),
		TrainIdx: trainIdx,
		TestIdx:  testIdx,
		Report:   report,
		Duration: time.Since(t0),
	}
	log.Info().
		Int("numTrain", len(trainIdx)).
		Int("numTest", len(testIdx)).
		Float64("accuracy", report.Accuracy).
		Float64("recallLeft", report.Classes[1].Recall).
		Dur("duration", ans.Duration).
		Msg("trained classifier")
	return ans, nil
}
