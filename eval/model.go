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
)

// MLModel is a binary classifier working with feature vectors
// produced by the prep package. Class 0 means "stayed", class 1 "left".
type MLModel interface {

	// Train fits the model. Any previous state is discarded.
	Train(ctx context.Context, x [][]float64, y []int) error

	// PredictProba returns probabilities of class 0 and class 1
	PredictProba(x []float64) [2]float64

	// FeatureImportances returns a model-specific importance score
	// for each feature (in the order of the feature schema).
	FeatureImportances() []float64

	GetInfo() string
}

// PredictClass returns 1 if the model considers class 1 more probable
// than class 0. Ties go to class 0.
func PredictClass(model MLModel, x []float64) int {
	p := model.PredictProba(x)
	if p[1] > p[0] {
		return 1
	}
	return 0
}
