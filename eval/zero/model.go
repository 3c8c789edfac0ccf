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

package zero

import (
	"context"
	"errors"
	"fmt"
)

// Model is a baseline classifier ignoring all the features. It always
// returns the class distribution observed in its training data. It is
// mostly for debugging clients and as a reference for real models.
type Model struct {
	prior       [2]float64
	numFeatures int
}

func NewModel() *Model {
	return &Model{}
}

func (zm *Model) Train(ctx context.Context, x [][]float64, y []int) error {
	if len(y) == 0 || len(x) != len(y) {
		return errors.New("cannot train zero model: invalid training data")
	}
	var counts [2]int
	for _, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("cannot train zero model: invalid label %d", v)
		}
		counts[v]++
	}
	zm.prior[0] = float64(counts[0]) / float64(len(y))
	zm.prior[1] = float64(counts[1]) / float64(len(y))
	zm.numFeatures = len(x[0])
	return nil
}

func (zm *Model) PredictProba(x []float64) [2]float64 {
	return zm.prior
}

func (zm *Model) FeatureImportances() []float64 {
	return make([]float64, zm.numFeatures)
}

func (zm *Model) GetInfo() string {
	return fmt.Sprintf("ZeroModel (class prior %.3f / %.3f)", zm.prior[0], zm.prior[1])
}
