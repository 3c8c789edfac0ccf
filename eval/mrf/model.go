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

package mrf

import (
	"context"
	"fmt"
	"math/rand/v2"

	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

// Model wraps the randomForest library. The library does not support
// sample weights so the classes are balanced by oversampling the minority
// class. Note that the library uses its own global random source so
// the trained forest is not reproducible.
type Model struct {
	Forest   *randomforest.Forest
	NumTrees int
	Seed     uint64

	importances []float64
}

func NewModel(numTrees int, seed uint64) *Model {
	return &Model{
		Forest:   &randomforest.Forest{},
		NumTrees: numTrees,
		Seed:     seed,
	}
}

func (m *Model) GetInfo() string {
	return fmt.Sprintf("RF model (randomForest lib.), num. trees: %d", m.Forest.NTrees)
}

// balanceSample adds randomly chosen copies of minority class vectors
// until both classes have the same size.
func balanceSample(x [][]float64, y []int, rnd *rand.Rand) ([][]float64, []int) {
	var byClass [2][]int
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	minority := 1
	if len(byClass[0]) < len(byClass[1]) {
		minority = 0
	}
	missing := len(byClass[1-minority]) - len(byClass[minority])
	if len(byClass[minority]) == 0 || missing == 0 {
		return x, y
	}
	balX := make([][]float64, len(x), len(x)+missing)
	balY := make([]int, len(y), len(y)+missing)
	copy(balX, x)
	copy(balY, y)
	for range missing {
		i := byClass[minority][rnd.IntN(len(byClass[minority]))]
		balX = append(balX, x[i])
		balY = append(balY, minority)
	}
	return balX, balY
}

func (m *Model) Train(ctx context.Context, x [][]float64, y []int) error {
	if len(x) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if len(x) != len(y) {
		return fmt.Errorf("failed to train RF model - %d vectors but %d labels", len(x), len(y))
	}
	if m.NumTrees <= 0 {
		return fmt.Errorf("failed to train RF model - invalid value of NumTrees")
	}
	for i, c := range y {
		if i%100 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if c != 0 && c != 1 {
			return fmt.Errorf("failed to train RF model - invalid class %d", c)
		}
	}
	rnd := rand.New(rand.NewPCG(m.Seed, 0))
	balX, balY := balanceSample(x, y, rnd)
	log.Debug().
		Int("dataSize", len(x)).
		Int("balancedSize", len(balX)).
		Msg("prepared training vectors")

	m.Forest.Data = randomforest.ForestData{
		X:     balX,
		Class: balY,
	}
	m.Forest.Train(m.NumTrees)
	if err := ctx.Err(); err != nil {
		return err
	}
	m.importances = m.permutationImportances(x, y, rnd)
	return nil
}

func (m *Model) PredictProba(x []float64) [2]float64 {
	var ans [2]float64
	votes := m.Forest.Vote(x)
	var total float64
	for i := 0; i < len(votes) && i < 2; i++ {
		ans[i] = votes[i]
		total += votes[i]
	}
	if total > 0 {
		ans[0] /= total
		ans[1] /= total
	}
	return ans
}

func (m *Model) predictClass(x []float64) int {
	p := m.PredictProba(x)
	if p[1] > p[0] {
		return 1
	}
	return 0
}

func (m *Model) balancedAccuracy(x [][]float64, y []int) float64 {
	var hits, totals [2]float64
	for i, v := range x {
		totals[y[i]]++
		if m.predictClass(v) == y[i] {
			hits[y[i]]++
		}
	}
	var sum, k float64
	for c := range 2 {
		if totals[c] > 0 {
			sum += hits[c] / totals[c]
			k++
		}
	}
	if k == 0 {
		return 0
	}
	return sum / k
}

// permutationImportances measures the drop in balanced accuracy
// after shuffling each feature. Negative drops are reported as zero
// and the result is normalized to sum up to 1.
func (m *Model) permutationImportances(x [][]float64, y []int, rnd *rand.Rand) []float64 {
	numFeats := len(x[0])
	ans := make([]float64, numFeats)
	baseline := m.balancedAccuracy(x, y)
	permuted := make([][]float64, len(x))
	for f := range numFeats {
		perm := rnd.Perm(len(x))
		for i := range x {
			v := make([]float64, numFeats)
			copy(v, x[i])
			v[f] = x[perm[i]][f]
			permuted[i] = v
		}
		ans[f] = max(0, baseline-m.balancedAccuracy(permuted, y))
	}
	var total float64
	for _, v := range ans {
		total += v
	}
	if total > 0 {
		for i := range ans {
			ans[i] /= total
		}
	}
	return ans
}

func (m *Model) FeatureImportances() []float64 {
	ans := make([]float64, len(m.importances))
	copy(ans, m.importances)
	return ans
}
