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

package rf

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultNumTrees = 100
)

// Model is a random forest classifier for two classes (0, 1).
// Trees are grown on bootstrap samples with class weights inversely
// proportional to class frequencies. For a fixed Seed and input data,
// training always produces the same forest regardless of how the trees
// are scheduled.
type Model struct {
	NumTrees       int
	MaxDepth       int
	MinSamplesLeaf int

	// MaxFeatures is the number of features tried at each split,
	// zero means sqrt(number of features)
	MaxFeatures int
	Seed        uint64

	// OnTreeDone is called (possibly concurrently) each time a tree
	// is finished.
	OnTreeDone func()

	trees       []*node
	importances []float64
	numFeatures int
}

func NewModel(numTrees int, seed uint64) *Model {
	return &Model{
		NumTrees:       numTrees,
		MinSamplesLeaf: 1,
		Seed:           seed,
	}
}

func (m *Model) GetInfo() string {
	var maxDepth int
	for _, t := range m.trees {
		maxDepth = max(maxDepth, t.depth())
	}
	return fmt.Sprintf(
		"RF model, num. trees: %d, num. features: %d, max. tree depth: %d",
		len(m.trees), m.numFeatures, maxDepth,
	)
}

// balancedClassWeights returns n / (k * n_c) for each class c present
// in the data (k is the number of present classes).
func balancedClassWeights(y []int) [2]float64 {
	var counts [2]int
	for _, v := range y {
		counts[v]++
	}
	var k int
	for _, c := range counts {
		if c > 0 {
			k++
		}
	}
	var ans [2]float64
	for c, cnt := range counts {
		if cnt > 0 {
			ans[c] = float64(len(y)) / float64(k*cnt)
		}
	}
	return ans
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
	m.numFeatures = len(x[0])
	if m.numFeatures == 0 {
		return fmt.Errorf("failed to train RF model - no features")
	}
	for i := range x {
		if len(x[i]) != m.numFeatures {
			return fmt.Errorf("failed to train RF model - vector %d has invalid size %d", i, len(x[i]))
		}
		if y[i] != 0 && y[i] != 1 {
			return fmt.Errorf("failed to train RF model - invalid class %d", y[i])
		}
	}
	maxFeatures := m.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(m.numFeatures))))
	}
	minSamplesLeaf := max(1, m.MinSamplesLeaf)
	classWeights := balancedClassWeights(y)
	log.Debug().
		Int("dataSize", len(x)).
		Float64("weightStayed", classWeights[0]).
		Float64("weightLeft", classWeights[1]).
		Int("maxFeatures", maxFeatures).
		Msg("prepared training vectors")

	trees := make([]*node, m.NumTrees)
	treeImportances := make([][]float64, m.NumTrees)
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for t := range m.NumTrees {
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewPCG(m.Seed, uint64(t)))
			counts := make([]int, len(x))
			for range len(x) {
				counts[rnd.IntN(len(x))]++
			}
			weights := make([]float64, len(x))
			idx := make([]int, 0, len(x))
			for i, cnt := range counts {
				if cnt > 0 {
					weights[i] = classWeights[y[i]] * float64(cnt)
					idx = append(idx, i)
				}
			}
			tb := &treeBuilder{
				x:               x,
				y:               y,
				w:               weights,
				maxFeatures:     maxFeatures,
				maxDepth:        m.MaxDepth,
				minSamplesLeaf:  minSamplesLeaf,
				minSamplesSplit: 2,
				rnd:             rnd,
				importances:     make([]float64, m.numFeatures),
			}
			trees[t] = tb.build(idx, 0)
			normalize(tb.importances)
			treeImportances[t] = tb.importances
			if m.OnTreeDone != nil {
				m.OnTreeDone()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("failed to train RF model: %w", err)
	}
	m.trees = trees
	m.importances = make([]float64, m.numFeatures)
	for _, imp := range treeImportances {
		for i, v := range imp {
			m.importances[i] += v / float64(len(treeImportances))
		}
	}
	normalize(m.importances)
	return nil
}

func normalize(values []float64) {
	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}

// PredictProba returns probabilities of classes 0 and 1 as an average
// of the trees' leaf distributions. An untrained model returns zeros.
func (m *Model) PredictProba(x []float64) [2]float64 {
	var ans [2]float64
	if len(m.trees) == 0 {
		return ans
	}
	for _, t := range m.trees {
		p := t.predict(x)
		ans[0] += p[0]
		ans[1] += p[1]
	}
	ans[0] /= float64(len(m.trees))
	ans[1] /= float64(len(m.trees))
	return ans
}

// FeatureImportances returns the mean decrease in impurity of each feature,
// normalized so the values sum up to 1.
func (m *Model) FeatureImportances() []float64 {
	ans := make([]float64, len(m.importances))
	copy(ans, m.importances)
	return ans
}
