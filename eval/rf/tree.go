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
	"math/rand/v2"
	"slices"
)

type node struct {
	leaf      bool
	feature   int
	threshold float64
	left      *node
	right     *node

	// proba is the weighted class distribution of a leaf
	proba [2]float64
}

func (n *node) predict(x []float64) [2]float64 {
	curr := n
	for !curr.leaf {
		if x[curr.feature] <= curr.threshold {
			curr = curr.left

		} else {
			curr = curr.right
		}
	}
	return curr.proba
}

func (n *node) depth() int {
	if n.leaf {
		return 0
	}
	return 1 + max(n.left.depth(), n.right.depth())
}

// treeBuilder grows a single CART tree using weighted Gini impurity.
// Sample weights combine class weights with bootstrap multiplicity.
type treeBuilder struct {
	x               [][]float64
	y               []int
	w               []float64
	maxFeatures     int
	maxDepth        int
	minSamplesLeaf  int
	minSamplesSplit int
	rnd             *rand.Rand
	importances     []float64
}

type split struct {
	feature   int
	threshold float64
	cost      float64
	leftIdx   []int
	rightIdx  []int
	leftImp   float64
	rightImp  float64
	leftW     float64
	rightW    float64
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total <= 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

func (tb *treeBuilder) classWeights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if tb.y[i] == 1 {
			w1 += tb.w[i]

		} else {
			w0 += tb.w[i]
		}
	}
	return
}

func (tb *treeBuilder) makeLeaf(w0, w1 float64) *node {
	ans := &node{leaf: true}
	if total := w0 + w1; total > 0 {
		ans.proba = [2]float64{w0 / total, w1 / total}
	}
	return ans
}

func (tb *treeBuilder) build(idx []int, depth int) *node {
	w0, w1 := tb.classWeights(idx)
	impurity := gini(w0, w1)
	if impurity == 0 ||
		len(idx) < tb.minSamplesSplit ||
		len(idx) < 2*tb.minSamplesLeaf ||
		(tb.maxDepth > 0 && depth >= tb.maxDepth) {
		return tb.makeLeaf(w0, w1)
	}
	best := tb.findSplit(idx)
	if best == nil {
		return tb.makeLeaf(w0, w1)
	}
	tb.importances[best.feature] += (w0+w1)*impurity -
		best.leftW*best.leftImp - best.rightW*best.rightImp
	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      tb.build(best.leftIdx, depth+1),
		right:     tb.build(best.rightIdx, depth+1),
	}
}

// findSplit searches for the split with the lowest weighted impurity
// of children. Features are visited in a random order until maxFeatures
// non-constant features are evaluated. If none of them allows a valid
// split, the search continues with the remaining features.
func (tb *treeBuilder) findSplit(idx []int) *split {
	numFeats := len(tb.x[0])
	var best *split
	visited := 0
	sorted := slices.Clone(idx)
	for _, f := range tb.rnd.Perm(numFeats) {
		if visited >= tb.maxFeatures && best != nil {
			break
		}
		slices.SortStableFunc(sorted, func(a, b int) int {
			va, vb := tb.x[a][f], tb.x[b][f]
			if va < vb {
				return -1

			} else if va > vb {
				return 1
			}
			return 0
		})
		if tb.x[sorted[0]][f] == tb.x[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++
		total0, total1 := tb.classWeights(sorted)
		var left0, left1 float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			if tb.y[i] == 1 {
				left1 += tb.w[i]

			} else {
				left0 += tb.w[i]
			}
			curr, next := tb.x[i][f], tb.x[sorted[pos+1]][f]
			if curr == next {
				continue
			}
			numLeft := pos + 1
			if numLeft < tb.minSamplesLeaf || len(sorted)-numLeft < tb.minSamplesLeaf {
				continue
			}
			right0, right1 := total0-left0, total1-left1
			leftW, rightW := left0+left1, right0+right1
			leftImp, rightImp := gini(left0, left1), gini(right0, right1)
			cost := leftW*leftImp + rightW*rightImp
			if best != nil && cost >= best.cost {
				continue
			}
			threshold := curr + (next-curr)/2
			if threshold >= next {
				threshold = curr
			}
			best = &split{
				feature:   f,
				threshold: threshold,
				cost:      cost,
				leftImp:   leftImp,
				rightImp:  rightImp,
				leftW:     leftW,
				rightW:    rightW,
			}
		}
	}
	if best != nil {
		for _, i := range idx {
			if tb.x[i][best.feature] <= best.threshold {
				best.leftIdx = append(best.leftIdx, i)

			} else {
				best.rightIdx = append(best.rightIdx, i)
			}
		}
	}
	return best
}
