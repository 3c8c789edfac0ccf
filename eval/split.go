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
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// ErrSplit signals that a stratified split of the data is not possible
var ErrSplit = errors.New("stratified split failed")

// StratifiedSplit divides row indices into a training and a testing
// part so that the proportion of classes is preserved in both of them.
// The number of test rows is ceil(testSize * n), each class contributes
// proportionally to its size (largest remainders get the extra rows).
// Rows of each class are shuffled using a source seeded by seed so the
// split is reproducible. Both returned index lists are sorted.
func StratifiedSplit(y []int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("%w: invalid test size %.2f", ErrSplit, testSize)
	}
	byClass := make(map[int][]int)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	classes := make([]int, 0, len(byClass))
	for c, items := range byClass {
		if len(items) < 2 {
			return nil, nil, fmt.Errorf(
				"%w: the least populated class %d has only %d member(s)", ErrSplit, c, len(items))
		}
		classes = append(classes, c)
	}
	slices.Sort(classes)
	n := len(y)
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest < len(classes) || nTrain < len(classes) {
		return nil, nil, fmt.Errorf(
			"%w: %d test and %d train rows cannot hold %d classes", ErrSplit, nTest, nTrain, len(classes))
	}

	alloc := allocateTestRows(classes, byClass, n, nTest)
	rnd := rand.New(rand.NewPCG(seed, 0))
	for _, c := range classes {
		items := slices.Clone(byClass[c])
		rnd.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
		test = append(test, items[:alloc[c]]...)
		train = append(train, items[alloc[c]:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// allocateTestRows distributes nTest rows among classes proportionally
// to their sizes using the largest remainder method. Each class keeps
// at least one row in both parts.
func allocateTestRows(classes []int, byClass map[int][]int, n, nTest int) map[int]int {
	type share struct {
		class int
		frac  float64
		size  int
	}
	alloc := make(map[int]int, len(classes))
	shares := make([]share, len(classes))
	assigned := 0
	for i, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		alloc[c] = int(math.Floor(exact))
		assigned += alloc[c]
		shares[i] = share{class: c, frac: exact - math.Floor(exact), size: len(byClass[c])}
	}
	slices.SortStableFunc(shares, func(a, b share) int {
		if a.frac != b.frac {
			if a.frac > b.frac {
				return -1
			}
			return 1
		}
		return b.size - a.size
	})
	for i := 0; assigned < nTest; i = (i + 1) % len(shares) {
		c := shares[i].class
		if alloc[c] < len(byClass[c])-1 {
			alloc[c]++
			assigned++
		}
	}
	// make sure every class is present in the test part
	for _, c := range classes {
		if alloc[c] > 0 {
			continue
		}
		for _, s := range shares {
			if alloc[s.class] > 1 {
				alloc[s.class]--
				alloc[c]++
				break
			}
		}
	}
	return alloc
}
