package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countClasses(y []int, idx []int) [2]int {
	var ans [2]int
	for _, i := range idx {
		ans[y[i]]++
	}
	return ans
}

func TestStratifiedSplitScenario(t *testing.T) {
	y := []int{1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	train, test, err := StratifiedSplit(y, 0.3, 42)
	require.NoError(t, err)
	assert.Len(t, train, 7)
	assert.Len(t, test, 3)
	trainCounts := countClasses(y, train)
	testCounts := countClasses(y, test)
	assert.Positive(t, trainCounts[0])
	assert.Positive(t, trainCounts[1])
	assert.Positive(t, testCounts[0])
	assert.Positive(t, testCounts[1])
}

func TestStratifiedSplitPreservesProportions(t *testing.T) {
	y := make([]int, 200)
	for i := range 40 {
		y[i*5] = 1
	}
	train, test, err := StratifiedSplit(y, 0.3, 1)
	require.NoError(t, err)
	assert.Len(t, test, 60)
	assert.Equal(t, [2]int{48, 12}, countClasses(y, test))
	assert.Equal(t, [2]int{112, 28}, countClasses(y, train))
}

func TestStratifiedSplitReproducible(t *testing.T) {
	y := []int{0, 1, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0, 1, 1, 0}
	train1, test1, err := StratifiedSplit(y, 0.3, 42)
	require.NoError(t, err)
	train2, test2, err := StratifiedSplit(y, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)

	seen := make(map[int]bool)
	for _, i := range append(train1, test1...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, len(y))
}

func TestStratifiedSplitTooFewMembers(t *testing.T) {
	_, _, err := StratifiedSplit([]int{0, 0, 0, 0, 1}, 0.3, 42)
	assert.ErrorIs(t, err, ErrSplit)
}

func TestStratifiedSplitTooFewRows(t *testing.T) {
	_, _, err := StratifiedSplit([]int{0, 0, 1, 1}, 0.1, 42)
	assert.ErrorIs(t, err, ErrSplit)
	_, _, err = StratifiedSplit([]int{0, 1, 0, 1}, 1.5, 42)
	assert.ErrorIs(t, err, ErrSplit)
}
