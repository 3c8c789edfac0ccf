package rf

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separableData(n int) ([][]float64, []int) {
	rnd := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range n {
		x[i] = []float64{float64(i), rnd.Float64(), 3}
		if i >= n*3/4 {
			y[i] = 1
		}
	}
	return x, y
}

func TestBalancedClassWeights(t *testing.T) {
	w := balancedClassWeights([]int{0, 0, 0, 1})
	assert.InDelta(t, 4.0/6.0, w[0], 1e-12)
	assert.InDelta(t, 2.0, w[1], 1e-12)

	w = balancedClassWeights([]int{1, 1})
	assert.Equal(t, 0.0, w[0])
	assert.Equal(t, 1.0, w[1])
}

func TestTrainSeparable(t *testing.T) {
	x, y := separableData(100)
	model := NewModel(30, 42)
	require.NoError(t, model.Train(context.Background(), x, y))

	low := model.PredictProba(x[10])
	high := model.PredictProba(x[95])
	assert.Less(t, low[1], 0.5)
	assert.Greater(t, high[1], 0.5)
	assert.InDelta(t, 1.0, low[0]+low[1], 1e-9)

	imp := model.FeatureImportances()
	require.Len(t, imp, 3)
	assert.Greater(t, imp[0], imp[1])
	assert.Equal(t, 0.0, imp[2])
	assert.InDelta(t, 1.0, imp[0]+imp[1]+imp[2], 1e-9)
}

func TestTrainDeterministic(t *testing.T) {
	x, y := separableData(80)
	m1 := NewModel(20, 7)
	m2 := NewModel(20, 7)
	require.NoError(t, m1.Train(context.Background(), x, y))
	require.NoError(t, m2.Train(context.Background(), x, y))
	for _, v := range x {
		assert.Equal(t, m1.PredictProba(v), m2.PredictProba(v))
	}
	assert.Equal(t, m1.FeatureImportances(), m2.FeatureImportances())
}

func TestTrainProgressHook(t *testing.T) {
	x, y := separableData(40)
	var done atomic.Int32
	model := NewModel(12, 1)
	model.OnTreeDone = func() { done.Add(1) }
	require.NoError(t, model.Train(context.Background(), x, y))
	assert.Equal(t, int32(12), done.Load())
	assert.Contains(t, model.GetInfo(), "num. trees: 12")
}

func TestTrainMaxDepth(t *testing.T) {
	x, y := separableData(60)
	model := NewModel(5, 3)
	model.MaxDepth = 1
	require.NoError(t, model.Train(context.Background(), x, y))
	for _, tree := range model.trees {
		assert.LessOrEqual(t, tree.depth(), 1)
	}
}

func TestTrainCancelled(t *testing.T) {
	x, y := separableData(40)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewModel(10, 1).Train(ctx, x, y)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainInvalidInput(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewModel(10, 1).Train(ctx, nil, nil))
	assert.Error(t, NewModel(10, 1).Train(ctx, [][]float64{{1}}, []int{0, 1}))
	assert.Error(t, NewModel(0, 1).Train(ctx, [][]float64{{1}}, []int{0}))
	assert.Error(t, NewModel(10, 1).Train(ctx, [][]float64{{1}, {2, 3}}, []int{0, 1}))
	assert.Error(t, NewModel(10, 1).Train(ctx, [][]float64{{1}, {2}}, []int{0, 2}))
}

func TestUntrainedPredict(t *testing.T) {
	assert.Equal(t, [2]float64{}, NewModel(10, 1).PredictProba([]float64{1}))
}
