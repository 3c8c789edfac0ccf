package eval

import (
	"context"
	"testing"

	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/internal/fixtures"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var trainingConf = TrainingConf{
	TestSize:    0.3,
	Seed:        42,
	TopFeatures: 15,
	ClassLabels: [2]string{"Não", "Sim"},
}

func newDefaultModel(t *testing.T) MLModel {
	model, err := GetMLModel(cnf.ModelConf{Backend: BackendRF, NumTrees: 25, Seed: 42})
	require.NoError(t, err)
	return model
}

func TestTrainScenario(t *testing.T) {
	prepared, err := prep.Prepare(fixtures.Scenario(), prep.Spec{
		TargetColumn:  "Turnover",
		PositiveLabel: "Sim",
		NegativeLabel: "Não",
		IDColumn:      "ID",
	})
	require.NoError(t, err)
	res, err := Train(context.Background(), prepared, trainingConf, newDefaultModel(t))
	require.NoError(t, err)
	assert.Len(t, res.TrainIdx, 7)
	assert.Len(t, res.TestIdx, 3)
	assert.Equal(t, []string{"Dept_B", "Age"}, res.Schema)
	assert.Equal(t, 3, res.Report.NumTest)
	assert.Equal(t, 7, res.Report.NumTrain)
	assert.Len(t, res.Report.TopFeatures, 2)
	train := countClasses(prepared.Labels, res.TrainIdx)
	test := countClasses(prepared.Labels, res.TestIdx)
	assert.Positive(t, train[0])
	assert.Positive(t, train[1])
	assert.Positive(t, test[0])
	assert.Positive(t, test[1])
}

func TestTrainEmployees(t *testing.T) {
	prepared, err := prep.Prepare(fixtures.Employees(300, 11), prep.Spec{
		TargetColumn:  "Deixou a empresa",
		PositiveLabel: "Sim",
		NegativeLabel: "Não",
		IDColumn:      "ID",
	})
	require.NoError(t, err)
	res1, err := Train(context.Background(), prepared, trainingConf, newDefaultModel(t))
	require.NoError(t, err)
	res2, err := Train(context.Background(), prepared, trainingConf, newDefaultModel(t))
	require.NoError(t, err)

	assert.Equal(t, res1.Report.Confusion, res2.Report.Confusion)
	assert.Equal(t, res1.Report.TopFeatures, res2.Report.TopFeatures)
	assert.Equal(t, 90, res1.Report.NumTest)
	assert.LessOrEqual(t, len(res1.Report.TopFeatures), 15)
	for i := 1; i < len(res1.Report.TopFeatures); i++ {
		assert.GreaterOrEqual(
			t,
			res1.Report.TopFeatures[i-1].Importance,
			res1.Report.TopFeatures[i].Importance,
		)
	}
	for _, x := range prepared.Matrix {
		assert.Equal(t, res1.Model.PredictProba(x), res2.Model.PredictProba(x))
	}
}

func TestTrainSplitError(t *testing.T) {
	prepared := &prep.Prepared{
		Labels: []int{0, 0, 0, 1},
		Matrix: [][]float64{{1}, {2}, {3}, {4}},
	}
	_, err := Train(context.Background(), prepared, trainingConf, newDefaultModel(t))
	assert.ErrorIs(t, err, ErrSplit)
}

func TestGetMLModel(t *testing.T) {
	m, err := GetMLModel(cnf.ModelConf{Backend: BackendMRF, NumTrees: 5})
	assert.NoError(t, err)
	assert.NotNil(t, m)
	m, err = GetMLModel(cnf.ModelConf{Backend: BackendZero})
	assert.NoError(t, err)
	assert.Contains(t, m.GetInfo(), "ZeroModel")
	_, err = GetMLModel(cnf.ModelConf{Backend: "xgboost"})
	assert.ErrorIs(t, err, ErrNoSuchModel)
}
