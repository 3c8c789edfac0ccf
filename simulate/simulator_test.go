package simulate

import (
	"context"
	"testing"

	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/internal/fixtures"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var risk = cnf.RiskConf{High: 0.7, Medium: 0.4}

func scenarioSimulator(t *testing.T, trained bool) (*Simulator, *prep.Prepared) {
	prepared, err := prep.Prepare(fixtures.Scenario(), prep.Spec{
		TargetColumn:  "Turnover",
		PositiveLabel: "Sim",
		NegativeLabel: "Não",
		IDColumn:      "ID",
	})
	require.NoError(t, err)
	if !trained {
		return NewSimulator(prepared, nil, risk), prepared
	}
	model, err := eval.GetMLModel(cnf.ModelConf{Backend: eval.BackendRF, NumTrees: 20, Seed: 42})
	require.NoError(t, err)
	res, err := eval.Train(
		context.Background(),
		prepared,
		eval.TrainingConf{TestSize: 0.3, Seed: 42, TopFeatures: 15, ClassLabels: [2]string{"Não", "Sim"}},
		model,
	)
	require.NoError(t, err)
	return NewSimulator(prepared, res, risk), prepared
}

func TestFields(t *testing.T) {
	sim, _ := scenarioSimulator(t, false)
	fields := sim.Fields()
	require.Len(t, fields, 2)

	assert.Equal(t, "Dept", fields[0].Name)
	assert.Equal(t, dataset.Categorical, fields[0].Kind)
	assert.Equal(t, []string{"A", "B"}, fields[0].Options)
	assert.Equal(t, "A", fields[0].Default.String())

	assert.Equal(t, "Age", fields[1].Name)
	assert.Equal(t, dataset.Numeric, fields[1].Kind)
	median, ok := fields[1].Default.Float()
	assert.True(t, ok)
	assert.InDelta(t, 35.0, median, 1e-9)
	assert.Equal(t, 25.0, fields[1].Min)
	assert.Equal(t, 45.0, fields[1].Max)
}

func TestDefaultInput(t *testing.T) {
	sim, _ := scenarioSimulator(t, false)
	rec := sim.DefaultInput()
	assert.Equal(t, "A", rec["Dept"].String())
	assert.NoError(t, sim.Validate(rec))
	_, hasTarget := rec["Turnover"]
	assert.False(t, hasTarget)
	_, hasID := rec["ID"]
	assert.False(t, hasID)
}

func TestAlignUnseenCategory(t *testing.T) {
	sim, _ := scenarioSimulator(t, false)
	vec := sim.Align(dataset.Record{"Dept": dataset.Str("C"), "Age": dataset.Num(30)})
	assert.Equal(t, []float64{0, 30}, vec)
}

func TestAlignRoundTrip(t *testing.T) {
	sim, prepared := scenarioSimulator(t, false)
	for i, rec := range prepared.Cleaned.Rows() {
		assert.Equal(t, prepared.Matrix[i], sim.Align(rec))
	}
}

func TestPredictWithoutModel(t *testing.T) {
	sim, _ := scenarioSimulator(t, false)
	assert.False(t, sim.Available())
	_, err := sim.Predict(sim.DefaultInput())
	assert.ErrorIs(t, err, ErrModelUnavailable)

	var nilSim *Simulator
	assert.False(t, nilSim.Available())
	_, err = nilSim.Predict(dataset.Record{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
	_, err = nilSim.Assess(dataset.Record{})
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestPredictIdempotent(t *testing.T) {
	sim, _ := scenarioSimulator(t, true)
	require.True(t, sim.Available())
	rec := dataset.Record{"Dept": dataset.Str("B"), "Age": dataset.Num(31)}
	p1, err := sim.Predict(rec)
	require.NoError(t, err)
	p2, err := sim.Predict(rec)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.GreaterOrEqual(t, p1, 0.0)
	assert.LessOrEqual(t, p1, 1.0)

	p3, err := sim.Predict(dataset.Record{"Dept": dataset.Str("never seen"), "Age": dataset.Num(31)})
	require.NoError(t, err)
	p4, err := sim.Predict(dataset.Record{"Dept": dataset.Str("A"), "Age": dataset.Num(31)})
	require.NoError(t, err)
	assert.Equal(t, p4, p3)
}

func TestAssess(t *testing.T) {
	sim, _ := scenarioSimulator(t, true)
	a, err := sim.Assess(sim.DefaultInput())
	require.NoError(t, err)
	assert.Contains(t, a.Percent, "%")
	assert.Equal(t, RiskBand(a.Probability, risk), a.Risk)
}

func TestValidate(t *testing.T) {
	sim, _ := scenarioSimulator(t, false)
	assert.ErrorIs(t, sim.Validate(dataset.Record{"Dept": dataset.Str("C")}), ErrInvalidInput)
	assert.ErrorIs(t, sim.Validate(dataset.Record{"Age": dataset.Num(50)}), ErrInvalidInput)
	assert.ErrorIs(t, sim.Validate(dataset.Record{"Age": dataset.Str("old")}), ErrInvalidInput)
	assert.NoError(t, sim.Validate(dataset.Record{"Age": dataset.Str("30"), "Other": dataset.Str("x")}))
}

func TestRiskBand(t *testing.T) {
	assert.Equal(t, RiskHigh, RiskBand(0.71, risk))
	assert.Equal(t, RiskMedium, RiskBand(0.7, risk))
	assert.Equal(t, RiskMedium, RiskBand(0.41, risk))
	assert.Equal(t, RiskLow, RiskBand(0.4, risk))
	assert.Equal(t, RiskLow, RiskBand(0, risk))
}
