package prep

import (
	"testing"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/internal/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandUnseenCategory(t *testing.T) {
	p, err := Prepare(fixtures.Scenario(), scenarioSpec)
	require.NoError(t, err)
	rec := dataset.Record{"Dept": dataset.Str("C"), "Age": dataset.Num(30)}
	assert.Equal(t, map[string]float64{"Age": 30}, p.Encoding.Expand(rec))
	assert.Equal(t, []float64{0, 30}, p.Encoding.Vector(rec))
}

func TestExpandReferenceCategory(t *testing.T) {
	p, err := Prepare(fixtures.Scenario(), scenarioSpec)
	require.NoError(t, err)
	rec := dataset.Record{"Dept": dataset.Str("A"), "Age": dataset.Num(33)}
	assert.Equal(t, []float64{0, 33}, p.Encoding.Vector(rec))
	rec = dataset.Record{"Dept": dataset.Str("B"), "Age": dataset.Str("33")}
	assert.Equal(t, []float64{1, 33}, p.Encoding.Vector(rec))
}

func TestAlignDiscardsUnknownColumns(t *testing.T) {
	p, err := Prepare(fixtures.Scenario(), scenarioSpec)
	require.NoError(t, err)
	rec := dataset.Record{
		"Dept":     dataset.Str("B"),
		"City":     dataset.Str("Recife"),
		"Children": dataset.Num(2),
		"Turnover": dataset.Str("Sim"),
	}
	expanded := p.Encoding.Expand(rec)
	assert.Equal(
		t,
		map[string]float64{"Dept_B": 1, "City_Recife": 1, "Children": 2},
		expanded,
	)
	assert.Equal(t, []float64{1, 0}, p.Encoding.Align(expanded))
}

func TestVectorRoundTrip(t *testing.T) {
	p, err := Prepare(fixtures.Employees(150, 3), Spec{
		TargetColumn:  "Deixou a empresa",
		PositiveLabel: "Sim",
		NegativeLabel: "Não",
		IDColumn:      "ID",
	})
	require.NoError(t, err)
	for i, rec := range p.Cleaned.Rows() {
		sim := rec.Clone()
		delete(sim, "Deixou a empresa")
		delete(sim, "ID")
		assert.Equal(t, p.Matrix[i], p.Encoding.Vector(sim))
	}
}

func TestAllUnseenCategoriesGiveReferenceVector(t *testing.T) {
	p, err := Prepare(fixtures.Employees(150, 3), Spec{
		TargetColumn:  "Deixou a empresa",
		PositiveLabel: "Sim",
		NegativeLabel: "Não",
		IDColumn:      "ID",
	})
	require.NoError(t, err)
	rec := dataset.Record{}
	for _, ec := range p.Encoding.Columns {
		if ec.Kind == dataset.Categorical {
			rec[ec.Name] = dataset.Str("never seen value")
		}
	}
	vec := p.Encoding.Vector(rec)
	for _, v := range vec {
		assert.Equal(t, 0.0, v)
	}
}
