package columns

import (
	"testing"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "genero", Normalize(" Gênero "))
	assert.Equal(t, "nivel de escolaridade", Normalize("Nível de Escolaridade"))
}

func TestFuzzy(t *testing.T) {
	p := Fuzzy("Turnover", 2)
	assert.True(t, p("turn over"))
	assert.True(t, p("turnovr"))
	assert.False(t, p("tenure"))
	assert.False(t, Fuzzy("ab", 5)("xyz"))
}

func TestClassifyPrefersRankedRules(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	ans := cls.Classify([]string{
		"ID", "Turnover", "Gênero", "Escolaridade", "Colaborador deixou a empresa?",
	})
	assert.Equal(t, "Colaborador deixou a empresa?", ans.Target)
	assert.Equal(t, "Gênero", ans.Gender)
	assert.Equal(t, "Escolaridade", ans.Education)
	assert.Equal(t, "ID", ans.Identifier)
	assert.Equal(t, "left-company", ans.MatchedBy[RoleTarget])
	assert.False(t, ans.NeedsConfirmation)
}

func TestClassifyFallsBackToTargetName(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	ans := cls.Classify([]string{"Idade", "Turnover"})
	assert.Equal(t, "Turnover", ans.Target)
	assert.Empty(t, ans.Gender)
	assert.False(t, ans.NeedsConfirmation)
}

func TestClassifyFirstMatchingColumnWins(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	ans := cls.Classify([]string{"genero declarado", "Genero"})
	assert.Equal(t, "genero declarado", ans.Gender)
}

func TestDetectIgnoresOtherRoles(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	cols := []string{"ID", "Deixou a empresa (genero)", "Escolaridade"}
	assert.Empty(t, cls.Classify(cols).Gender)
	assert.Equal(t, "Deixou a empresa (genero)", cls.Detect(cols, RoleGender))
	assert.Empty(t, cls.Detect(cols, RoleGender, "Deixou a empresa (genero)"))
	assert.Equal(t, "Escolaridade", cls.Detect(cols, RoleEducation))
	assert.Equal(t, "ID", cls.Detect(cols, RoleIdentifier))
}

func TestClassifyTentativeTarget(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	ans := cls.Classify([]string{"Age", "turn-over"})
	assert.Equal(t, "turn-over", ans.Target)
	assert.True(t, ans.NeedsConfirmation)
}

func TestClassifyNoTarget(t *testing.T) {
	cls := NewClassifier(DefaultRules("Turnover", "ID"))
	ans := cls.Classify([]string{"Age", "Salary"})
	assert.Empty(t, ans.Target)
	assert.True(t, ans.NeedsConfirmation)
}

func TestApplyTarget(t *testing.T) {
	ds := dataset.MustNew(
		[]string{"Turnover", "Saiu", "Age"},
		[]dataset.Record{
			{"Turnover": dataset.Num(1), "Saiu": dataset.Str("Sim"), "Age": dataset.Num(20)},
		},
	)
	ans, err := ApplyTarget(ds, "Saiu", "Turnover")
	require.NoError(t, err)
	assert.Equal(t, []string{"Turnover", "Age"}, ans.Columns())
	assert.Equal(t, "Sim", ans.Row(0)["Turnover"].String())
}

func TestApplyTargetSameName(t *testing.T) {
	ds := dataset.MustNew([]string{"Turnover"}, nil)
	ans, err := ApplyTarget(ds, "Turnover", "Turnover")
	require.NoError(t, err)
	assert.Same(t, ds, ans)
}

func TestApplyTargetMissing(t *testing.T) {
	ds := dataset.MustNew([]string{"Age"}, nil)
	_, err := ApplyTarget(ds, "Saiu", "Turnover")
	assert.ErrorIs(t, err, dataset.ErrSchema)
	_, err = ApplyTarget(ds, "", "Turnover")
	assert.ErrorIs(t, err, dataset.ErrSchema)
}
