package dataimport

import (
	"bytes"
	"testing"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func makeWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func employeesWorkbook(t *testing.T) []byte {
	return makeWorkbook(t, "Base", [][]any{
		{"ID", "Dept", "Age", "Turnover"},
		{1, "A", 30, "Sim"},
		{2, "B", 41.5, "Não"},
		{3, "A"},
		{},
		{4, "B", 25, "Não"},
	})
}

func TestLoad(t *testing.T) {
	ds, err := NewLoader("").Load(bytes.NewReader(employeesWorkbook(t)))
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Dept", "Age", "Turnover"}, ds.Columns())
	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, dataset.Numeric, ds.Kind("Age"))
	assert.Equal(t, dataset.Categorical, ds.Kind("Dept"))

	age, ok := ds.Row(1)["Age"].Float()
	assert.True(t, ok)
	assert.Equal(t, 41.5, age)
	assert.True(t, ds.Row(2)["Age"].IsMissing())
	assert.True(t, ds.Row(2)["Turnover"].IsMissing())
	assert.Equal(t, "B", ds.Row(3)["Dept"].String())
}

func TestLoadFormattedNumbers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Base"))
	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	rows := [][]any{
		{"Salario", "Comissao", "Turnover"},
		{3500, 0.15, "Sim"},
		{12750.5, 0.15, "Não"},
		{1200, 0.15, "Não"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Base", cell, &r))
	}
	require.NoError(t, f.SetCellStyle("Base", "A2", "A4", thousands))
	require.NoError(t, f.SetCellStyle("Base", "B2", "B4", percent))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := NewLoader("Base").Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, dataset.Numeric, ds.Kind("Salario"))
	assert.Equal(t, dataset.Numeric, ds.Kind("Comissao"))
	salary, ok := ds.Row(1)["Salario"].Float()
	assert.True(t, ok)
	assert.Equal(t, 12750.5, salary)
	comm, ok := ds.Row(0)["Comissao"].Float()
	assert.True(t, ok)
	assert.InDelta(t, 0.15, comm, 1e-9)
	assert.Equal(t, dataset.Categorical, ds.Kind("Turnover"))
}

func TestLoadHeaderOnly(t *testing.T) {
	data := makeWorkbook(t, "Base", [][]any{{"ID", "Turnover"}})
	ds, err := NewLoader("Base").Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, []string{"ID", "Turnover"}, ds.Columns())
}

func TestLoadMissingSheet(t *testing.T) {
	data := makeWorkbook(t, "Other", [][]any{{"ID"}, {1}})
	_, err := NewLoader("Base").Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadEmptySheet(t *testing.T) {
	data := makeWorkbook(t, "Base", nil)
	_, err := NewLoader("Base").Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadMalformed(t *testing.T) {
	_, err := NewLoader("Base").Load(bytes.NewReader([]byte("this is not a spreadsheet")))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := NewLoader("Base").LoadFile("/nonexistent/file.xlsx")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestHeaderNames(t *testing.T) {
	assert.Equal(
		t,
		[]string{"a", "Unnamed: 1", "a.1", "a.2", "Unnamed: 4"},
		headerNames([]string{"a", "", "a", "a"}, 5),
	)
	assert.Equal(
		t,
		[]string{"a", "a.1", "a.2"},
		headerNames([]string{"a", "a.1", "a"}, 3),
	)
}
