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

// Package fixtures provides synthetic HR datasets for tests.
package fixtures

import (
	"math/rand/v2"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/xuri/excelize/v2"
)

// Scenario returns ten employees with alternating target values,
// a two-valued department and ages spread between 25 and 45.
func Scenario() *dataset.Dataset {
	rows := make([]dataset.Record, 10)
	for i := range rows {
		target := "Sim"
		dept := "A"
		if i%2 == 1 {
			target = "Não"
		}
		if i >= 5 {
			dept = "B"
		}
		rows[i] = dataset.Record{
			"ID":       dataset.Num(float64(i + 1)),
			"Dept":     dataset.Str(dept),
			"Age":      dataset.Num(25 + float64(i)*20/9),
			"Turnover": dataset.Str(target),
		}
	}
	return dataset.MustNew([]string{"ID", "Dept", "Age", "Turnover"}, rows)
}

// Employees generates n employees where the departure depends mostly
// on overtime and age so a classifier has something to learn.
func Employees(n int, seed uint64) *dataset.Dataset {
	rnd := rand.New(rand.NewPCG(seed, 0x5eed))
	depts := []string{"Vendas", "TI", "RH"}
	genders := []string{"Feminino", "Masculino"}
	edu := []string{"Médio", "Superior", "Pós-graduação"}
	rows := make([]dataset.Record, n)
	for i := range rows {
		age := 20 + rnd.IntN(41)
		overtime := rnd.Float64() < 0.35
		score := 0.1
		if overtime {
			score += 0.55
		}
		if age < 30 {
			score += 0.25
		}
		left := rnd.Float64() < score
		rec := dataset.Record{
			"ID":               dataset.Num(float64(i + 1)),
			"Departamento":     dataset.Str(depts[rnd.IntN(len(depts))]),
			"Gênero":           dataset.Str(genders[rnd.IntN(len(genders))]),
			"Escolaridade":     dataset.Str(edu[rnd.IntN(len(edu))]),
			"Idade":            dataset.Num(float64(age)),
			"Salario":          dataset.Num(float64(2000 + rnd.IntN(8000))),
			"Horas Extras":     dataset.Str(yesNo(overtime)),
			"Deixou a empresa": dataset.Str(yesNo(left)),
		}
		rows[i] = rec
	}
	return dataset.MustNew(
		[]string{
			"ID", "Departamento", "Gênero", "Escolaridade", "Idade",
			"Salario", "Horas Extras", "Deixou a empresa",
		},
		rows,
	)
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// Workbook writes a dataset into an in-memory xlsx file with a single
// sheet. Missing values become empty cells.
func Workbook(ds *dataset.Dataset, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := make([]any, len(ds.Columns()))
	for i, c := range ds.Columns() {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, rec := range ds.Rows() {
		row := make([]any, len(ds.Columns()))
		for j, c := range ds.Columns() {
			v := rec[c]
			if num, ok := v.Float(); ok {
				row[j] = num

			} else if !v.IsMissing() {
				row[j] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
