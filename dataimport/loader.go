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

package dataimport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultSheetName = "Base"
)

// ErrLoad signals a malformed or unreadable input file
var ErrLoad = errors.New("failed to load data file")

// Loader parses a spreadsheet sheet into a dataset. The first row
// of the sheet is used as a header.
type Loader struct {
	SheetName string
}

func NewLoader(sheetName string) *Loader {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Loader{SheetName: sheetName}
}

func (loader *Loader) LoadFile(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, err)
	}
	defer f.Close()
	return loader.Load(f)
}

func (loader *Loader) Load(r io.Reader) (*dataset.Dataset, error) {
	xlsx, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, err)
	}
	defer xlsx.Close()

	idx, err := xlsx.GetSheetIndex(loader.SheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf(
			"%w: sheet %s not found (available: %s)",
			ErrLoad, loader.SheetName, strings.Join(xlsx.GetSheetList(), ", "),
		)
	}
	// number formats would turn numeric cells into display text ("3,500.00", "15%")
	rows, err := xlsx.GetRows(loader.SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, err)
	}
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, fmt.Errorf("%w: sheet %s has no header row", ErrLoad, loader.SheetName)
	}

	// excelize trims trailing empty cells so the rows may differ in length
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	columns := headerNames(rows[0], width)
	records := make([]dataset.Record, 0, len(rows)-1)
	var numBlank int
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			numBlank++
			continue
		}
		rec := make(dataset.Record, width)
		for i, col := range columns {
			if i < len(row) {
				rec[col] = dataset.ParseCell(row[i])

			} else {
				rec[col] = dataset.Missing()
			}
		}
		records = append(records, rec)
	}
	ds, err := dataset.New(columns, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoad, err)
	}
	log.Debug().
		Str("sheet", loader.SheetName).
		Int("numRows", ds.NumRows()).
		Int("numColumns", len(columns)).
		Int("skippedBlankRows", numBlank).
		Msg("loaded spreadsheet")
	return ds, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// headerNames creates unique column names out of a header row.
// Blank cells are named 'Unnamed: <position>', repeated names
// get numeric suffixes (X, X.1, X.2, ...).
func headerNames(header []string, width int) []string {
	ans := make([]string, width)
	taken := make(map[string]bool, width)
	suffixes := make(map[string]int)
	for i := range width {
		var name string
		if i < len(header) {
			name = header[i]
		}
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if taken[name] {
			base := name
			k := suffixes[base]
			for taken[name] {
				k++
				name = base + "." + strconv.Itoa(k)
			}
			suffixes[base] = k
		}
		taken[name] = true
		ans[i] = name
	}
	return ans
}
