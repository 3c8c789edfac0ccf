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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/columns"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

// featureExport is a serializable form of prepared data
type featureExport struct {
	Target  string               `msgpack:"target"`
	Schema  []string             `msgpack:"schema"`
	Columns []prep.EncodedColumn `msgpack:"columns"`
	Matrix  [][]float64          `msgpack:"matrix"`
	Labels  []int                `msgpack:"labels"`
}

func newFeatureExport(prepared *prep.Prepared, target string) featureExport {
	return featureExport{
		Target:  target,
		Schema:  prepared.Schema(),
		Columns: prepared.Encoding.Columns,
		Matrix:  prepared.Matrix,
		Labels:  prepared.Labels,
	}
}

func writeFeatures(w io.Writer, exp featureExport) error {
	return msgpack.NewEncoder(w).Encode(exp)
}

func runActionFeaturize(
	conf *cnf.Conf,
	srcPath, dstPath string,
	target string,
	debug bool,
) {
	if srcPath == "" || (dstPath == "" && !debug) {
		exitOnError(fmt.Errorf("both source and destination files must be specified"))
	}
	ds, err := dataimport.NewLoader(conf.Dataset.SheetName).LoadFile(srcPath)
	exitOnError(err)
	if target == "" {
		roles := columns.NewClassifier(
			columns.DefaultRules(conf.Dataset.TargetColumn, conf.Dataset.IDColumn)).Classify(ds.Columns())
		target = roles.Target
	}
	ds, err = columns.ApplyTarget(ds, target, conf.Dataset.TargetColumn)
	exitOnError(err)
	prepared, err := prep.Prepare(ds, prep.Spec{
		TargetColumn:  conf.Dataset.TargetColumn,
		PositiveLabel: conf.Dataset.PositiveLabel,
		NegativeLabel: conf.Dataset.NegativeLabel,
		IDColumn:      conf.Dataset.IDColumn,
	})
	exitOnError(err)

	if debug {
		fmt.Println(prepared.Schema())
		for i, row := range prepared.Matrix {
			fmt.Printf("feats[%d] (label %d): %v\n", i, prepared.Labels[i], row)
		}
		return
	}

	file, err := os.Create(dstPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", dstPath).Msg("failed to save features to a file")
		return
	}
	defer file.Close()
	if err := writeFeatures(file, newFeatureExport(prepared, target)); err != nil {
		log.Fatal().Err(err).Str("file", dstPath).Msg("failed to save features to a file")
		return
	}
	log.Info().
		Str("file", dstPath).
		Int("rows", len(prepared.Matrix)).
		Int("features", len(prepared.Schema())).
		Msg("exported features")
}
