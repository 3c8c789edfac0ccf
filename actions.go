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
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/rafaeeo/turnover-dashboard/analytics"
	"github.com/rafaeeo/turnover-dashboard/chart"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/eval/rf"
	"github.com/rafaeeo/turnover-dashboard/session"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

const (
	errColor = color.FgHiRed

	reportHeatmapCellSize = 40
)

func exitOnError(err error) {
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPipeline loads a spreadsheet and runs the complete pipeline
// on it. Stage failures are reported as warnings and the partial
// outcome is returned.
func runPipeline(conf *cnf.Conf, srcPath, target string, showProgress bool) *session.Outcome {
	if srcPath == "" {
		exitOnError(fmt.Errorf("no input spreadsheet specified"))
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := dataimport.NewLoader(conf.Dataset.SheetName).LoadFile(srcPath)
	exitOnError(err)

	pipeline := session.NewPipeline(conf)
	if showProgress {
		pipeline.NewModel = func() (eval.MLModel, error) {
			model, err := eval.GetMLModel(conf.Model)
			if err != nil {
				return nil, err
			}
			if rfModel, ok := model.(*rf.Model); ok {
				bar := progressbar.Default(int64(rfModel.NumTrees), "training")
				rfModel.OnTreeDone = func() {
					bar.Add(1)
				}
			}
			return model, nil
		}
	}
	out := pipeline.Run(ctx, session.Input{Raw: ds, TargetColumn: target})
	if out.Roles.NeedsConfirmation && target == "" && out.TargetColumn != "" {
		color.New(color.FgYellow).Fprintf(
			os.Stderr,
			"column %s was used as the target, use -target to select a different one\n",
			out.TargetColumn,
		)
	}
	return out
}

func printKPIs(kpis *analytics.KPIs) {
	titleColor := color.New(color.FgHiMagenta).SprintFunc()
	fmt.Printf("%s\t%d\n", titleColor("employees"), kpis.Total)
	fmt.Printf("%s\t\t%d\n", titleColor("left"), kpis.Left)
	fmt.Printf("%s\t%.2f%%\n", titleColor("turnover"), kpis.Rate)
}

func runActionTrain(conf *cnf.Conf, srcPath, target string, showProgress bool) {
	out := runPipeline(conf, srcPath, target, showProgress)
	if out.KPIs != nil {
		printKPIs(out.KPIs)
		fmt.Println()
	}
	if out.Training == nil {
		exitOnError(out.Err())
	}
	fmt.Println(out.Training.Report.ModelInfo)
	fmt.Println()
	fmt.Print(out.Training.Report.String())
	log.Info().
		Dur("duration", out.Training.Duration).
		Int("numFeatures", len(out.Training.Schema)).
		Msg("training finished")
}

func writeChartFile(dir, name string, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		log.Error().Err(err).Str("chart", name).Msg("failed to render chart")
		return
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		log.Error().Err(err).Str("file", path).Msg("failed to save chart")
		return
	}
	fmt.Println("written ", path)
}

func runActionReport(conf *cnf.Conf, srcPath, target, outDir string) {
	out := runPipeline(conf, srcPath, target, false)
	if out.Analytics == nil {
		exitOnError(out.Err())
	}
	exitOnError(os.MkdirAll(outDir, 0755))

	corr := out.Analytics.Correlation
	if err := chart.SaveHeatmap(
		chart.Matrix(corr.Dense()), filepath.Join(outDir, "correlation.png"), reportHeatmapCellSize, chart.Linear); err != nil {
		log.Error().Err(err).Msg("failed to save correlation heatmap")
	}
	fmt.Println("correlation columns: ", corr.Columns)

	for _, summary := range out.Analytics.Numeric {
		var values []float64
		for _, v := range out.Filtered.Column(summary.Column) {
			if f, ok := v.Float(); ok {
				values = append(values, f)
			}
		}
		writeChartFile(outDir, "hist-"+summary.Column, func(buf *bytes.Buffer) error {
			return chart.Histogram(buf, summary.Column, values, len(summary.Histogram))
		})
	}
	departures := map[string][]analytics.CategoryCount{
		"departures-gender":    out.Analytics.ByGender,
		"departures-education": out.Analytics.ByEducation,
	}
	for name, counts := range departures {
		if len(counts) == 0 {
			continue
		}
		bars := make([]chart.Bar, len(counts))
		for i, c := range counts {
			bars[i] = chart.Bar{Label: c.Category, Value: float64(c.Count)}
		}
		writeChartFile(outDir, name, func(buf *bytes.Buffer) error {
			return chart.VerticalBars(buf, name, "count", bars)
		})
	}

	if out.Training == nil {
		color.New(errColor).Fprintln(os.Stderr, out.Err())
		return
	}
	report := out.Training.Report
	bars := make([]chart.Bar, len(report.TopFeatures))
	for i, f := range report.TopFeatures {
		bars[i] = chart.Bar{Label: f.Feature, Value: f.Importance}
	}
	writeChartFile(outDir, "importance", func(buf *bytes.Buffer) error {
		return chart.HorizontalBars(buf, "Feature importance", "importance", bars)
	})
	writeChartFile(outDir, "confusion", func(buf *bytes.Buffer) error {
		return chart.Heatmap(buf, chart.Matrix(report.ConfusionFloats()), reportHeatmapCellSize, chart.Linear)
	})
}
