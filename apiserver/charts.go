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

package apiserver

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rafaeeo/turnover-dashboard/analytics"
	"github.com/rafaeeo/turnover-dashboard/chart"
	"github.com/rafaeeo/turnover-dashboard/session"
)

const (
	dfltHeatmapCellSize = 40
	maxHeatmapCellSize  = 200

	chartImportance          = "importance"
	chartConfusion           = "confusion"
	chartCorrelation         = "correlation"
	chartDeparturesGender    = "departures-gender"
	chartDeparturesEducation = "departures-education"
)

func departureBars(counts []analytics.CategoryCount) []chart.Bar {
	ans := make([]chart.Bar, len(counts))
	for i, c := range counts {
		ans[i] = chart.Bar{Label: c.Category, Value: float64(c.Count)}
	}
	return ans
}

// renderChart draws a named chart of an outcome. Returned bool is false
// if the outcome does not contain data for the chart.
func renderChart(buf *bytes.Buffer, name string, out *session.Outcome, cellSize int) (bool, error) {
	switch name {
	case chartImportance:
		if out.Training == nil {
			return false, nil
		}
		bars := make([]chart.Bar, len(out.Training.Report.TopFeatures))
		for i, f := range out.Training.Report.TopFeatures {
			bars[i] = chart.Bar{Label: f.Feature, Value: f.Importance}
		}
		return true, chart.HorizontalBars(buf, "Feature importance", "importance", bars)
	case chartConfusion:
		if out.Training == nil {
			return false, nil
		}
		return true, chart.Heatmap(buf, chart.Matrix(out.Training.Report.ConfusionFloats()), cellSize, chart.Linear)
	case chartCorrelation:
		if out.Analytics == nil {
			return false, nil
		}
		return true, chart.Heatmap(buf, chart.Matrix(out.Analytics.Correlation.Dense()), cellSize, chart.Linear)
	case chartDeparturesGender:
		if out.Analytics == nil || len(out.Analytics.ByGender) == 0 {
			return false, nil
		}
		return true, chart.VerticalBars(buf, "Departures by gender", "count", departureBars(out.Analytics.ByGender))
	case chartDeparturesEducation:
		if out.Analytics == nil || len(out.Analytics.ByEducation) == 0 {
			return false, nil
		}
		return true, chart.VerticalBars(buf, "Departures by education", "count", departureBars(out.Analytics.ByEducation))
	}
	return false, fmt.Errorf("unknown chart %s", name)
}

func (api *apiServer) handleChart(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	cellSize, ok := unireq.GetURLIntArgOrFail(ctx, "cellSize", dfltHeatmapCellSize)
	if !ok {
		return
	}
	if cellSize < 1 || cellSize > maxHeatmapCellSize {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("cellSize must be between 1 and %d", maxHeatmapCellSize),
			http.StatusBadRequest,
		)
		return
	}
	out := sess.Outcome()
	if out == nil {
		respondWithError(ctx, session.ErrNoData)
		return
	}
	var buf bytes.Buffer
	found, err := renderChart(&buf, ctx.Param("chart"), out, cellSize)
	if err != nil && !found {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusNotFound)
		return
	}
	if !found && out.Err() != nil {
		uniresp.RespondWithErrorJSON(
			ctx,
			fmt.Errorf("chart %s not available: %w", ctx.Param("chart"), out.Err()),
			http.StatusConflict,
		)
		return

	} else if !found {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("no data for chart %s", ctx.Param("chart")), http.StatusNotFound)
		return
	}
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	// overrides the JSON content type set by the middleware
	ctx.Header("Content-Type", "image/png")
	ctx.Data(http.StatusOK, "image/png", buf.Bytes())
}
