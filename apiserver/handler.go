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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rafaeeo/turnover-dashboard/columns"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/session"
	"github.com/rafaeeo/turnover-dashboard/simulate"
	"github.com/rs/zerolog/log"
)

type sessionInfo struct {
	ID                string             `json:"id"`
	Columns           []string           `json:"columns"`
	Roles             columns.Assignment `json:"roles"`
	TargetColumn      string             `json:"targetColumn"`
	NeedsConfirmation bool               `json:"needsConfirmation"`
	Failure           *stageFailure      `json:"failure,omitempty"`
}

func newSessionInfo(sess *session.Session, out *session.Outcome) sessionInfo {
	ans := sessionInfo{
		ID:                sess.ID(),
		Roles:             out.Roles,
		TargetColumn:      out.TargetColumn,
		NeedsConfirmation: out.Roles.NeedsConfirmation,
		Failure:           newStageFailure(out),
	}
	if out.Data != nil {
		ans.Columns = out.Data.Columns()
	}
	return ans
}

type targetRequest struct {
	Column string `json:"column" binding:"required"`
}

type filtersRequest struct {
	Filters session.Filters `json:"filters"`
}

type filtersResponse struct {
	Options  []session.FilterOption `json:"options"`
	Selected session.Filters        `json:"selected"`
	NumRows  int                    `json:"numRows"`
	Failure  *stageFailure          `json:"failure,omitempty"`
}

type modelResponse struct {
	Available      bool         `json:"available"`
	Report         *eval.Report `json:"report,omitempty"`
	TrainingSecs   float64      `json:"trainingSecs,omitempty"`
	DisabledReason string       `json:"disabledReason,omitempty"`
}

type simulationResponse struct {
	Available      bool             `json:"available"`
	Fields         []simulate.Field `json:"fields"`
	DisabledReason string           `json:"disabledReason,omitempty"`
}

type predictRequest struct {
	Input dataset.Record `json:"input"`
}

func disabledReason(out *session.Outcome) string {
	if out == nil {
		return session.ErrNoData.Error()
	}
	if err := out.Err(); err != nil {
		return err.Error()
	}
	return "not available"
}

func (api *apiServer) handleVersion(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, api.version)
}

func (api *apiServer) getSessionOrFail(ctx *gin.Context) (*session.Session, bool) {
	sess, err := api.sessions.Get(ctx.Param("id"))
	if err != nil {
		respondWithError(ctx, err)
		return nil, false
	}
	return sess, true
}

// getOutcomeOrFail returns the latest outcome of a session which
// reached at least the required stage. Otherwise it writes the error
// which stopped the pipeline.
func (api *apiServer) getOutcomeOrFail(ctx *gin.Context, reached func(*session.Outcome) bool) (*session.Outcome, bool) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return nil, false
	}
	out := sess.Outcome()
	if out == nil {
		respondWithError(ctx, session.ErrNoData)
		return nil, false
	}
	if !reached(out) {
		err := out.Err()
		if err == nil {
			err = session.ErrNoData
		}
		respondWithError(ctx, err)
		return nil, false
	}
	return out, true
}

func (api *apiServer) handleCreateSession(ctx *gin.Context) {
	maxBytes := int64(api.conf.MaxUploadSizeMB) << 20
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)
	fh, err := ctx.FormFile("file")
	if err != nil {
		var mbErr *http.MaxBytesError
		if errors.As(err, &mbErr) {
			uniresp.RespondWithErrorJSON(
				ctx,
				fmt.Errorf("file too large (max. %d MB)", api.conf.MaxUploadSizeMB),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	f, err := fh.Open()
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}

	sess := api.sessions.Create()
	out, err := sess.Upload(ctx.Request.Context(), data)
	if err != nil {
		api.metrics.uploads.WithLabelValues("error").Inc()
		if err := api.sessions.Delete(sess.ID()); err != nil {
			log.Warn().Err(err).Str("session", sess.ID()).Msg("failed to remove session")
		}
		respondWithError(ctx, err)
		return
	}
	api.metrics.uploads.WithLabelValues("ok").Inc()
	api.metrics.observeOutcome(out)
	uniresp.WriteJSONResponse(ctx.Writer, newSessionInfo(sess, out))
}

func (api *apiServer) handleDeleteSession(ctx *gin.Context) {
	if err := api.sessions.Delete(ctx.Param("id")); err != nil {
		respondWithError(ctx, err)
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, map[string]any{"ok": true})
}

func (api *apiServer) handleSetTarget(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	var req targetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	out, err := sess.SetTarget(ctx.Request.Context(), req.Column)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	api.metrics.observeOutcome(out)
	uniresp.WriteJSONResponse(ctx.Writer, newSessionInfo(sess, out))
}

func (api *apiServer) writeFilters(ctx *gin.Context, sess *session.Session, out *session.Outcome) {
	ans := filtersResponse{
		Options:  out.FilterOptions,
		Selected: sess.Filters(),
		Failure:  newStageFailure(out),
	}
	if ans.Selected == nil {
		ans.Selected = session.Filters{}
	}
	if out.Filtered != nil {
		ans.NumRows = out.Filtered.NumRows()
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (api *apiServer) handleGetFilters(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	out := sess.Outcome()
	if out == nil {
		respondWithError(ctx, session.ErrNoData)
		return
	}
	api.writeFilters(ctx, sess, out)
}

func (api *apiServer) handleSetFilters(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	var req filtersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	out, err := sess.SetFilters(ctx.Request.Context(), req.Filters)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	api.metrics.observeOutcome(out)
	api.writeFilters(ctx, sess, out)
}

func (api *apiServer) handleKPIs(ctx *gin.Context) {
	out, ok := api.getOutcomeOrFail(ctx, func(o *session.Outcome) bool { return o.KPIs != nil })
	if !ok {
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, out.KPIs)
}

func (api *apiServer) handleAnalytics(ctx *gin.Context) {
	out, ok := api.getOutcomeOrFail(ctx, func(o *session.Outcome) bool { return o.Analytics != nil })
	if !ok {
		return
	}
	uniresp.WriteJSONResponse(ctx.Writer, out.Analytics)
}

func (api *apiServer) handleModel(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	out := sess.Outcome()
	var ans modelResponse
	if out != nil && out.Training != nil {
		ans.Available = true
		ans.Report = out.Training.Report
		ans.TrainingSecs = out.Training.Duration.Seconds()

	} else {
		ans.DisabledReason = disabledReason(out)
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (api *apiServer) handleSimulation(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	out := sess.Outcome()
	ans := simulationResponse{Fields: []simulate.Field{}}
	if out != nil && out.Simulator != nil {
		ans.Fields = out.Simulator.Fields()
	}
	if out != nil && out.Simulator.Available() {
		ans.Available = true

	} else {
		ans.DisabledReason = fmt.Sprintf("%s: %s", simulate.ErrModelUnavailable, disabledReason(out))
	}
	uniresp.WriteJSONResponse(ctx.Writer, ans)
}

func (api *apiServer) handlePredict(ctx *gin.Context) {
	sess, ok := api.getSessionOrFail(ctx)
	if !ok {
		return
	}
	var req predictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	pred, err := sess.Predict(req.Input)
	if err != nil {
		respondWithError(ctx, err)
		return
	}
	api.metrics.predictions.WithLabelValues(string(pred.Risk)).Inc()
	uniresp.WriteJSONResponse(ctx.Writer, pred)
}
