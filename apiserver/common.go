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
	"context"
	"errors"
	"net/http"

	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/dataset"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/prep"
	"github.com/rafaeeo/turnover-dashboard/session"
	"github.com/rafaeeo/turnover-dashboard/simulate"
)

type service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}

// ------

type stageFailure struct {
	Stage session.Stage `json:"stage"`
	Error string        `json:"error"`
}

func newStageFailure(out *session.Outcome) *stageFailure {
	if out == nil || out.Failure == nil {
		return nil
	}
	return &stageFailure{Stage: out.Failure.Stage, Error: out.Failure.Err.Error()}
}

// errStatus maps errors produced by the pipeline to HTTP status codes
func errStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNoSuchSession):
		return http.StatusNotFound
	case errors.Is(err, simulate.ErrModelUnavailable), errors.Is(err, session.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, dataimport.ErrLoad),
		errors.Is(err, dataset.ErrSchema),
		errors.Is(err, prep.ErrInsufficientData),
		errors.Is(err, prep.ErrNoFeatures),
		errors.Is(err, eval.ErrSplit):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondWithError(ctx *gin.Context, err error) {
	uniresp.RespondWithErrorJSON(ctx, err, errStatus(err))
}

// -----

func corsMiddleware(conf *cnf.Conf) gin.HandlerFunc {
	return func(ctx *gin.Context) {

		var allowedOrigin string
		currOrigin := ctx.Request.Header.Get("Origin")
		for _, origin := range conf.CorsAllowedOrigins {
			// credentials are not allowed with the literal "*"
			if currOrigin == origin || origin == "*" {
				allowedOrigin = currOrigin
				break
			}
		}
		if allowedOrigin != "" {
			ctx.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			ctx.Writer.Header().Set(
				"Access-Control-Allow-Headers",
				"Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With",
			)
			ctx.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if ctx.Request.Method == "OPTIONS" {
			ctx.AbortWithStatus(204)
			return
		}
		ctx.Next()
	}
}
