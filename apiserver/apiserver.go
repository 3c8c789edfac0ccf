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
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/rafaeeo/turnover-dashboard/cnf"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/session"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 10 * time.Second
)

// -----

type apiServer struct {
	conf     *cnf.Conf
	version  cnf.VersionInfo
	server   *http.Server
	cache    *dataimport.LoadCache
	sessions *session.Store
	metrics  *metrics
}

func newAPIServer(conf *cnf.Conf, version cnf.VersionInfo) *apiServer {
	cache := dataimport.NewLoadCache(
		dataimport.NewLoader(conf.Dataset.SheetName),
		conf.LoadCacheSize,
	)
	pipeline := session.NewPipeline(conf)
	sessions := session.NewStore(pipeline, cache, conf.MaxSessions)
	api := &apiServer{
		conf:     conf,
		version:  version,
		cache:    cache,
		sessions: sessions,
		metrics:  newMetrics(cache, sessions),
	}
	pipeline.OnTrained = api.metrics.observeTraining
	return api
}

func (api *apiServer) engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(corsMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	engine.GET("/version", api.handleVersion)
	engine.GET("/metrics", gin.WrapH(api.metrics.handler()))

	engine.POST("/sessions", api.handleCreateSession)
	engine.DELETE("/sessions/:id", api.handleDeleteSession)
	engine.PUT("/sessions/:id/target", api.handleSetTarget)
	engine.GET("/sessions/:id/filters", api.handleGetFilters)
	engine.PUT("/sessions/:id/filters", api.handleSetFilters)
	engine.GET("/sessions/:id/kpis", api.handleKPIs)
	engine.GET("/sessions/:id/analytics", api.handleAnalytics)
	engine.GET("/sessions/:id/model", api.handleModel)
	engine.GET("/sessions/:id/simulation", api.handleSimulation)
	engine.POST("/sessions/:id/predict", api.handlePredict)
	engine.GET("/sessions/:id/charts/:chart", api.handleChart)
	return engine
}

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      api.engine(),
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down turnover HTTP API server")
	return api.server.Shutdown(ctx)
}

// -------------------------

// Run starts the HTTP API and blocks until the context is cancelled.
// Then it shuts down all the services.
func Run(
	ctx context.Context,
	conf *cnf.Conf,
	version cnf.VersionInfo,
) {
	server := newAPIServer(conf, version)

	services := []service{server}
	for _, m := range services {
		m.Start(ctx)
	}
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, s := range services {
		wg.Add(1)
		go func(srv service) {
			defer wg.Done()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Type("service", srv).Msg("Error shutting down service")
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Graceful shutdown completed")
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timed out")
	}
}
