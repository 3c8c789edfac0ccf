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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rafaeeo/turnover-dashboard/dataimport"
	"github.com/rafaeeo/turnover-dashboard/eval"
	"github.com/rafaeeo/turnover-dashboard/session"
)

// metrics uses its own registry so more servers can coexist
// within a single process (e.g. in tests).
type metrics struct {
	registry         *prometheus.Registry
	uploads          *prometheus.CounterVec
	stageFailures    *prometheus.CounterVec
	predictions      *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	testAccuracy     prometheus.Gauge
}

func newMetrics(cache *dataimport.LoadCache, sessions *session.Store) *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)
	m := &metrics{
		registry: reg,
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turnover_uploads_total",
			Help: "Number of uploaded spreadsheets by result",
		}, []string{"result"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turnover_pipeline_stage_failures_total",
			Help: "Number of pipeline runs stopped at a stage",
		}, []string{"stage"}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "turnover_predictions_total",
			Help: "Number of simulated predictions by risk band",
		}, []string{"risk"}),
		trainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "turnover_training_duration_seconds",
			Help:    "Duration of classifier training including evaluation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		testAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "turnover_model_test_accuracy",
			Help: "Accuracy of the most recently trained classifier on its test split",
		}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "turnover_load_cache_entries",
		Help: "Number of parsed spreadsheets kept in the load cache",
	}, func() float64 { return float64(cache.Stats().Size) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "turnover_load_cache_hits_total",
		Help: "Number of spreadsheet loads served from the cache",
	}, func() float64 { return float64(cache.Stats().Hits) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "turnover_load_cache_misses_total",
		Help: "Number of spreadsheet loads which had to parse the file",
	}, func() float64 { return float64(cache.Stats().Misses) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "turnover_sessions",
		Help: "Number of active sessions",
	}, func() float64 { return float64(sessions.Len()) })
	return m
}

func (m *metrics) observeTraining(res *eval.Result) {
	m.trainingDuration.Observe(res.Duration.Seconds())
	m.testAccuracy.Set(res.Report.Accuracy)
}

func (m *metrics) observeOutcome(out *session.Outcome) {
	if out != nil && out.Failure != nil {
		m.stageFailures.WithLabelValues(string(out.Failure.Stage)).Inc()
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
