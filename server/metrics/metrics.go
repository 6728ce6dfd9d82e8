// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics 服務的 Prometheus 指標。每個 Metrics 持有自己的 Registry，測試之間互不干擾。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zintix-labs/tumblelab/sdk/buf"
)

const namespace = "tumblelab"

const (
	LabelGame   = "game"
	LabelPhase  = "phase"
	LabelMethod = "method"
	LabelRoute  = "route"
	LabelStatus = "status"
)

const (
	PhaseBase = "base"
	PhaseFree = "free"
)

var httpLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

type Metrics struct {
	reg *prometheus.Registry

	SpinsResolved  *prometheus.CounterVec
	Reconciliation *prometheus.CounterVec
	Shortfall      *prometheus.CounterVec
	Malformed      prometheus.Counter
	BonusTriggers  *prometheus.CounterVec
	Retriggers     *prometheus.CounterVec
	HardStops      *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
}

// New withRuntime 為 true 時一併註冊 Go runtime 與 process collector
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		SpinsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spins_resolved_total",
			Help:      "Resolved spins by game and phase.",
		}, []string{LabelGame, LabelPhase}),
		Reconciliation: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_warnings_total",
			Help:      "Reconciliation warnings raised while resolving spins.",
		}, []string{LabelGame}),
		Shortfall: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insert_shortfall_cells_total",
			Help:      "Cells left empty because inserted symbols ran short.",
		}, []string{LabelGame}),
		Malformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_responses_total",
			Help:      "Spin responses rejected during normalization.",
		}),
		BonusTriggers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bonus_triggers_total",
			Help:      "Base spins that entered the bonus.",
		}, []string{LabelGame}),
		Retriggers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retriggers_total",
			Help:      "Free spins that awarded extra spins.",
		}, []string{LabelGame}),
		HardStops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autoplay_hard_stops_total",
			Help:      "Autoplay loops ended by the spin source.",
		}, []string{LabelGame}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcome_cache_lookups_total",
			Help:      "Outcome cache lookups by result (hit|miss).",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{LabelMethod, LabelRoute, LabelStatus}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   httpLatencyBuckets,
		}, []string{LabelMethod, LabelRoute}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests being served.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveOutcome 記錄一局的解析結果
func (m *Metrics) ObserveOutcome(game string, o *buf.Outcome) {
	if m == nil || o == nil {
		return
	}
	phase := PhaseBase
	if o.InBonus {
		phase = PhaseFree
	}
	m.SpinsResolved.WithLabelValues(game, phase).Inc()
	if n := len(o.Warnings); n > 0 {
		m.Reconciliation.WithLabelValues(game).Add(float64(n))
	}
	short := 0
	for _, s := range o.Steps {
		short += s.Shortfall
	}
	if short > 0 {
		m.Shortfall.WithLabelValues(game).Add(float64(short))
	}
	if o.EnterBonus {
		m.BonusTriggers.WithLabelValues(game).Inc()
	}
	if o.PendingRetrigger {
		m.Retriggers.WithLabelValues(game).Inc()
	}
}

func (m *Metrics) ObserveMalformed() {
	if m != nil {
		m.Malformed.Inc()
	}
}

func (m *Metrics) ObserveHardStop(game string) {
	if m != nil {
		m.HardStops.WithLabelValues(game).Inc()
	}
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues("hit").Inc()
	} else {
		m.CacheHits.WithLabelValues("miss").Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware 以 chi 的路由樣板當 route label，避免 spinID 造成標籤爆量
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
