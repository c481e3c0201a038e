/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// MetricsHook records query counts and latencies per SQL operation.
type MetricsHook struct {
	duration *prometheus.HistogramVec
	queries  *prometheus.CounterVec
}

var _ bun.QueryHook = (*MetricsHook)(nil)

// NewMetricsHook registers the query collectors with reg (the default
// registerer when nil). Registering twice reuses the existing collectors.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crudkit",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of SQL queries issued through Bun.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crudkit",
		Subsystem: "db",
		Name:      "queries_total",
		Help:      "SQL queries issued through Bun by operation and status.",
	}, []string{"operation", "status"})

	return &MetricsHook{
		duration: registerOrReuse(reg, duration),
		queries:  registerOrReuse(reg, queries),
	}
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		GetLogger().Warn("Failed to register database metrics", "error", err)
	}
	return c
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	op := event.Operation()
	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	h.duration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
	h.queries.WithLabelValues(op, status).Inc()
}
