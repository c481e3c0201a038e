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

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tomoncle/crudkit/database"

// TracingHook opens a client span per query on the global tracer provider.
type TracingHook struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var _ bun.QueryHook = (*TracingHook)(nil)

// NewTracingHook tags spans with the database system and name.
func NewTracingHook(system, dbName string) *TracingHook {
	return &TracingHook{
		tracer: otel.Tracer(tracerName),
		attrs: []attribute.KeyValue{
			attribute.String("db.system", system),
			attribute.String("db.name", dbName),
		},
	}
}

func (h *TracingHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	ctx, _ = h.tracer.Start(ctx, "db."+event.Operation(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(h.attrs...),
	)
	return ctx
}

func (h *TracingHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	span := trace.SpanFromContext(ctx)
	defer span.End()
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(
		attribute.String("db.operation", event.Operation()),
		attribute.String("db.statement", event.Query),
	)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		span.RecordError(event.Err)
		span.SetStatus(codes.Error, event.Err.Error())
	}
}
