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
	"reflect"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var silentMode atomic.Bool

// EnableSilent mutes QueryLogHook and SlowQueryHook, e.g. during bulk seeding.
func EnableSilent(b bool) {
	silentMode.Store(b)
}

var (
	errLabel   = color.New(color.BgRed, color.FgWhite).SprintFunc()
	slowLabel  = color.New(color.FgYellow, color.Bold).SprintFunc()
	operColors = map[string]*color.Color{
		"SELECT": color.New(color.FgGreen),
		"INSERT": color.New(color.FgBlue),
		"UPDATE": color.New(color.FgYellow),
		"DELETE": color.New(color.FgMagenta),
	}
)

func colorQuery(event *bun.QueryEvent) string {
	if c, ok := operColors[event.Operation()]; ok {
		return c.Sprint(event.Query)
	}
	return color.RedString(event.Query)
}

// QueryLogHook writes every query at debug level and failed queries at warn
// level. sql.ErrNoRows and sql.ErrTxDone are not failures.
type QueryLogHook struct {
	logger Logger
}

var _ bun.QueryHook = (*QueryLogHook)(nil)

// NewQueryLogHook returns a QueryLogHook writing to logger, or the package
// logger when nil.
func NewQueryLogHook(logger Logger) *QueryLogHook {
	if logger == nil {
		logger = GetLogger()
	}
	return &QueryLogHook{logger: logger}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silentMode.Load() || h.logger == nil {
		return
	}
	dur := time.Since(event.StartTime).Round(time.Microsecond)

	switch {
	case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
		h.logger.Debug("[BUN] "+colorQuery(event), "duration", dur)
	default:
		typ := reflect.TypeOf(event.Err).String()
		h.logger.Warn("[BUN] "+colorQuery(event), "duration", dur, "error", errLabel(" "+typ+": "+event.Err.Error()+" "))
	}
}

// SlowQueryHook warns about successful queries slower than slowTime.
type SlowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook returns a SlowQueryHook with the given threshold.
func NewSlowQueryHook(slowTime time.Duration, logger Logger) *SlowQueryHook {
	if logger == nil {
		logger = GetLogger()
	}
	return &SlowQueryHook{slowTime: slowTime, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silentMode.Load() || event.Err != nil || h.logger == nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.slowTime {
		h.logger.Warn(slowLabel("Database slow query detected"),
			"duration", duration.Round(time.Microsecond),
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
