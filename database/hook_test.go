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
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type recordedLog struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedLog
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedLog{level: level, msg: msg})
}

func (l *recordingLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.level)
	}
	return out
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.add("error", msg) }

func openSQLite(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMetricsHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	hook := NewMetricsHook(reg)
	assert.Same(t, hook.queries, NewMetricsHook(reg).queries, "second registration reuses collectors")

	db := openSQLite(t)
	db.AddQueryHook(hook)
	ctx := context.Background()

	var n int
	require.NoError(t, db.NewSelect().ColumnExpr("1").Scan(ctx, &n))
	_, err := db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(hook.queries.WithLabelValues("SELECT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.queries.WithLabelValues("SELECT", "error")))
}

func TestQueryLogHook(t *testing.T) {
	logger := &recordingLogger{}
	db := openSQLite(t)
	db.AddQueryHook(NewQueryLogHook(logger))
	ctx := context.Background()

	var n int
	require.NoError(t, db.NewSelect().ColumnExpr("1").Scan(ctx, &n))
	_, _ = db.ExecContext(ctx, "SELECT * FROM missing_table")
	assert.Equal(t, []string{"debug", "warn"}, logger.levels())

	EnableSilent(true)
	defer EnableSilent(false)
	require.NoError(t, db.NewSelect().ColumnExpr("1").Scan(ctx, &n))
	assert.Len(t, logger.levels(), 2, "silent mode mutes the hook")
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	db := openSQLite(t)
	db.AddQueryHook(NewSlowQueryHook(0, logger))

	var n int
	require.NoError(t, db.NewSelect().ColumnExpr("1").Scan(context.Background(), &n))
	assert.Equal(t, []string{"warn"}, logger.levels())
}
