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

package utils

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		" warn ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLoggerIsShared(t *testing.T) {
	a := NewLogger("UTILS-TEST")
	assert.Same(t, a, NewLogger("UTILS-TEST"))
	assert.NotSame(t, a, NewLogger("UTILS-OTHER"))

	assert.True(t, SetLoggerLevel("UTILS-TEST", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("UTILS-MISSING", "error"))
}

func TestLog4jFormatter(t *testing.T) {
	f := &Log4jFormatter{LoggerName: "REPOSITORY-LAYER", NameWidth: 10}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"table": "users", "elapsed": "2s"},
		Caller:  &runtime.Frame{File: "/src/repository/base.go", Line: 42},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	line := string(out)

	assert.True(t, strings.HasPrefix(line, "2025-01-02 03:04:05.006 WARNING "), line)
	assert.Contains(t, line, "--- [REPOSITORY]")
	assert.Contains(t, line, " base.go:42 : slow query elapsed=2s table=users\n")
}

func TestEnvDefaultString(t *testing.T) {
	t.Setenv("CRUDKIT_UTILS_TEST", "set")
	assert.Equal(t, "set", EnvDefaultString("CRUDKIT_UTILS_TEST", "def"))
	assert.Equal(t, "def", EnvDefaultString("CRUDKIT_UTILS_UNSET", "def"))
}
