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
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := NewLogrusLogger(base)
	log.SetLevel(LogLevelDebug)

	log.Info("connected", "type", "sqlite", "port", 0)
	log.Debug("dangling", "key")

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.InfoLevel, first.Level)
	assert.Equal(t, "connected", first.Message)
	assert.Equal(t, logrus.Fields{"type": "sqlite", "port": 0}, first.Data)
	assert.Empty(t, hook.LastEntry().Data)
}

func TestLogrusLoggerLevel(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := NewLogrusLogger(base)
	log.SetLevel(LogLevelWarn)

	log.Info("hidden")
	log.Warn("shown")

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "shown", hook.LastEntry().Message)
}

func TestModelRegistryOrder(t *testing.T) {
	r := newModelRegistry()
	r.Register(NewModelAdapter("late", 20))
	r.Register(NewModelAdapter("early", 1))
	r.Register(NewModelAdapter("tie", 20))

	var got []interface{}
	for _, m := range r.Models() {
		got = append(got, m.Instance())
	}
	assert.Equal(t, []interface{}{"early", "late", "tie"}, got)
}
