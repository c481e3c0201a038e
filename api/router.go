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

package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomoncle/crudkit/database"
)

// HealthFunc reports the database health.
type HealthFunc func(ctx context.Context) *database.HealthStatus

// NewRouter returns a gin engine with recovery, request logging, /healthz
// and /metrics. A nil health defaults to the global database connection.
func NewRouter(health HealthFunc) *gin.Engine {
	if health == nil {
		health = database.GetHealthStatus
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		status := health(c.Request.Context())
		if status == nil || !status.Healthy {
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
