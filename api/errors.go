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
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
)

// StatusOf maps a service error to an HTTP status.
func StatusOf(err error) int {
	var ve *crudkit.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var qe *repository.QueryError
	if errors.As(err, &qe) {
		switch qe.Kind {
		case repository.KindUnknownColumn, repository.KindInvalidArgument:
			return http.StatusBadRequest
		case repository.KindNotFound:
			return http.StatusNotFound
		}
		switch qe.SQL {
		case database.DuplicateKeyErr:
			return http.StatusConflict
		case database.NotNullViolationErr, database.CheckConstraintViolationErr, database.DataTruncatedErr:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		requestLogger(c).WithError(err).Error("Request failed")
	}
	_ = c.Error(err)
	c.JSON(status, types.NewMessageResponse(err.Error()))
}
