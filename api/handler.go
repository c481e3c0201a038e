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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
)

// DefaultPageSize applies when a list request carries no page_size.
const DefaultPageSize uint64 = 20

// KeyBinding tells a CrudHandler how path and body identifiers map to the
// entity key.
type KeyBinding[T repository.Entity[PK], PK comparable] struct {
	// Column is the key column used by batch deletes. Defaults to "id".
	Column string
	// Parse converts one identifier from the path or an IdsRequest.
	Parse func(string) (PK, error)
	// Set writes the path key into a decoded body before an update.
	Set func(model *T, pk PK)
}

// Int64Key parses decimal int64 identifiers.
func Int64Key(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// CrudHandler exposes a Service over HTTP.
type CrudHandler[T repository.Entity[PK], PK comparable] struct {
	service crudkit.Service[T, PK]
	key     KeyBinding[T, PK]
}

// NewCrudHandler returns a handler serving service.
func NewCrudHandler[T repository.Entity[PK], PK comparable](service crudkit.Service[T, PK], key KeyBinding[T, PK]) *CrudHandler[T, PK] {
	if key.Column == "" {
		key.Column = "id"
	}
	return &CrudHandler[T, PK]{service: service, key: key}
}

// Register mounts the CRUD routes on group.
func (h *CrudHandler[T, PK]) Register(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.DELETE("", h.DeleteBatch)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func (h *CrudHandler[T, PK]) Get(c *gin.Context) {
	pk, ok := h.pathKey(c)
	if !ok {
		return
	}
	model, err := h.service.FindByID(c.Request.Context(), pk)
	if err != nil {
		writeError(c, err)
		return
	}
	if model == nil {
		c.JSON(http.StatusNotFound, types.NewMessageResponse(fmt.Sprintf("%v not found", pk)))
		return
	}
	c.JSON(http.StatusOK, model)
}

func (h *CrudHandler[T, PK]) List(c *gin.Context) {
	param, err := bindPageQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse(err.Error()))
		return
	}
	items, total, err := h.service.FindPage(c.Request.Context(), param)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPageResponse(items, param.PageNum, param.PageSize, total))
}

func (h *CrudHandler[T, PK]) Create(c *gin.Context) {
	model := new(T)
	if err := c.ShouldBindJSON(model); err != nil {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse(err.Error()))
		return
	}
	created, err := h.service.Create(c.Request.Context(), model)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CrudHandler[T, PK]) Update(c *gin.Context) {
	pk, ok := h.pathKey(c)
	if !ok {
		return
	}
	model := new(T)
	if err := c.ShouldBindJSON(model); err != nil {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse(err.Error()))
		return
	}
	if h.key.Set != nil {
		h.key.Set(model, pk)
	}
	updated, err := h.service.UpdateByID(c.Request.Context(), model)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CrudHandler[T, PK]) Delete(c *gin.Context) {
	pk, ok := h.pathKey(c)
	if !ok {
		return
	}
	res, err := h.service.Delete(c.Request.Context(), pk)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewMessageResponse(fmt.Sprintf("deleted %d", res.RowsAffected)))
}

// DeleteBatch removes every entity listed in an IdsRequest body.
func (h *CrudHandler[T, PK]) DeleteBatch(c *gin.Context) {
	var req types.IdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse(err.Error()))
		return
	}
	values := req.Values()
	if len(values) == 0 {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse("ids cannot be empty"))
		return
	}
	keys := make([]PK, 0, len(values))
	for _, v := range values {
		pk, err := h.key.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.NewMessageResponse(fmt.Sprintf("invalid id %q", v)))
			return
		}
		keys = append(keys, pk)
	}
	res, err := h.service.DeleteBatch(c.Request.Context(), cond.In(h.key.Column, keys))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewMessageResponse(fmt.Sprintf("deleted %d", res.RowsAffected)))
}

func (h *CrudHandler[T, PK]) pathKey(c *gin.Context) (PK, bool) {
	pk, err := h.key.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewMessageResponse(fmt.Sprintf("invalid id %q", c.Param("id"))))
		return pk, false
	}
	return pk, true
}

func bindPageQuery(c *gin.Context) (types.PageQueryParam, error) {
	var query struct {
		PageNum       uint64  `form:"page_num"`
		PageSize      *uint64 `form:"page_size"`
		SortBy        string  `form:"sort_by"`
		SortDirection string  `form:"sort_direction"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return types.PageQueryParam{}, err
	}

	param := types.NewPageQueryParam(query.PageNum, DefaultPageSize)
	if query.PageSize != nil {
		param.PageSize = *query.PageSize
	}
	if query.SortBy != "" {
		direction := types.ASC
		if query.SortDirection != "" {
			d, err := types.ParseDirection(query.SortDirection)
			if err != nil {
				return types.PageQueryParam{}, err
			}
			direction = d
		}
		param = param.SortedBy(query.SortBy, direction)
	}
	return param, nil
}
