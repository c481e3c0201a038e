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

package types

import (
	"strconv"
	"strings"
)

// PageQueryParam describes a page request. PageNum is 0-based and neither
// value is clamped here; bounds checking belongs to the caller.
type PageQueryParam struct {
	PageNum       uint64     `json:"page_num" form:"page_num"`
	PageSize      uint64     `json:"page_size" form:"page_size"`
	SortBy        *string    `json:"sort_by,omitempty" form:"sort_by"`
	SortDirection *Direction `json:"sort_direction,omitempty" form:"sort_direction"`
}

// NewPageQueryParam builds an unsorted page request.
func NewPageQueryParam(pageNum, pageSize uint64) PageQueryParam {
	return PageQueryParam{PageNum: pageNum, PageSize: pageSize}
}

// SortedBy returns a copy of p ordered by column in the given direction.
func (p PageQueryParam) SortedBy(column string, direction Direction) PageQueryParam {
	p.SortBy = &column
	p.SortDirection = &direction
	return p
}

// GetDirection returns the requested direction, ASC when none was given.
func (p PageQueryParam) GetDirection() Direction {
	if p.SortDirection == nil || !p.SortDirection.IsValid() {
		return ASC
	}
	return *p.SortDirection
}

// GetSortBy returns the sort column and whether one was requested.
func (p PageQueryParam) GetSortBy() (string, bool) {
	if p.SortBy == nil || *p.SortBy == "" {
		return "", false
	}
	return *p.SortBy, true
}

// GetOffset returns PageNum * PageSize.
func (p PageQueryParam) GetOffset() uint64 {
	return p.PageNum * p.PageSize
}

// PageResponse is a single page of T plus the number of rows matching the
// filter before the page bounds were applied.
type PageResponse[T any] struct {
	Data     []T    `json:"data"`
	PageNum  uint64 `json:"page_num"`
	PageSize uint64 `json:"page_size"`
	Total    uint64 `json:"total"`
}

// NewPageResponse creates a page; a nil data slice is normalized to empty so
// it serializes as [] rather than null.
func NewPageResponse[T any](data []T, pageNum, pageSize, total uint64) *PageResponse[T] {
	if data == nil {
		data = make([]T, 0)
	}
	return &PageResponse[T]{Data: data, PageNum: pageNum, PageSize: pageSize, Total: total}
}

// MapPage converts every item of p with fn, keeping the page metadata.
func MapPage[T, B any](p *PageResponse[T], fn func(T) B) *PageResponse[B] {
	data := make([]B, 0, len(p.Data))
	for _, item := range p.Data {
		data = append(data, fn(item))
	}
	return &PageResponse[B]{Data: data, PageNum: p.PageNum, PageSize: p.PageSize, Total: p.Total}
}

// MessageResponse is the generic info/error envelope of the API layer.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewMessageResponse returns a MessageResponse carrying msg.
func NewMessageResponse(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// IdsRequest carries a comma separated list of decimal identifiers.
type IdsRequest struct {
	Ids string `json:"ids" binding:"required"`
}

// Values returns the trimmed identifiers, skipping blanks between commas.
func (r IdsRequest) Values() []string {
	parts := strings.Split(r.Ids, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// Int64s parses the identifiers as decimal integers.
func (r IdsRequest) Int64s() ([]int64, error) {
	values := r.Values()
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
