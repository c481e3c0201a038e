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

package crudkit

import (
	"context"
	"sync"

	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
)

// Service is the business-facing counterpart of repository.Repository.
// The default implementation forwards every call unchanged; entity
// services embed it and override the operations that need rules.
type Service[T repository.Entity[PK], PK comparable] interface {
	// FindByID returns the entity with the given key, nil when absent.
	FindByID(ctx context.Context, pk PK) (*T, error)

	// FindOne returns the matching entity with the lowest key.
	FindOne(ctx context.Context, c cond.Condition) (*T, error)

	// Count returns the number of entities matching c.
	Count(ctx context.Context, c cond.Condition) (uint64, error)

	// FindAll returns every entity ordered by key.
	FindAll(ctx context.Context) ([]*T, error)

	// FindAllByCondition returns the entities matching c ordered by key.
	FindAllByCondition(ctx context.Context, c cond.Condition) ([]*T, error)

	// FindPage returns one page of entities and the total count.
	FindPage(ctx context.Context, param types.PageQueryParam) ([]*T, uint64, error)

	// FindPageByCondition returns one page of the entities matching c and
	// their total count.
	FindPageByCondition(ctx context.Context, c cond.Condition, param types.PageQueryParam) ([]*T, uint64, error)

	// Create inserts model and returns the stored row.
	Create(ctx context.Context, model *T) (*T, error)

	// CreateBatch inserts every model in a single transaction.
	CreateBatch(ctx context.Context, models ...*T) error

	// Upsert inserts models, updating fields on key conflicts.
	Upsert(ctx context.Context, fields []string, conflictKeys []string, models ...*T) error

	// UpdateByID stores every column of model and returns the stored row.
	UpdateByID(ctx context.Context, model *T) (*T, error)

	// UpdateByCondition applies updates to the rows matching c.
	UpdateByCondition(ctx context.Context, c cond.Condition, updates []repository.ColumnValue) (uint64, error)

	// Delete removes the entity with the given key.
	Delete(ctx context.Context, pk PK) (repository.DeleteResult, error)

	// DeleteBatch removes the entities matching c.
	DeleteBatch(ctx context.Context, c cond.Condition) (repository.DeleteResult, error)

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T repository.Entity[PK], PK comparable] struct {
	repo repository.Repository[T, PK]
	once sync.Once
}

// NewService returns a Service forwarding to repo.
func NewService[T repository.Entity[PK], PK comparable](repo repository.Repository[T, PK]) Service[T, PK] {
	return &baseServiceImpl[T, PK]{repo: repo}
}

// NewDefaultService returns a Service whose repository is bound lazily to
// the global database connection on first use.
func NewDefaultService[T repository.Entity[PK], PK comparable]() Service[T, PK] {
	return &baseServiceImpl[T, PK]{}
}

func (s *baseServiceImpl[T, PK]) baseRepo() repository.Repository[T, PK] {
	s.once.Do(func() {
		if s.repo == nil {
			s.repo = repository.New[T, PK](database.GetDB())
		}
	})
	return s.repo
}

func (s *baseServiceImpl[T, PK]) FindByID(ctx context.Context, pk PK) (*T, error) {
	return s.baseRepo().FindByID(ctx, pk)
}

func (s *baseServiceImpl[T, PK]) FindOne(ctx context.Context, c cond.Condition) (*T, error) {
	return s.baseRepo().FindOne(ctx, c)
}

func (s *baseServiceImpl[T, PK]) Count(ctx context.Context, c cond.Condition) (uint64, error) {
	return s.baseRepo().Count(ctx, c)
}

func (s *baseServiceImpl[T, PK]) FindAll(ctx context.Context) ([]*T, error) {
	return s.baseRepo().FindAll(ctx)
}

func (s *baseServiceImpl[T, PK]) FindAllByCondition(ctx context.Context, c cond.Condition) ([]*T, error) {
	return s.baseRepo().FindAllByCondition(ctx, c)
}

func (s *baseServiceImpl[T, PK]) FindPage(ctx context.Context, param types.PageQueryParam) ([]*T, uint64, error) {
	return s.baseRepo().FindPage(ctx, param)
}

func (s *baseServiceImpl[T, PK]) FindPageByCondition(ctx context.Context, c cond.Condition, param types.PageQueryParam) ([]*T, uint64, error) {
	return s.baseRepo().FindPageByCondition(ctx, c, param)
}

func (s *baseServiceImpl[T, PK]) Create(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().Create(ctx, model)
}

func (s *baseServiceImpl[T, PK]) CreateBatch(ctx context.Context, models ...*T) error {
	return s.baseRepo().CreateBatch(ctx, models...)
}

func (s *baseServiceImpl[T, PK]) Upsert(ctx context.Context, fields []string, conflictKeys []string, models ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, conflictKeys, models...)
}

func (s *baseServiceImpl[T, PK]) UpdateByID(ctx context.Context, model *T) (*T, error) {
	return s.baseRepo().UpdateByID(ctx, model)
}

func (s *baseServiceImpl[T, PK]) UpdateByCondition(ctx context.Context, c cond.Condition, updates []repository.ColumnValue) (uint64, error) {
	return s.baseRepo().UpdateByCondition(ctx, c, updates)
}

func (s *baseServiceImpl[T, PK]) Delete(ctx context.Context, pk PK) (repository.DeleteResult, error) {
	return s.baseRepo().Delete(ctx, pk)
}

func (s *baseServiceImpl[T, PK]) DeleteBatch(ctx context.Context, c cond.Condition) (repository.DeleteResult, error) {
	return s.baseRepo().DeleteBatch(ctx, c)
}

func (s *baseServiceImpl[T, PK]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}
