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

package repository

import (
	"context"

	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
)

// Entity is implemented by Bun models handled by a Repository. The struct
// is both the read model and the record INSERT/UPDATE statements are built
// from; columns come from Bun's table metadata.
type Entity[PK comparable] interface {
	PrimaryKey() PK
}

// CompositeKey is implemented by primary-key types spanning several
// columns. Values are listed in the order of the model's pk fields.
type CompositeKey interface {
	KeyValues() []any
}

// ColumnValue is one assignment of a batch update.
type ColumnValue struct {
	Column string
	Value  any
}

// Set builds a ColumnValue.
func Set(column string, value any) ColumnValue {
	return ColumnValue{Column: column, Value: value}
}

// DeleteResult reports how many rows a delete removed.
type DeleteResult struct {
	RowsAffected uint64
}

// Reader defines the query side of a repository. Lookups return nil, nil
// when nothing matches.
type Reader[T Entity[PK], PK comparable] interface {
	FindByID(ctx context.Context, pk PK) (*T, error)

	FindOne(ctx context.Context, c cond.Condition) (*T, error)

	Count(ctx context.Context, c cond.Condition) (uint64, error)

	FindAll(ctx context.Context) ([]*T, error)

	FindAllByCondition(ctx context.Context, c cond.Condition) ([]*T, error)

	FindPage(ctx context.Context, param types.PageQueryParam) ([]*T, uint64, error)

	FindPageByCondition(ctx context.Context, c cond.Condition, param types.PageQueryParam) ([]*T, uint64, error)
}

// Writer defines the mutating side of a repository. Every method runs in
// its own transaction and leaves no trace on failure.
type Writer[T Entity[PK], PK comparable] interface {
	Create(ctx context.Context, model *T) (*T, error)

	CreateBatch(ctx context.Context, models ...*T) error

	Upsert(ctx context.Context, fields []string, conflictKeys []string, models ...*T) error

	UpdateByID(ctx context.Context, model *T) (*T, error)

	UpdateByCondition(ctx context.Context, c cond.Condition, updates []ColumnValue) (uint64, error)

	Delete(ctx context.Context, pk PK) (DeleteResult, error)

	DeleteBatch(ctx context.Context, c cond.Condition) (DeleteResult, error)
}

// Repository combines Reader and Writer and exposes a select builder for
// bespoke entity queries.
type Repository[T Entity[PK], PK comparable] interface {
	Reader[T, PK]
	Writer[T, PK]
	NewSelect() *bun.SelectQuery
}
