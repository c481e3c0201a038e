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
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T Entity[PK], PK comparable] struct {
	db    *bun.DB
	table *schema.Table
}

// New returns a generic repository for the Bun model T backed by db.
func New[T Entity[PK], PK comparable](db *bun.DB) Repository[T, PK] {
	return &baseRepositoryImpl[T, PK]{
		db:    db,
		table: db.Table(reflect.TypeFor[T]()),
	}
}

func (r *baseRepositoryImpl[T, PK]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T, PK]) FindByID(ctx context.Context, pk PK) (*T, error) {
	return r.findByKey(ctx, r.db, "find_by_id", pk)
}

func (r *baseRepositoryImpl[T, PK]) FindOne(ctx context.Context, c cond.Condition) (*T, error) {
	model := new(T)
	query := r.db.NewSelect().Model(model).ApplyQueryBuilder(cond.ApplyTo(c))
	err := r.orderByPK(query, "").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.queryErr("find_one", err)
	}
	return model, nil
}

func (r *baseRepositoryImpl[T, PK]) Count(ctx context.Context, c cond.Condition) (uint64, error) {
	n, err := r.db.NewSelect().Model((*T)(nil)).ApplyQueryBuilder(cond.ApplyTo(c)).Count(ctx)
	if err != nil {
		return 0, r.queryErr("count", err)
	}
	return uint64(n), nil
}

func (r *baseRepositoryImpl[T, PK]) FindAll(ctx context.Context) ([]*T, error) {
	return r.findAll(ctx, "find_all", nil)
}

func (r *baseRepositoryImpl[T, PK]) FindAllByCondition(ctx context.Context, c cond.Condition) ([]*T, error) {
	return r.findAll(ctx, "find_all_by_condition", c)
}

func (r *baseRepositoryImpl[T, PK]) FindPage(ctx context.Context, param types.PageQueryParam) ([]*T, uint64, error) {
	return r.findPage(ctx, "find_page", nil, param)
}

func (r *baseRepositoryImpl[T, PK]) FindPageByCondition(ctx context.Context, c cond.Condition, param types.PageQueryParam) ([]*T, uint64, error) {
	return r.findPage(ctx, "find_page_by_condition", c, param)
}

func (r *baseRepositoryImpl[T, PK]) Create(ctx context.Context, model *T) (*T, error) {
	const op = "create"
	if model == nil {
		return nil, r.kindErr(op, KindInvalidArgument, ErrNilModel)
	}

	var created *T
	err := InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return r.queryErr(op, err)
		}
		// Re-read to pick up defaults and generated columns.
		found, err := r.findByKey(ctx, tx, op, (*model).PrimaryKey())
		if err != nil {
			return err
		}
		created = found
		if created == nil {
			created = model
		}
		return nil
	})
	if err != nil {
		return nil, r.queryErr(op, err)
	}
	return created, nil
}

func (r *baseRepositoryImpl[T, PK]) CreateBatch(ctx context.Context, models ...*T) error {
	const op = "create_batch"
	entities, err := r.collect(op, models)
	if err != nil || len(entities) == 0 {
		return err
	}
	return r.queryErr(op, InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&entities).Exec(ctx)
		return err
	}))
}

// Upsert inserts models, updating fields of rows that collide on
// conflictKeys. MySQL ignores conflictKeys and uses every unique index;
// elsewhere they default to the primary key.
func (r *baseRepositoryImpl[T, PK]) Upsert(ctx context.Context, fields []string, conflictKeys []string, models ...*T) error {
	const op = "upsert"
	if len(fields) == 0 {
		return r.kindErr(op, KindInvalidArgument, errors.New("fields cannot be empty"))
	}
	setFields, err := r.lookupFields(fields)
	if err != nil {
		return r.kindErr(op, KindUnknownColumn, err)
	}
	keyFields := r.table.PKs
	if len(conflictKeys) > 0 {
		if keyFields, err = r.lookupFields(conflictKeys); err != nil {
			return r.kindErr(op, KindUnknownColumn, err)
		}
	}
	entities, err := r.collect(op, models)
	if err != nil || len(entities) == 0 {
		return err
	}

	return r.queryErr(op, InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		switch {
		case r.db.HasFeature(feature.InsertOnConflict):
			return r.upsertOnConflict(ctx, tx, setFields, keyFields, entities)
		case r.db.HasFeature(feature.InsertOnDuplicateKey):
			return r.upsertOnDuplicateKey(ctx, tx, setFields, entities)
		default:
			return r.upsertFallback(ctx, tx, setFields, entities)
		}
	}))
}

func (r *baseRepositoryImpl[T, PK]) UpdateByID(ctx context.Context, model *T) (*T, error) {
	const op = "update_by_id"
	if model == nil {
		return nil, r.kindErr(op, KindInvalidArgument, ErrNilModel)
	}
	pk := (*model).PrimaryKey()
	values, err := r.keyValues(pk)
	if err != nil {
		return nil, r.kindErr(op, KindInvalidArgument, err)
	}

	var updated *T
	err = InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(model).ApplyQueryBuilder(r.wherePK(values)).Exec(ctx)
		if err != nil {
			return r.queryErr(op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return r.queryErr(op, err)
		}
		if n == 0 {
			return r.kindErr(op, KindNotFound, ErrNoRowsUpdated)
		}
		updated, err = r.findByKey(ctx, tx, op, pk)
		return err
	})
	if err != nil {
		return nil, r.queryErr(op, err)
	}
	return updated, nil
}

func (r *baseRepositoryImpl[T, PK]) UpdateByCondition(ctx context.Context, c cond.Condition, updates []ColumnValue) (uint64, error) {
	const op = "update_by_condition"
	if c == nil {
		return 0, r.kindErr(op, KindInvalidArgument, ErrNoCondition)
	}
	columns := make([]string, len(updates))
	for i, u := range updates {
		columns[i] = u.Column
	}
	fields, err := r.lookupFields(columns)
	if err != nil {
		return 0, r.kindErr(op, KindUnknownColumn, err)
	}

	var affected uint64
	err = InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if len(updates) == 0 {
			n, err := tx.NewSelect().Model((*T)(nil)).ApplyQueryBuilder(c.Apply).Count(ctx)
			affected = uint64(n)
			return err
		}
		query := tx.NewUpdate().Model((*T)(nil))
		for i, f := range fields {
			query = query.Set("? = ?", f.SQLName, updates[i].Value)
		}
		res, err := query.ApplyQueryBuilder(c.Apply).Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		affected = uint64(n)
		return err
	})
	if err != nil {
		return 0, r.queryErr(op, err)
	}
	return affected, nil
}

func (r *baseRepositoryImpl[T, PK]) Delete(ctx context.Context, pk PK) (DeleteResult, error) {
	const op = "delete"
	values, err := r.keyValues(pk)
	if err != nil {
		return DeleteResult{}, r.kindErr(op, KindInvalidArgument, err)
	}
	return r.delete(ctx, op, r.wherePK(values))
}

func (r *baseRepositoryImpl[T, PK]) DeleteBatch(ctx context.Context, c cond.Condition) (DeleteResult, error) {
	const op = "delete_batch"
	if c == nil {
		return DeleteResult{}, r.kindErr(op, KindInvalidArgument, ErrNoCondition)
	}
	return r.delete(ctx, op, c.Apply)
}

func (r *baseRepositoryImpl[T, PK]) delete(ctx context.Context, op string, where func(bun.QueryBuilder) bun.QueryBuilder) (DeleteResult, error) {
	var result DeleteResult
	err := InTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*T)(nil)).ApplyQueryBuilder(where).Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		result.RowsAffected = uint64(n)
		return err
	})
	if err != nil {
		return DeleteResult{}, r.queryErr(op, err)
	}
	return result, nil
}

func (r *baseRepositoryImpl[T, PK]) findByKey(ctx context.Context, db bun.IDB, op string, pk PK) (*T, error) {
	values, err := r.keyValues(pk)
	if err != nil {
		return nil, r.kindErr(op, KindInvalidArgument, err)
	}
	model := new(T)
	err = db.NewSelect().Model(model).ApplyQueryBuilder(r.wherePK(values)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, r.queryErr(op, err)
	}
	return model, nil
}

func (r *baseRepositoryImpl[T, PK]) findAll(ctx context.Context, op string, c cond.Condition) ([]*T, error) {
	models := make([]*T, 0)
	query := r.db.NewSelect().Model(&models).ApplyQueryBuilder(cond.ApplyTo(c))
	if err := r.orderByPK(query, "").Scan(ctx); err != nil {
		return nil, r.queryErr(op, err)
	}
	return models, nil
}

func (r *baseRepositoryImpl[T, PK]) findPage(ctx context.Context, op string, c cond.Condition, param types.PageQueryParam) ([]*T, uint64, error) {
	var sortField *schema.Field
	if name, ok := param.GetSortBy(); ok {
		field, found := r.table.FieldMap[name]
		if !found {
			return nil, 0, r.kindErr(op, KindUnknownColumn, fmt.Errorf("%w: %q", ErrUnknownColumn, name))
		}
		sortField = field
	}

	models := make([]*T, 0)
	query := r.db.NewSelect().Model(&models).ApplyQueryBuilder(cond.ApplyTo(c))
	n, err := query.Count(ctx)
	if err != nil {
		return nil, 0, r.queryErr(op, err)
	}
	total := uint64(n)

	offset, ok := pageOffset(param)
	if total == 0 || param.PageSize == 0 || !ok || offset >= total {
		return models, total, nil
	}

	skip := ""
	if sortField != nil {
		query = query.OrderExpr("? "+param.GetDirection().String(), sortField.SQLName)
		skip = sortField.Name
	}
	limit := min(param.PageSize, total-offset)
	err = r.orderByPK(query, skip).
		Offset(int(offset)).
		Limit(int(limit)).
		Scan(ctx)
	if err != nil {
		return nil, 0, r.queryErr(op, err)
	}
	return models, total, nil
}

// pageOffset reports false when the offset does not fit the result range.
func pageOffset(param types.PageQueryParam) (uint64, bool) {
	if param.PageNum > 0 && param.PageSize > math.MaxInt/param.PageNum {
		return 0, false
	}
	return param.GetOffset(), true
}

// orderByPK appends the primary key columns ascending, skipping the column
// already used as the sort key.
func (r *baseRepositoryImpl[T, PK]) orderByPK(query *bun.SelectQuery, skip string) *bun.SelectQuery {
	for _, f := range r.table.PKs {
		if f.Name == skip {
			continue
		}
		query = query.OrderExpr("? ASC", f.SQLName)
	}
	return query
}

func (r *baseRepositoryImpl[T, PK]) keyValues(pk PK) ([]any, error) {
	values := []any{pk}
	if ck, ok := any(pk).(CompositeKey); ok {
		values = ck.KeyValues()
	}
	if len(values) != len(r.table.PKs) {
		return nil, fmt.Errorf("%w: %d values for %d key columns", ErrInvalidKey, len(values), len(r.table.PKs))
	}
	return values, nil
}

func (r *baseRepositoryImpl[T, PK]) wherePK(values []any) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(q bun.QueryBuilder) bun.QueryBuilder {
		for i, f := range r.table.PKs {
			q = q.Where("? = ?", f.SQLName, values[i])
		}
		return q
	}
}

func (r *baseRepositoryImpl[T, PK]) lookupFields(names []string) ([]*schema.Field, error) {
	fields := make([]*schema.Field, len(names))
	for i, name := range names {
		f, ok := r.table.FieldMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		fields[i] = f
	}
	return fields, nil
}

func (r *baseRepositoryImpl[T, PK]) collect(op string, models []*T) ([]*T, error) {
	entities := make([]*T, 0, len(models))
	for _, m := range models {
		if m == nil {
			return nil, r.kindErr(op, KindInvalidArgument, ErrNilModel)
		}
		entities = append(entities, m)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T, PK]) upsertOnDuplicateKey(ctx context.Context, tx bun.Tx, fields []*schema.Field, entities []*T) error {
	assignments := make([]string, len(fields))
	for i, f := range fields {
		assignments[i] = fmt.Sprintf("%s = VALUES(%s)", f.SQLName, f.SQLName)
	}
	_, err := tx.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, PK]) upsertOnConflict(ctx context.Context, tx bun.Tx, fields, keys []*schema.Field, entities []*T) error {
	keyNames := make([]string, len(keys))
	for i, k := range keys {
		keyNames[i] = string(k.SQLName)
	}
	assignments := make([]string, len(fields))
	for i, f := range fields {
		assignments[i] = fmt.Sprintf("%s = EXCLUDED.%s", f.SQLName, f.SQLName)
	}
	_, err := tx.NewInsert().
		Model(&entities).
		On("CONFLICT (" + strings.Join(keyNames, ", ") + ") DO UPDATE").
		Set(strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

// upsertFallback probes each model by primary key, then inserts it or
// updates the given fields.
func (r *baseRepositoryImpl[T, PK]) upsertFallback(ctx context.Context, tx bun.Tx, fields []*schema.Field, entities []*T) error {
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	for _, entity := range entities {
		values, err := r.keyValues((*entity).PrimaryKey())
		if err != nil {
			return err
		}
		exists, err := tx.NewSelect().Model((*T)(nil)).ApplyQueryBuilder(r.wherePK(values)).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			_, err = tx.NewUpdate().Model(entity).Column(columns...).ApplyQueryBuilder(r.wherePK(values)).Exec(ctx)
		} else {
			_, err = tx.NewInsert().Model(entity).Exec(ctx)
		}
		if err != nil {
			return fmt.Errorf("upsert failed for entity %v: %w", (*entity).PrimaryKey(), err)
		}
	}
	return nil
}
