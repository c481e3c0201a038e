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

package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudkit/cond"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull,unique"`
	Color string `bun:"color,notnull"`
	Size  int    `bun:"size,notnull"`
}

func (w widget) PrimaryKey() int64 { return w.ID }

type membershipKey struct {
	GroupID int64
	UserID  int64
}

func (k membershipKey) KeyValues() []any { return []any{k.GroupID, k.UserID} }

type membership struct {
	bun.BaseModel `bun:"table:memberships,alias:m"`

	GroupID int64  `bun:"group_id,pk"`
	UserID  int64  `bun:"user_id,pk"`
	Role    string `bun:"role,notnull"`
}

func (m membership) PrimaryKey() membershipKey {
	return membershipKey{GroupID: m.GroupID, UserID: m.UserID}
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateTables(context.Background(), db, (*widget)(nil), (*membership)(nil)))
	return db
}

func seedWidgets(t *testing.T, repo repository.Repository[widget, int64], n int) []*widget {
	t.Helper()
	out := make([]*widget, 0, n)
	for i := 1; i <= n; i++ {
		w, err := repo.Create(context.Background(), &widget{
			Name:  fmt.Sprintf("w%d", i),
			Color: []string{"red", "blue"}[i%2],
			Size:  i,
		})
		require.NoError(t, err)
		out = append(out, w)
	}
	return out
}

func widgetNames(items []*widget) []string {
	out := make([]string, 0, len(items))
	for _, w := range items {
		out = append(out, w.Name)
	}
	return out
}

func requireKind(t *testing.T, err error, kind repository.ErrKind) *repository.QueryError {
	t.Helper()
	var qe *repository.QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, kind, qe.Kind)
	return qe
}

func TestCreateAndFindByID(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))

	created, err := repo.Create(ctx, &widget{Name: "gear", Color: "red", Size: 3})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotZero(t, created.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	missing, err := repo.FindByID(ctx, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateNilModel(t *testing.T) {
	repo := repository.New[widget, int64](setupDB(t))

	_, err := repo.Create(context.Background(), nil)
	qe := requireKind(t, err, repository.KindInvalidArgument)
	assert.ErrorIs(t, qe, repository.ErrNilModel)
}

func TestCreateDuplicateLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 2)

	_, err := repo.Create(ctx, &widget{Name: "w1", Color: "green", Size: 9})
	qe := requireKind(t, err, repository.KindDatabase)
	assert.Equal(t, database.DuplicateKeyErr, qe.SQL)
	assert.Equal(t, "create", qe.Op)
	assert.Equal(t, "widgets", qe.Table)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateBatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))

	require.NoError(t, repo.CreateBatch(ctx))
	require.NoError(t, repo.CreateBatch(ctx,
		&widget{Name: "a", Color: "red", Size: 1},
		&widget{Name: "b", Color: "red", Size: 2},
	))
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	err = repo.CreateBatch(ctx,
		&widget{Name: "c", Color: "red", Size: 3},
		&widget{Name: "a", Color: "red", Size: 4},
	)
	require.Error(t, err)
	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n, "a failed batch inserts nothing")

	err = repo.CreateBatch(ctx, &widget{Name: "d"}, nil)
	requireKind(t, err, repository.KindInvalidArgument)
}

func TestFindOneReturnsLowestKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seeded := seedWidgets(t, repo, 5)

	got, err := repo.FindOne(ctx, cond.Eq("color", "red"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, seeded[1].ID, got.ID)

	got, err = repo.FindOne(ctx, cond.Eq("color", "green"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCountAndFindAll(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	seedWidgets(t, repo, 5)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	n, err = repo.Count(ctx, cond.Eq("color", "blue"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w2", "w3", "w4", "w5"}, widgetNames(all))

	blue, err := repo.FindAllByCondition(ctx, cond.Eq("color", "blue"))
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w3", "w5"}, widgetNames(blue))
}

func TestFindPageWalksAllRows(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	want := [][]string{{"w1", "w2"}, {"w3", "w4"}, {"w5"}, {}}
	for page, names := range want {
		items, total, err := repo.FindPage(ctx, types.NewPageQueryParam(uint64(page), 2))
		require.NoError(t, err)
		assert.Equal(t, uint64(5), total)
		assert.Equal(t, names, widgetNames(items), "page %d", page)
	}
}

func TestFindPageSorted(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	items, total, err := repo.FindPage(ctx, types.NewPageQueryParam(0, 3).SortedBy("size", types.DESC))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	assert.Equal(t, []string{"w5", "w4", "w3"}, widgetNames(items))

	// Equal colors fall back to key order.
	items, _, err = repo.FindPage(ctx, types.NewPageQueryParam(0, 5).SortedBy("color", types.ASC))
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w3", "w5", "w2", "w4"}, widgetNames(items))

	items, _, err = repo.FindPage(ctx, types.NewPageQueryParam(1, 2).SortedBy("id", types.DESC))
	require.NoError(t, err)
	assert.Equal(t, []string{"w3", "w2"}, widgetNames(items))
}

func TestFindPageZeroSize(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 3)

	items, total, err := repo.FindPage(ctx, types.NewPageQueryParam(0, 0))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, uint64(3), total)
}

func TestFindPageHugePageNumber(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 3)

	items, total, err := repo.FindPage(ctx, types.NewPageQueryParam(1<<62, 1<<10))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, uint64(3), total)
}

func TestFindPageUnknownSortColumn(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 2)

	_, _, err := repo.FindPage(ctx, types.NewPageQueryParam(0, 10).SortedBy("weight; DROP TABLE widgets", types.ASC))
	qe := requireKind(t, err, repository.KindUnknownColumn)
	assert.ErrorIs(t, qe, repository.ErrUnknownColumn)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestFindPageByCondition(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	items, total, err := repo.FindPageByCondition(ctx, cond.Eq("color", "blue"), types.NewPageQueryParam(1, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []string{"w5"}, widgetNames(items))

	items, total, err = repo.FindPageByCondition(ctx, cond.Eq("color", "green"), types.NewPageQueryParam(0, 2))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seeded := seedWidgets(t, repo, 2)

	w := *seeded[0]
	w.Color = "green"
	w.Size = 42
	updated, err := repo.UpdateByID(ctx, &w)
	require.NoError(t, err)
	assert.Equal(t, "green", updated.Color)
	assert.Equal(t, 42, updated.Size)

	other, err := repo.FindByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[1], other)

	_, err = repo.UpdateByID(ctx, &widget{ID: 999, Name: "ghost", Color: "red"})
	qe := requireKind(t, err, repository.KindNotFound)
	assert.ErrorIs(t, qe, repository.ErrNoRowsUpdated)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestUpdateByCondition(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	n, err := repo.UpdateByCondition(ctx, cond.Gte("size", 3), []repository.ColumnValue{
		repository.Set("color", "green"),
		repository.Set("size", 0),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	green, err := repo.FindAllByCondition(ctx, cond.Eq("color", "green"))
	require.NoError(t, err)
	assert.Equal(t, []string{"w3", "w4", "w5"}, widgetNames(green))
	for _, w := range green {
		assert.Zero(t, w.Size)
	}

	n, err = repo.UpdateByCondition(ctx, cond.Eq("color", "green"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	n, err = repo.UpdateByCondition(ctx, cond.Eq("color", "purple"), []repository.ColumnValue{repository.Set("size", 1)})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateByConditionRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 2)

	_, err := repo.UpdateByCondition(ctx, cond.All(), []repository.ColumnValue{repository.Set("weight", 1)})
	requireKind(t, err, repository.KindUnknownColumn)

	_, err = repo.UpdateByCondition(ctx, nil, []repository.ColumnValue{repository.Set("size", 1)})
	qe := requireKind(t, err, repository.KindInvalidArgument)
	assert.ErrorIs(t, qe, repository.ErrNoCondition)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, all[0].Size)
	assert.Equal(t, 2, all[1].Size)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seeded := seedWidgets(t, repo, 2)

	res, err := repo.Delete(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.RowsAffected)

	res, err = repo.Delete(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected)

	found, err := repo.FindByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	res, err := repo.DeleteBatch(ctx, cond.Eq("color", "red"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.RowsAffected)

	_, err = repo.DeleteBatch(ctx, nil)
	requireKind(t, err, repository.KindInvalidArgument)

	res, err = repo.DeleteBatch(ctx, cond.Not(cond.And()))
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected, "negating an empty condition matches nothing")

	affected, err := repo.UpdateByCondition(ctx, cond.Not(cond.Or()), []repository.ColumnValue{repository.Set("size", 0)})
	require.NoError(t, err)
	assert.Zero(t, affected)

	res, err = repo.DeleteBatch(ctx, cond.All())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.RowsAffected)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seeded := seedWidgets(t, repo, 2)

	changed := *seeded[0]
	changed.Color = "green"
	changed.Size = 10
	err := repo.Upsert(ctx, []string{"color", "size"}, nil, &changed, &widget{Name: "w3", Color: "red", Size: 3})
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "green", all[0].Color)
	assert.Equal(t, 10, all[0].Size)
	assert.Equal(t, "w3", all[2].Name)

	err = repo.Upsert(ctx, []string{"size"}, []string{"name"}, &widget{Name: "w2", Color: "ignored", Size: 20})
	require.NoError(t, err)
	w2, err := repo.FindOne(ctx, cond.Eq("name", "w2"))
	require.NoError(t, err)
	assert.Equal(t, 20, w2.Size)
	assert.Equal(t, seeded[1].Color, w2.Color)

	err = repo.Upsert(ctx, nil, nil, &changed)
	requireKind(t, err, repository.KindInvalidArgument)

	err = repo.Upsert(ctx, []string{"weight"}, nil, &changed)
	requireKind(t, err, repository.KindUnknownColumn)

	err = repo.Upsert(ctx, []string{"size"}, []string{"weight"}, &changed)
	requireKind(t, err, repository.KindUnknownColumn)
}

func TestCompositeKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[membership, membershipKey](setupDB(t))

	created, err := repo.Create(ctx, &membership{GroupID: 1, UserID: 7, Role: "member"})
	require.NoError(t, err)
	assert.Equal(t, membershipKey{1, 7}, created.PrimaryKey())
	_, err = repo.Create(ctx, &membership{GroupID: 1, UserID: 8, Role: "member"})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, membershipKey{1, 7})
	require.NoError(t, err)
	assert.Equal(t, "member", found.Role)

	updated, err := repo.UpdateByID(ctx, &membership{GroupID: 1, UserID: 7, Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, "owner", updated.Role)

	other, err := repo.FindByID(ctx, membershipKey{1, 8})
	require.NoError(t, err)
	assert.Equal(t, "member", other.Role)

	res, err := repo.Delete(ctx, membershipKey{1, 7})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.RowsAffected)

	missing, err := repo.FindByID(ctx, membershipKey{1, 7})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewSelect(t *testing.T) {
	ctx := context.Background()
	repo := repository.New[widget, int64](setupDB(t))
	seedWidgets(t, repo, 5)

	var total int
	err := repo.NewSelect().
		Model((*widget)(nil)).
		ColumnExpr("SUM(?)", bun.Ident("size")).
		Scan(ctx, &total)
	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestContextCancellation(t *testing.T) {
	repo := repository.New[widget, int64](setupDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, &widget{Name: "late", Color: "red"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, repository.IsTransactionError(err))
}
