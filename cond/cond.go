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

package cond

import (
	"github.com/uptrace/bun"
)

// Condition is a filter predicate that knows how to lower itself into a Bun
// WHERE clause. Repositories treat it as opaque.
type Condition interface {
	Apply(q bun.QueryBuilder) bun.QueryBuilder
}

// Func adapts a plain function to Condition.
type Func func(q bun.QueryBuilder) bun.QueryBuilder

func (f Func) Apply(q bun.QueryBuilder) bun.QueryBuilder { return f(q) }

// ApplyTo lowers c into q; a nil condition leaves q untouched.
func ApplyTo(c Condition) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(q bun.QueryBuilder) bun.QueryBuilder {
		if c == nil {
			return q
		}
		return c.Apply(q)
	}
}

type compare struct {
	column string
	op     string
	value  interface{}
}

func (c compare) Apply(q bun.QueryBuilder) bun.QueryBuilder {
	return q.Where("? "+c.op+" ?", bun.Ident(c.column), c.value)
}

// Eq matches column = value.
func Eq(column string, value interface{}) Condition { return compare{column, "=", value} }

// Ne matches column <> value.
func Ne(column string, value interface{}) Condition { return compare{column, "<>", value} }

// Gt matches column > value.
func Gt(column string, value interface{}) Condition { return compare{column, ">", value} }

// Gte matches column >= value.
func Gte(column string, value interface{}) Condition { return compare{column, ">=", value} }

// Lt matches column < value.
func Lt(column string, value interface{}) Condition { return compare{column, "<", value} }

// Lte matches column <= value.
func Lte(column string, value interface{}) Condition { return compare{column, "<=", value} }

// Like matches column LIKE pattern.
func Like(column string, pattern string) Condition { return compare{column, "LIKE", pattern} }

type in struct {
	column string
	not    bool
	values interface{}
}

func (c in) Apply(q bun.QueryBuilder) bun.QueryBuilder {
	if c.not {
		return q.Where("? NOT IN (?)", bun.Ident(c.column), bun.In(c.values))
	}
	return q.Where("? IN (?)", bun.Ident(c.column), bun.In(c.values))
}

// In matches column IN (values...). values must be a slice.
func In(column string, values interface{}) Condition { return in{column: column, values: values} }

// NotIn matches column NOT IN (values...). values must be a slice.
func NotIn(column string, values interface{}) Condition {
	return in{column: column, not: true, values: values}
}

type null struct {
	column string
	not    bool
}

func (c null) Apply(q bun.QueryBuilder) bun.QueryBuilder {
	if c.not {
		return q.Where("? IS NOT NULL", bun.Ident(c.column))
	}
	return q.Where("? IS NULL", bun.Ident(c.column))
}

// IsNull matches column IS NULL.
func IsNull(column string) Condition { return null{column: column} }

// NotNull matches column IS NOT NULL.
func NotNull(column string) Condition { return null{column: column, not: true} }

// Between matches low <= column <= high.
func Between(column string, low, high interface{}) Condition {
	return Func(func(q bun.QueryBuilder) bun.QueryBuilder {
		return q.Where("? BETWEEN ? AND ?", bun.Ident(column), low, high)
	})
}

// Raw passes a Bun-formatted expression through unchanged.
func Raw(query string, args ...interface{}) Condition {
	return Func(func(q bun.QueryBuilder) bun.QueryBuilder {
		return q.Where(query, args...)
	})
}

// All matches every row. Bun refuses UPDATE/DELETE without a WHERE clause,
// so whole-table batch operations must say so explicitly.
func All() Condition {
	return Raw("1 = 1")
}

type group struct {
	sep   string
	items []Condition
}

func (g group) Apply(q bun.QueryBuilder) bun.QueryBuilder {
	items := make([]Condition, 0, len(g.items))
	for _, item := range g.items {
		if item != nil {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return q
	}
	return q.WhereGroup(" AND ", func(q bun.QueryBuilder) bun.QueryBuilder {
		for _, item := range items {
			q = q.WhereGroup(g.sep, item.Apply)
		}
		return q
	})
}

// And matches rows satisfying every condition. An empty And is a no-op.
func And(conds ...Condition) Condition { return group{sep: " AND ", items: conds} }

// Or matches rows satisfying at least one condition. An empty Or is a no-op.
func Or(conds ...Condition) Condition { return group{sep: " OR ", items: conds} }

// Not negates c. The negation of a condition that adds no predicate, such
// as an empty And, matches no rows.
func Not(c Condition) Condition {
	return Func(func(q bun.QueryBuilder) bun.QueryBuilder {
		// Bun drops the separator of the first predicate in a group, so the
		// NOT needs something in front of it, and the negated group needs a
		// predicate of its own to stay non-empty.
		return q.WhereGroup(" AND ", func(q bun.QueryBuilder) bun.QueryBuilder {
			return q.Where("1 = 1").WhereGroup(" AND NOT ", func(q bun.QueryBuilder) bun.QueryBuilder {
				return ApplyTo(c)(q.Where("1 = 1"))
			})
		})
	})
}
