// Package cond provides composable filter predicates that lower into Bun
// WHERE clauses, so repositories never depend on concrete column types.
package cond
