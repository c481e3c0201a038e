// Package repository provides a generic repository over Bun models keyed by
// a primary-key type: lookups, conditional queries, pagination with a
// deterministic order, and batch mutations that each run in their own
// transaction.
package repository
