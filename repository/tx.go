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

	"github.com/tomoncle/crudkit/database"
	"github.com/uptrace/bun"
)

// TxBeginner is satisfied by *bun.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (bun.Tx, error)
}

// TxFunc is a unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// InTx runs fn inside a new transaction. It commits when fn returns nil and
// rolls back when fn fails or panics. The error of fn is returned as is,
// unless the rollback fails too: then a TransactionError carrying both is
// returned.
func InTx(ctx context.Context, db TxBeginner, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &TransactionError{Op: "begin", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			database.GetLogger().Error("Failed to rollback transaction", "error", rollbackErr, "cause", err)
			err = &TransactionError{Op: "rollback", Err: rollbackErr, Cause: err}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		committed = true
		return &TransactionError{Op: "commit", Err: err}
	}
	committed = true
	return nil
}
