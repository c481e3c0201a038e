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
	"errors"
	"fmt"

	"github.com/tomoncle/crudkit/database"
)

// ErrKind refines a QueryError beyond the driver classification.
type ErrKind int

const (
	// KindDatabase is a failure reported by the database.
	KindDatabase ErrKind = iota
	// KindUnknownColumn is a sort/update column the entity does not have.
	KindUnknownColumn
	// KindNotFound is an update that matched no row.
	KindNotFound
	// KindInvalidArgument is a nil model, a key that does not fit the pk
	// columns, or a missing condition on a batch mutation.
	KindInvalidArgument
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNoRowsUpdated = errors.New("no rows updated")
	ErrInvalidKey    = errors.New("invalid primary key")
	ErrNilModel      = errors.New("model cannot be nil")
	ErrNoCondition   = errors.New("condition is required, use cond.All() to target every row")
)

// QueryError is any failure of a repository query or mutation other than
// the transaction bookkeeping itself.
type QueryError struct {
	Op    string
	Table string
	Kind  ErrKind
	SQL   database.SQLError
	Err   error
}

func (e *QueryError) Error() string {
	if e.Kind == KindDatabase && e.SQL != database.UnknownErr {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Table, e.SQL, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TransactionError is a failed begin, commit or rollback. For rollbacks,
// Cause is the error that triggered it.
type TransactionError struct {
	Op    string
	Err   error
	Cause error
}

func (e *TransactionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transaction %s failed: %v (after: %v)", e.Op, e.Err, e.Cause)
	}
	return fmt.Sprintf("transaction %s failed: %v", e.Op, e.Err)
}

// Unwrap exposes both the transaction failure and its cause to errors.Is/As.
func (e *TransactionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func (r *baseRepositoryImpl[T, PK]) queryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	var te *TransactionError
	if errors.As(err, &qe) || errors.As(err, &te) {
		return err
	}
	return &QueryError{Op: op, Table: r.table.Name, Kind: KindDatabase, SQL: database.Classify(err), Err: err}
}

func (r *baseRepositoryImpl[T, PK]) kindErr(op string, kind ErrKind, err error) error {
	return &QueryError{Op: op, Table: r.table.Name, Kind: kind, Err: err}
}

// IsQueryError reports whether err is or wraps a QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsTransactionError reports whether err is or wraps a TransactionError.
func IsTransactionError(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}
