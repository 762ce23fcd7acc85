/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Model is implemented by all database tuples so that the generic
// repository helpers can derive queries from struct tags.
type Model interface {
	TableName() string
	PrimaryKey() string
}

// Queryable abstracts the pgx pool so that repositories can be exercised
// against pgxmock in tests.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
