/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

// ErrNotFound is returned when a lookup by primary key matches no tuple.
var ErrNotFound = errors.New("record not found")

type DBTag map[string]string

const includeNilValues = false
const excludeNilValues = true

// Columns is used in the Columns method of the SelectBuilder to convert the DBTag to a slice of any.
func (r DBTag) Columns() []any {
	columns := make([]any, 0, len(r))
	for _, tag := range r {
		columns = append(columns, tag)
	}

	return columns
}

// getDBTagsFromStruct returns a map of field names to their db tags.
func getDBTagsFromStruct[T Model](s T, excludeNil bool) DBTag {
	tags := make(DBTag)

	st := reflect.TypeOf(s)
	sv := reflect.ValueOf(s)
	if st.Kind() != reflect.Struct {
		st = st.Elem()
		sv = sv.Elem()
	}

	for i := 0; i < st.NumField(); i++ {
		fieldName := st.Field(i).Name
		tagValue := st.Field(i).Tag.Get("db")
		if tagValue == "" || tagValue == "-" {
			continue
		}
		switch {
		case !excludeNil:
			tags[fieldName] = tagValue
		case st.Field(i).Type.Kind() != reflect.Pointer:
			tags[fieldName] = tagValue
		default:
			if !sv.Field(i).IsNil() {
				tags[fieldName] = tagValue
			}
		}
	}

	return tags
}

// GetNonNilDBTagsFromStruct returns a map of field names to their db tags.  Only non-pointer fields
// or non-nil pointer fields are considered.
func GetNonNilDBTagsFromStruct[T Model](s T) DBTag {
	return getDBTagsFromStruct(s, excludeNilValues)
}

// GetAllDBTagsFromStruct returns a map of field names to their db tags.
func GetAllDBTagsFromStruct[T Model](s T) DBTag {
	return getDBTagsFromStruct(s, includeNilValues)
}

// GetColumnsAndValues returns the columns and values associated to the fields named in tags.
// Both are returned together to ensure they stay aligned.
func GetColumnsAndValues[T Model](s T, tags DBTag) ([]string, []any) {
	columns := make([]string, 0, len(tags))
	values := make([]any, 0, len(tags))

	st := reflect.TypeOf(s)
	sv := reflect.ValueOf(s)
	if st.Kind() != reflect.Struct {
		st = st.Elem()
		sv = sv.Elem()
	}

	for fieldName, columnName := range tags {
		if field, ok := st.FieldByName(fieldName); ok {
			if field.Type.Kind() != reflect.Pointer {
				columns = append(columns, columnName)
				values = append(values, sv.FieldByName(fieldName).Interface())
			} else if fv := sv.FieldByName(fieldName); !fv.IsNil() {
				columns = append(columns, columnName)
				values = append(values, fv.Interface())
			}
		}
	}

	return columns, values
}

// Find retrieves the tuple matching the primary key or returns ErrNotFound.
func Find[T Model](ctx context.Context, db Queryable, key any) (*T, error) {
	var record T
	tags := GetAllDBTagsFromStruct(record)

	query, args, err := psql.Select(
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
		sm.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
	).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, _ := db.Query(ctx, query, args...) // note: err is passed on to Collect* func so we can ignore this
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to call database: %w", err)
	}

	return &record, nil
}

// Search retrieves all tuples matching the where expression, optionally ordered.  An empty array
// is returned when nothing matches.
func Search[T Model](ctx context.Context, db Queryable, expr bob.Expression, orderBy ...string) ([]T, error) {
	var record T
	tags := GetAllDBTagsFromStruct(record)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(tags.Columns()...),
		sm.From(record.TableName()),
	}
	if expr != nil {
		mods = append(mods, sm.Where(expr))
	}
	for _, column := range orderBy {
		if desc, ok := strings.CutPrefix(column, "-"); ok {
			mods = append(mods, sm.OrderBy(psql.Quote(desc)).Desc())
		} else {
			mods = append(mods, sm.OrderBy(psql.Quote(column)))
		}
	}

	query, args, err := psql.Select(mods...).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, _ := db.Query(ctx, query, args...)
	records, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to call database: %w", err)
	}

	return records, nil
}

// FindAll retrieves all tuples of the model's table.
func FindAll[T Model](ctx context.Context, db Queryable) ([]T, error) {
	return Search[T](ctx, db, nil)
}

// Create inserts the record and returns the stored tuple including any
// database-defaulted columns.
func Create[T Model](ctx context.Context, db Queryable, record T) (*T, error) {
	nonNilTags := GetNonNilDBTagsFromStruct(record)
	allTags := GetAllDBTagsFromStruct(record)
	columns, values := GetColumnsAndValues(record, nonNilTags)

	query := psql.Insert(im.Into(record.TableName()), im.Returning(allTags.Columns()...))
	query.Expression.Columns = columns
	query.Apply(im.Values(psql.Arg(values...)))

	sql, args, err := query.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert expression: %w", err)
	}

	rows, _ := db.Query(ctx, sql, args...)
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("failed to extract inserted record: %w", err)
	}

	return &record, nil
}

// Update rewrites all non-nil columns of the record matching the primary key and returns the
// stored tuple, or ErrNotFound when no tuple matched.
func Update[T Model](ctx context.Context, db Queryable, key any, record T) (*T, error) {
	nonNilTags := GetNonNilDBTagsFromStruct(record)
	allTags := GetAllDBTagsFromStruct(record)
	columns, values := GetColumnsAndValues(record, nonNilTags)

	mods := []bob.Mod[*dialect.UpdateQuery]{
		um.Table(record.TableName()),
		um.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
		um.Returning(allTags.Columns()...),
	}
	for i, column := range columns {
		if column == record.PrimaryKey() {
			continue
		}
		mods = append(mods, um.SetCol(column).ToArg(values[i]))
	}

	sql, args, err := psql.Update(mods...).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	rows, _ := db.Query(ctx, sql, args...)
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to extract updated record: %w", err)
	}

	return &record, nil
}

// Replace rewrites every column of the tuple matching the primary key, writing NULL for nil
// pointer fields.  The primary key and created_at columns are left untouched.  Callers use this
// for full-state updates where clearing a nullable column is meaningful (e.g. detaching a node
// from its cluster).
func Replace[T Model](ctx context.Context, db Queryable, key any, record T) (*T, error) {
	allTags := GetAllDBTagsFromStruct(record)
	columns, values := getColumnsAndValuesWithNils(record, allTags)

	mods := []bob.Mod[*dialect.UpdateQuery]{
		um.Table(record.TableName()),
		um.Where(psql.Quote(record.PrimaryKey()).EQ(psql.Arg(key))),
		um.Returning(allTags.Columns()...),
	}
	for i, column := range columns {
		if column == record.PrimaryKey() || column == "created_at" {
			continue
		}
		mods = append(mods, um.SetCol(column).ToArg(values[i]))
	}

	sql, args, err := psql.Update(mods...).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	rows, _ := db.Query(ctx, sql, args...)
	record, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to extract updated record: %w", err)
	}

	return &record, nil
}

// getColumnsAndValuesWithNils is the Replace variant of GetColumnsAndValues: nil pointers are
// included with a nil value so that the column is written as NULL.
func getColumnsAndValuesWithNils[T Model](s T, tags DBTag) ([]string, []any) {
	columns := make([]string, 0, len(tags))
	values := make([]any, 0, len(tags))

	st := reflect.TypeOf(s)
	sv := reflect.ValueOf(s)
	if st.Kind() != reflect.Struct {
		st = st.Elem()
		sv = sv.Elem()
	}

	for fieldName, columnName := range tags {
		if field, ok := st.FieldByName(fieldName); ok {
			if field.Type.Kind() == reflect.Pointer && sv.FieldByName(fieldName).IsNil() {
				columns = append(columns, columnName)
				values = append(values, nil)
				continue
			}
			columns = append(columns, columnName)
			values = append(values, sv.FieldByName(fieldName).Interface())
		}
	}

	return columns, values
}

// Delete removes all tuples matching the where expression and reports how many were removed.
func Delete[T Model](ctx context.Context, db Queryable, expr bob.Expression) (int64, error) {
	var record T
	sql, args, err := psql.Delete(
		dm.From(record.TableName()),
		dm.Where(expr),
	).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete expression: %w", err)
	}

	result, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from '%s': %w", record.TableName(), err)
	}

	return result.RowsAffected(), nil
}
