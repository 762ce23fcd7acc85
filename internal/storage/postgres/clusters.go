/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stephenafamo/bob/dialect/psql"

	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// ClusterRepository persists cluster tuples.
type ClusterRepository struct {
	Db database.Queryable
}

// Create stores a new cluster tuple.
func (r *ClusterRepository) Create(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error) {
	return database.Create[models.Cluster](ctx, r.Db, *cluster)
}

// Get retrieves a specific cluster tuple or returns a NotFoundError.
func (r *ClusterRepository) Get(ctx context.Context, id uuid.UUID) (*models.Cluster, error) {
	record, err := database.Find[models.Cluster](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "cluster '%s' not found", id)
	}
	return record, err
}

// List retrieves all clusters visible to the caller's project.
func (r *ClusterRepository) List(ctx context.Context) ([]models.Cluster, error) {
	rc := rcontext.FromContext(ctx)
	if rc.Project == "" || rc.IsAdmin {
		return database.FindAll[models.Cluster](ctx, r.Db)
	}
	expr := psql.Quote("owner_project").EQ(psql.Arg(rc.Project))
	return database.Search[models.Cluster](ctx, r.Db, expr, "created_at")
}

// Update rewrites the cluster tuple.
func (r *ClusterRepository) Update(ctx context.Context, cluster *models.Cluster) (*models.Cluster, error) {
	if cluster.ID == nil {
		return nil, typederrors.NewValidationError(nil, "cluster id is required for update")
	}
	record, err := database.Update[models.Cluster](ctx, r.Db, *cluster.ID, *cluster)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "cluster '%s' not found", *cluster.ID)
	}
	return record, err
}

// Delete removes the cluster tuple.
func (r *ClusterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr := psql.Quote(models.Cluster{}.PrimaryKey()).EQ(psql.Arg(id))
	count, err := database.Delete[models.Cluster](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "cluster '%s' not found", id)
	}
	return nil
}

// NextIndex atomically fetches and increments the cluster's node index counter.
func (r *ClusterRepository) NextIndex(ctx context.Context, id uuid.UUID) (int, error) {
	sql := `UPDATE cluster SET next_index = next_index + 1 WHERE id = $1 RETURNING next_index - 1`
	rows, _ := r.Db.Query(ctx, sql, id)
	index, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, typederrors.NewNotFoundError(err, "cluster '%s' not found", id)
		}
		return 0, fmt.Errorf("failed to advance node index for cluster '%s': %w", id, err)
	}
	return index, nil
}
