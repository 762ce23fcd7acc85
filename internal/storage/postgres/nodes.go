/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stephenafamo/bob/dialect/psql"

	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// NodeRepository persists node tuples.
type NodeRepository struct {
	Db database.Queryable
}

func (r *NodeRepository) Create(ctx context.Context, node *models.Node) (*models.Node, error) {
	return database.Create[models.Node](ctx, r.Db, *node)
}

func (r *NodeRepository) Get(ctx context.Context, id uuid.UUID) (*models.Node, error) {
	record, err := database.Find[models.Node](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "node '%s' not found", id)
	}
	return record, err
}

func (r *NodeRepository) List(ctx context.Context) ([]models.Node, error) {
	rc := rcontext.FromContext(ctx)
	if rc.Project == "" || rc.IsAdmin {
		return database.FindAll[models.Node](ctx, r.Db)
	}
	expr := psql.Quote("owner_project").EQ(psql.Arg(rc.Project))
	return database.Search[models.Node](ctx, r.Db, expr, "created_at")
}

// ListByCluster returns the cluster's members ordered by index ascending.
func (r *NodeRepository) ListByCluster(ctx context.Context, clusterID uuid.UUID) ([]models.Node, error) {
	expr := psql.Quote("cluster_id").EQ(psql.Arg(clusterID))
	return database.Search[models.Node](ctx, r.Db, expr, "index")
}

func (r *NodeRepository) Update(ctx context.Context, node *models.Node) (*models.Node, error) {
	if node.ID == nil {
		return nil, typederrors.NewValidationError(nil, "node id is required for update")
	}
	record, err := database.Replace[models.Node](ctx, r.Db, *node.ID, *node)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "node '%s' not found", *node.ID)
	}
	return record, err
}

func (r *NodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr := psql.Quote(models.Node{}.PrimaryKey()).EQ(psql.Arg(id))
	count, err := database.Delete[models.Node](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "node '%s' not found", id)
	}
	return nil
}
