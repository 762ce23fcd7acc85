/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stephenafamo/bob/dialect/psql"

	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// BindingRepository persists cluster/policy binding tuples.
type BindingRepository struct {
	Db database.Queryable
}

// Attach stores a new binding.  A duplicate (cluster, policy) pair is
// surfaced as a ConflictError.
func (r *BindingRepository) Attach(ctx context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error) {
	record, err := database.Create[models.ClusterPolicy](ctx, r.Db, *binding)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, typederrors.NewConflictError(err, "policy '%s' is already attached to cluster '%s'",
				binding.PolicyID, binding.ClusterID)
		}
		return nil, err
	}
	return record, nil
}

// Get retrieves the binding for the (cluster, policy) pair or returns a
// NotFoundError.
func (r *BindingRepository) Get(ctx context.Context, clusterID, policyID uuid.UUID) (*models.ClusterPolicy, error) {
	expr := psql.Quote("cluster_id").EQ(psql.Arg(clusterID)).
		And(psql.Quote("policy_id").EQ(psql.Arg(policyID)))
	records, err := database.Search[models.ClusterPolicy](ctx, r.Db, expr)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, typederrors.NewNotFoundError(nil, "policy '%s' is not attached to cluster '%s'",
			policyID, clusterID)
	}
	return &records[0], nil
}

// ListForCluster returns the cluster's bindings ordered by priority
// descending, attach time ascending.
func (r *BindingRepository) ListForCluster(ctx context.Context, clusterID uuid.UUID) ([]models.ClusterPolicy, error) {
	expr := psql.Quote("cluster_id").EQ(psql.Arg(clusterID))
	return database.Search[models.ClusterPolicy](ctx, r.Db, expr, "-priority", "created_at")
}

// ListForPolicy returns all bindings referencing the policy.
func (r *BindingRepository) ListForPolicy(ctx context.Context, policyID uuid.UUID) ([]models.ClusterPolicy, error) {
	expr := psql.Quote("policy_id").EQ(psql.Arg(policyID))
	return database.Search[models.ClusterPolicy](ctx, r.Db, expr, "created_at")
}

// Update rewrites the binding tuple.
func (r *BindingRepository) Update(ctx context.Context, binding *models.ClusterPolicy) (*models.ClusterPolicy, error) {
	if binding.ID == nil {
		return nil, typederrors.NewValidationError(nil, "binding id is required for update")
	}
	record, err := database.Update[models.ClusterPolicy](ctx, r.Db, *binding.ID, *binding)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "binding '%s' not found", *binding.ID)
	}
	return record, err
}

// Detach removes the binding for the (cluster, policy) pair.
func (r *BindingRepository) Detach(ctx context.Context, clusterID, policyID uuid.UUID) error {
	expr := psql.Quote("cluster_id").EQ(psql.Arg(clusterID)).
		And(psql.Quote("policy_id").EQ(psql.Arg(policyID)))
	count, err := database.Delete[models.ClusterPolicy](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "policy '%s' is not attached to cluster '%s'",
			policyID, clusterID)
	}
	return nil
}
