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

	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/models"
)

// LockRepository persists advisory lock rows.  Each operation is a single
// atomic statement; the busy/steal/orphan policy lives in the engine.
type LockRepository struct {
	Db database.Queryable
}

// ClusterLockAcquire inserts the lock row when free and returns the owning
// action id.  When the row already exists the current owner is returned
// unchanged.
func (r *LockRepository) ClusterLockAcquire(ctx context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error) {
	sql := `INSERT INTO cluster_lock (cluster_id, action_id) VALUES ($1, $2)
		ON CONFLICT (cluster_id) DO UPDATE SET action_id = cluster_lock.action_id
		RETURNING action_id`
	rows, _ := r.Db.Query(ctx, sql, clusterID, actionID)
	owner, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to acquire cluster lock '%s': %w", clusterID, err)
	}
	return owner, nil
}

// ClusterLockRelease removes the lock row when owned by the given action.
func (r *LockRepository) ClusterLockRelease(ctx context.Context, clusterID, actionID uuid.UUID) (bool, error) {
	tag, err := r.Db.Exec(ctx, `DELETE FROM cluster_lock WHERE cluster_id = $1 AND action_id = $2`,
		clusterID, actionID)
	if err != nil {
		return false, fmt.Errorf("failed to release cluster lock '%s': %w", clusterID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClusterLockSteal forcibly replaces the owner and returns the new owner.
func (r *LockRepository) ClusterLockSteal(ctx context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error) {
	sql := `INSERT INTO cluster_lock (cluster_id, action_id) VALUES ($1, $2)
		ON CONFLICT (cluster_id) DO UPDATE SET action_id = EXCLUDED.action_id
		RETURNING action_id`
	rows, _ := r.Db.Query(ctx, sql, clusterID, actionID)
	owner, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to steal cluster lock '%s': %w", clusterID, err)
	}
	return owner, nil
}

// ClusterLockGet returns the lock row, or nil when the cluster is unlocked.
func (r *LockRepository) ClusterLockGet(ctx context.Context, clusterID uuid.UUID) (*models.ClusterLock, error) {
	record, err := database.Find[models.ClusterLock](ctx, r.Db, clusterID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return record, err
}

// NodeLockAcquire appends the action to the node's owner set and returns
// the resulting owners.
func (r *LockRepository) NodeLockAcquire(ctx context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error) {
	sql := `INSERT INTO node_lock (node_id, action_ids) VALUES ($1, ARRAY[$2]::uuid[])
		ON CONFLICT (node_id) DO UPDATE SET action_ids =
			CASE WHEN node_lock.action_ids @> ARRAY[$2]::uuid[] THEN node_lock.action_ids
			     ELSE array_append(node_lock.action_ids, $2) END
		RETURNING action_ids`
	rows, _ := r.Db.Query(ctx, sql, nodeID, actionID)
	owners, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[[]uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to acquire node lock '%s': %w", nodeID, err)
	}
	return owners, nil
}

// NodeLockRelease removes the action from the node's owner set, dropping
// the row when it was the last owner.
func (r *LockRepository) NodeLockRelease(ctx context.Context, nodeID, actionID uuid.UUID) (bool, error) {
	sql := `UPDATE node_lock SET action_ids = array_remove(action_ids, $2)
		WHERE node_id = $1 AND action_ids @> ARRAY[$2]::uuid[]`
	tag, err := r.Db.Exec(ctx, sql, nodeID, actionID)
	if err != nil {
		return false, fmt.Errorf("failed to release node lock '%s': %w", nodeID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := r.Db.Exec(ctx, `DELETE FROM node_lock WHERE node_id = $1 AND action_ids = '{}'`, nodeID); err != nil {
		return false, fmt.Errorf("failed to clear empty node lock '%s': %w", nodeID, err)
	}
	return true, nil
}

// NodeLockSteal forcibly replaces the owner set with the single action.
func (r *LockRepository) NodeLockSteal(ctx context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error) {
	sql := `INSERT INTO node_lock (node_id, action_ids) VALUES ($1, ARRAY[$2]::uuid[])
		ON CONFLICT (node_id) DO UPDATE SET action_ids = ARRAY[$2]::uuid[]
		RETURNING action_ids`
	rows, _ := r.Db.Query(ctx, sql, nodeID, actionID)
	owners, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[[]uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to steal node lock '%s': %w", nodeID, err)
	}
	return owners, nil
}

// NodeLockGet returns the lock row, or nil when the node is unlocked.
func (r *LockRepository) NodeLockGet(ctx context.Context, nodeID uuid.UUID) (*models.NodeLock, error) {
	record, err := database.Find[models.NodeLock](ctx, r.Db, nodeID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return record, err
}
