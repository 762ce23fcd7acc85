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
	"github.com/corral-cloud/corral/internal/typederrors"
)

// ActionRepository persists action tuples and their dependency edges.
type ActionRepository struct {
	Db database.Queryable
}

func (r *ActionRepository) Create(ctx context.Context, action *models.Action) (*models.Action, error) {
	return database.Create[models.Action](ctx, r.Db, *action)
}

func (r *ActionRepository) Get(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	record, err := database.Find[models.Action](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "action '%s' not found", id)
	}
	return record, err
}

func (r *ActionRepository) List(ctx context.Context) ([]models.Action, error) {
	return database.Search[models.Action](ctx, r.Db, nil, "created_at")
}

func (r *ActionRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.Action, error) {
	expr := psql.Quote("target_id").EQ(psql.Arg(targetID))
	return database.Search[models.Action](ctx, r.Db, expr, "created_at")
}

// Update rewrites the action tuple.  Terminal actions are frozen; the
// attempt is rejected with a ValidationError.
func (r *ActionRepository) Update(ctx context.Context, action *models.Action) (*models.Action, error) {
	if action.ID == nil {
		return nil, typederrors.NewValidationError(nil, "action id is required for update")
	}
	current, err := r.Get(ctx, *action.ID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalActionStatus(current.Status) && current.Status != action.Status {
		return nil, typederrors.NewValidationError(nil,
			"action '%s' is in terminal status %s", *action.ID, current.Status)
	}
	record, err := database.Replace[models.Action](ctx, r.Db, *action.ID, *action)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "action '%s' not found", *action.ID)
	}
	return record, err
}

// UpdateStatus validates the transition table before writing the new status.
func (r *ActionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, reason string) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil
	}
	if !models.ValidActionTransition(current.Status, status) {
		return typederrors.NewValidationError(nil,
			"invalid action status transition %s -> %s for '%s'", current.Status, status, id)
	}

	sql := `UPDATE action SET status = $2, status_reason = $3, updated_at = CURRENT_TIMESTAMP,
		end_time = CASE WHEN $2 IN ('SUCCEEDED', 'FAILED', 'CANCELLED') THEN CURRENT_TIMESTAMP ELSE end_time END
		WHERE id = $1 AND status = $4`
	tag, err := r.Db.Exec(ctx, sql, id, status, reason, current.Status)
	if err != nil {
		return fmt.Errorf("failed to update status of action '%s': %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Lost a race with a concurrent transition; surface it as invalid.
		return typederrors.NewConflictError(nil,
			"concurrent status change detected for action '%s'", id)
	}
	return nil
}

// MarkReady moves an INIT action to READY.
func (r *ActionRepository) MarkReady(ctx context.Context, id uuid.UUID) error {
	return r.UpdateStatus(ctx, id, models.ActionStatusReady, "")
}

// GetReady returns READY actions ordered by creation time ascending.
func (r *ActionRepository) GetReady(ctx context.Context) ([]models.Action, error) {
	expr := psql.Quote("status").EQ(psql.Arg(models.ActionStatusReady))
	return database.Search[models.Action](ctx, r.Db, expr, "created_at")
}

// AcquireForRun atomically claims a READY action for the worker.
func (r *ActionRepository) AcquireForRun(ctx context.Context, id, workerID uuid.UUID) (bool, error) {
	sql := `UPDATE action SET status = $2, owner = $3, start_time = COALESCE(start_time, CURRENT_TIMESTAMP),
		updated_at = CURRENT_TIMESTAMP WHERE id = $1 AND status = $4`
	tag, err := r.Db.Exec(ctx, sql, id, models.ActionStatusRunning, workerID, models.ActionStatusReady)
	if err != nil {
		return false, fmt.Errorf("failed to claim action '%s': %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// AddDependency declares that parent waits on child: the edge is recorded
// and the parent moves to WAITING.  The child is left in INIT; the spawner
// readies the whole batch once every edge exists, so a half-wired parent
// can never be woken early.
func (r *ActionRepository) AddDependency(ctx context.Context, childID, parentID uuid.UUID) error {
	if childID == parentID {
		return typederrors.NewValidationError(nil, "action '%s' cannot depend on itself", childID)
	}

	edge := models.ActionDependency{ChildID: childID, ParentID: parentID}
	if _, err := database.Create[models.ActionDependency](ctx, r.Db, edge); err != nil {
		return fmt.Errorf("failed to record dependency %s -> %s: %w", childID, parentID, err)
	}

	if _, err := r.Get(ctx, childID); err != nil {
		return err
	}

	parent, err := r.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if parent.Status != models.ActionStatusWaiting && !models.IsTerminalActionStatus(parent.Status) {
		if err := r.UpdateStatus(ctx, parentID, models.ActionStatusWaiting, "Waiting for depended actions"); err != nil {
			return err
		}
	}
	return nil
}

// ListDependencies returns the child ids the given action waits on.
func (r *ActionRepository) ListDependencies(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	rows, _ := r.Db.Query(ctx, `SELECT child_id FROM action_dependency WHERE parent_id = $1`, parentID)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies of '%s': %w", parentID, err)
	}
	return ids, nil
}

// ListDependents returns the parent ids waiting on the given action.
func (r *ActionRepository) ListDependents(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	rows, _ := r.Db.Query(ctx, `SELECT parent_id FROM action_dependency WHERE child_id = $1`, childID)
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("failed to list dependents of '%s': %w", childID, err)
	}
	return ids, nil
}

// SetControl writes the cooperative control signal checked by workers.
func (r *ActionRepository) SetControl(ctx context.Context, id uuid.UUID, control string) error {
	tag, err := r.Db.Exec(ctx, `UPDATE action SET control = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, control)
	if err != nil {
		return fmt.Errorf("failed to signal action '%s': %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return typederrors.NewNotFoundError(nil, "action '%s' not found", id)
	}
	return nil
}
